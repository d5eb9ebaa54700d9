package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLongDate(t *testing.T) {
	date, err := ParseLongDate(" July  24, 2023 ")
	require.NoError(t, err)
	require.Equal(t, "2023-07-24", date)

	_, err = ParseLongDate("24/07/2023")
	require.Error(t, err)
}

func TestNormalizeTitle(t *testing.T) {
	require.Equal(t, "lessons in chemistry a novel", NormalizeTitle("Lessons in Chemistry: A Novel"))
	require.Equal(t, "its not summer", NormalizeTitle("  IT'S NOT   SUMMER "))
}

func TestNonEmptyLines(t *testing.T) {
	require.Equal(t, []string{"5.0 out of 5 stars", "Loved it"}, NonEmptyLines("5.0 out of 5 stars\n\n  \n  Loved it\n"))
	require.Nil(t, NonEmptyLines("  \n "))
}
