package nyt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeriodDates(t *testing.T) {
	testCases := []struct {
		name     string
		period   Period
		expected []string
	}{
		{
			name:     "single day",
			period:   Period{Year: 2023, Month: 7, Day: 24},
			expected: []string{"2023-07-24"},
		},
		{
			name:   "month",
			period: Period{Year: 2023, Month: 7},
			expected: []string{
				"2023-07-03",
				"2023-07-10",
				"2023-07-17",
				"2023-07-24",
				"2023-07-31",
			},
		},
		{
			name:   "december includes the first monday of next year",
			period: Period{Year: 2023, Month: 12},
			expected: []string{
				"2023-12-04",
				"2023-12-11",
				"2023-12-18",
				"2023-12-25",
				"2024-01-01",
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, test.period.Dates())
		})
	}
}

func TestPeriodDatesWholeYear(t *testing.T) {
	dates := Period{Year: 2018}.Dates()
	require.Len(t, dates, 53)
	require.Equal(t, "2018-01-01", dates[0])
	require.Equal(t, "2018-12-31", dates[len(dates)-1])
}
