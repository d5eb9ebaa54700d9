package fuzzing

import (
	"context"
	"nytbestsellers/internal/components/telemetry"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	path, err := ParsePath("42:100")
	require.NoError(t, err)
	require.Equal(t, Path{Seed: 42, Steps: 100}, path)
	require.Equal(t, "42:100", path.String())

	for _, text := range []string{"", "42", "a:1", "1:b"} {
		_, err := ParsePath(text)
		require.Error(t, err, text)
	}
}

func TestRandomSwitch(t *testing.T) {
	rndm := newRand(1)
	choose := RandomSwitch(1, 3)
	counts := [2]int{}
	for range 1000 {
		counts[choose(rndm)]++
	}
	require.Greater(t, counts[1], counts[0])
	require.Equal(t, 1000, counts[0]+counts[1])
}

func TestLoaderTargetSteps(t *testing.T) {
	steps, onEnd := getTargetMethods(&loaderTarget{})
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	require.ElementsMatch(t, []string{"StepConflictingID", "StepConflictingURL", "StepExtend", "StepLoadNew", "StepReload"}, names)
	require.True(t, onEnd.Func.IsValid())
}

func TestLoaderPaths(t *testing.T) {
	f, err := New(telemetry.NoopAPI{}, LoaderProvider{}, 10, 60)
	require.NoError(t, err)

	for seed := uint64(1); seed <= 20; seed++ {
		path := Path{Seed: seed, Steps: 60}
		results, err := f.RunPath(context.Background(), telemetry.NoopAPI{}, path)
		require.NoError(t, err, path.String())
		require.Empty(t, results.Failures(), path.String())
	}
}
