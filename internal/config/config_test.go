package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, ok := env[name]
		return value, ok
	}
}

func TestPeriodFromEnv(t *testing.T) {
	period, err := PeriodFromEnv(lookupFrom(map[string]string{"YEAR": "2023", "MONTH": "7", "DAY": "0"}))
	require.NoError(t, err)
	require.Equal(t, 2023, period.Year)
	require.Equal(t, 7, period.Month)
	require.Equal(t, 0, period.Day)

	cases := []map[string]string{
		{"MONTH": "7", "DAY": "24"},
		{"YEAR": "2023", "MONTH": "7"},
		{"YEAR": "twenty", "MONTH": "7", "DAY": "24"},
		{"YEAR": "2023", "MONTH": "13", "DAY": "1"},
		{"YEAR": "2023", "MONTH": "0", "DAY": "24"},
		{"YEAR": "", "MONTH": "7", "DAY": "24"},
	}
	for _, env := range cases {
		_, err := PeriodFromEnv(lookupFrom(env))
		require.ErrorIs(t, err, ErrMissingPeriod, env)
	}
}

func TestRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bestsellers.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// the api key is overridden locally
		nyt: { api_key: "placeholder", request_delay: "4s" },
		amazon: { headless: false },
		data: {
			raw_dir: "data/raw",
			processed_dir: "data/processed",
			labels_csv: "data/labels.csv",
		},
		store: { driver: "sqlite", file: "data/bestsellers.db" },
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bestsellers.local.json5"), []byte(`{
		nyt: { api_key: "real-key" },
	}`), 0644))

	config, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, "real-key", config.NYT.ApiKey)
	require.Equal(t, Duration(4*time.Second), config.NYT.RequestDelay)
	require.False(t, config.Amazon.IsHeadless())
	require.Equal(t, "data/raw", config.Data.RawDir)
	require.Equal(t, "sqlite", config.Store.Driver)
}

func TestReadValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bestsellers.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ nyt: { api_key: "key" }, store: { driver: "mysql" } }`), 0644))

	_, err := Read(path)
	require.Error(t, err)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
