package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name  string `json:"name" validate:"required"`
	Port  int    `json:"port"`
	Inner struct {
		Flag bool `json:"flag"`
	} `json:"inner"`
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestSplitExt(t *testing.T) {
	testCases := []struct {
		in     string
		prefix string
		ext    string
	}{
		{in: "config.json5", prefix: "config", ext: "json5"},
		{in: "a.b.json5", prefix: "a.b", ext: "json5"},
		{in: "noext", prefix: "noext", ext: ""},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			prefix, ext := splitExt(tc.in)
			require.Equal(t, tc.prefix, prefix)
			require.Equal(t, tc.ext, ext)
		})
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "service.json5")
	writeFile(t, path, `{
		// comments are allowed
		name: "base",
		port: 80,
	}`)

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "base", config.Name)
	require.Equal(t, 80, config.Port)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "service.json5")
	writeFile(t, path, `{ name: "base", port: 80 }`)
	writeFile(t, filepath.Join(dir, "service.local.json5"), `{ port: 8080, inner: { flag: true } }`)

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "base", config.Name)
	require.Equal(t, 8080, config.Port)
	require.True(t, config.Inner.Flag)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "service.local.json5"), `{ name: "local" }`)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "service.json5"))
	require.NoError(t, err)
	require.Equal(t, "local", config.Name)
}

func TestReadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadConfig[testConfig](filepath.Join(dir, "missing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)

	invalid := filepath.Join(dir, "invalid.json5")
	writeFile(t, invalid, `{ port: 1 }`)
	_, err = ReadConfig[testConfig](invalid)
	require.Error(t, err)
	require.Contains(t, err.Error(), "validate")

	malformed := filepath.Join(dir, "malformed.json5")
	writeFile(t, malformed, `{ name: `)
	_, err = ReadConfig[testConfig](malformed)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse")
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	writeFile(t, filepath.Join(root, "found.json5"), `{ name: "root" }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() {
		os.Chdir(wd)
	})

	config, err := ReadRecursively[testConfig]("found.json5")
	require.NoError(t, err)
	require.Equal(t, "root", config.Name)
}
