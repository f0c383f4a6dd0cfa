package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Decapture)
	assert.Equal(t, OutputPretty, cfg.Output)
}

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
until: erase_enum
decapture: false
verbosity: 2
output: summary
builtins: true
`))
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Until:     "erase_enum",
		Decapture: false,
		Verbosity: 2,
		Output:    OutputSummary,
		Builtins:  true,
	}, cfg)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, "verbosity: 1\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Decapture)
	assert.Equal(t, OutputPretty, cfg.Output)
	assert.Equal(t, 1, cfg.Verbosity)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("ZINC_UNTIL", "desugar")
	t.Setenv("ZINC_OUTPUT", "summary")
	t.Setenv("ZINC_DECAPTURE", "false")
	t.Setenv("ZINC_VERBOSITY", "3")

	cfg, err := Load(writeConfig(t, "until: specialise\n"))
	require.NoError(t, err)
	assert.Equal(t, "desugar", cfg.Until)
	assert.Equal(t, OutputSummary, cfg.Output)
	assert.False(t, cfg.Decapture)
	assert.Equal(t, 3, cfg.Verbosity)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "output: html\n"))
	assert.ErrorContains(t, err, `unknown output mode "html"`)

	_, err = Load(writeConfig(t, "verbosity: [1]\n"))
	assert.ErrorContains(t, err, "parsing config")

	t.Setenv("ZINC_DECAPTURE", "maybe")
	_, err = Load(writeConfig(t, ""))
	assert.ErrorContains(t, err, "ZINC_DECAPTURE")
}
