package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeModel(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPasses(t *testing.T) {
	out, err := execute(t, "passes")
	require.NoError(t, err)
	assert.Contains(t, out, "1. topdown")
	assert.Contains(t, out, "6. erase_opt")
}

func TestLowerSeveralFiles(t *testing.T) {
	first := writeModel(t, "first.yaml", `
items:
  - decl: o
    type: opt int
    def: "<>"
`)
	second := writeModel(t, "second.yaml", `
items:
  - enum: Colour
    cases: [Red, Green]
  - decl: c
    type: Colour
    def: Green
`)
	out, err := execute(t, "lower", "--until", "erase_opt", first, second)
	require.NoError(t, err)
	assert.Contains(t, out, "% "+first+" (erase_opt)")
	assert.Contains(t, out, "o = (false, 0);")
	assert.Contains(t, out, "% "+second+" (erase_opt)")
	assert.Contains(t, out, "mzn_enum_Colour")
	assert.Less(t, bytes.Index([]byte(out), []byte(first)), bytes.Index([]byte(out), []byte(second)))
}

func TestLowerReportsFileErrors(t *testing.T) {
	bad := writeModel(t, "bad.yaml", `
items:
  - decl: x
    type: int
    def: y + 1
`)
	_, err := execute(t, "lower", "--until", "topdown", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lowering "+bad)
	assert.Contains(t, err.Error(), "undefined identifier `y`")
}

func TestLowerRejectsUnknownStage(t *testing.T) {
	path := writeModel(t, "model.yaml", "items: []\n")
	_, err := execute(t, "lower", "--until", "inline", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}
