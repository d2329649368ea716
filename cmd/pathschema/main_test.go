package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPrintsSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, run(nil, &buf))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Terrain path spec", doc["title"])
}

func TestRunWritesSchema(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "schemas")
	out := filepath.Join(dir, "spec.schema.json")
	var buf bytes.Buffer
	require.NoError(t, run([]string{"-out", out}, &buf))
	assert.Zero(t, buf.Len())

	want, err := encodeSchema()
	require.NoError(t, err)
	have, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, have)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestRunCheck(t *testing.T) {
	out := filepath.Join(t.TempDir(), "spec.schema.json")
	require.NoError(t, run([]string{"-out", out}, nil))
	require.NoError(t, run([]string{"-check", "-out", out}, nil))

	require.NoError(t, os.WriteFile(out, []byte("{}\n"), 0o644))
	assert.ErrorIs(t, run([]string{"-check", "-out", out}, nil), errStale)

	assert.ErrorIs(t, run([]string{"-check", "-out", filepath.Join(t.TempDir(), "none.json")}, nil), os.ErrNotExist)
	assert.Error(t, run([]string{"-check"}, nil))
}
