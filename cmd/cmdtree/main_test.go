package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/cmdtree/pkg/adapters/outline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cmdtree version ")
}

func TestRenderCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "commands.json")
	require.NoError(t, os.WriteFile(payload, []byte(`{"subsystems":[{"name":"Intake","command":{"name":"Spin","active":true}}],"scheduled":[]}`), 0644))

	out, err := run(t, "render",
		"--config", filepath.Join(dir, "absent.yaml"),
		"--source", "file",
		"--path", payload,
		"--state", "memory",
		"--log-level", "error",
		"--format", "json",
	)
	require.NoError(t, err)

	var elements []*outline.Element
	require.NoError(t, json.Unmarshal([]byte(out), &elements))
	require.Len(t, elements, 1)
	assert.Equal(t, "Intake", elements[0].Title)
	require.Len(t, elements[0].Children, 1)
	assert.True(t, elements[0].Children[0].Active)
}

func TestRenderCommand_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "render",
		"--config", filepath.Join(dir, "absent.yaml"),
		"--source", "memory",
		"--state", "memory",
		"--log-level", "error",
		"--format", "svg",
	)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "views", "list",
		"--config", filepath.Join(dir, "absent.yaml"),
		"--source", "carrier-pigeon",
	)
	assert.Error(t, err)
}
