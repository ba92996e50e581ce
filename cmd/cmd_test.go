package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/jsxlive/internal/version"
)

const cardSource = `import React from 'react';

// A small card.
export default function Card({ title }) {
  return <div className="card"><h2>{title}</h2></div>;
}
`

// execute runs the root command with args and stdin, then restores every
// flag to its default so later runs start clean.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()

	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestNormalizeCommand(t *testing.T) {
	stdout, stderr, err := execute(t, cardSource, "normalize", "-", "--trace", "--resolve")
	require.NoError(t, err)

	assert.NotContains(t, stdout, "import")
	assert.NotContains(t, stdout, "export")
	assert.Contains(t, stdout, "function Card({ title })")
	assert.Contains(t, stderr, "strip-imports")
	assert.Contains(t, stderr, "Component: Card (function)")
}

func TestStyleCommand(t *testing.T) {
	t.Run("prints the edited stylesheet", func(t *testing.T) {
		path := writeTemp(t, "card.css", ".card { padding: 4px; }\n")

		stdout, _, err := execute(t, "", "style", "--css", path, "--class", "card", "--property", "padding", "--value", "20")
		require.NoError(t, err)
		assert.Contains(t, stdout, "padding: 20px;")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, ".card { padding: 4px; }\n", string(data))
	})

	t.Run("writes back", func(t *testing.T) {
		path := writeTemp(t, "card.css", ".card { padding: 4px; }\n")

		_, _, err := execute(t, "", "style", "--css", path, "--class", "card",
			"--property", "backgroundColor", "--value", "#fff", "--write")
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "background-color: #fff;")
		assert.Contains(t, string(data), "padding: 4px;")
	})

	t.Run("shows declarations", func(t *testing.T) {
		path := writeTemp(t, "card.css", ".card { padding: 4px; color: red; }\n")

		stdout, _, err := execute(t, "", "style", "--css", path, "--class", "card", "--show", "-o", "json")
		require.NoError(t, err)

		var decls map[string]string
		require.NoError(t, json.Unmarshal([]byte(stdout), &decls))
		assert.Equal(t, map[string]string{"padding": "4px", "color": "red"}, decls)
	})

	t.Run("missing property", func(t *testing.T) {
		_, _, err := execute(t, ".card {}", "style", "--class", "card")
		assert.Error(t, err)
	})

	t.Run("unknown rule", func(t *testing.T) {
		_, _, err := execute(t, ".card {}", "style", "--class", "hero", "--show")
		assert.Error(t, err)
	})
}

func TestBuildCommand(t *testing.T) {
	t.Run("document to stdout", func(t *testing.T) {
		stdout, _, err := execute(t, cardSource, "build", "-", "--generation", "gen-1")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(strings.TrimSpace(stdout), "<!DOCTYPE html>"), stdout[:min(len(stdout), 80)])
		assert.Contains(t, stdout, "gen-1")
		assert.Contains(t, stdout, "function Card(")
	})

	t.Run("inspect", func(t *testing.T) {
		stdout, _, err := execute(t, cardSource, "build", "-", "--inspect", "-o", "json")
		require.NoError(t, err)

		var info struct {
			Component string   `json:"component"`
			Detector  string   `json:"detector"`
			Steps     []string `json:"steps"`
			Bytes     int      `json:"bytes"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &info))
		assert.Equal(t, "Card", info.Component)
		assert.Equal(t, "function", info.Detector)
		assert.Contains(t, info.Steps, "strip-exports")
		assert.Positive(t, info.Bytes)
	})

	t.Run("to file", func(t *testing.T) {
		jsx := writeTemp(t, "Card.jsx", cardSource)
		out := filepath.Join(t.TempDir(), "preview.html")

		_, stderr, err := execute(t, "", "build", jsx, "--out", out)
		require.NoError(t, err)
		assert.Contains(t, stderr, "Wrote "+out)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), "function Card(")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, "", "build", filepath.Join(t.TempDir(), "nope.jsx"))
		assert.Error(t, err)
	})
}

func TestPropsCommand(t *testing.T) {
	overrides := writeTemp(t, "props.yml", "title: Pricing\nonSelect: true\n")

	stdout, _, err := execute(t, "", "props", "--props", overrides, "-o", "json")
	require.NoError(t, err)

	var out struct {
		Values    map[string]interface{} `json:"values"`
		Callbacks []string               `json:"callbacks"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "Pricing", out.Values["title"])
	assert.Contains(t, out.Callbacks, "onClick")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "", "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.GetShortVersion()+"\n", stdout)

	stdout, _, err = execute(t, "", "version", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"version"`)

	stdout, _, err = execute(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, version.GetVersion())
}

func TestSessionsCommand(t *testing.T) {
	stdout, _, err := execute(t, "", "sessions", "list", "--session-driver", "memory")
	require.NoError(t, err)
	assert.Equal(t, "No sessions\n", stdout)

	_, _, err = execute(t, "", "sessions", "show", "missing", "--session-driver", "memory")
	assert.Error(t, err)
}

func TestUnsupportedFormat(t *testing.T) {
	_, _, err := execute(t, "", "props", "-o", "xml")
	assert.Error(t, err)
}
