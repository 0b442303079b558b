package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/benjaminschreck/reportstencil/pkg/stencil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores the flag variables; cobra keeps them between Execute calls.
func resetFlags() {
	verbosity = 0
	configFile = ""
	themesFile = ""
	messagesFile = ""

	renderData = ""
	renderOut = ""
	renderLocale = ""
	renderTheme = ""
	renderLayouts = nil
	renderStrict = false
	renderWarnings = true

	validateJSON = false
	validateMaxIssues = 0
	validateQuiet = false
}

func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	// A config path that does not exist keeps the user's config out of the test.
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "config.toml")))

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestValidateCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"good.tmpl": "Hello {{name}}",
		"bad.tmpl":  "{{#if a}}x{{/each}}",
	})
	good := filepath.Join(dir, "good.tmpl")

	t.Run("valid file", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "validate", good)
		require.NoError(t, err)
		assert.Contains(t, stdout, "good.tmpl")
		assert.Contains(t, stdout, "POTENTIALLY_UNDEFINED")
	})

	t.Run("quiet hides non-errors", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "validate", "--quiet", good)
		require.NoError(t, err)
		assert.Contains(t, stdout, "✓")
		assert.NotContains(t, stdout, "POTENTIALLY_UNDEFINED")
	})

	t.Run("errors fail the command", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "validate", filepath.Join(dir, "*.tmpl"))
		require.Error(t, err)
		assert.Equal(t, "1 of 2 templates have errors", err.Error())
		assert.Contains(t, stdout, "CONTROL_BLOCK_MISMATCH")
	})

	t.Run("json with max issues", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "validate", "--json", "--max-issues", "1", filepath.Join(dir, "*.tmpl"))
		require.Error(t, err)

		var reports []struct {
			Path   string                   `json:"path"`
			Report stencil.ValidationReport `json:"report"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &reports), stdout)
		require.Len(t, reports, 2)

		bad := reports[0]
		assert.Equal(t, filepath.Join(dir, "bad.tmpl"), bad.Path)
		assert.False(t, bad.Report.Valid)
		assert.True(t, bad.Report.IssuesTruncated)
		require.Len(t, bad.Report.Issues, 1)
		assert.Equal(t, stencil.IssueCodeControlBlockMismatch, bad.Report.Issues[0].Code)
		assert.Equal(t, 2, bad.Report.Summary.ErrorCount)
		assert.Equal(t, 1, bad.Report.Summary.ReturnedIssueCount)

		assert.Equal(t, good, reports[1].Path)
		assert.True(t, reports[1].Report.Valid)
	})

	t.Run("pattern without matches", func(t *testing.T) {
		_, _, err := executeCommand(t, "validate", filepath.Join(dir, "*.none"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no files match")
	})
}

func TestRenderCommand(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"layouts/base.html.tmpl": "<main>{{block:content}}</main>",
		"page.html.tmpl":         `{{extends "base"}}{{block content}}Hi {{upper name}}{{/block}}`,
		"loose.tmpl":             "Hi {{missing}}",
		"data.yaml":              "name: ada\n",
	})
	page := filepath.Join(dir, "page.html.tmpl")
	layouts := filepath.Join(dir, "layouts", "**", "*.tmpl")
	data := filepath.Join(dir, "data.yaml")

	t.Run("layout glob and data", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "render", page, "--layouts", layouts, "--data", data)
		require.NoError(t, err)
		assert.Equal(t, "<main>Hi ADA</main>", stdout)
	})

	t.Run("missing layout", func(t *testing.T) {
		_, _, err := executeCommand(t, "render", page, "--data", data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `template "base" not found`)
	})

	t.Run("output file", func(t *testing.T) {
		out := filepath.Join(dir, "out", "page.html")
		stdout, _, err := executeCommand(t, "render", page, "--layouts", layouts, "-d", data, "-o", out)
		require.NoError(t, err)
		assert.Empty(t, stdout)

		written, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "<main>Hi ADA</main>", string(written))
	})

	t.Run("warnings are printed", func(t *testing.T) {
		stdout, stderr, err := executeCommand(t, "render", filepath.Join(dir, "loose.tmpl"))
		require.NoError(t, err)
		assert.Equal(t, "Hi {{missing}}", stdout)
		assert.Contains(t, stderr, `unresolved variable "missing"`)
	})

	t.Run("strict mode fails on warnings", func(t *testing.T) {
		stdout, _, err := executeCommand(t, "render", filepath.Join(dir, "loose.tmpl"), "--strict")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `strict mode: unresolved variable "missing"`)
		assert.Empty(t, stdout)
	})
}

func TestHelpersAndVersionCommands(t *testing.T) {
	stdout, _, err := executeCommand(t, "helpers")
	require.NoError(t, err)
	assert.Contains(t, stdout, "formatDate\n")
	assert.Contains(t, stdout, "truncate\n")

	stdout, _, err = executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "stencil version dev")
}
