package stencil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeSetBuiltins(t *testing.T) {
	ts := NewThemeSet()

	assert.Equal(t, []string{"dark", "default", "high-contrast"}, ts.Names())

	v, ok := ts.Lookup("dark", "background")
	require.True(t, ok)
	assert.Equal(t, "#0f172a", v)

	// Unknown themes fall back to the default palette.
	assert.Equal(t, DefaultThemeName, ts.Resolve("neon"))
	v, ok = ts.Lookup("neon", "primary")
	require.True(t, ok)
	assert.Equal(t, "#2563eb", v)

	_, ok = ts.Lookup("default", "no-such-key")
	assert.False(t, ok)
}

func TestThemeSetApply(t *testing.T) {
	ts := NewThemeSet()

	out, missing := ts.Apply(`<p style="color: {{theme:failure}}">{{name}} {{theme:nope}} {{theme:nope}}</p>`, "default")
	assert.Equal(t, `<p style="color: #dc2626">{{name}} {{theme:nope}} {{theme:nope}}</p>`, out)
	assert.Equal(t, []string{"nope"}, missing)

	out, missing = ts.Apply("no tokens", "dark")
	assert.Equal(t, "no tokens", out)
	assert.Empty(t, missing)
}

func TestThemeSetAddMerges(t *testing.T) {
	ts := NewThemeSet()
	ts.Add("default", Palette{"primary": "#000000", "accent": "#ff00ff"})
	ts.Add("corporate", Palette{"primary": "#003366"})

	v, _ := ts.Lookup("default", "primary")
	assert.Equal(t, "#000000", v)
	v, _ = ts.Lookup("default", "success")
	assert.Equal(t, "#16a34a", v, "existing keys are kept")
	v, _ = ts.Lookup("corporate", "primary")
	assert.Equal(t, "#003366", v)

	// Built-in palettes are copied per set.
	other := NewThemeSet()
	v, _ = other.Lookup("default", "primary")
	assert.Equal(t, "#2563eb", v)
}

func TestThemeSetLoadFile(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "themes.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
[corporate]
primary = "#003366"
radius = 4
`), 0644))

	yamlPath := filepath.Join(dir, "themes.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
dark:
  primary: "#ffffff"
`), 0644))

	ts := NewThemeSet()
	require.NoError(t, ts.LoadFile(tomlPath))
	require.NoError(t, ts.LoadFile(yamlPath))

	v, _ := ts.Lookup("corporate", "primary")
	assert.Equal(t, "#003366", v)
	v, _ = ts.Lookup("corporate", "radius")
	assert.Equal(t, "4", v)
	v, _ = ts.Lookup("dark", "primary")
	assert.Equal(t, "#ffffff", v)

	assert.Error(t, ts.LoadFile(filepath.Join(dir, "missing.toml")))

	badPath := filepath.Join(dir, "themes.ini")
	require.NoError(t, os.WriteFile(badPath, []byte("x=1"), 0644))
	assert.Error(t, ts.LoadFile(badPath))
}
