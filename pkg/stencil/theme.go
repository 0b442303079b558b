package stencil

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// DefaultThemeName is the palette used for unknown or empty theme identifiers.
const DefaultThemeName = "default"

// Palette maps theme keys to style values, e.g. "primary" -> "#2563eb".
type Palette map[string]string

var builtinThemes = map[string]Palette{
	"default": {
		"primary":    "#2563eb",
		"secondary":  "#64748b",
		"success":    "#16a34a",
		"failure":    "#dc2626",
		"warning":    "#d97706",
		"skipped":    "#6b7280",
		"background": "#ffffff",
		"surface":    "#f8fafc",
		"text":       "#111827",
		"border":     "#e5e7eb",
		"font":       "Inter, Helvetica, Arial, sans-serif",
		"font-mono":  "Menlo, Consolas, monospace",
	},
	"dark": {
		"primary":    "#60a5fa",
		"secondary":  "#94a3b8",
		"success":    "#4ade80",
		"failure":    "#f87171",
		"warning":    "#fbbf24",
		"skipped":    "#9ca3af",
		"background": "#0f172a",
		"surface":    "#1e293b",
		"text":       "#f1f5f9",
		"border":     "#334155",
		"font":       "Inter, Helvetica, Arial, sans-serif",
		"font-mono":  "Menlo, Consolas, monospace",
	},
	"high-contrast": {
		"primary":    "#0000ff",
		"secondary":  "#000000",
		"success":    "#006400",
		"failure":    "#b00000",
		"warning":    "#7a4a00",
		"skipped":    "#333333",
		"background": "#ffffff",
		"surface":    "#ffffff",
		"text":       "#000000",
		"border":     "#000000",
		"font":       "Verdana, Arial, sans-serif",
		"font-mono":  "Courier New, monospace",
	},
}

// ThemeSet holds the named palettes used to fill {{theme:key}} tokens.
type ThemeSet struct {
	mu       sync.RWMutex
	palettes map[string]Palette
}

// NewThemeSet creates a set holding the built-in default, dark and
// high-contrast palettes.
func NewThemeSet() *ThemeSet {
	ts := &ThemeSet{palettes: make(map[string]Palette, len(builtinThemes))}
	for name, palette := range builtinThemes {
		ts.palettes[name] = maps.Clone(palette)
	}
	return ts
}

// Add merges palette into the theme called name, creating it if needed. Keys
// already present are overwritten.
func (ts *ThemeSet) Add(name string, palette Palette) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	existing, ok := ts.palettes[name]
	if !ok {
		existing = make(Palette, len(palette))
		ts.palettes[name] = existing
	}
	maps.Copy(existing, palette)
}

// Names returns the theme names, sorted.
func (ts *ThemeSet) Names() []string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return slices.Sorted(maps.Keys(ts.palettes))
}

// Resolve returns the theme name that will be used for name: name itself when it
// exists, otherwise the default theme.
func (ts *ThemeSet) Resolve(name string) string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	if _, ok := ts.palettes[name]; ok {
		return name
	}
	return DefaultThemeName
}

// Lookup returns the value of key in the resolved theme.
func (ts *ThemeSet) Lookup(theme, key string) (string, bool) {
	resolved := ts.Resolve(theme)

	ts.mu.RLock()
	defer ts.mu.RUnlock()
	value, ok := ts.palettes[resolved][key]
	return value, ok
}

// Apply replaces every {{theme:key}} token in text with the value from theme.
// Unknown keys leave the token as written and are returned as missing.
func (ts *ThemeSet) Apply(text, theme string) (string, []string) {
	return substituteTableTokens(text, TokenTheme, func(key string) (string, bool) {
		return ts.Lookup(theme, key)
	})
}

// LoadFile merges the themes of a YAML, TOML or JSON document into the set. The
// document maps theme names to key/value tables:
//
//	[corporate]
//	primary = "#003366"
func (ts *ThemeSet) LoadFile(path string) error {
	themes, err := LoadThemes(path)
	if err != nil {
		return err
	}
	for name, palette := range themes {
		ts.Add(name, palette)
	}
	return nil
}

// LoadThemes reads theme palettes from a YAML, TOML or JSON file.
func LoadThemes(path string) (map[string]Palette, error) {
	raw := make(map[string]map[string]interface{})
	if err := decodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to load themes: %w", err)
	}
	themes := make(map[string]Palette, len(raw))
	for name, entries := range raw {
		palette := make(Palette, len(entries))
		for key, value := range entries {
			palette[key] = FormatValue(value)
		}
		themes[name] = palette
	}
	return themes, nil
}

// substituteTableTokens rewrites the tokens of type typ found in text using
// lookup. It returns the rewritten text and the keys lookup did not know, each
// reported once.
func substituteTableTokens(text string, typ TokenType, lookup func(key string) (string, bool)) (string, []string) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	var out strings.Builder
	out.Grow(len(text))
	var missing []string

	for _, tok := range Tokenize(text) {
		if tok.Type != typ {
			out.WriteString(tok.Raw)
			continue
		}
		value, ok := lookup(tok.Value)
		if !ok {
			if !slices.Contains(missing, tok.Value) {
				missing = append(missing, tok.Value)
			}
			out.WriteString(tok.Raw)
			continue
		}
		out.WriteString(value)
	}

	return out.String(), missing
}
