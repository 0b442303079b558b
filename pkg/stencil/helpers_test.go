package stencil

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func helperTestData() TemplateData {
	return TemplateData{
		"name":  "hello world",
		"title": "Quarterly results",
		"empty": "",
		"n":     4,
		"price": 1234.5,
		"ratio": 0.875,
		"items": []string{"a", "b", "c"},
		"nums":  []interface{}{1, 2, 3.5},
		"mixed": []interface{}{1, "x", 2},
		"html":  `<b>x</b><script>alert(1)</script>`,
		"user":  map[string]interface{}{"name": "Ann", "roles": []string{"admin"}},
	}
}

func renderHelper(t *testing.T, input string, locale string) (string, []string) {
	t.Helper()
	r := NewRenderer(NewDefaultHelperRegistry(fixedClock), 0)
	return r.Render(input, NewContext(helperTestData()).WithLocale(locale))
}

func TestBuiltinHelpers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// strings
		{"upper", "{{upper name}}", "HELLO WORLD"},
		{"lower literal", `{{lower "ABC"}}`, "abc"},
		{"capitalize", `{{capitalize "hELLO world"}}`, "Hello world"},
		{"titlecase", "{{titlecase name}}", "Hello World"},
		{"truncate", "{{truncate title 9}}", "Quarterly..."},
		{"truncate custom suffix", `{{truncate title 9 "…"}}`, "Quarterly…"},
		{"truncate short value", `{{truncate "short" 10}}`, "short"},
		{"replace", `{{replace name "world" "there"}}`, "hello there"},
		{"default for missing", `{{default missing "n/a"}}`, "n/a"},
		{"default for empty", `{{default empty "n/a"}}`, "n/a"},
		{"default keeps value", `{{default name "n/a"}}`, "hello world"},

		// math
		{"add", "{{add 2 3}}", "5"},
		{"subtract", "{{subtract 2 3.5}}", "-1.5"},
		{"multiply variable", "{{multiply n 2.5}}", "10"},
		{"divide", "{{divide 1 4}}", "0.25"},
		{"divide by zero", "{{divide 4 0}}", InfinitySentinel},
		{"non-numeric operand", "{{add name 1}}", ""},
		{"round half away from zero", "{{round 2.5}}", "3"},
		{"round negative", "{{round -2.5}}", "-3"},
		{"round places", "{{round 1.2345 2}}", "1.23"},
		{"sum", "{{sum nums}}", "6.5"},
		{"sum skips strings", "{{sum mixed}}", "3"},

		// comparison
		{"eq int and float", "{{eq 1 1.0}}", "true"},
		{"eq numeric string", `{{eq "10" 10}}`, "true"},
		{"eq strings", `{{eq "a" "a"}}`, "true"},
		{"eq string and bool", `{{eq "true" true}}`, "false"},
		{"eq unresolved", "{{eq missing missing}}", "false"},
		{"ne unresolved", "{{ne missing 1}}", "true"},
		{"gt", "{{gt n 3}}", "true"},
		{"lt non-numeric", `{{lt "b" "a"}}`, "false"},
		{"gte equal", "{{gte 2 2}}", "true"},
		{"lte", "{{lte 3 2}}", "false"},

		// lists
		{"length list", "{{length items}}", "3"},
		{"length string counts runes", `{{length "größe"}}`, "5"},
		{"length map", "{{length user}}", "2"},
		{"length missing", "{{length missing}}", "0"},
		{"first", "{{first items}}", "a"},
		{"last", "{{last items}}", "c"},
		{"first missing", "{{first missing}}", ""},
		{"join default separator", "{{join items}}", "a, b, c"},
		{"join separator", `{{join items " | "}}`, "a | b | c"},
		{"nested list", "{{join user.roles}}", "admin"},

		// formatting
		{"formatNumber", "{{formatNumber price 2}}", "1,234.50"},
		{"formatNumber no places", "{{formatNumber 1234567}}", "1,234,567"},
		{"percent", "{{percent ratio 1}}", "87.5%"},
		{"percent whole", "{{percent 1}}", "100%"},
		{"escape", "{{escape html}}", "&lt;b&gt;x&lt;/b&gt;&lt;script&gt;alert(1)&lt;/script&gt;"},
		{"sanitize", "{{sanitize html}}", "<b>x</b>"},

		// time
		{"now", "{{now}}", "2024-03-15T09:30:00Z"},
		{"now pattern", `{{now "yyyy"}}`, "2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := renderHelper(t, tt.input, "")
			assert.Equal(t, tt.want, got)
			assert.Empty(t, warnings)
		})
	}
}

func TestHelperNumericArgumentBounds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"truncate huge length", `{{truncate "abc" 99999999999999999999}}`, "abc"},
		{"truncate huge negative length", `{{truncate "abc" -99999999999999999999}}`, "..."},
		{"round huge places", "{{round 2.5 400}}", "2.500000000000000"},
		{"round overflowing places", "{{round 2.5 99999999999999999999}}", "2.500000000000000"},
		{"round negative places", "{{round 1.2345 -3}}", "1"},
		{"formatNumber huge places", "{{formatNumber 2 400}}", "2.000000000000000"},
		{"percent negative places", "{{percent 0.5 -7}}", "50%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := renderHelper(t, tt.input, "")
			assert.Equal(t, tt.want, got)
			assert.Empty(t, warnings)
		})
	}

	huge := strings.Repeat("9", 300) + ".0"
	n, err := strconv.ParseFloat(huge, 64)
	require.NoError(t, err)
	got, warnings := renderHelper(t, "{{round "+huge+" 15}}", "")
	assert.Empty(t, warnings)
	assert.Equal(t, strconv.FormatFloat(n, 'f', 15, 64), got)
}

func TestHelpersUseLocale(t *testing.T) {
	got, _ := renderHelper(t, "{{formatNumber price 2}}", "de")
	assert.Equal(t, "1.234,50", got)

	got, _ = renderHelper(t, `{{upper "istanbul"}}`, "tr")
	assert.Equal(t, "İSTANBUL", got)
}

func TestHelperArity(t *testing.T) {
	got, warnings := renderHelper(t, "[{{upper a b}}]", "")
	assert.Equal(t, "[]", got)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "accepts at most 1 arguments, got 2")

	got, warnings = renderHelper(t, "[{{replace name}}]", "")
	assert.Equal(t, "[]", got)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "requires at least 3 arguments, got 1")
}

func TestHelperRegistry(t *testing.T) {
	r := NewHelperRegistry()
	assert.Empty(t, r.Names())

	require.NoError(t, r.Register(NewSimpleHelper("shout", 1, 1, func(args []string, ctx *Context) string {
		return argString(args[0], ctx) + "!"
	})))
	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(NewSimpleHelper("", 0, 0, nil)))

	h, ok := r.Lookup("shout")
	require.True(t, ok)
	assert.Equal(t, "hi!", h.Call([]string{`"hi"`}, NewContext(nil)))
	assert.Equal(t, 1, h.MinArgs())
	assert.Equal(t, 1, h.MaxArgs())

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestDefaultHelperNames(t *testing.T) {
	names := NewDefaultHelperRegistry(nil).Names()
	for _, name := range []string{
		"formatDate", "now", "upper", "lower", "capitalize", "titlecase", "truncate",
		"replace", "default", "add", "subtract", "multiply", "divide", "round", "sum",
		"eq", "ne", "gt", "lt", "gte", "lte", "length", "first", "last", "join",
		"formatNumber", "percent", "escape", "sanitize",
	} {
		assert.Contains(t, names, name)
	}
	assert.IsIncreasing(t, names)
}

func TestCheckArity(t *testing.T) {
	variadic := NewSimpleHelper("v", 1, -1, func([]string, *Context) string { return "" })
	assert.NoError(t, checkArity(variadic, []string{"a", "b", "c", "d"}))

	err := checkArity(variadic, nil)
	require.Error(t, err)
	assert.True(t, IsHelperError(err))
}
