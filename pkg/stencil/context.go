package stencil

import "maps"

// TemplateData represents the variable mapping available while rendering.
//
// Values are limited to strings, numbers, booleans, lists and nested maps:
//
//	data := TemplateData{
//	    "suite":  "checkout",
//	    "passed": 41,
//	    "cases": []interface{}{
//	        map[string]interface{}{"name": "login", "status": "passed"},
//	    },
//	}
//
// Any other value type is treated as not found by the resolver.
type TemplateData map[string]interface{}

// Loop-scoped variable names added to every iteration context.
const (
	LoopThis  = "this"
	LoopIndex = "@index"
	LoopFirst = "@first"
	LoopLast  = "@last"
	LoopTotal = "@total"
)

// Context is the variable environment of one render call.
type Context struct {
	Data     TemplateData
	Locale   string
	Theme    string
	Metadata map[string]interface{}

	depth int
}

// NewContext creates a render context over data.
func NewContext(data TemplateData) *Context {
	if data == nil {
		data = TemplateData{}
	}
	return &Context{
		Data:     data,
		Metadata: make(map[string]interface{}),
	}
}

// WithLocale returns a copy of the context with the locale set.
func (c *Context) WithLocale(locale string) *Context {
	cp := *c
	cp.Locale = locale
	return &cp
}

// WithTheme returns a copy of the context with the theme set.
func (c *Context) WithTheme(theme string) *Context {
	cp := *c
	cp.Theme = theme
	return &cp
}

// Depth reports the loop nesting level of the context.
func (c *Context) Depth() int {
	return c.depth
}

// Lookup returns the raw value stored under name.
func (c *Context) Lookup(name string) (interface{}, bool) {
	if c == nil || c.Data == nil {
		return nil, false
	}
	v, ok := c.Data[name]
	return v, ok
}

// child builds the context of one loop iteration. The parent's data map is copied,
// never written.
func (c *Context) child(item interface{}, index, total int) *Context {
	data := make(TemplateData, len(c.Data)+8)
	maps.Copy(data, c.Data)

	if entries, ok := asMap(item); ok {
		maps.Copy(data, entries)
	}

	data[LoopThis] = item
	data[LoopIndex] = index
	data[LoopFirst] = index == 0
	data[LoopLast] = index == total-1
	data[LoopTotal] = total

	return &Context{
		Data:     data,
		Locale:   c.Locale,
		Theme:    c.Theme,
		Metadata: c.Metadata,
		depth:    c.depth + 1,
	}
}
