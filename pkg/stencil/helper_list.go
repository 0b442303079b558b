package stencil

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const defaultJoinSeparator = ", "

// resolveList resolves a helper argument that must be a list.
func resolveList(arg string, ctx *Context) ([]interface{}, bool) {
	value, ok := Resolve(arg, ctx)
	if !ok {
		return nil, false
	}
	return asList(value)
}

func registerListHelpers(r *HelperRegistry) {
	// length - list or map size, string length in characters, 0 when absent
	r.mustRegister(NewSimpleHelper("length", 1, 1, func(args []string, ctx *Context) string {
		value, ok := Resolve(args[0], ctx)
		if !ok {
			return "0"
		}
		if s, ok := value.(string); ok {
			return strconv.Itoa(utf8.RuneCountInString(s))
		}
		if items, ok := asList(value); ok {
			return strconv.Itoa(len(items))
		}
		if m, ok := asMap(value); ok {
			return strconv.Itoa(len(m))
		}
		return "0"
	}))

	// first list
	r.mustRegister(NewSimpleHelper("first", 1, 1, func(args []string, ctx *Context) string {
		items, ok := resolveList(args[0], ctx)
		if !ok || len(items) == 0 {
			return ""
		}
		return FormatValue(items[0])
	}))

	// last list
	r.mustRegister(NewSimpleHelper("last", 1, 1, func(args []string, ctx *Context) string {
		items, ok := resolveList(args[0], ctx)
		if !ok || len(items) == 0 {
			return ""
		}
		return FormatValue(items[len(items)-1])
	}))

	// join list [separator]
	r.mustRegister(NewSimpleHelper("join", 1, 2, func(args []string, ctx *Context) string {
		items, ok := resolveList(args[0], ctx)
		if !ok {
			return ""
		}
		separator := optionalArg(args, 1, ctx, defaultJoinSeparator)
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item != nil {
				parts = append(parts, FormatValue(item))
			}
		}
		return strings.Join(parts, separator)
	}))
}
