package stencil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const defaultTruncateSuffix = "..."

// caseTag returns the language used for case mapping; unknown locales map as
// language.Und, which behaves like plain Unicode case mapping.
func caseTag(locale string) language.Tag {
	if locale == "" {
		return language.Und
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und
	}
	return tag
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s, locale string) string {
	if s == "" {
		return s
	}
	tag := caseTag(locale)
	first, size := utf8.DecodeRuneInString(s)
	return cases.Upper(tag).String(string(first)) + cases.Lower(tag).String(s[size:])
}

// truncate cuts s to at most n runes, appending suffix when anything was removed.
func truncate(s string, n int, suffix string) string {
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + suffix
}

func registerStringHelpers(r *HelperRegistry) {
	// upper - converts value to upper case using the context locale
	r.mustRegister(NewSimpleHelper("upper", 1, 1, func(args []string, ctx *Context) string {
		return cases.Upper(caseTag(ctx.Locale)).String(argString(args[0], ctx))
	}))

	// lower - converts value to lower case using the context locale
	r.mustRegister(NewSimpleHelper("lower", 1, 1, func(args []string, ctx *Context) string {
		return cases.Lower(caseTag(ctx.Locale)).String(argString(args[0], ctx))
	}))

	// capitalize - "hELLO world" becomes "Hello world"
	r.mustRegister(NewSimpleHelper("capitalize", 1, 1, func(args []string, ctx *Context) string {
		return capitalize(argString(args[0], ctx), ctx.Locale)
	}))

	// titlecase - upper-cases the first letter of every word
	r.mustRegister(NewSimpleHelper("titlecase", 1, 1, func(args []string, ctx *Context) string {
		return cases.Title(caseTag(ctx.Locale)).String(argString(args[0], ctx))
	}))

	// truncate value n [suffix]
	r.mustRegister(NewSimpleHelper("truncate", 2, 3, func(args []string, ctx *Context) string {
		n := argInt(args, 1, ctx, 0)
		return truncate(argString(args[0], ctx), n, optionalArg(args, 2, ctx, defaultTruncateSuffix))
	}))

	// replace value old new
	r.mustRegister(NewSimpleHelper("replace", 3, 3, func(args []string, ctx *Context) string {
		return strings.ReplaceAll(argString(args[0], ctx), argString(args[1], ctx), argString(args[2], ctx))
	}))

	// default value fallback - fallback when value is unresolved or empty
	r.mustRegister(NewSimpleHelper("default", 2, 2, func(args []string, ctx *Context) string {
		if s, ok := ResolveString(args[0], ctx); ok && s != "" {
			return s
		}
		return argString(args[1], ctx)
	}))
}
