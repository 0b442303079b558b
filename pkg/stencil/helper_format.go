package stencil

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	sanitizePolicy     *bluemonday.Policy
	sanitizePolicyOnce sync.Once
)

func getSanitizePolicy() *bluemonday.Policy {
	sanitizePolicyOnce.Do(func() {
		sanitizePolicy = bluemonday.UGCPolicy()
	})
	return sanitizePolicy
}

// numberPrinter returns a printer using the grouping and decimal separators of
// locale. Unparseable locales print as English.
func numberPrinter(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	return message.NewPrinter(tag)
}

// formatDecimal formats n with exactly places decimals and locale grouping,
// e.g. 1234.5 in "en" with 2 places is "1,234.50" and in "de" "1.234,50".
func formatDecimal(n float64, places int, locale string) string {
	places = clampPlaces(places)
	return numberPrinter(locale).Sprint(number.Decimal(n, number.Scale(places)))
}

func registerFormatHelpers(r *HelperRegistry) {
	// formatNumber value [places]
	r.mustRegister(NewSimpleHelper("formatNumber", 1, 2, func(args []string, ctx *Context) string {
		n, ok := argNumber(args[0], ctx)
		if !ok {
			return ""
		}
		return formatDecimal(n, argInt(args, 1, ctx, 0), ctx.Locale)
	}))

	// percent ratio [places] - 0.875 becomes 87.5% with one place
	r.mustRegister(NewSimpleHelper("percent", 1, 2, func(args []string, ctx *Context) string {
		n, ok := argNumber(args[0], ctx)
		if !ok {
			return ""
		}
		return formatDecimal(n*100, argInt(args, 1, ctx, 0), ctx.Locale) + "%"
	}))

	// escape - HTML-escapes the value
	r.mustRegister(NewSimpleHelper("escape", 1, 1, func(args []string, ctx *Context) string {
		return html.EscapeString(argString(args[0], ctx))
	}))

	// sanitize - strips markup that is unsafe in user-generated content
	r.mustRegister(NewSimpleHelper("sanitize", 1, 1, func(args []string, ctx *Context) string {
		return getSanitizePolicy().Sanitize(argString(args[0], ctx))
	}))
}
