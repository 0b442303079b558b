package stencil

import (
	"fmt"
	"strings"
	"time"
)

const defaultDatePattern = "yyyy-MM-dd"

// Common date format patterns that we'll try to parse
var commonDateFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"2006/01/02",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
}

var namedLayouts = map[string]string{
	"RFC3339":  time.RFC3339,
	"RFC1123":  time.RFC1123,
	"RFC822":   time.RFC822,
	"Kitchen":  time.Kitchen,
	"DateTime": time.DateTime,
	"DateOnly": time.DateOnly,
	"TimeOnly": time.TimeOnly,
}

// goLayoutMarkers identify a pattern that is already a Go reference layout.
var goLayoutMarkers = []string{"2006", "15:04", "Jan", "Mon", "01/02", "01-02", "02.01"}

// parseDate converts a resolved value into a time. Strings are tried against the
// common layouts, numbers are Unix timestamps in seconds, or milliseconds when
// larger than 1e10.
func parseDate(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("cannot parse nil as date")
	case time.Time:
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return time.Time{}, fmt.Errorf("cannot parse empty string as date")
		}
		for _, format := range commonDateFormats {
			if parsed, err := time.Parse(format, v); err == nil {
				return parsed, nil
			}
		}
		if n, ok := toNumber(v); ok {
			return unixTime(n), nil
		}
		return time.Time{}, fmt.Errorf("could not parse date string: %s", v)
	}

	if n, ok := toNumber(value); ok {
		return unixTime(n), nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %T as date", value)
}

func unixTime(n float64) time.Time {
	v := int64(n)
	if v > 1e10 {
		// Likely milliseconds
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}

// resolveLayout turns a pattern into a Go layout. Named layouts (RFC3339, DateOnly)
// and Go reference layouts pass through; anything else is read as a
// SimpleDateFormat-style pattern such as "dd.MM.yyyy HH:mm".
func resolveLayout(pattern string) string {
	if layout, ok := namedLayouts[pattern]; ok {
		return layout
	}
	for _, marker := range goLayoutMarkers {
		if strings.Contains(pattern, marker) {
			return pattern
		}
	}
	return translateDateFormat(pattern)
}

// translateDateFormat converts a SimpleDateFormat pattern to a Go layout by
// reading runs of the same pattern letter. Text between single quotes is literal.
func translateDateFormat(pattern string) string {
	var out strings.Builder
	runes := []rune(pattern)

	for i := 0; i < len(runes); {
		r := runes[i]

		if r == '\'' {
			end := i + 1
			for end < len(runes) && runes[end] != '\'' {
				end++
			}
			out.WriteString(string(runes[i+1 : min(end, len(runes))]))
			i = end + 1
			continue
		}

		n := 1
		for i+n < len(runes) && runes[i+n] == r {
			n++
		}
		out.WriteString(layoutForRun(r, n))
		i += n
	}

	return out.String()
}

func layoutForRun(letter rune, n int) string {
	switch letter {
	case 'y':
		if n == 2 {
			return "06"
		}
		return "2006"
	case 'M':
		switch {
		case n >= 4:
			return "January"
		case n == 3:
			return "Jan"
		case n == 2:
			return "01"
		default:
			return "1"
		}
	case 'd':
		if n >= 2 {
			return "02"
		}
		return "2"
	case 'H':
		return "15"
	case 'h':
		if n >= 2 {
			return "03"
		}
		return "3"
	case 'm':
		if n >= 2 {
			return "04"
		}
		return "4"
	case 's':
		if n >= 2 {
			return "05"
		}
		return "5"
	case 'S':
		return strings.Repeat("0", n)
	case 'a':
		return "PM"
	case 'E':
		if n >= 4 {
			return "Monday"
		}
		return "Mon"
	case 'z':
		return "MST"
	case 'Z':
		return "-0700"
	case 'X':
		switch n {
		case 1:
			return "Z07"
		case 2:
			return "Z0700"
		default:
			return "Z07:00"
		}
	default:
		return strings.Repeat(string(letter), n)
	}
}

// formatDate formats t with pattern and translates month and weekday names for
// the locales that have a table.
func formatDate(t time.Time, pattern, locale string) string {
	result := t.Format(resolveLayout(pattern))
	return applyLocaleTranslations(result, t, locale)
}

type dateNames struct {
	months        [12]string
	monthsShort   [12]string
	weekdays      [7]string // Sunday first, as time.Weekday
	weekdaysShort [7]string
}

var dateNamesByLanguage = map[string]dateNames{
	"de": {
		months:        [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
		monthsShort:   [12]string{"Jan", "Feb", "Mär", "Apr", "Mai", "Jun", "Jul", "Aug", "Sep", "Okt", "Nov", "Dez"},
		weekdays:      [7]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
		weekdaysShort: [7]string{"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"},
	},
	"fr": {
		months:        [12]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
		monthsShort:   [12]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
		weekdays:      [7]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
		weekdaysShort: [7]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."},
	},
	"es": {
		months:        [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		monthsShort:   [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"},
		weekdays:      [7]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
		weekdaysShort: [7]string{"dom", "lun", "mar", "mié", "jue", "vie", "sáb"},
	},
}

// applyLocaleTranslations replaces English month and weekday names in a formatted
// date. Long names are replaced before short ones so "March" is not hit by "Mar".
func applyLocaleTranslations(formatted string, t time.Time, locale string) string {
	names, ok := dateNamesByLanguage[baseLanguage(locale)]
	if !ok {
		return formatted
	}

	month := int(t.Month()) - 1
	weekday := int(t.Weekday())

	replacer := strings.NewReplacer(
		t.Format("January"), names.months[month],
		t.Format("Monday"), names.weekdays[weekday],
		t.Format("Jan"), names.monthsShort[month],
		t.Format("Mon"), names.weekdaysShort[weekday],
	)
	return replacer.Replace(formatted)
}

func registerDateHelpers(r *HelperRegistry, clock func() time.Time) {
	// {{formatDate value "dd.MM.yyyy"}}
	r.mustRegister(NewSimpleHelper("formatDate", 1, 2, func(args []string, ctx *Context) string {
		value, ok := Resolve(args[0], ctx)
		if !ok {
			return ""
		}
		t, err := parseDate(value)
		if err != nil {
			return ""
		}
		return formatDate(t, optionalArg(args, 1, ctx, defaultDatePattern), ctx.Locale)
	}))

	// {{now}} or {{now "yyyy-MM-dd HH:mm"}}
	r.mustRegister(NewSimpleHelper("now", 0, 1, func(args []string, ctx *Context) string {
		return formatDate(clock(), optionalArg(args, 0, ctx, "RFC3339"), ctx.Locale)
	}))
}
