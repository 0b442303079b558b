package stencil

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLocale is the message table used for unknown or empty locales.
const DefaultLocale = "en"

// Messages maps message keys to translated text.
type Messages map[string]string

var builtinMessages = map[string]Messages{
	"en": {
		"report.title":        "Test Report",
		"report.summary":      "Summary",
		"report.generated_at": "Generated at",
		"report.environment":  "Environment",
		"report.no_results":   "No test results",
		"status.passed":       "Passed",
		"status.failed":       "Failed",
		"status.skipped":      "Skipped",
		"status.error":        "Error",
		"label.total":         "Total",
		"label.duration":      "Duration",
		"label.pass_rate":     "Pass rate",
		"label.test_case":     "Test case",
		"label.status":        "Status",
		"label.suite":         "Suite",
	},
	"de": {
		"report.title":        "Testbericht",
		"report.summary":      "Zusammenfassung",
		"report.generated_at": "Erstellt am",
		"report.environment":  "Umgebung",
		"report.no_results":   "Keine Testergebnisse",
		"status.passed":       "Bestanden",
		"status.failed":       "Fehlgeschlagen",
		"status.skipped":      "Übersprungen",
		"status.error":        "Fehler",
		"label.total":         "Gesamt",
		"label.duration":      "Dauer",
		"label.pass_rate":     "Erfolgsquote",
		"label.test_case":     "Testfall",
		"label.status":        "Status",
		"label.suite":         "Testsuite",
	},
	"fr": {
		"report.title":        "Rapport de test",
		"report.summary":      "Résumé",
		"report.generated_at": "Généré le",
		"report.environment":  "Environnement",
		"report.no_results":   "Aucun résultat de test",
		"status.passed":       "Réussi",
		"status.failed":       "Échoué",
		"status.skipped":      "Ignoré",
		"status.error":        "Erreur",
		"label.total":         "Total",
		"label.duration":      "Durée",
		"label.pass_rate":     "Taux de réussite",
		"label.test_case":     "Cas de test",
		"label.status":        "Statut",
		"label.suite":         "Suite",
	},
	"es": {
		"report.title":        "Informe de pruebas",
		"report.summary":      "Resumen",
		"report.generated_at": "Generado el",
		"report.environment":  "Entorno",
		"report.no_results":   "Sin resultados de pruebas",
		"status.passed":       "Superada",
		"status.failed":       "Fallida",
		"status.skipped":      "Omitida",
		"status.error":        "Error",
		"label.total":         "Total",
		"label.duration":      "Duración",
		"label.pass_rate":     "Tasa de éxito",
		"label.test_case":     "Caso de prueba",
		"label.status":        "Estado",
		"label.suite":         "Suite",
	},
}

// MessageCatalog holds the per-locale message tables used to fill {{i18n:key}}
// tokens. Locale identifiers are matched by language, so "fr-CA" uses "fr".
type MessageCatalog struct {
	mu      sync.RWMutex
	tables  map[string]Messages
	names   []string
	matcher language.Matcher
}

// NewMessageCatalog creates a catalog holding the built-in en, de, fr and es tables.
func NewMessageCatalog() *MessageCatalog {
	mc := &MessageCatalog{tables: make(map[string]Messages, len(builtinMessages))}
	for locale, messages := range builtinMessages {
		mc.tables[locale] = maps.Clone(messages)
	}
	mc.rebuildMatcher()
	return mc
}

// rebuildMatcher must be called with mu held for writing.
func (mc *MessageCatalog) rebuildMatcher() {
	names := slices.Sorted(maps.Keys(mc.tables))
	// The default locale goes first so it is the matcher's fallback.
	if i := slices.Index(names, DefaultLocale); i > 0 {
		names = append([]string{DefaultLocale}, slices.Delete(names, i, i+1)...)
	}

	tags := make([]language.Tag, 0, len(names))
	kept := make([]string, 0, len(names))
	for _, name := range names {
		tag, err := language.Parse(name)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		kept = append(kept, name)
	}
	mc.names = kept
	mc.matcher = language.NewMatcher(tags)
}

// Add merges messages into the table for locale, creating it if needed.
func (mc *MessageCatalog) Add(locale string, messages Messages) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	existing, ok := mc.tables[locale]
	if !ok {
		existing = make(Messages, len(messages))
		mc.tables[locale] = existing
	}
	maps.Copy(existing, messages)
	if !ok {
		mc.rebuildMatcher()
	}
}

// Locales returns the locale identifiers with a table, sorted.
func (mc *MessageCatalog) Locales() []string {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return slices.Sorted(maps.Keys(mc.tables))
}

// Resolve returns the table identifier used for locale: an exact table name,
// else the best language match, else DefaultLocale.
func (mc *MessageCatalog) Resolve(locale string) string {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	if _, ok := mc.tables[locale]; ok {
		return locale
	}
	if locale == "" || len(mc.names) == 0 {
		return DefaultLocale
	}

	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return DefaultLocale
	}
	_, index, confidence := mc.matcher.Match(tag)
	if confidence == language.No || index < 0 || index >= len(mc.names) {
		return DefaultLocale
	}
	return mc.names[index]
}

// Lookup returns the message for key in the resolved locale.
func (mc *MessageCatalog) Lookup(locale, key string) (string, bool) {
	resolved := mc.Resolve(locale)

	mc.mu.RLock()
	defer mc.mu.RUnlock()
	value, ok := mc.tables[resolved][key]
	return value, ok
}

// Apply replaces every {{i18n:key}} token in text with the message for locale.
// Unknown keys leave the token as written and are returned as missing.
func (mc *MessageCatalog) Apply(text, locale string) (string, []string) {
	return substituteTableTokens(text, TokenI18n, func(key string) (string, bool) {
		return mc.Lookup(locale, key)
	})
}

// LoadFile merges the message tables of a YAML, TOML or JSON document into the
// catalog. The document maps locales to key/message tables.
func (mc *MessageCatalog) LoadFile(path string) error {
	tables, err := LoadMessages(path)
	if err != nil {
		return err
	}
	for locale, messages := range tables {
		mc.Add(locale, messages)
	}
	return nil
}

// LoadMessages reads message tables from a YAML, TOML or JSON file. Nested
// tables are flattened into dotted keys, so
//
//	[de.status]
//	passed = "Bestanden"
//
// defines "status.passed" for "de".
func LoadMessages(path string) (map[string]Messages, error) {
	raw := make(map[string]map[string]interface{})
	if err := decodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	tables := make(map[string]Messages, len(raw))
	for locale, entries := range raw {
		messages := make(Messages)
		flattenMessages("", entries, messages)
		tables[locale] = messages
	}
	return tables, nil
}

func flattenMessages(prefix string, entries map[string]interface{}, out Messages) {
	for key, value := range entries {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := asMap(normalizeValue(value)); ok {
			flattenMessages(full, nested, out)
			continue
		}
		out[full] = FormatValue(value)
	}
}

// baseLanguage returns the lower-case base language of a locale, "de" for
// "de-AT". Unparseable locales yield their first segment.
func baseLanguage(locale string) string {
	if locale == "" {
		return ""
	}
	if tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-")); err == nil {
		base, _ := tag.Base()
		return base.String()
	}
	first, _, _ := strings.Cut(strings.ReplaceAll(locale, "_", "-"), "-")
	return strings.ToLower(first)
}
