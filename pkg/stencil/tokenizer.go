package stencil

import (
	"fmt"
	"regexp"
	"strings"
)

// TokenType represents the type of a template token
type TokenType int

const (
	TokenText TokenType = iota
	TokenVariable
	TokenHelper
	TokenIf
	TokenUnless
	TokenElse
	TokenEndIf
	TokenEndUnless
	TokenEach
	TokenEndEach
	TokenTheme
	TokenI18n
	TokenExtends
	TokenBlock
	TokenEndBlock
	TokenBlockRef
	TokenInvalid
)

var tokenTypeNames = map[TokenType]string{
	TokenText:      "text",
	TokenVariable:  "variable",
	TokenHelper:    "helper",
	TokenIf:        "if",
	TokenUnless:    "unless",
	TokenElse:      "else",
	TokenEndIf:     "/if",
	TokenEndUnless: "/unless",
	TokenEach:      "each",
	TokenEndEach:   "/each",
	TokenTheme:     "theme",
	TokenI18n:      "i18n",
	TokenExtends:   "extends",
	TokenBlock:     "block",
	TokenEndBlock:  "/block",
	TokenBlockRef:  "block-ref",
	TokenInvalid:   "invalid",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a parsed template token.
//
// Value holds the argument part of a directive (the condition of an if, the list of
// an each, the key of a theme token, the whole expression of a variable or helper).
// For TokenInvalid it holds the reason the tag was rejected. Raw is the tag exactly
// as written, braces included, and Pos its byte offset in the input.
type Token struct {
	Type  TokenType
	Value string
	Args  []string
	Raw   string
	Pos   int
}

var (
	identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)
	tableKeyRegex   = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)
)

const unclosedTagReason = "unclosed template token"

// Tokenize splits a template string into text and directive tokens.
//
// A tag ends at the first "}}" outside a double-quoted argument. A "{{" that is
// not closed before the end of input or the next unquoted "{{" becomes a
// TokenInvalid spanning to the end of its line (or that next "{{"), so that
// concatenating every token's Raw reproduces the input.
func Tokenize(input string) []Token {
	var tokens []Token
	lastEnd := 0

	for lastEnd < len(input) {
		idx := strings.Index(input[lastEnd:], "{{")
		if idx < 0 {
			break
		}
		start := lastEnd + idx

		// Add any text before this token
		if start > lastEnd {
			tokens = append(tokens, Token{
				Type:  TokenText,
				Value: input[lastEnd:start],
				Raw:   input[lastEnd:start],
				Pos:   lastEnd,
			})
		}

		end, ok := tagEnd(input, start+2)
		if !ok {
			token := invalidToken(unclosedTagReason)
			token.Raw = unclosedRaw(input[start:])
			token.Pos = start
			tokens = append(tokens, token)
			lastEnd = start + len(token.Raw)
			continue
		}

		token := parseToken(strings.TrimSpace(input[start+2 : end]))
		token.Raw = input[start : end+2]
		token.Pos = start
		tokens = append(tokens, token)

		lastEnd = end + 2
	}

	// Add any remaining text
	if lastEnd < len(input) {
		tokens = append(tokens, Token{
			Type:  TokenText,
			Value: input[lastEnd:],
			Raw:   input[lastEnd:],
			Pos:   lastEnd,
		})
	}

	return tokens
}

// tagEnd returns the offset of the "}}" closing a tag whose content starts at
// from. Braces inside double-quoted arguments do not count, and an unquoted "{{"
// means the tag was never closed. When a quote is left open the first "}}" wins,
// and the argument splitter reports the unterminated literal.
func tagEnd(input string, from int) (int, bool) {
	inQuote := false
	for i := from; i < len(input); i++ {
		switch c := input[i]; {
		case inQuote && c == '\\':
			i++
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '}' && i+1 < len(input) && input[i+1] == '}':
			return i, true
		case c == '{' && i+1 < len(input) && input[i+1] == '{':
			return 0, false
		}
	}

	if !inQuote {
		return 0, false
	}
	idx := strings.Index(input[from:], "}}")
	if idx < 0 || strings.Contains(input[from:from+idx], "{{") {
		return 0, false
	}
	return from + idx, true
}

// unclosedRaw cuts an unterminated tag at the end of its line or at the next
// "{{", whichever comes first.
func unclosedRaw(rest string) string {
	end := len(rest)
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		end = nl
	}
	if next := strings.Index(rest[2:], "{{"); next >= 0 && next+2 < end {
		end = next + 2
	}
	return rest[:end]
}

// parseToken determines the type of token from its trimmed content
func parseToken(content string) Token {
	if content == "" {
		return invalidToken("empty tag")
	}

	switch content[0] {
	case '#':
		return parseOpeningTag(content[1:])
	case '/':
		return parseClosingTag(strings.TrimSpace(content[1:]))
	}

	if content == "else" {
		return Token{Type: TokenElse}
	}

	if key, ok := strings.CutPrefix(content, "theme:"); ok {
		return parseTableToken(TokenTheme, "theme", key)
	}
	if key, ok := strings.CutPrefix(content, "i18n:"); ok {
		return parseTableToken(TokenI18n, "i18n", key)
	}
	if name, ok := strings.CutPrefix(content, "block:"); ok {
		name = strings.TrimSpace(name)
		if !identifierRegex.MatchString(name) {
			return invalidToken(fmt.Sprintf("invalid block placeholder name %q", name))
		}
		return Token{Type: TokenBlockRef, Value: name}
	}

	args, err := splitArgs(content)
	if err != nil {
		return invalidToken(err.Error())
	}

	switch args[0] {
	case "extends":
		if len(args) != 2 {
			return invalidToken("extends requires exactly one quoted parent identifier")
		}
		parent, ok := unquote(args[1])
		if !ok || parent == "" {
			return invalidToken("extends parent identifier must be a quoted string")
		}
		return Token{Type: TokenExtends, Value: parent}
	case "block":
		if len(args) != 2 || !identifierRegex.MatchString(args[1]) {
			return invalidToken("block declaration requires a single name")
		}
		return Token{Type: TokenBlock, Value: args[1]}
	}

	if len(args) == 1 {
		return Token{Type: TokenVariable, Value: args[0]}
	}

	if !identifierRegex.MatchString(args[0]) {
		return invalidToken(fmt.Sprintf("invalid helper name %q", args[0]))
	}
	return Token{Type: TokenHelper, Value: args[0], Args: args[1:]}
}

func parseOpeningTag(content string) Token {
	keyword, rest := content, ""
	if idx := strings.IndexAny(content, " \t\r\n"); idx >= 0 {
		keyword, rest = content[:idx], strings.TrimSpace(content[idx:])
	}

	switch keyword {
	case "if":
		return Token{Type: TokenIf, Value: rest}
	case "unless":
		return Token{Type: TokenUnless, Value: rest}
	case "each":
		return Token{Type: TokenEach, Value: rest}
	default:
		return invalidToken(fmt.Sprintf("unknown block directive #%s", keyword))
	}
}

func parseClosingTag(keyword string) Token {
	switch keyword {
	case "if":
		return Token{Type: TokenEndIf}
	case "unless":
		return Token{Type: TokenEndUnless}
	case "each":
		return Token{Type: TokenEndEach}
	case "block":
		return Token{Type: TokenEndBlock}
	default:
		return invalidToken(fmt.Sprintf("unknown closing directive /%s", keyword))
	}
}

func parseTableToken(typ TokenType, prefix, key string) Token {
	key = strings.TrimSpace(key)
	if !tableKeyRegex.MatchString(key) {
		return invalidToken(fmt.Sprintf("invalid %s key %q", prefix, key))
	}
	return Token{Type: typ, Value: key}
}

func invalidToken(reason string) Token {
	return Token{Type: TokenInvalid, Value: reason}
}

// splitArgs splits tag content on whitespace, keeping double-quoted strings
// (quotes included) together.
func splitArgs(content string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	escaped := false

	flush := func() {
		if current.Len() > 0 {
			args = append(args, current.String())
			current.Reset()
		}
	}

	for _, r := range content {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case inQuote && r == '\\':
			current.WriteRune(r)
			escaped = true
		case r == '"':
			current.WriteRune(r)
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			current.WriteRune(r)
		}
	}

	if inQuote {
		return nil, fmt.Errorf("unterminated string literal")
	}
	flush()

	if len(args) == 0 {
		return nil, fmt.Errorf("empty tag")
	}
	return args, nil
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// FindTemplateTokens finds all template tokens in a string
// This is a utility function for debugging and analysis
func FindTemplateTokens(input string) []string {
	matches := []string{}
	for _, tok := range Tokenize(input) {
		if tok.Type == TokenText || (tok.Type == TokenInvalid && tok.Value == unclosedTagReason) {
			continue
		}
		matches = append(matches, tok.Raw)
	}
	return matches
}

// lineColumn converts a byte offset into 1-based line and column numbers.
func lineColumn(input string, pos int) (int, int) {
	if pos > len(input) {
		pos = len(input)
	}
	line := 1 + strings.Count(input[:pos], "\n")
	col := pos + 1
	if idx := strings.LastIndex(input[:pos], "\n"); idx >= 0 {
		col = pos - idx
	}
	return line, col
}
