package stencil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"sort"
	"strings"
)

const validatorVersion = "v1"

// IssueSeverity indicates validation issue severity.
type IssueSeverity string

const (
	IssueSeverityError   IssueSeverity = "error"
	IssueSeverityWarning IssueSeverity = "warning"
	IssueSeverityInfo    IssueSeverity = "info"
)

// IssueCode identifies the kind of a validation issue.
type IssueCode string

const (
	IssueCodeSyntaxError          IssueCode = "SYNTAX_ERROR"
	IssueCodeControlBlockMismatch IssueCode = "CONTROL_BLOCK_MISMATCH"
	IssueCodePotentiallyUndefined IssueCode = "POTENTIALLY_UNDEFINED"
	IssueCodeUnknownHelper        IssueCode = "UNKNOWN_HELPER"
)

// TokenKind identifies extracted token/reference categories.
type TokenKind string

const (
	TokenKindVariable TokenKind = "variable"
	TokenKindControl  TokenKind = "control"
	TokenKindHelper   TokenKind = "helper"
)

// TemplateLocation identifies a token location in template text.
type TemplateLocation struct {
	Line         int `json:"line"`
	Column       int `json:"column"`
	Offset       int `json:"offset"`
	TokenOrdinal int `json:"tokenOrdinal"`
}

// TemplateTokenRef references one token-derived item.
type TemplateTokenRef struct {
	Raw        string           `json:"raw"`
	Kind       TokenKind        `json:"kind"`
	Expression string           `json:"expression,omitempty"`
	Location   TemplateLocation `json:"location"`
}

// ValidationIssue is one finding of the validator.
type ValidationIssue struct {
	ID       string           `json:"id"`
	Severity IssueSeverity    `json:"severity"`
	Code     IssueCode        `json:"code"`
	Message  string           `json:"message"`
	Token    TemplateTokenRef `json:"token"`
	Location TemplateLocation `json:"location"`
}

// ValidationSummary contains validation counters.
type ValidationSummary struct {
	CheckedTokens      int `json:"checkedTokens"`
	ErrorCount         int `json:"errorCount"`
	WarningCount       int `json:"warningCount"`
	InfoCount          int `json:"infoCount"`
	ReturnedIssueCount int `json:"returnedIssueCount"`
}

// ValidationMetadata identifies the validated document.
type ValidationMetadata struct {
	DocumentHash     string `json:"documentHash"`
	TemplateID       string `json:"templateId,omitempty"`
	ValidatorVersion string `json:"validatorVersion"`
}

// ValidationReport is the result of validating template text. Valid is false
// only when there are error-severity issues.
type ValidationReport struct {
	Valid           bool               `json:"valid"`
	Summary         ValidationSummary  `json:"summary"`
	Issues          []ValidationIssue  `json:"issues"`
	IssuesTruncated bool               `json:"issuesTruncated"`
	Metadata        ValidationMetadata `json:"metadata"`
}

// Errors returns the error-severity issues.
func (r *ValidationReport) Errors() []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.Issues {
		if issue.Severity == IssueSeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// ValidateOptions controls validation behavior.
type ValidateOptions struct {
	TemplateID string
	MaxIssues  int // 0 = unlimited
	// Helpers, when set, enables UNKNOWN_HELPER warnings and keeps bare helper
	// names such as {{now}} from being reported as undefined.
	Helpers *HelperRegistry
	// KnownNames are variables known to be supplied by the caller.
	KnownNames []string
}

// Validate checks template text with default options.
func Validate(content string) *ValidationReport {
	report, _ := ValidateWithOptions(content, ValidateOptions{})
	return report
}

// ValidateWithOptions checks balanced block directives, directive syntax and
// variable references of template text. It never renders anything.
func ValidateWithOptions(content string, opts ValidateOptions) (*ValidationReport, error) {
	if opts.MaxIssues < 0 {
		return nil, fmt.Errorf("maxIssues must be >= 0")
	}

	spans := scanTokenSpans(content)
	issues := validateTokenSpans(spans, opts)
	issues = append(issues, undefinedReferenceIssues(spans, opts)...)
	sortValidationIssues(issues)
	for i := range issues {
		issues[i].ID = fmt.Sprintf("iss_%03d", i+1)
	}

	summary := ValidationSummary{CheckedTokens: len(spans)}
	for _, issue := range issues {
		switch issue.Severity {
		case IssueSeverityError:
			summary.ErrorCount++
		case IssueSeverityWarning:
			summary.WarningCount++
		case IssueSeverityInfo:
			summary.InfoCount++
		}
	}

	returnedIssues := issues
	issuesTruncated := false
	if opts.MaxIssues > 0 && len(issues) > opts.MaxIssues {
		returnedIssues = issues[:opts.MaxIssues]
		issuesTruncated = true
	}
	summary.ReturnedIssueCount = len(returnedIssues)

	return &ValidationReport{
		Valid:           summary.ErrorCount == 0,
		Summary:         summary,
		Issues:          returnedIssues,
		IssuesTruncated: issuesTruncated,
		Metadata:        newValidationMetadata(content, opts.TemplateID),
	}, nil
}

// ExtractReferences lists the variable, helper and control references of
// template text in document order.
func ExtractReferences(content string) []TemplateTokenRef {
	return extractReferencesFromSpans(scanTokenSpans(content))
}

type tokenSpan struct {
	Raw      string
	Token    Token
	Location TemplateLocation
}

type validationControlFrame struct {
	span    tokenSpan
	closer  TokenType
	sawElse bool
}

// scanTokenSpans tokenizes content into located directive spans. Text is
// skipped; unclosed "{{" sequences arrive as invalid tokens.
func scanTokenSpans(content string) []tokenSpan {
	spans := make([]tokenSpan, 0, 32)

	for _, tok := range Tokenize(content) {
		if tok.Type == TokenText {
			continue
		}
		spans = append(spans, tokenSpan{
			Raw:      tok.Raw,
			Token:    tok,
			Location: newLocation(content, tok.Pos, len(spans)),
		})
	}

	return spans
}

func newLocation(content string, pos, ordinal int) TemplateLocation {
	line, col := lineColumn(content, pos)
	return TemplateLocation{Line: line, Column: col, Offset: pos, TokenOrdinal: ordinal}
}

func closerFor(open TokenType) TokenType {
	switch open {
	case TokenIf:
		return TokenEndIf
	case TokenUnless:
		return TokenEndUnless
	case TokenEach:
		return TokenEndEach
	default:
		return TokenEndBlock
	}
}

func validateTokenSpans(spans []tokenSpan, opts ValidateOptions) []ValidationIssue {
	issues := make([]ValidationIssue, 0)
	controlStack := make([]validationControlFrame, 0)

	appendIssue := func(severity IssueSeverity, code IssueCode, message string, span tokenSpan, kind TokenKind, expression string) {
		issues = append(issues, ValidationIssue{
			Severity: severity,
			Code:     code,
			Message:  message,
			Token: TemplateTokenRef{
				Raw:        span.Raw,
				Kind:       kind,
				Expression: expression,
				Location:   span.Location,
			},
			Location: span.Location,
		})
	}

	for _, span := range spans {
		switch span.Token.Type {
		case TokenInvalid:
			appendIssue(IssueSeverityError, IssueCodeSyntaxError, span.Token.Value, span, TokenKindControl, "")

		case TokenIf, TokenUnless:
			if c := ParseCondition(span.Token.Value); c.Err != nil {
				appendIssue(IssueSeverityError, IssueCodeSyntaxError, fmt.Sprintf("invalid condition: %v", c.Err), span, TokenKindControl, span.Token.Value)
			}
			controlStack = append(controlStack, validationControlFrame{span: span, closer: closerFor(span.Token.Type)})

		case TokenEach:
			if args, err := splitArgs(span.Token.Value); err != nil || len(args) != 1 {
				appendIssue(IssueSeverityError, IssueCodeSyntaxError, "{{#each}} requires exactly one list reference", span, TokenKindControl, span.Token.Value)
			}
			controlStack = append(controlStack, validationControlFrame{span: span, closer: TokenEndEach})

		case TokenBlock:
			controlStack = append(controlStack, validationControlFrame{span: span, closer: TokenEndBlock})

		case TokenHelper:
			if opts.Helpers != nil {
				if _, ok := opts.Helpers.Lookup(span.Token.Value); !ok {
					appendIssue(IssueSeverityWarning, IssueCodeUnknownHelper, fmt.Sprintf("unknown helper %q", span.Token.Value), span, TokenKindHelper, span.Token.Value)
				}
			}

		case TokenElse:
			if len(controlStack) == 0 {
				appendIssue(IssueSeverityError, IssueCodeControlBlockMismatch, "{{else}} has no matching opening control block", span, TokenKindControl, "")
				continue
			}

			top := &controlStack[len(controlStack)-1]
			if top.closer != TokenEndIf && top.closer != TokenEndUnless {
				appendIssue(IssueSeverityError, IssueCodeControlBlockMismatch, "{{else}} only matches {{#if}} or {{#unless}}", span, TokenKindControl, "")
			} else if top.sawElse {
				appendIssue(IssueSeverityError, IssueCodeControlBlockMismatch, "{{else}} can only appear once in an {{#if}} or {{#unless}} block", span, TokenKindControl, "")
			} else {
				top.sawElse = true
			}

		case TokenEndIf, TokenEndUnless, TokenEndEach, TokenEndBlock:
			// Each closer pairs with the nearest open directive of its kind.
			idx := -1
			for i := len(controlStack) - 1; i >= 0; i-- {
				if controlStack[i].closer == span.Token.Type {
					idx = i
					break
				}
			}
			if idx < 0 {
				appendIssue(IssueSeverityError, IssueCodeControlBlockMismatch, fmt.Sprintf("%s has no matching opening directive", span.Raw), span, TokenKindControl, "")
				continue
			}
			controlStack = slices.Delete(controlStack, idx, idx+1)
		}
	}

	for _, opening := range controlStack {
		appendIssue(
			IssueSeverityError,
			IssueCodeControlBlockMismatch,
			fmt.Sprintf("missing {{%s}} for opening directive %q", opening.closer, opening.span.Raw),
			opening.span,
			TokenKindControl,
			opening.span.Token.Value,
		)
	}

	return issues
}

// undefinedReferenceIssues flags bare variable names, the ones most likely to be
// typos. Dotted paths, loop variables (@index...) and literals are skipped; each
// name is reported once, at its first occurrence.
func undefinedReferenceIssues(spans []tokenSpan, opts ValidateOptions) []ValidationIssue {
	known := map[string]bool{LoopThis: true}
	for _, name := range opts.KnownNames {
		known[name] = true
	}

	var issues []ValidationIssue
	for _, ref := range extractReferencesFromSpans(spans) {
		if ref.Kind != TokenKindVariable {
			continue
		}
		name := ref.Expression
		if known[name] || strings.Contains(name, ".") || strings.HasPrefix(name, "@") || IsLiteral(name) {
			continue
		}
		if opts.Helpers != nil {
			if h, ok := opts.Helpers.Lookup(name); ok && h.MinArgs() == 0 {
				continue
			}
		}
		known[name] = true

		issues = append(issues, ValidationIssue{
			Severity: IssueSeverityInfo,
			Code:     IssueCodePotentiallyUndefined,
			Message:  fmt.Sprintf("variable %q may be undefined", name),
			Token:    ref,
			Location: ref.Location,
		})
	}
	return issues
}

func extractReferencesFromSpans(spans []tokenSpan) []TemplateTokenRef {
	references := make([]TemplateTokenRef, 0)

	appendRef := func(span tokenSpan, kind TokenKind, expression string) {
		references = append(references, TemplateTokenRef{
			Raw:        span.Raw,
			Kind:       kind,
			Expression: expression,
			Location:   span.Location,
		})
	}
	appendOperand := func(span tokenSpan, operand string) {
		if operand != "" && !IsLiteral(operand) {
			appendRef(span, TokenKindVariable, operand)
		}
	}

	for _, span := range spans {
		switch span.Token.Type {
		case TokenVariable:
			appendOperand(span, span.Token.Value)
		case TokenHelper:
			appendRef(span, TokenKindHelper, span.Token.Value)
			for _, arg := range span.Token.Args {
				appendOperand(span, arg)
			}
		case TokenIf, TokenUnless:
			appendRef(span, TokenKindControl, span.Token.Value)
			for _, operand := range ParseCondition(span.Token.Value).Operands() {
				appendOperand(span, operand)
			}
		case TokenEach:
			appendRef(span, TokenKindControl, span.Token.Value)
			appendOperand(span, span.Token.Value)
		}
	}

	return references
}

func newValidationMetadata(content, templateID string) ValidationMetadata {
	sum := sha256.Sum256([]byte(content))
	return ValidationMetadata{
		DocumentHash:     "sha256:" + hex.EncodeToString(sum[:]),
		TemplateID:       templateID,
		ValidatorVersion: validatorVersion,
	}
}

func sortValidationIssues(issues []ValidationIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		left := issues[i]
		right := issues[j]

		if left.Location.TokenOrdinal != right.Location.TokenOrdinal {
			return left.Location.TokenOrdinal < right.Location.TokenOrdinal
		}
		if left.Code != right.Code {
			return left.Code < right.Code
		}
		return left.Message < right.Message
	})
}
