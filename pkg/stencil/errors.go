package stencil

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTemplateNotFound is matched by every TemplateNotFoundError via errors.Is.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateError represents an error in the template structure or syntax
type TemplateError struct {
	Message string
	Line    int
	Column  int
}

func (e *TemplateError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("template error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	} else if e.Line > 0 {
		return fmt.Sprintf("template error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

// NewTemplateError creates a new template error with position information
func NewTemplateError(message string, line, column int) error {
	return &TemplateError{
		Message: message,
		Line:    line,
		Column:  column,
	}
}

// TemplateNotFoundError is returned when a template identifier is not in the store,
// either as the render target or as an ancestor in an inheritance chain.
type TemplateNotFoundError struct {
	ID           string
	ReferencedBy string
}

func (e *TemplateNotFoundError) Error() string {
	if e.ReferencedBy != "" {
		return fmt.Sprintf("template %q not found (parent of %q)", e.ID, e.ReferencedBy)
	}
	return fmt.Sprintf("template %q not found", e.ID)
}

func (e *TemplateNotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// InheritanceCycleError reports a parent chain that revisits an identifier.
type InheritanceCycleError struct {
	Chain []string
}

func (e *InheritanceCycleError) Error() string {
	return fmt.Sprintf("inheritance cycle detected: %s", strings.Join(e.Chain, " -> "))
}

// EvaluationError represents an error during condition or token evaluation
type EvaluationError struct {
	Expression string
	Cause      error
}

func (e *EvaluationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("evaluation error for expression '%s': %v", e.Expression, e.Cause)
	}
	return fmt.Sprintf("evaluation error for expression '%s'", e.Expression)
}

func (e *EvaluationError) Unwrap() error {
	return e.Cause
}

// NewEvaluationError creates a new evaluation error
func NewEvaluationError(expression string, cause error) error {
	return &EvaluationError{
		Expression: expression,
		Cause:      cause,
	}
}

// HelperError represents an error in a template helper invocation
type HelperError struct {
	Helper  string
	Args    []string
	Message string
}

func (e *HelperError) Error() string {
	return fmt.Sprintf("helper error in '%s %s': %s", e.Helper, strings.Join(e.Args, " "), e.Message)
}

// NewHelperError creates a new helper error
func NewHelperError(helper string, args []string, message string) error {
	return &HelperError{
		Helper:  helper,
		Args:    args,
		Message: message,
	}
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.errors
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

// IsTemplateError checks if an error is a template error
func IsTemplateError(err error) bool {
	var target *TemplateError
	return errors.As(err, &target)
}

// IsTemplateNotFound checks if an error reports a missing template
func IsTemplateNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

// IsInheritanceCycle checks if an error is an inheritance cycle error
func IsInheritanceCycle(err error) bool {
	var target *InheritanceCycleError
	return errors.As(err, &target)
}

// IsEvaluationError checks if an error is an evaluation error
func IsEvaluationError(err error) bool {
	var target *EvaluationError
	return errors.As(err, &target)
}

// IsHelperError checks if an error is a helper error
func IsHelperError(err error) bool {
	var target *HelperError
	return errors.As(err, &target)
}
