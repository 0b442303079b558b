package stencil

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

// RenderResult is the outcome of one render call. Output is set only when
// Success is true; a failed result carries at least one entry in Errors.
type RenderResult struct {
	Success    bool
	Output     string
	TemplateID string
	RenderID   string
	RenderedAt time.Time
	Duration   time.Duration
	OutputPath string
	Warnings   []string
	Errors     []string

	errs []error
}

func newRenderResult(templateID string, renderedAt time.Time) *RenderResult {
	return &RenderResult{
		TemplateID: templateID,
		RenderID:   uuid.NewString(),
		RenderedAt: renderedAt,
	}
}

// Err returns the fatal errors of a failed render joined into one error, or nil
// on success. The typed errors are preserved, so IsTemplateNotFound and
// IsInheritanceCycle work on the result.
func (r *RenderResult) Err() error {
	if r.Success {
		return nil
	}
	if len(r.errs) == 0 && len(r.Errors) > 0 {
		errs := make([]error, len(r.Errors))
		for i, msg := range r.Errors {
			errs[i] = errors.New(msg)
		}
		return errors.Join(errs...)
	}
	return errors.Join(r.errs...)
}

func (r *RenderResult) fail(err error) {
	r.Success = false
	r.Output = ""
	r.errs = append(r.errs, err)
	r.Errors = append(r.Errors, err.Error())
}

func (r *RenderResult) succeed(output string) {
	r.Success = true
	r.Output = output
}

// clone returns a copy that shares no slices with r.
func (r *RenderResult) clone() RenderResult {
	cp := *r
	cp.Warnings = slices.Clone(r.Warnings)
	cp.Errors = slices.Clone(r.Errors)
	cp.errs = slices.Clone(r.errs)
	return cp
}
