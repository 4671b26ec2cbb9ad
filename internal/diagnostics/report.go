package diagnostics

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quark-lang/quarkc/internal/ast"
)

// Report is the canonical structured diagnostic. Every error and
// warning produced anywhere in the pipeline is built as a Report and
// delivered through a Bus (bus.go).
type Report struct {
	Schema      string         `json:"schema"` // always "quark.diagnostic/v1"
	Code        string         `json:"code"`
	Phase       string         `json:"phase"`
	Message     string         `json:"message"`
	Span        *ast.Span      `json:"span,omitempty"`
	CaretLength int            `json:"caret_length,omitempty"`
	Context     string         `json:"context,omitempty"` // e.g. "in the condition of an if"
	Data        map[string]any `json:"data,omitempty"`
}

// New builds a Report. context may be empty.
func New(code, message, context string, span *ast.Span) *Report {
	r := &Report{
		Schema:  "quark.diagnostic/v1",
		Code:    code,
		Phase:   Phase(code),
		Message: message,
		Context: context,
		Span:    span,
	}
	if span != nil {
		r.CaretLength = span.Len()
	}
	return r
}

// ReportError wraps a Report so it survives errors.As unwrapping.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown diagnostic"
	}
	if e.Rep.Context != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Rep.Code, e.Rep.Message, e.Rep.Context)
	}
	return fmt.Sprintf("%s: %s", e.Rep.Code, e.Rep.Message)
}

// AsReport extracts the Report carried by err, if any.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// Wrap turns a Report into an error.
func Wrap(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON serializes the report deterministically for tooling.
func (r *Report) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
