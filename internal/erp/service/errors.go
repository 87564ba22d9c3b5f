package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/calc"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicate         = errors.New("duplicate")
)

// ValidationDetail one rejected row or field group
type ValidationDetail struct {
	Row     int      `json:"row,omitempty"`
	ID      string   `json:"id,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	Message string   `json:"message"`
}

// ValidationError collects every problem found in a request so the caller
// can fix them in one pass.
type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Message)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Add(d ValidationDetail) {
	e.Details = append(e.Details, d)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Details) > 0
}

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// GateError lists the materials blocking the start of production.
type GateError struct {
	Issues []calc.GateIssue
}

func (e *GateError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, i := range e.Issues {
		parts = append(parts, i.String())
	}
	return "cannot start production: " + strings.Join(parts, "; ")
}

func (e *GateError) Unwrap() error {
	return ErrInvalidState
}

func stateError(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidState)
}

// lookup maps a repository miss to ErrNotFound with a readable subject.
func lookup(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	subject := fmt.Sprintf(format, args...)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", subject, ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", subject, err)
}
