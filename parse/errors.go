package parse

import (
	"fmt"
	"strings"
)

// ValidationErrors collects every problem found in one rules file.
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Unwrap returns the collected errors for errors.Is/As.
func (e *ValidationErrors) Unwrap() []error { return e.Errors }

func (e *ValidationErrors) HasErrors() bool { return len(e.Errors) > 0 }

func (e *ValidationErrors) add(err error) {
	if err == nil {
		return
	}
	if nested, ok := err.(*ValidationErrors); ok {
		e.Errors = append(e.Errors, nested.Errors...)
		return
	}
	e.Errors = append(e.Errors, err)
}

// orNil returns e when it holds errors.
func (e *ValidationErrors) orNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ParseError is a rules file that could not be decoded.
type ParseError struct {
	Source  string
	Offset  int64
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("%s:@%d: %s", e.Source, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// RuleError points at one field of the document, e.g.
// regions[2].exits[0].access_rule.left.
type RuleError struct {
	Path    string
	Message string
	Cause   error
}

func (e *RuleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *RuleError) Unwrap() error { return e.Cause }

func newRuleError(path, format string, args ...any) *RuleError {
	return &RuleError{Path: path, Message: fmt.Sprintf(format, args...)}
}
