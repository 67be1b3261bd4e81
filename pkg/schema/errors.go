package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput matches every rule input validation failure.
var ErrInvalidInput = errors.New("invalid rule input")

// FieldError is one input that is missing, mistyped or unexpected.
type FieldError struct {
	Field  string
	Reason string
	Value  any // nil when the field is missing
}

func (e *FieldError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("input %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("input %q: %s (got %T)", e.Field, e.Reason, e.Value)
}

func (e *FieldError) Is(target error) bool { return target == ErrInvalidInput }

// InputError collects the field errors of one inputs dict, in field order.
type InputError struct {
	Fields []*FieldError
}

func (e *InputError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e *InputError) Unwrap() []error {
	errs := make([]error, len(e.Fields))
	for i, f := range e.Fields {
		errs[i] = f
	}
	return errs
}

// RuleError places an input failure at a rule of a state's answer groups.
// Group and Rule are 1-based, as shown to authors.
type RuleError struct {
	Group    int
	Rule     int
	RuleType string
	Err      error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("answer group %d rule %d (%s): %v", e.Group, e.Rule, e.RuleType, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// FieldErrors returns the field errors wrapped in err, or nil.
func FieldErrors(err error) []*FieldError {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie.Fields
	}
	return nil
}
