package elements

import (
	"fmt"
	"strings"
)

// FieldError describes one rejected field value.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError reports the fields an element kind rejected during
// ValidateAndNormalize. It is recoverable: the caller corrects the input
// and retries.
type ValidationError struct {
	TypeTag string       `json:"type_tag"`
	Errors  []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return fmt.Sprintf("invalid %s element config: %s", e.TypeTag, strings.Join(parts, "; "))
}

func (e *ValidationError) add(field, code, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Code: code, Message: message})
}

func (e *ValidationError) ok() bool {
	return len(e.Errors) == 0
}

// rejectUnknownKeys records a field error for every raw key outside the
// element's declared key set. Unknown keys are rejected at save time, never
// silently dropped. Returns non-nil when any key was rejected.
func rejectUnknownKeys(el Element, raw map[string]string, ve *ValidationError) error {
	declared := make(map[string]struct{})
	for _, k := range el.Keys() {
		declared[k] = struct{}{}
	}
	before := len(ve.Errors)
	for k := range raw {
		if _, ok := declared[k]; !ok {
			ve.add(k, "unknown", fmt.Sprintf("key %q is not accepted by %s elements", k, el.TypeTag()))
		}
	}
	if len(ve.Errors) > before {
		return ve
	}
	return nil
}

// UnknownTypeError reports a registry miss. A saved element carrying an
// unregistered tag means data corruption or a removed kind; it is surfaced,
// never substituted with a fallback.
type UnknownTypeError struct {
	Tag string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown element type %q", e.Tag)
}
