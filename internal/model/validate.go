package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateChain checks a reported perf-event chain for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the chain is valid.
func ValidateChain(c *PerfEventChain) error {
	var ve ValidationError

	// Events: at least one. An empty chain has no baseline timestamp.
	if len(c.Events) == 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "events", Message: "must contain at least one event"})
		return &ve
	}

	var prevTs int64
	for i, ev := range c.Events {
		field := func(name string) string {
			return fmt.Sprintf("events[%d].%s", i, name)
		}

		if strings.TrimSpace(ev.NodeName) == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: field("node_name"), Message: "is required"})
		}
		if strings.TrimSpace(ev.EventDescr) == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: field("event_descr"), Message: "is required"})
		}
		if ev.UnixTs <= 0 {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   field("unix_ts"),
				Message: fmt.Sprintf("must be a positive unix-ms timestamp, got %d", ev.UnixTs),
			})
		}

		// Event order is chronological as supplied; a timestamp running
		// backwards means the reporter interleaved two chains.
		if i > 0 && ev.UnixTs < prevTs {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   field("unix_ts"),
				Message: fmt.Sprintf("is before the previous event (%d < %d)", ev.UnixTs, prevTs),
			})
		}
		prevTs = ev.UnixTs
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
