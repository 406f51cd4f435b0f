package schedule

import (
	"fmt"
	"strings"
)

// ValidationError reports required booking fields that are empty or missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot book yet, missing required field(s): %s", strings.Join(e.Missing, ", "))
}

// PolicyViolationError reports a requested slot outside business hours or on
// a holiday.
type PolicyViolationError struct {
	Date string
	Time string
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("the time %s on %s is outside business hours (9 AM - 5 PM, Monday-Friday) or falls on a holiday", e.Time, e.Date)
}

// NotFoundError reports that no upcoming appointment matched the provided
// identifiers.
type NotFoundError struct {
	Email string
	Phone string
}

func (e *NotFoundError) Error() string {
	var criteria []string
	if e.Email != "" {
		criteria = append(criteria, "email: "+e.Email)
	}
	if e.Phone != "" {
		criteria = append(criteria, "phone: "+e.Phone)
	}
	if len(criteria) == 0 {
		return "no upcoming appointment found"
	}
	return "no upcoming appointment found matching " + strings.Join(criteria, " and ")
}

// ConflictError reports an occupied slot. Alternative carries the next free
// slot when the search found one.
type ConflictError struct {
	Date        string
	Time        string
	Alternative *Slot
}

func (e *ConflictError) Error() string {
	if e.Alternative != nil {
		return fmt.Sprintf("the slot on %s at %s is already occupied, next available is %s at %s",
			e.Date, e.Time, e.Alternative.Date, e.Alternative.Time)
	}
	return fmt.Sprintf("the slot on %s at %s is already occupied and no alternative slots are available", e.Date, e.Time)
}

// RemoteError wraps a calendar backend failure. Attempts records how many
// slot probes completed before the failure, zero when not probing.
type RemoteError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RemoteError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("calendar %s failed after %d slot(s) checked: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("calendar %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// UnparseableError reports a date or time expression that matched no known
// form.
type UnparseableError struct {
	Expression string
}

func (e *UnparseableError) Error() string {
	return fmt.Sprintf("could not parse date expression: %q, use expressions like 'tomorrow', 'next Tuesday', 'December 5', or ISO format 'YYYY-MM-DD'", e.Expression)
}
