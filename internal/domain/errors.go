package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is returned when a request is malformed or violates a business rule
// that the caller can fix by changing the request.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	switch {
	case e.Msg != "" && e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return "validation error"
	}
}

func (e ValidationError) Unwrap() error { return e.Err }

// NotFoundError is returned when a referenced row does not exist.
type NotFoundError struct {
	Resource string
	ID       any
	Err      error
}

func (e NotFoundError) Error() string {
	switch {
	case e.Resource == "":
		return "not found"
	case e.ID != nil:
		return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
	default:
		return fmt.Sprintf("%s not found", e.Resource)
	}
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ConflictError is returned when the request collides with existing state,
// such as an overlapping reservation.
type ConflictError struct {
	Resource string
	Msg      string
	// Keys lists the conflicting identifiers, e.g. room numbers.
	Keys []string
	Err  error
}

func (e ConflictError) Error() string {
	msg := e.Msg
	if len(e.Keys) > 0 {
		keys := strings.Join(e.Keys, ", ")
		if msg == "" {
			msg = keys
		} else {
			msg = fmt.Sprintf("%s: %s", msg, keys)
		}
	}
	switch {
	case msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, msg)
	case msg != "":
		return msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}
