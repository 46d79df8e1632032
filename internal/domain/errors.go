package domain

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

var (
	// ErrInvalidQuarterLabel marks a quarter string that is not "<year>-Q<n>".
	ErrInvalidQuarterLabel = errors.New("invalid quarter label")
	// ErrInvalidQuery marks a missing or malformed user/quarter scope.
	ErrInvalidQuery = errors.New("invalid query")
)

// TranslationError reports a foreign record that could not be mapped to a
// trip record. It is collected per record and never aborts a batch.
type TranslationError struct {
	Source    string `json:"source"`
	SourceRef string `json:"sourceRef"`
	Reason    string `json:"reason"`
	Raw       string `json:"raw,omitempty"`
}

func (e TranslationError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Source, e.SourceRef, e.Reason)
	if e.Raw != "" {
		msg += fmt.Sprintf(" (%q)", e.Raw)
	}
	return msg
}

// PersistenceError means an atomic batch write did not commit. Nothing from
// the batch is stored, so the same import can be retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	if e.Err == nil {
		return e.Op + ": persistence failed"
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

// InvalidQuarter builds the validation error returned for a bad quarter label.
func InvalidQuarter(label string) error {
	return ValidationError{Field: "quarter", Msg: fmt.Sprintf("invalid quarter label %q", label), Err: ErrInvalidQuarterLabel}
}

// InvalidQuery builds the validation error returned for a missing scope field.
func InvalidQuery(field, msg string) error {
	return ValidationError{Field: field, Msg: msg, Err: ErrInvalidQuery}
}

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

func IsTranslation(err error) bool {
	var target TranslationError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target PersistenceError
	return errors.As(err, &target)
}
