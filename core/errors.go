package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Error kinds every rejected operation resolves to.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("permission denied")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// RejectionError carries a human readable reason on top of one of the error kinds above.
type RejectionError struct {
	Kind   error
	Reason string
}

func (err *RejectionError) Error() string {
	if err.Reason == "" {
		return err.Kind.Error()
	}
	return err.Reason
}

// Cause lets errors.Cause resolve to the error kind.
func (err *RejectionError) Cause() error  { return err.Kind }
func (err *RejectionError) Unwrap() error { return err.Kind }

func Unauthenticated(reason string) error {
	return &RejectionError{Kind: ErrUnauthenticated, Reason: reason}
}

func Forbidden(reason string) error {
	return &RejectionError{Kind: ErrForbidden, Reason: reason}
}

func NotFound(reason string) error {
	return &RejectionError{Kind: ErrNotFound, Reason: reason}
}

func Conflict(reason string) error {
	return &RejectionError{Kind: ErrConflict, Reason: reason}
}

func IsUnauthenticated(err error) bool { return errors.Is(err, ErrUnauthenticated) }
func IsForbidden(err error) bool       { return errors.Is(err, ErrForbidden) }
func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool        { return errors.Is(err, ErrConflict) }

// Reason returns the most specific message of a rejection (or validation) error, the error string otherwise.
func Reason(err error) string {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Error()
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// FieldMap returns the field errors keyed by field name, multiple errors on one field are joined.
func (err ValidationError) FieldMap() map[string]string {
	fields := make(map[string]string, len(err.Fields))
	for _, fld := range err.Fields {
		if msg, ok := fields[fld.Field]; ok {
			fields[fld.Field] = strings.Join([]string{msg, fld.Error}, "; ")
			continue
		}
		fields[fld.Field] = fld.Error
	}
	return fields
}

func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsRejection tells whether err refuses the caller (one of the error kinds or invalid input)
// rather than reporting a failure.
func IsRejection(err error) bool {
	return IsUnauthenticated(err) || IsForbidden(err) || IsNotFound(err) || IsConflict(err) || IsValidation(err)
}

// StoreError reports a failure of the backing store (network, driver, timeout).
// It is transient: the operation may be retried.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func (err *StoreError) Error() string {
	return fmt.Sprintf("store unavailable: %s: %v", err.Op, err.Err)
}

func (err *StoreError) Unwrap() error   { return err.Err }
func (err *StoreError) Temporary() bool { return true }

func IsStoreUnavailable(err error) bool {
	var serr *StoreError
	return errors.As(err, &serr)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
