package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRejectionError(t *testing.T) {
	err := NotFound("user not found")
	wrapped := errors.Wrap(err, "getting profile")

	tests := []struct {
		name    string
		err     error
		isErrFn func(error) bool
		want    bool
	}{
		{name: "kind", err: err, isErrFn: IsNotFound, want: true},
		{name: "wrapped kind", err: wrapped, isErrFn: IsNotFound, want: true},
		{name: "other kind", err: wrapped, isErrFn: IsForbidden, want: false},
		{name: "conflict", err: Conflict("taken"), isErrFn: IsConflict, want: true},
		{name: "forbidden", err: Forbidden(""), isErrFn: IsForbidden, want: true},
		{name: "unauthenticated", err: Unauthenticated("sign in"), isErrFn: IsUnauthenticated, want: true},
		{name: "store error is not a rejection", err: NewStoreError("op", errors.New("down")), isErrFn: IsNotFound, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.isErrFn(tt.err))
		})
	}

	assert.Equal(t, ErrNotFound, errors.Cause(err))
	assert.Equal(t, "permission denied", Forbidden("").Error())
}

func TestReason(t *testing.T) {
	verr := NewValidationError(errors.New("invalid input"), FieldError{Field: "email", Error: "invalid email"})

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "rejection", err: errors.Wrap(Conflict("slot taken"), "creating"), want: "slot taken"},
		{name: "validation", err: errors.Wrap(verr, "validating"), want: "invalid input"},
		{name: "other", err: errors.New("boom"), want: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reason(tt.err))
		})
	}
}

func TestValidationError_FieldMap(t *testing.T) {
	err := ValidationError{Fields: []FieldError{
		{Field: "password", Error: "too short"},
		{Field: "email", Error: "invalid email"},
		{Field: "password", Error: "too common"},
	}}
	assert.Equal(t, map[string]string{
		"password": "too short; too common",
		"email":    "invalid email",
	}, err.FieldMap())
	assert.Equal(t, "", err.Error())
	assert.True(t, IsValidation(errors.Wrap(&err, "wrapped")))
}

func TestStoreError(t *testing.T) {
	cause := errors.New("connection refused")
	err := errors.Wrap(NewStoreError("getting profile", cause), "resolving context")

	assert.True(t, IsStoreUnavailable(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "store unavailable: getting profile: connection refused")
	assert.False(t, IsStoreUnavailable(NotFound("")))
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("integrity issue"), "handling request")))
	assert.False(t, IsShutdown(errors.New("integrity issue")))
}

type entry struct{ level, msg string }

type recordingLogger struct {
	nopLogger
	entries []entry
}

func (l *recordingLogger) Warn(msg string, _ ...interface{})  { l.entries = append(l.entries, entry{"warn", msg}) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.entries = append(l.entries, entry{"error", msg}) }

func TestLogFailure(t *testing.T) {
	logger := new(recordingLogger)

	LogFailure(logger, "approving student", nil)
	LogFailure(logger, "approving student", errors.Wrap(NotFound("student not found"), "getting profile"))
	LogFailure(logger, "sending message", NewValidationError(errors.New("invalid input")))
	LogFailure(logger, "requesting appointment", NewStoreError("creating appointment", errors.New("down")))

	assert.Equal(t, []entry{
		{"warn", "approving student: getting profile: student not found"},
		{"warn", "sending message: invalid input"},
		{"error", "requesting appointment: store unavailable: creating appointment: down"},
	}, logger.entries)
}
