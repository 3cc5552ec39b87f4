package core

import "fmt"

// Logger is a leveled logger.
// args may hold errors, maps of extra data or the access context of the caller.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

type nopLogger struct{}

var _ Logger = (*nopLogger)(nil)

// NewNopLogger returns a Logger that discards everything, for tests.
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

// LogFailure logs a failed op: a rejection as a warning, anything else as an error.
// A nil err is not logged.
func LogFailure(logger Logger, op string, err error, args ...interface{}) {
	if err == nil {
		return
	}
	msg := fmt.Sprintf("%s: %v", op, err)
	args = append([]interface{}{err}, args...)
	if IsRejection(err) {
		logger.Warn(msg, args...)
		return
	}
	logger.Error(msg, args...)
}
