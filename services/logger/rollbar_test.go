package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/access"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

func newTestLogger(out *bytes.Buffer) *RollbarLogger {
	logger := NewRollbarLogger(log.New(out, "TEST : ", 0), core.NewTestConfig())
	logger.Enable(false)
	return logger
}

func TestRollbarLogger_levels(t *testing.T) {
	out := new(bytes.Buffer)
	logger := newTestLogger(out)

	logger.Debug("debugging")
	assert.Contains(t, out.String(), "[DEBUG] debugging")

	out.Reset()
	logger.SetLevel(LevelWarn)
	logger.Info("informing")
	assert.Empty(t, out.String())

	logger.Error("failing", errors.New("boom"))
	assert.Contains(t, out.String(), "[ERROR] failing")
	assert.Contains(t, out.String(), "boom")
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger := newTestLogger(new(bytes.Buffer))
	ac := access.For(user.Profile{ID: "a1", Email: "a1@test.cd", Role: user.RoleAdmin})
	err := errors.New("boom")
	extra := map[string]interface{}{"k": "v"}

	args := logger.prepare("msg", []interface{}{err, ac, extra})
	assert.Equal(t, []interface{}{"msg", err, extra}, args)
}
