package tests

import (
	"os"
	"testing"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

var conf *core.Config

func TestMain(m *testing.M) {
	conf = core.NewTestConfig()
	core.ParseEmailTemplates(core.NewNopLogger(), conf)

	os.Exit(m.Run())
}
