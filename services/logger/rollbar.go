// Package logsvc reports log entries to rollbar and prints them to a standard logger.
package logsvc

import (
	"fmt"
	"log"
	"sync"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/access"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// rollbar keeps the person globally: entries are reported one at a time.
var reportMu sync.Mutex

type RollbarLogger struct {
	std      *log.Logger
	minLevel Level
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)

	minLevel := LevelInfo
	if conf.Debug {
		minLevel = LevelDebug
	}
	return &RollbarLogger{std: std, minLevel: minLevel}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// SetLevel drops entries below lvl (fatal entries are always logged).
func (l *RollbarLogger) SetLevel(lvl Level) {
	l.minLevel = lvl
}

// expected fmt: msg | error, map[string]interface{}, access.AuthContext
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var personSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		// set the caller
		if ac, ok := arg.(access.AuthContext); ok {
			if !personSet && ac.Authenticated() { // only set one caller
				rollbar.SetPerson(ac.UID, string(ac.Role), ac.Email)
				personSet = true
			}
		} else {
			newArgs = append(newArgs, arg)
		}
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

func (l *RollbarLogger) print(lvl string, msg string, args []interface{}) {
	l.std.Printf("[%s] %s", lvl, msg)
	for _, arg := range args {
		if ac, ok := arg.(access.AuthContext); ok {
			l.std.Printf("caller: uid=%s role=%s", ac.UID, ac.Role)
			continue
		}
		l.std.Print(fmt.Sprintf("%+v", arg))
	}
}

func (l *RollbarLogger) log(lvl Level, report func(...interface{}), msg string, args []interface{}) {
	if lvl < l.minLevel {
		return
	}
	reportMu.Lock()
	report(l.prepare(msg, args)...)
	reportMu.Unlock()
	l.print(lvl.String(), msg, args)
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, rollbar.Debug, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, rollbar.Info, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, rollbar.Warning, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(LevelError, rollbar.Error, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	reportMu.Lock()
	rollbar.Critical(l.prepare(msg, args)...)
	reportMu.Unlock()
	rollbar.Close()
	l.print("FATAL", msg, args)
	l.std.Fatal(msg)
}
