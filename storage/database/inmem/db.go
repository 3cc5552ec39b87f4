// Package inmemdb is a process-local store, used in tests and when no database is configured.
package inmemdb

import (
	"sync"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core/appointment"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/message"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

type (
	DB struct {
		profile     *profileTable
		credential  *credentialTable
		appointment *appointmentTable
		message     *messageTable
	}

	profileTable struct {
		table map[string]*user.Profile
		mutex sync.RWMutex
	}

	credentialTable struct {
		table map[string]*user.Credential
		mutex sync.RWMutex
	}

	appointmentTable struct {
		table map[string]*appointment.Appointment
		mutex sync.RWMutex
	}

	messageTable struct {
		rows  []message.Message
		seq   int64
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		profile:     &profileTable{table: make(map[string]*user.Profile)},
		credential:  &credentialTable{table: make(map[string]*user.Credential)},
		appointment: &appointmentTable{table: make(map[string]*appointment.Appointment)},
		message:     &messageTable{rows: make([]message.Message, 0)},
	}
}
