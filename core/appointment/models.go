package appointment

import (
	"context"
	"time"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCancelled Status = "cancelled"
)

var AllStatuses = []Status{StatusPending, StatusApproved, StatusCancelled}

func (s Status) Valid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal tells whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusCancelled
}

// CanTransitionTo holds only for pending -> approved and pending -> cancelled.
func (s Status) CanTransitionTo(to Status) bool {
	return s == StatusPending && to.IsTerminal()
}

type Appointment struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	TeacherID string    `json:"teacher_id"`
	Datetime  time.Time `json:"datetime"` // UTC
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewRequest contains what a student provides to book a teacher.
type NewRequest struct {
	TeacherID string    `json:"teacher_id" validate:"notblank"`
	Datetime  time.Time `json:"datetime" validate:"required"`
}

func (nr *NewRequest) Validate(v *core.Validator) error {
	nr.TeacherID = core.CleanString(nr.TeacherID)
	return v.Struct(nr)
}

// StatusUpdate contains the status a teacher moves a pending appointment to.
type StatusUpdate struct {
	Status Status `json:"status" validate:"required,oneof=approved cancelled"`
}

// QueryFilter applies an AND on its set fields.
type QueryFilter struct {
	StudentID string
	TeacherID string
	Status    Status
}

var (
	ErrNotFound        = core.NotFound("appointment not found")
	ErrTeacherNotFound = core.NotFound("teacher not found")
	ErrAlreadyPending  = core.Conflict("you already have a pending appointment with this teacher")
	ErrPastDatetime    = core.Conflict("the appointment must be scheduled in the future")
	ErrNotPending      = core.Conflict("the appointment is no longer pending")
	ErrNotOwner        = core.Forbidden("this appointment belongs to another teacher")
	ErrNotRequester    = core.Forbidden("students book appointments for themselves only")
)

type Repository interface {
	// CreatePending stores a as pending unless the pair already has a pending appointment (ErrAlreadyPending).
	CreatePending(ctx context.Context, a Appointment) (Appointment, error)
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	// QueryAppointments returns matches by datetime, soonest first.
	QueryAppointments(ctx context.Context, filter QueryFilter) ([]Appointment, error)
	// UpdateStatus moves the appointment from `from` to `to`.
	// Fails with ErrNotFound if it does not exist, ErrNotPending if its status is no longer `from`.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (Appointment, error)
}
