// Package appointment implements the appointment lifecycle: students request, teachers approve or cancel.
package appointment

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/access"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

var nowFunc = time.Now // mockable

// ProfileGetter is the part of the profile store the Service needs.
type ProfileGetter interface {
	GetProfile(ctx context.Context, id string) (user.Profile, error)
}

type Service struct {
	repo      Repository
	profiles  ProfileGetter
	locker    core.Locker
	mailSvc   core.EmailService
	validator *core.Validator
	logger    core.Logger
}

func NewService(
	repo Repository,
	profiles ProfileGetter,
	locker core.Locker,
	mailSvc core.EmailService,
	validator *core.Validator,
	logger core.Logger,
) *Service {
	return &Service{
		repo:      repo,
		profiles:  profiles,
		locker:    locker,
		mailSvc:   mailSvc,
		validator: validator,
		logger:    logger,
	}
}

// Request books a teacher on behalf of an approved student.
// A student holds at most one pending appointment per teacher.
func (svc *Service) Request(ctx context.Context, actor access.AuthContext, studentID string, nr NewRequest) (_ Appointment, err error) {
	svc.logger.Debug(fmt.Sprintf("requesting appointment with %s", nr.TeacherID), actor)
	defer func() { core.LogFailure(svc.logger, "requesting appointment", err, actor) }()

	if err := access.RequireApproved(actor, user.RoleStudent); err != nil {
		return Appointment{}, err
	}
	if actor.UID != studentID {
		return Appointment{}, ErrNotRequester
	}
	if err := nr.Validate(svc.validator); err != nil {
		return Appointment{}, err
	}

	now := nowFunc().UTC()
	if !nr.Datetime.After(now) {
		return Appointment{}, ErrPastDatetime
	}

	teacher, err := svc.profiles.GetProfile(ctx, nr.TeacherID)
	if err != nil {
		if core.IsNotFound(err) {
			return Appointment{}, ErrTeacherNotFound
		}
		return Appointment{}, errors.Wrap(err, "getting teacher")
	}
	if !teacher.IsTeacher() {
		return Appointment{}, ErrTeacherNotFound
	}

	unlock, err := svc.locker.Lock(ctx, fmt.Sprintf("appointment:%s:%s", studentID, nr.TeacherID))
	if err != nil {
		return Appointment{}, errors.Wrap(err, "locking pair")
	}
	defer unlock()

	appt, err := svc.repo.CreatePending(ctx, Appointment{
		ID:        uuid.New().String(),
		StudentID: studentID,
		TeacherID: nr.TeacherID,
		Datetime:  nr.Datetime.UTC(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyPending) {
			return Appointment{}, err
		}
		return Appointment{}, errors.Wrap(err, "creating appointment")
	}

	svc.logger.Info(fmt.Sprintf("appointment %s requested", appt.ID), actor)
	svc.notifyTeacher(ctx, appt, teacher)
	return appt, nil
}

// SetStatus lets the owning teacher approve or cancel a pending appointment.
func (svc *Service) SetStatus(ctx context.Context, actor access.AuthContext, id string, su StatusUpdate) (_ Appointment, err error) {
	svc.logger.Debug(fmt.Sprintf("setting appointment %s %s", id, su.Status), actor)
	defer func() { core.LogFailure(svc.logger, "updating appointment status", err, actor) }()

	if err := access.Require(actor, user.RoleTeacher); err != nil {
		return Appointment{}, err
	}

	appt, err := svc.repo.GetAppointment(ctx, id)
	if err != nil {
		return Appointment{}, errors.Wrap(err, "getting appointment")
	}
	if appt.TeacherID != actor.UID {
		return Appointment{}, ErrNotOwner
	}
	if err := svc.validator.Struct(su); err != nil {
		return Appointment{}, err
	}
	if !appt.Status.CanTransitionTo(su.Status) {
		return Appointment{}, ErrNotPending
	}

	appt, err = svc.repo.UpdateStatus(ctx, id, StatusPending, su.Status, nowFunc().UTC())
	if err != nil {
		if errors.Is(err, ErrNotPending) || errors.Is(err, ErrNotFound) {
			return Appointment{}, err
		}
		return Appointment{}, errors.Wrap(err, "updating appointment status")
	}

	svc.logger.Info(fmt.Sprintf("appointment %s %s", id, su.Status), actor)
	svc.notifyStudent(ctx, appt)
	return appt, nil
}

// ListForStudent is readable by the student itself, approved or not, and by admins.
func (svc *Service) ListForStudent(ctx context.Context, actor access.AuthContext, studentID string) ([]Appointment, error) {
	if err := access.RequireSelfOr(actor, studentID, user.RoleAdmin); err != nil {
		return nil, err
	}
	return svc.repo.QueryAppointments(ctx, QueryFilter{StudentID: studentID})
}

// ListForTeacher is readable by the teacher itself and by admins.
func (svc *Service) ListForTeacher(ctx context.Context, actor access.AuthContext, teacherID string) ([]Appointment, error) {
	if err := access.RequireSelfOr(actor, teacherID, user.RoleAdmin); err != nil {
		return nil, err
	}
	return svc.repo.QueryAppointments(ctx, QueryFilter{TeacherID: teacherID})
}

func (svc *Service) ListAll(ctx context.Context, actor access.AuthContext, filter QueryFilter) ([]Appointment, error) {
	if err := access.Require(actor, user.RoleAdmin); err != nil {
		return nil, err
	}
	return svc.repo.QueryAppointments(ctx, filter)
}

type notification struct {
	StudentName string
	TeacherName string
	Datetime    string
	Status      Status
}

func (svc *Service) notifyTeacher(ctx context.Context, appt Appointment, teacher user.Profile) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: teacher.Name, Address: teacher.Email}},
		Subject:      "New appointment request",
		TemplateName: "appointment_requested",
		TemplateData: notification{
			StudentName: svc.nameOf(ctx, appt.StudentID),
			TeacherName: teacher.Name,
			Datetime:    appt.Datetime.Format(time.RFC1123),
			Status:      appt.Status,
		},
	})
}

func (svc *Service) notifyStudent(ctx context.Context, appt Appointment) {
	student, err := svc.profiles.GetProfile(ctx, appt.StudentID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("cannot notify student %s: %v", appt.StudentID, err), err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      "Appointment " + string(appt.Status),
		TemplateName: "appointment_status",
		TemplateData: notification{
			StudentName: student.Name,
			TeacherName: svc.nameOf(ctx, appt.TeacherID),
			Datetime:    appt.Datetime.Format(time.RFC1123),
			Status:      appt.Status,
		},
	})
}

func (svc *Service) nameOf(ctx context.Context, id string) string {
	p, err := svc.profiles.GetProfile(ctx, id)
	if err != nil {
		return "Unknown"
	}
	return p.Name
}

// Grouped partitions appointments by status, preserving their order.
type Grouped struct {
	Pending   []Appointment `json:"pending"`
	Approved  []Appointment `json:"approved"`
	Cancelled []Appointment `json:"cancelled"`
}

func Group(appts []Appointment) Grouped {
	g := Grouped{
		Pending:   make([]Appointment, 0),
		Approved:  make([]Appointment, 0),
		Cancelled: make([]Appointment, 0),
	}
	for _, a := range appts {
		switch a.Status {
		case StatusPending:
			g.Pending = append(g.Pending, a)
		case StatusApproved:
			g.Approved = append(g.Approved, a)
		case StatusCancelled:
			g.Cancelled = append(g.Cancelled, a)
		}
	}
	return g
}
