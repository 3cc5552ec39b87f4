package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core/appointment"
)

type appointmentRepository struct {
	db *appointmentTable
}

var _ appointment.Repository = (*appointmentRepository)(nil)

func NewAppointmentRepository(db *DB) appointment.Repository {
	return &appointmentRepository{db: db.appointment}
}

func (repo *appointmentRepository) CreatePending(_ context.Context, a appointment.Appointment) (appointment.Appointment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.table {
		if existing.StudentID == a.StudentID &&
			existing.TeacherID == a.TeacherID &&
			existing.Status == appointment.StatusPending {
			return appointment.Appointment{}, appointment.ErrAlreadyPending
		}
	}
	a.Status = appointment.StatusPending
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *appointmentRepository) GetAppointment(_ context.Context, id string) (appointment.Appointment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return appointment.Appointment{}, appointment.ErrNotFound
}

func (repo *appointmentRepository) QueryAppointments(_ context.Context, filter appointment.QueryFilter) ([]appointment.Appointment, error) {
	repo.db.mutex.RLock()
	appts := make([]appointment.Appointment, 0)
	for _, a := range repo.db.table {
		if filter.StudentID != "" && a.StudentID != filter.StudentID {
			continue
		}
		if filter.TeacherID != "" && a.TeacherID != filter.TeacherID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		appts = append(appts, *a)
	}
	repo.db.mutex.RUnlock()

	sort.SliceStable(appts, func(i, j int) bool {
		a, b := appts[i], appts[j]
		if !a.Datetime.Equal(b.Datetime) {
			return a.Datetime.Before(b.Datetime)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return appts, nil
}

func (repo *appointmentRepository) UpdateStatus(
	_ context.Context,
	id string,
	from, to appointment.Status,
	at time.Time,
) (appointment.Appointment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.table[id]
	if !ok {
		return appointment.Appointment{}, appointment.ErrNotFound
	}
	if a.Status != from {
		return appointment.Appointment{}, appointment.ErrNotPending
	}
	a.Status = to
	a.UpdatedAt = at
	return *a, nil
}
