package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/appointment"
)

const appointmentColumns = "id, student_id, teacher_id, datetime, status, created_at, updated_at"

type appointmentRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	TeacherID string    `db:"teacher_id"`
	Datetime  time.Time `db:"datetime"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r appointmentRow) toAppointment() appointment.Appointment {
	return appointment.Appointment{
		ID:        r.ID,
		StudentID: r.StudentID,
		TeacherID: r.TeacherID,
		Datetime:  r.Datetime.UTC(),
		Status:    appointment.Status(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type appointmentRepository struct {
	db *sqlx.DB
}

var _ appointment.Repository = (*appointmentRepository)(nil)

func NewAppointmentRepository(db *sqlx.DB) appointment.Repository {
	return &appointmentRepository{db: db}
}

// CreatePending relies on the partial unique index on (student_id, teacher_id) of pending rows.
func (repo *appointmentRepository) CreatePending(ctx context.Context, a appointment.Appointment) (appointment.Appointment, error) {
	a.Status = appointment.StatusPending
	q := `INSERT INTO appointment (` + appointmentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q,
		a.ID, a.StudentID, a.TeacherID, a.Datetime, string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return appointment.Appointment{}, appointment.ErrAlreadyPending
		}
		return appointment.Appointment{}, core.NewStoreError("creating appointment", err)
	}
	return a, nil
}

func (repo *appointmentRepository) GetAppointment(ctx context.Context, id string) (appointment.Appointment, error) {
	if !validID(id) {
		return appointment.Appointment{}, appointment.ErrNotFound
	}
	var row appointmentRow
	q := `SELECT ` + appointmentColumns + ` FROM appointment WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return appointment.Appointment{}, trapNoRowsErr("getting appointment", err, appointment.ErrNotFound)
	}
	return row.toAppointment(), nil
}

func (repo *appointmentRepository) QueryAppointments(ctx context.Context, filter appointment.QueryFilter) ([]appointment.Appointment, error) {
	conds := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if filter.StudentID != "" {
		if !validID(filter.StudentID) {
			return make([]appointment.Appointment, 0), nil
		}
		conds = append(conds, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.TeacherID != "" {
		if !validID(filter.TeacherID) {
			return make([]appointment.Appointment, 0), nil
		}
		conds = append(conds, "teacher_id = ?")
		args = append(args, filter.TeacherID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	q := `SELECT ` + appointmentColumns + ` FROM appointment`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY datetime ASC, created_at ASC, id ASC"

	rows := make([]appointmentRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, core.NewStoreError("querying appointments", err)
	}
	appts := make([]appointment.Appointment, 0, len(rows))
	for _, row := range rows {
		appts = append(appts, row.toAppointment())
	}
	return appts, nil
}

// UpdateStatus is a compare-and-set on the status: concurrent transitions cannot both succeed.
func (repo *appointmentRepository) UpdateStatus(
	ctx context.Context,
	id string,
	from, to appointment.Status,
	at time.Time,
) (appointment.Appointment, error) {
	if !validID(id) {
		return appointment.Appointment{}, appointment.ErrNotFound
	}
	var row appointmentRow
	q := `UPDATE appointment SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + appointmentColumns
	err := repo.db.GetContext(ctx, &row, q, id, string(from), string(to), at)
	if err == nil {
		return row.toAppointment(), nil
	}

	// no row updated: tell a missing appointment from a lost race
	err = trapNoRowsErr("updating appointment status", err, appointment.ErrNotPending)
	if err != appointment.ErrNotPending {
		return appointment.Appointment{}, err
	}
	if _, getErr := repo.GetAppointment(ctx, id); getErr != nil {
		return appointment.Appointment{}, getErr
	}
	return appointment.Appointment{}, appointment.ErrNotPending
}
