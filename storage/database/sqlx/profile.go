package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

const profileColumns = "id, name, email, role, approved, department, subject, created_at, updated_at"

type profileRow struct {
	ID         string      `db:"id"`
	Name       string      `db:"name"`
	Email      string      `db:"email"`
	Role       string      `db:"role"`
	Approved   bool        `db:"approved"`
	Department null.String `db:"department"`
	Subject    null.String `db:"subject"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func newProfileRow(p user.Profile) profileRow {
	return profileRow{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Role:       string(p.Role),
		Approved:   p.Approved,
		Department: null.NewString(p.Department, p.Department != ""),
		Subject:    null.NewString(p.Subject, p.Subject != ""),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (r profileRow) toProfile() user.Profile {
	return user.Profile{
		ID:         r.ID,
		Name:       r.Name,
		Email:      r.Email,
		Role:       user.Role(r.Role),
		Approved:   r.Approved,
		Department: r.Department.String,
		Subject:    r.Subject.String,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

type profileRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *sqlx.DB) user.Repository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) CreateProfile(ctx context.Context, p user.Profile) (user.Profile, error) {
	q := `INSERT INTO profile (` + profileColumns + `)
		VALUES (:id, :name, :email, :role, :approved, :department, :subject, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newProfileRow(p)); err != nil {
		if isUniqueViolation(err) {
			return user.Profile{}, user.ErrProfileExists
		}
		return user.Profile{}, core.NewStoreError("creating profile", err)
	}
	return p, nil
}

func (repo *profileRepository) GetProfile(ctx context.Context, id string) (user.Profile, error) {
	if !validID(id) {
		return user.Profile{}, user.ErrNotFound
	}
	var row profileRow
	q := `SELECT ` + profileColumns + ` FROM profile WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return user.Profile{}, trapNoRowsErr("getting profile", err, user.ErrNotFound)
	}
	return row.toProfile(), nil
}

func (repo *profileRepository) QueryProfiles(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.Profile, error) {
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, string(filter.Role))
	}
	if filter.Approved != nil {
		conds = append(conds, "approved = ?")
		args = append(args, *filter.Approved)
	}

	q := `SELECT ` + profileColumns + ` FROM profile`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY " + orderBy(ordering, user.OrderingFields, "created_at ASC")

	rows := make([]profileRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, core.NewStoreError("querying profiles", err)
	}
	profiles := make([]user.Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, row.toProfile())
	}
	return profiles, nil
}

// orderBy renders the ORDER BY clause, skipping fields not in allowed.
func orderBy(ordering []core.DBOrdering, allowed []string, fallback string) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		for _, fld := range allowed {
			if ord.Field == fld {
				clauses = append(clauses, ord.String())
				break
			}
		}
	}
	if len(clauses) == 0 {
		clauses = append(clauses, fallback)
	}
	return strings.Join(append(clauses, "id ASC"), ", ")
}

func (repo *profileRepository) UpdateProfile(ctx context.Context, p user.Profile) (user.Profile, error) {
	if !validID(p.ID) {
		return user.Profile{}, user.ErrNotFound
	}
	var row profileRow
	q := `UPDATE profile SET name = $2, department = $3, subject = $4, updated_at = $5
		WHERE id = $1
		RETURNING ` + profileColumns
	r := newProfileRow(p)
	if err := repo.db.GetContext(ctx, &row, q, r.ID, r.Name, r.Department, r.Subject, r.UpdatedAt); err != nil {
		return user.Profile{}, trapNoRowsErr("updating profile", err, user.ErrNotFound)
	}
	return row.toProfile(), nil
}

func (repo *profileRepository) ApproveStudent(ctx context.Context, id string, at time.Time) (user.Profile, error) {
	if !validID(id) {
		return user.Profile{}, user.ErrNotFound
	}
	var row profileRow
	q := `UPDATE profile
		SET approved = true, updated_at = CASE WHEN approved THEN updated_at ELSE $2 END
		WHERE id = $1 AND role = 'student'
		RETURNING ` + profileColumns
	if err := repo.db.GetContext(ctx, &row, q, id, at); err != nil {
		return user.Profile{}, trapNoRowsErr("approving student", err, user.ErrNotFound)
	}
	return row.toProfile(), nil
}

func (repo *profileRepository) DeleteProfile(ctx context.Context, id string) error {
	if !validID(id) {
		return user.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM profile WHERE id = $1`, id)
	if err != nil {
		return core.NewStoreError("deleting profile", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}
