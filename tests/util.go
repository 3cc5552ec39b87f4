// Package testutil holds helpers shared by the tests of several packages.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
	"github.com/fonsecajr2/Student-Teacher-Appointment/storage/database"
)

// DefaultPassword satisfies the password policy for any test name or email.
const DefaultPassword = "s3cr3t-Pass!"

// PrepareDB opens, migrates and empties the test database.
// Tests are skipped when TEST_DATABASE_HOST is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("TEST_DATABASE_HOST not set, skipping database tests")
	}
	_ = os.Setenv("ENV", "TEST")
	conf := core.NewConfig()

	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if _, err = db.Exec(`TRUNCATE TABLE message, appointment, profile, "identity"`); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateProfile stores a profile without identity.
func CreateProfile(
	t *testing.T,
	repo user.Repository,
	id, name, email string,
	role user.Role,
	approved bool,
	createdAt ...time.Time,
) user.Profile {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p := user.Profile{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      role,
		Approved:  approved,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if role == user.RoleTeacher {
		p.Department = "Sciences"
		p.Subject = "Physics"
	}
	p, err := repo.CreateProfile(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return p
}

// CreateUser signs an identity up, with DefaultPassword, and stores its profile.
func CreateUser(
	t *testing.T,
	identities user.IdentityProvider,
	repo user.Repository,
	name, email string,
	role user.Role,
	approved bool,
) user.Profile {
	t.Helper()
	id, err := identities.SignUp(context.Background(), email, DefaultPassword)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return CreateProfile(t, repo, id.ID, name, id.Email, role, approved)
}
