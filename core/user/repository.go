package user

import (
	"context"
	"errors"
	"time"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

var (
	ErrNotFound         = core.NotFound("user not found")
	ErrIdentityNotFound = core.NotFound("identity not found")
	ErrProfileExists    = core.Conflict("a profile already exists for this identity")
	ErrEmailExists      = core.NewValidationError(
		errors.New("a user with this email already exists"),
		core.FieldError{Field: "email", Error: "a user with this email already exists"},
	)
)

// OrderingFields lists the profile fields lists can be ordered by.
var OrderingFields = []string{"name", "email", "created_at"}

// Repository is the profile store.
type Repository interface {
	// CreateProfile fails with ErrProfileExists when a profile is already keyed by p.ID.
	CreateProfile(ctx context.Context, p Profile) (Profile, error)
	GetProfile(ctx context.Context, id string) (Profile, error)
	QueryProfiles(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Profile, error)
	UpdateProfile(ctx context.Context, p Profile) (Profile, error)
	// ApproveStudent sets approved on the profile only if it is still a student's.
	// Fails with ErrNotFound otherwise; approving an approved student is a no-op.
	ApproveStudent(ctx context.Context, id string, at time.Time) (Profile, error)
	DeleteProfile(ctx context.Context, id string) error
}

// Credential is what the IdentityProvider persists per Identity.
type Credential struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time // UTC
	LastLogin    time.Time // UTC
}

func (c Credential) Identity() Identity {
	return Identity{ID: c.ID, Email: c.Email}
}

// CredentialRepository is the identity store; emails are unique (ErrEmailExists).
type CredentialRepository interface {
	CreateCredential(ctx context.Context, c Credential) (Credential, error)
	GetCredential(ctx context.Context, id string) (Credential, error)
	GetCredentialByEmail(ctx context.Context, email string) (Credential, error)
	UpdateCredential(ctx context.Context, c Credential) (Credential, error)
	DeleteCredential(ctx context.Context, id string) error
}

// Session is a signed-in Identity along with its bearer token.
type Session struct {
	Identity  Identity  `json:"identity"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IdentityProvider authenticates identities.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	// Verify returns the Identity a live token belongs to.
	Verify(ctx context.Context, token string) (Identity, error)
	DeleteIdentity(ctx context.Context, id string) error
	SetPassword(ctx context.Context, id, password string) error
	// OnIdentityChange registers fn to be called with the new Identity (nil on sign out).
	OnIdentityChange(fn func(*Identity)) (unsubscribe func())
}
