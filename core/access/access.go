// Package access resolves who the caller is and decides what they may do.
package access

import (
	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

// AuthContext is the caller, as resolved from its Identity and Profile.
// It is passed explicitly to every operation.
type AuthContext struct {
	UID      string    `json:"uid"`
	Email    string    `json:"email"`
	Role     user.Role `json:"role"`
	Approved bool      `json:"approved"`

	// Resolved is set once resolution completed; no decision is made on an unresolved context.
	Resolved bool `json:"-"`
	// LoadErr holds the store failure that degraded the context, if any.
	LoadErr error `json:"-"`
}

// Anonymous is the resolved context of a caller without identity.
var Anonymous = AuthContext{Resolved: true}

// For builds the resolved context of a profile.
func For(p user.Profile) AuthContext {
	return AuthContext{
		UID:      p.ID,
		Email:    p.Email,
		Role:     p.Role,
		Approved: p.Approved,
		Resolved: true,
	}
}

func (ac AuthContext) Authenticated() bool { return ac.UID != "" }
func (ac AuthContext) HasProfile() bool    { return ac.Role != "" }
func (ac AuthContext) IsAdmin() bool       { return ac.Role == user.RoleAdmin }
func (ac AuthContext) IsTeacher() bool     { return ac.Role == user.RoleTeacher }
func (ac AuthContext) IsStudent() bool     { return ac.Role == user.RoleStudent }

// Decision is the outcome of Authorize.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	default:
		return "deny_forbidden"
	}
}

// Err maps a denial to its core error kind.
func (d Decision) Err() error {
	switch d {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return core.ErrUnauthenticated
	default:
		return core.ErrForbidden
	}
}

// Authorize evaluates, in order: the caller is authenticated, its context is resolved, its role is one of roles.
func Authorize(ac AuthContext, roles ...user.Role) Decision {
	if !ac.Authenticated() {
		return DenyUnauthenticated
	}
	if !ac.Resolved {
		return DenyUnauthenticated
	}
	for _, role := range roles {
		if ac.Role == role {
			return Allow
		}
	}
	return DenyForbidden
}

var (
	errNotSignedIn     = core.Unauthenticated("please sign in")
	errWrongRole       = core.Forbidden("you do not have access to this resource")
	errPendingApproval = core.Forbidden("your account is waiting for approval")
)

// Require is Authorize as an error, nil when allowed.
func Require(ac AuthContext, roles ...user.Role) error {
	switch Authorize(ac, roles...) {
	case Allow:
		return nil
	case DenyUnauthenticated:
		return errNotSignedIn
	default:
		return errWrongRole
	}
}

// RequireApproved is Require plus the approval check: unapproved students cannot transact.
func RequireApproved(ac AuthContext, roles ...user.Role) error {
	if err := Require(ac, roles...); err != nil {
		return err
	}
	if !ac.Approved {
		return errPendingApproval
	}
	return nil
}

// RequireSelfOr allows the caller acting on its own resource (uid), or any caller with one of roles.
func RequireSelfOr(ac AuthContext, uid string, roles ...user.Role) error {
	if err := Require(ac, user.AllRoles...); err != nil {
		return err
	}
	if ac.UID == uid {
		return nil
	}
	return Require(ac, roles...)
}

// IsPendingApproval tells whether err is the rejection of an unapproved student.
func IsPendingApproval(err error) bool {
	return err == errPendingApproval
}
