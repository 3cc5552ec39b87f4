package user

import (
	"time"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

var (
	AllRoles   = []Role{RoleStudent, RoleTeacher, RoleAdmin}
	StaffRoles = []Role{RoleTeacher, RoleAdmin}

	Roles = []RoleInfo{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
	}
)

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff tells whether the role is provisioned by an admin (and thus approved on creation).
func (r Role) IsStaff() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// Identity is the authenticated principal, as known by the IdentityProvider.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Profile is the role-bearing record keyed by the Identity's ID.
// Approved only gates students: staff profiles are approved on creation.
type Profile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Approved   bool      `json:"approved"`
	Department string    `json:"department,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

func (p Profile) IsStudent() bool { return p.Role == RoleStudent }
func (p Profile) IsTeacher() bool { return p.Role == RoleTeacher }
func (p Profile) IsAdmin() bool   { return p.Role == RoleAdmin }

// NewStudent contains information needed to self-register a student.
type NewStudent struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"notblank,email"`
	Password string `json:"password" validate:"required"`
}

func (ns *NewStudent) Validate(v *core.Validator) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return v.Struct(ns)
}

// NewStaff contains information needed to provision a teacher.
type NewStaff struct {
	Name       string `json:"name" validate:"notblank"`
	Email      string `json:"email" validate:"notblank,email"`
	Password   string `json:"password" validate:"required"`
	Department string `json:"department" validate:"notblank"`
	Subject    string `json:"subject" validate:"notblank"`
}

func (ns *NewStaff) Validate(v *core.Validator) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Department = core.CleanString(ns.Department)
	ns.Subject = core.CleanString(ns.Subject)
	return v.Struct(ns)
}

// NewAdmin contains information needed to bootstrap an administrator.
type NewAdmin struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"notblank,email"`
	Password string `json:"password" validate:"required"`
}

func (na *NewAdmin) Validate(v *core.Validator) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	return v.Struct(na)
}

// UpdateProfile defines what information may be provided to modify an existing Profile.
// Empty fields keep their current value; role, email and approval cannot be changed this way.
type UpdateProfile struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Subject    string `json:"subject"`
}

func (up *UpdateProfile) Apply(p Profile) Profile {
	if name := core.CleanString(up.Name); name != "" {
		p.Name = name
	}
	if p.IsTeacher() {
		if dept := core.CleanString(up.Department); dept != "" {
			p.Department = dept
		}
		if subj := core.CleanString(up.Subject); subj != "" {
			p.Subject = subj
		}
	}
	return p
}

// QueryFilter applies an AND on its set fields.
type QueryFilter struct {
	Role     Role
	Approved *bool
}
