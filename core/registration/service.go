// Package registration implements the student self-registration, staff provisioning and approval workflow.
package registration

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/access"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

var (
	nowFunc = time.Now // mockable

	ErrNotAStudent  = core.NotFound("student not found")
	ErrSelfDeletion = core.Forbidden("you cannot delete your own account")
	ErrDeleteAdmin  = core.Forbidden("administrators cannot be deleted")
)

type Service struct {
	profiles   user.Repository
	identities user.IdentityProvider
	locker     core.Locker
	mailSvc    core.EmailService
	validator  *core.Validator
	logger     core.Logger
}

func NewService(
	profiles user.Repository,
	identities user.IdentityProvider,
	locker core.Locker,
	mailSvc core.EmailService,
	validator *core.Validator,
	logger core.Logger,
) *Service {
	return &Service{
		profiles:   profiles,
		identities: identities,
		locker:     locker,
		mailSvc:    mailSvc,
		validator:  validator,
		logger:     logger,
	}
}

// Register signs up a student. The profile starts unapproved.
func (svc *Service) Register(ctx context.Context, ns user.NewStudent) (_ user.Profile, err error) {
	svc.logger.Debug("registering student", map[string]interface{}{"email": ns.Email})
	defer func() { core.LogFailure(svc.logger, "registering student", err) }()

	if err := ns.Validate(svc.validator); err != nil {
		return user.Profile{}, err
	}

	p, err := svc.createUser(ctx, ns.Email, ns.Password, user.Profile{
		Name:  ns.Name,
		Email: ns.Email,
		Role:  user.RoleStudent,
	})
	if err != nil {
		return user.Profile{}, err
	}
	svc.logger.Info(fmt.Sprintf("student %s registered, pending approval", p.ID))
	return p, nil
}

// ProvisionStaff creates an approved teacher on behalf of an admin.
func (svc *Service) ProvisionStaff(ctx context.Context, actor access.AuthContext, ns user.NewStaff) (_ user.Profile, err error) {
	svc.logger.Debug("provisioning teacher", map[string]interface{}{"email": ns.Email}, actor)
	defer func() { core.LogFailure(svc.logger, "provisioning teacher", err, actor) }()

	if err := access.Require(actor, user.RoleAdmin); err != nil {
		return user.Profile{}, err
	}
	if err := ns.Validate(svc.validator); err != nil {
		return user.Profile{}, err
	}

	p, err := svc.createUser(ctx, ns.Email, ns.Password, user.Profile{
		Name:       ns.Name,
		Email:      ns.Email,
		Role:       user.RoleTeacher,
		Department: ns.Department,
		Subject:    ns.Subject,
	})
	if err != nil {
		return user.Profile{}, err
	}
	svc.logger.Info(fmt.Sprintf("teacher %s provisioned", p.ID), actor)
	return p, nil
}

// CreateAdmin bootstraps an administrator; it is reserved to operators (admin CLI).
func (svc *Service) CreateAdmin(ctx context.Context, na user.NewAdmin) (_ user.Profile, err error) {
	svc.logger.Debug("creating admin", map[string]interface{}{"email": na.Email})
	defer func() { core.LogFailure(svc.logger, "creating admin", err) }()

	if err := na.Validate(svc.validator); err != nil {
		return user.Profile{}, err
	}
	p, err := svc.createUser(ctx, na.Email, na.Password, user.Profile{
		Name:  na.Name,
		Email: na.Email,
		Role:  user.RoleAdmin,
	})
	if err != nil {
		return user.Profile{}, err
	}
	svc.logger.Info(fmt.Sprintf("admin %s created", p.ID))
	return p, nil
}

// createUser creates the Identity then its Profile.
// The Identity is deleted when the Profile cannot be created, so that no profile-less identity is left behind.
func (svc *Service) createUser(ctx context.Context, email, pwd string, p user.Profile) (user.Profile, error) {
	unlock, err := svc.locker.Lock(ctx, "registration:"+email)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "locking email")
	}
	defer unlock()

	id, err := svc.identities.SignUp(ctx, email, pwd)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "signing up")
	}

	now := nowFunc().UTC()
	p.ID = id.ID
	p.Approved = p.Role.IsStaff()
	p.CreatedAt = now
	p.UpdatedAt = now

	created, err := svc.profiles.CreateProfile(ctx, p)
	if err != nil {
		if delErr := svc.identities.DeleteIdentity(ctx, id.ID); delErr != nil {
			svc.logger.Error(
				fmt.Sprintf("orphan identity %s: profile creation failed (%v), then identity deletion failed (%v)", id.ID, err, delErr),
				err, delErr,
			)
		}
		return user.Profile{}, errors.Wrap(err, "creating profile")
	}
	return created, nil
}

// Approve lets a pending student transact. Approving an approved student is a no-op.
func (svc *Service) Approve(ctx context.Context, actor access.AuthContext, studentID string) (_ user.Profile, err error) {
	svc.logger.Debug(fmt.Sprintf("approving student %s", studentID), actor)
	defer func() { core.LogFailure(svc.logger, "approving student", err, actor) }()

	if err := access.Require(actor, user.RoleAdmin); err != nil {
		return user.Profile{}, err
	}

	// re-read: the student may have been approved or deleted since it was listed
	current, err := svc.getStudent(ctx, studentID)
	if err != nil {
		return user.Profile{}, err
	}

	p, err := svc.profiles.ApproveStudent(ctx, studentID, nowFunc().UTC())
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Profile{}, ErrNotAStudent
		}
		return user.Profile{}, errors.Wrap(err, "approving student")
	}

	if !current.Approved {
		svc.logger.Info(fmt.Sprintf("student %s approved", studentID), actor)
		svc.sendApprovalMail(p)
	}
	return p, nil
}

// Reject removes a student profile along with its identity. There is no rejected state.
func (svc *Service) Reject(ctx context.Context, actor access.AuthContext, studentID string) (err error) {
	svc.logger.Debug(fmt.Sprintf("rejecting student %s", studentID), actor)
	defer func() { core.LogFailure(svc.logger, "rejecting student", err, actor) }()

	if err := access.Require(actor, user.RoleAdmin); err != nil {
		return err
	}
	if _, err := svc.getStudent(ctx, studentID); err != nil {
		return err
	}
	if err := svc.deleteUser(ctx, studentID); err != nil {
		return err
	}
	svc.logger.Info(fmt.Sprintf("student %s rejected", studentID), actor)
	return nil
}

// Delete removes a teacher or student profile along with its identity.
func (svc *Service) Delete(ctx context.Context, actor access.AuthContext, id string) (err error) {
	svc.logger.Debug(fmt.Sprintf("deleting user %s", id), actor)
	defer func() { core.LogFailure(svc.logger, "deleting user", err, actor) }()

	if err := access.Require(actor, user.RoleAdmin); err != nil {
		return err
	}
	if actor.UID == id {
		return ErrSelfDeletion
	}
	p, err := svc.profiles.GetProfile(ctx, id)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	if p.IsAdmin() {
		return ErrDeleteAdmin
	}
	if err := svc.deleteUser(ctx, id); err != nil {
		return err
	}
	svc.logger.Info(fmt.Sprintf("%s %s deleted", p.Role, id), actor)
	return nil
}

// deleteUser deletes the profile first: an identity without profile is denied access anyway.
func (svc *Service) deleteUser(ctx context.Context, id string) error {
	if err := svc.profiles.DeleteProfile(ctx, id); err != nil {
		return errors.Wrap(err, "deleting profile")
	}
	if err := svc.identities.DeleteIdentity(ctx, id); err != nil && !core.IsNotFound(err) {
		svc.logger.Error(fmt.Sprintf("deleting identity %s: %v", id, err), err)
	}
	return nil
}

// Update modifies the name (and department and subject of teachers) of a profile.
// Callers may update their own profile, admins any profile.
func (svc *Service) Update(ctx context.Context, actor access.AuthContext, id string, up user.UpdateProfile) (_ user.Profile, err error) {
	svc.logger.Debug(fmt.Sprintf("updating profile %s", id), actor)
	defer func() { core.LogFailure(svc.logger, "updating profile", err, actor) }()

	if err := access.RequireSelfOr(actor, id, user.RoleAdmin); err != nil {
		return user.Profile{}, err
	}
	p, err := svc.profiles.GetProfile(ctx, id)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "getting profile")
	}
	p = up.Apply(p)
	p.UpdatedAt = nowFunc().UTC()
	if p, err = svc.profiles.UpdateProfile(ctx, p); err != nil {
		return user.Profile{}, errors.Wrap(err, "updating profile")
	}
	svc.logger.Info(fmt.Sprintf("profile %s updated", id), actor)
	return p, nil
}

// Get returns a profile; any signed-in user may read profiles (names are shown across roles).
func (svc *Service) Get(ctx context.Context, actor access.AuthContext, id string) (user.Profile, error) {
	if err := access.Require(actor, user.AllRoles...); err != nil {
		return user.Profile{}, err
	}
	return svc.profiles.GetProfile(ctx, id)
}

func (svc *Service) ListPending(ctx context.Context, actor access.AuthContext, ordering ...core.DBOrdering) ([]user.Profile, error) {
	if err := access.Require(actor, user.RoleAdmin); err != nil {
		return nil, err
	}
	approved := false
	return svc.profiles.QueryProfiles(ctx, user.QueryFilter{Role: user.RoleStudent, Approved: &approved}, ordering...)
}

func (svc *Service) ListApproved(ctx context.Context, actor access.AuthContext, ordering ...core.DBOrdering) ([]user.Profile, error) {
	if err := access.Require(actor, user.RoleAdmin); err != nil {
		return nil, err
	}
	approved := true
	return svc.profiles.QueryProfiles(ctx, user.QueryFilter{Role: user.RoleStudent, Approved: &approved}, ordering...)
}

// ListTeachers is open to any signed-in user: students browse teachers to book them.
func (svc *Service) ListTeachers(ctx context.Context, actor access.AuthContext, ordering ...core.DBOrdering) ([]user.Profile, error) {
	if err := access.Require(actor, user.AllRoles...); err != nil {
		return nil, err
	}
	return svc.profiles.QueryProfiles(ctx, user.QueryFilter{Role: user.RoleTeacher}, ordering...)
}

func (svc *Service) getStudent(ctx context.Context, id string) (user.Profile, error) {
	p, err := svc.profiles.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Profile{}, ErrNotAStudent
		}
		return user.Profile{}, errors.Wrap(err, "getting profile")
	}
	if !p.IsStudent() {
		return user.Profile{}, ErrNotAStudent
	}
	return p, nil
}

func (svc *Service) sendApprovalMail(p user.Profile) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: p.Name, Address: p.Email}},
		Subject:      "Your account has been approved",
		TemplateName: "student_approved",
		TemplateData: p,
	})
}
