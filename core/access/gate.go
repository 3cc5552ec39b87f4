package access

import (
	"context"
	"fmt"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

// ProfileGetter is the part of the profile store the Gate needs.
type ProfileGetter interface {
	GetProfile(ctx context.Context, id string) (user.Profile, error)
}

// Gate resolves AuthContexts from identities.
type Gate struct {
	profiles ProfileGetter
	logger   core.Logger
}

func NewGate(profiles ProfileGetter, logger core.Logger) *Gate {
	return &Gate{profiles: profiles, logger: logger}
}

// ResolveContext joins the Identity with its Profile.
// It never fails: a missing identity resolves to Anonymous, a missing profile to a role-less (unauthorized)
// context and a store failure to an unauthenticated context carrying LoadErr.
func (g *Gate) ResolveContext(ctx context.Context, id *user.Identity) AuthContext {
	if id == nil || id.ID == "" {
		return Anonymous
	}

	p, err := g.profiles.GetProfile(ctx, id.ID)
	switch {
	case err == nil:
		ac := For(p)
		if ac.Email == "" {
			ac.Email = id.Email
		}
		return ac
	case core.IsNotFound(err):
		g.logger.Warn(fmt.Sprintf("identity %s has no profile", id.ID), map[string]interface{}{"uid": id.ID})
		return AuthContext{UID: id.ID, Email: id.Email, Resolved: true}
	default:
		g.logger.Error(fmt.Sprintf("resolving context of %s: %v", id.ID, err), err)
		return AuthContext{Resolved: true, LoadErr: err}
	}
}
