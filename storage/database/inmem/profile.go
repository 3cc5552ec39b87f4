package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

type profileRepository struct {
	db *profileTable
}

var _ user.Repository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) user.Repository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) CreateProfile(_ context.Context, p user.Profile) (user.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[p.ID]; ok {
		return user.Profile{}, user.ErrProfileExists
	}
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *profileRepository) GetProfile(_ context.Context, id string) (user.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return user.Profile{}, user.ErrNotFound
}

func (repo *profileRepository) QueryProfiles(_ context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.Profile, error) {
	repo.db.mutex.RLock()
	profiles := make([]user.Profile, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		if filter.Approved != nil && p.Approved != *filter.Approved {
			continue
		}
		profiles = append(profiles, *p)
	}
	repo.db.mutex.RUnlock()

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareProfiles(profiles[i], profiles[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return profiles[i].ID < profiles[j].ID
	})
	return profiles, nil
}

func compareProfiles(a, b user.Profile, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "email":
		return strings.Compare(a.Email, b.Email)
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}

func (repo *profileRepository) UpdateProfile(_ context.Context, p user.Profile) (user.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[p.ID]
	if !ok {
		return user.Profile{}, user.ErrNotFound
	}
	// role, email & approval are not updatable
	orig.Name = p.Name
	orig.Department = p.Department
	orig.Subject = p.Subject
	orig.UpdatedAt = p.UpdatedAt
	return *orig, nil
}

func (repo *profileRepository) ApproveStudent(_ context.Context, id string, at time.Time) (user.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p, ok := repo.db.table[id]
	if !ok || p.Role != user.RoleStudent {
		return user.Profile{}, user.ErrNotFound
	}
	if !p.Approved {
		p.Approved = true
		p.UpdatedAt = at
	}
	return *p, nil
}

func (repo *profileRepository) DeleteProfile(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
