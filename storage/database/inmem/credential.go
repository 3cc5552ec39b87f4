package inmemdb

import (
	"context"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

type credentialRepository struct {
	db *credentialTable
}

var _ user.CredentialRepository = (*credentialRepository)(nil)

func NewCredentialRepository(db *DB) user.CredentialRepository {
	return &credentialRepository{db: db.credential}
}

func (repo *credentialRepository) CreateCredential(_ context.Context, c user.Credential) (user.Credential, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.table {
		if existing.Email == c.Email {
			return user.Credential{}, user.ErrEmailExists
		}
	}
	repo.db.table[c.ID] = &c
	return c, nil
}

func (repo *credentialRepository) GetCredential(_ context.Context, id string) (user.Credential, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.table[id]; ok {
		return *c, nil
	}
	return user.Credential{}, user.ErrIdentityNotFound
}

func (repo *credentialRepository) GetCredentialByEmail(_ context.Context, email string) (user.Credential, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, c := range repo.db.table {
		if c.Email == email {
			return *c, nil
		}
	}
	return user.Credential{}, user.ErrIdentityNotFound
}

func (repo *credentialRepository) UpdateCredential(_ context.Context, c user.Credential) (user.Credential, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[c.ID]
	if !ok {
		return user.Credential{}, user.ErrIdentityNotFound
	}
	if c.PasswordHash != nil {
		orig.PasswordHash = c.PasswordHash
	}
	orig.LastLogin = c.LastLogin
	return *orig, nil
}

func (repo *credentialRepository) DeleteCredential(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return user.ErrIdentityNotFound
	}
	delete(repo.db.table, id)
	return nil
}
