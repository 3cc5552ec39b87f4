package inmemdb

import (
	"context"
	"sort"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core/message"
)

type messageRepository struct {
	db *messageTable
}

var _ message.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *DB) message.Repository {
	return &messageRepository{db: db.message}
}

func (repo *messageRepository) CreateMessage(_ context.Context, m message.Message) (message.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.seq++
	m.Seq = repo.db.seq
	m.FromName, m.ToName = "", ""
	repo.db.rows = append(repo.db.rows, m)
	return m, nil
}

func (repo *messageRepository) QueryMessages(_ context.Context, filter message.QueryFilter) ([]message.Message, error) {
	repo.db.mutex.RLock()
	msgs := make([]message.Message, 0)
	for _, m := range repo.db.rows {
		if filter.FromID != "" && m.FromID != filter.FromID {
			continue
		}
		if filter.ToID != "" && m.ToID != filter.ToID {
			continue
		}
		msgs = append(msgs, m)
	}
	repo.db.mutex.RUnlock()

	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Before(msgs[j]) })
	return msgs, nil
}
