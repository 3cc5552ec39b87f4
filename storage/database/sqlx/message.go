package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/message"
)

type messageRow struct {
	ID        string    `db:"id"`
	FromID    string    `db:"from_id"`
	ToID      string    `db:"to_id"`
	Content   string    `db:"content"`
	Timestamp time.Time `db:"timestamp"`
	Seq       int64     `db:"seq"`
}

func (r messageRow) toMessage() message.Message {
	return message.Message{
		ID:        r.ID,
		FromID:    r.FromID,
		ToID:      r.ToID,
		Content:   r.Content,
		Timestamp: r.Timestamp.UTC(),
		Seq:       r.Seq,
	}
}

type messageRepository struct {
	db *sqlx.DB
}

var _ message.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *sqlx.DB) message.Repository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, m message.Message) (message.Message, error) {
	q := `INSERT INTO message (id, from_id, to_id, content, timestamp) VALUES ($1, $2, $3, $4, $5) RETURNING seq`
	if err := repo.db.GetContext(ctx, &m.Seq, q, m.ID, m.FromID, m.ToID, m.Content, m.Timestamp); err != nil {
		return message.Message{}, core.NewStoreError("creating message", err)
	}
	m.FromName, m.ToName = "", ""
	return m, nil
}

func (repo *messageRepository) QueryMessages(ctx context.Context, filter message.QueryFilter) ([]message.Message, error) {
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	for col, id := range map[string]string{"from_id": filter.FromID, "to_id": filter.ToID} {
		if id == "" {
			continue
		}
		if !validID(id) {
			return make([]message.Message, 0), nil
		}
		conds = append(conds, col+" = ?")
		args = append(args, id)
	}

	q := `SELECT id, from_id, to_id, content, timestamp, seq FROM message`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY timestamp ASC, seq ASC"

	rows := make([]messageRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, core.NewStoreError("querying messages", err)
	}
	msgs := make([]message.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toMessage())
	}
	return msgs, nil
}
