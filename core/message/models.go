package message

import (
	"context"
	"time"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
)

// UnknownName is shown for participants whose profile cannot be found.
const UnknownName = "Unknown"

type Message struct {
	ID        string    `json:"id"`
	FromID    string    `json:"from_id"`
	ToID      string    `json:"to_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"` // UTC, set by the server
	Seq       int64     `json:"-"`         // store insertion order, breaks timestamp ties

	// resolved on read
	FromName string `json:"from_name,omitempty"`
	ToName   string `json:"to_name,omitempty"`
}

// Before orders messages by timestamp, then by insertion order.
func (m Message) Before(other Message) bool {
	if !m.Timestamp.Equal(other.Timestamp) {
		return m.Timestamp.Before(other.Timestamp)
	}
	return m.Seq < other.Seq
}

// Counterpart returns the id of the participant other than self.
func (m Message) Counterpart(self string) string {
	if m.FromID == self {
		return m.ToID
	}
	return m.FromID
}

// Involves tells whether uid sent or received m.
func (m Message) Involves(uid string) bool {
	return m.FromID == uid || m.ToID == uid
}

type NewMessage struct {
	ToID    string `json:"to_id" validate:"notblank"`
	Content string `json:"content" validate:"notblank"`
}

func (nm *NewMessage) Validate(v *core.Validator) error {
	nm.ToID = core.CleanString(nm.ToID)
	nm.Content = core.CleanString(nm.Content)
	return v.Struct(nm)
}

// Conversation is the thread between self and one counterpart, oldest message first.
type Conversation struct {
	CounterpartID   string    `json:"counterpart_id"`
	CounterpartName string    `json:"counterpart_name"`
	Messages        []Message `json:"messages"`
}

// QueryFilter applies an AND on its set fields.
type QueryFilter struct {
	FromID string
	ToID   string
}

var (
	ErrRecipientNotFound = core.NotFound("recipient not found")
	ErrSelfMessage       = core.Conflict("you cannot message yourself")
	ErrNotSender         = core.Forbidden("messages are sent on your own behalf only")
)

type Repository interface {
	CreateMessage(ctx context.Context, m Message) (Message, error)
	// CreateMessage assigns Seq.
	// QueryMessages returns matches oldest first, as ordered by Message.Before.
	QueryMessages(ctx context.Context, filter QueryFilter) ([]Message, error)
}
