package message_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/access"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/message"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
	inmemdb "github.com/fonsecajr2/Student-Teacher-Appointment/storage/database/inmem"
	testutil "github.com/fonsecajr2/Student-Teacher-Appointment/tests"
)

type fixture struct {
	svc      *message.Service
	logger   *testutil.Logger
	profiles user.Repository
	student  user.Profile
	pending  user.Profile
	teacher  user.Profile
	admin    user.Profile
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := inmemdb.Open()
	profiles := inmemdb.NewProfileRepository(db)
	logger := testutil.NewLogger()
	return fixture{
		svc:      message.NewService(inmemdb.NewMessageRepository(db), profiles, core.NewValidator(), logger),
		logger:   logger,
		profiles: profiles,
		student:  testutil.CreateProfile(t, profiles, uuid.New().String(), "Alice", "alice@test.cd", user.RoleStudent, true),
		pending:  testutil.CreateProfile(t, profiles, uuid.New().String(), "Bob", "bob@test.cd", user.RoleStudent, false),
		teacher:  testutil.CreateProfile(t, profiles, uuid.New().String(), "Tom", "tom@test.cd", user.RoleTeacher, true),
		admin:    testutil.CreateProfile(t, profiles, uuid.New().String(), "Root", "root@test.cd", user.RoleAdmin, true),
	}
}

// tick makes every Send one second later than the previous one.
func tick(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	restore := message.SetNowFunc(func() time.Time {
		now = now.Add(time.Second)
		return now
	})
	t.Cleanup(restore)
}

func TestService_Send(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	nm := message.NewMessage{ToID: f.teacher.ID, Content: "Hello"}

	tests := []struct {
		name    string
		actor   access.AuthContext
		fromID  string
		nm      message.NewMessage
		isErrFn func(error) bool
	}{
		{name: "anonymous", actor: access.Anonymous, fromID: f.student.ID, nm: nm, isErrFn: core.IsUnauthenticated},
		{name: "unapproved student", actor: access.For(f.pending), fromID: f.pending.ID, nm: nm, isErrFn: access.IsPendingApproval},
		{name: "as someone else", actor: access.For(f.student), fromID: f.teacher.ID, nm: nm, isErrFn: core.IsForbidden},
		{name: "blank content", actor: access.For(f.student), fromID: f.student.ID, nm: message.NewMessage{ToID: f.teacher.ID, Content: "  "}, isErrFn: core.IsValidation},
		{name: "missing recipient", actor: access.For(f.student), fromID: f.student.ID, nm: message.NewMessage{Content: "Hi"}, isErrFn: core.IsValidation},
		{name: "to self", actor: access.For(f.student), fromID: f.student.ID, nm: message.NewMessage{ToID: f.student.ID, Content: "Hi"}, isErrFn: core.IsConflict},
		{name: "unknown recipient", actor: access.For(f.student), fromID: f.student.ID, nm: message.NewMessage{ToID: uuid.New().String(), Content: "Hi"}, isErrFn: core.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Send(ctx, tt.actor, tt.fromID, tt.nm)
			assert.True(t, tt.isErrFn(err), "got %v", err)
		})
	}

	t.Run("success", func(t *testing.T) {
		msg, err := f.svc.Send(ctx, access.For(f.student), f.student.ID, message.NewMessage{ToID: f.teacher.ID, Content: " Hello "})
		require.NoError(t, err)
		assert.Equal(t, "Hello", msg.Content)
		assert.Equal(t, "Alice", msg.FromName)
		assert.Equal(t, "Tom", msg.ToName)
		assert.False(t, msg.Timestamp.IsZero())
	})

	t.Run("logged", func(t *testing.T) {
		f.logger.Reset()
		_, err := f.svc.Send(ctx, access.For(f.student), f.student.ID, message.NewMessage{ToID: f.student.ID, Content: "Hi"})
		require.Equal(t, message.ErrSelfMessage, err)
		assert.Equal(t, []string{"sending message to " + f.student.ID}, f.logger.Messages("debug"))
		assert.Equal(t, []string{"sending message: " + err.Error()}, f.logger.Messages("warn"))

		f.logger.Reset()
		msg, err := f.svc.Send(ctx, access.For(f.student), f.student.ID, message.NewMessage{ToID: f.teacher.ID, Content: "Hi"})
		require.NoError(t, err)
		assert.Equal(t, []string{"message " + msg.ID + " sent to " + f.teacher.ID}, f.logger.Messages("info"))
		assert.Empty(t, f.logger.Messages("warn"))
	})

	t.Run("any approved role", func(t *testing.T) {
		_, err := f.svc.Send(ctx, access.For(f.admin), f.admin.ID, message.NewMessage{ToID: f.pending.ID, Content: "Welcome"})
		assert.NoError(t, err)
	})
}

func TestService_ListForUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tick(t)

	send := func(from, to user.Profile, content string) {
		_, err := f.svc.Send(ctx, access.For(from), from.ID, message.NewMessage{ToID: to.ID, Content: content})
		require.NoError(t, err)
	}
	send(f.student, f.teacher, "1")
	send(f.teacher, f.student, "2")
	send(f.admin, f.student, "3")
	send(f.admin, f.teacher, "not for Alice")
	send(f.student, f.teacher, "4")
	send(f.admin, f.pending, "5")

	t.Run("oldest first", func(t *testing.T) {
		msgs, err := f.svc.ListForUser(ctx, access.For(f.student), f.student.ID)
		require.NoError(t, err)
		contents := make([]string, 0, len(msgs))
		for _, m := range msgs {
			contents = append(contents, m.Content)
		}
		assert.Equal(t, []string{"1", "2", "3", "4"}, contents)
		assert.Equal(t, "Tom", msgs[1].FromName)
		assert.Equal(t, "Alice", msgs[1].ToName)
	})

	t.Run("unapproved student reads", func(t *testing.T) {
		msgs, err := f.svc.ListForUser(ctx, access.For(f.pending), f.pending.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "Root", msgs[0].FromName)
	})

	t.Run("others are forbidden", func(t *testing.T) {
		_, err := f.svc.ListForUser(ctx, access.For(f.teacher), f.student.ID)
		assert.True(t, core.IsForbidden(err))
		_, err = f.svc.ListForUser(ctx, access.For(f.admin), f.student.ID)
		assert.NoError(t, err)
	})

	t.Run("deleted participant", func(t *testing.T) {
		require.NoError(t, f.profiles.DeleteProfile(ctx, f.admin.ID))
		msgs, err := f.svc.ListForUser(ctx, access.For(f.student), f.student.ID)
		require.NoError(t, err)
		assert.Equal(t, message.UnknownName, msgs[2].FromName)
	})
}

func TestService_ListConversations(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tick(t)

	send := func(from, to user.Profile, content string) {
		_, err := f.svc.Send(ctx, access.For(from), from.ID, message.NewMessage{ToID: to.ID, Content: content})
		require.NoError(t, err)
	}
	send(f.student, f.teacher, "Hi Tom")
	send(f.admin, f.student, "Hi Alice")
	send(f.teacher, f.student, "Hi Alice, Tom here")

	convs, err := f.svc.ListConversations(ctx, access.For(f.student), f.student.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, f.teacher.ID, convs[0].CounterpartID)
	assert.Equal(t, "Tom", convs[0].CounterpartName)
	assert.Len(t, convs[0].Messages, 2)
	assert.Equal(t, "Root", convs[1].CounterpartName)

	conv, err := f.svc.ListConversation(ctx, access.For(f.student), f.student.ID, f.teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tom", conv.CounterpartName)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "Hi Tom", conv.Messages[0].Content)

	conv, err = f.svc.ListConversation(ctx, access.For(f.student), f.student.ID, f.pending.ID)
	require.NoError(t, err)
	assert.NotNil(t, conv.Messages)
	assert.Len(t, conv.Messages, 0)
}

func TestService_sameTimestamp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	at := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	t.Cleanup(message.SetNowFunc(func() time.Time { return at }))

	_, err := f.svc.Send(ctx, access.For(f.student), f.student.ID, message.NewMessage{ToID: f.teacher.ID, Content: "hi"})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, access.For(f.teacher), f.teacher.ID, message.NewMessage{ToID: f.student.ID, Content: "hello"})
	require.NoError(t, err)

	contents := func(msgs []message.Message) []string {
		c := make([]string, 0, len(msgs))
		for _, m := range msgs {
			c = append(c, m.Content)
		}
		return c
	}
	want := []string{"hi", "hello"}

	for _, p := range []user.Profile{f.student, f.teacher} {
		msgs, err := f.svc.ListForUser(ctx, access.For(p), p.ID)
		require.NoError(t, err)
		assert.Equal(t, want, contents(msgs), p.Name)

		other := f.teacher.ID
		if p.ID == f.teacher.ID {
			other = f.student.ID
		}
		conv, err := f.svc.ListConversation(ctx, access.For(p), p.ID, other)
		require.NoError(t, err)
		assert.Equal(t, want, contents(conv.Messages), p.Name)
	}
}

func TestGroupByConversation(t *testing.T) {
	msgs := []message.Message{
		{ID: "1", FromID: "a", ToID: "b"},
		{ID: "2", FromID: "c", ToID: "a"},
		{ID: "3", FromID: "b", ToID: "a"},
		{ID: "4", FromID: "b", ToID: "c"},
	}
	groups := message.GroupByConversation(msgs, "a")
	require.Len(t, groups, 2)
	assert.Equal(t, []message.Message{msgs[0], msgs[2]}, groups["b"])
	assert.Equal(t, []message.Message{msgs[1]}, groups["c"])
	assert.Len(t, message.GroupByConversation(nil, "a"), 0)
}
