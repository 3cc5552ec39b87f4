package testutil

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/appointment"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/message"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

// The Test*Repository funcs check the behavior every repository implementation must have.

func TestProfileRepository(t *testing.T, repo user.Repository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	zed := CreateProfile(t, repo, uuid.New().String(), "Zed", "zed@test.cd", user.RoleStudent, false, now)
	amy := CreateProfile(t, repo, uuid.New().String(), "Amy", "amy@test.cd", user.RoleStudent, true, now.Add(time.Second))
	tom := CreateProfile(t, repo, uuid.New().String(), "Tom", "tom@test.cd", user.RoleTeacher, true, now.Add(2*time.Second))

	t.Run("create twice", func(t *testing.T) {
		_, err := repo.CreateProfile(ctx, zed)
		assert.Equal(t, user.ErrProfileExists, err)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetProfile(ctx, tom.ID)
		require.NoError(t, err)
		assert.Equal(t, "Physics", got.Subject)
		assert.True(t, got.CreatedAt.Equal(tom.CreatedAt))

		_, err = repo.GetProfile(ctx, uuid.New().String())
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.GetProfile(ctx, "not-an-id")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("query", func(t *testing.T) {
		pending := false
		tests := []struct {
			name     string
			filter   user.QueryFilter
			ordering []core.DBOrdering
			want     []string
		}{
			{name: "all, by creation", want: []string{zed.ID, amy.ID, tom.ID}},
			{name: "students by name", filter: user.QueryFilter{Role: user.RoleStudent}, ordering: []core.DBOrdering{{Field: "name", Ascending: true}}, want: []string{amy.ID, zed.ID}},
			{name: "pending students", filter: user.QueryFilter{Role: user.RoleStudent, Approved: &pending}, want: []string{zed.ID}},
			{name: "teachers", filter: user.QueryFilter{Role: user.RoleTeacher}, want: []string{tom.ID}},
			{name: "newest first", ordering: []core.DBOrdering{{Field: "created_at"}}, want: []string{tom.ID, amy.ID, zed.ID}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				profiles, err := repo.QueryProfiles(ctx, tt.filter, tt.ordering...)
				require.NoError(t, err)
				ids := make([]string, 0, len(profiles))
				for _, p := range profiles {
					ids = append(ids, p.ID)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		upd := tom
		upd.Name = "Thomas"
		upd.Role = user.RoleAdmin
		upd.UpdatedAt = now.Add(time.Minute)
		got, err := repo.UpdateProfile(ctx, upd)
		require.NoError(t, err)
		assert.Equal(t, "Thomas", got.Name)
		assert.Equal(t, user.RoleTeacher, got.Role)
	})

	t.Run("approve", func(t *testing.T) {
		at := now.Add(time.Hour)
		got, err := repo.ApproveStudent(ctx, zed.ID, at)
		require.NoError(t, err)
		assert.True(t, got.Approved)
		assert.True(t, got.UpdatedAt.Equal(at))

		// idempotent
		got, err = repo.ApproveStudent(ctx, zed.ID, at.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, got.Approved)
		assert.True(t, got.UpdatedAt.Equal(at))

		_, err = repo.ApproveStudent(ctx, tom.ID, at)
		assert.Equal(t, user.ErrNotFound, err)
		_, err = repo.ApproveStudent(ctx, uuid.New().String(), at)
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteProfile(ctx, amy.ID))
		_, err := repo.GetProfile(ctx, amy.ID)
		assert.Equal(t, user.ErrNotFound, err)
		assert.Equal(t, user.ErrNotFound, repo.DeleteProfile(ctx, amy.ID))
	})
}

func TestCredentialRepository(t *testing.T, repo user.CredentialRepository) {
	ctx := context.Background()
	c := user.Credential{
		ID:           uuid.New().String(),
		Email:        "cred@test.cd",
		PasswordHash: []byte("hash"),
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := repo.CreateCredential(ctx, c)
	require.NoError(t, err)

	dup := c
	dup.ID = uuid.New().String()
	_, err = repo.CreateCredential(ctx, dup)
	assert.Equal(t, user.ErrEmailExists, err)

	got, err := repo.GetCredentialByEmail(ctx, c.Email)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.True(t, got.LastLogin.IsZero())

	got.LastLogin = time.Now().UTC().Truncate(time.Millisecond)
	got.PasswordHash = nil
	upd, err := repo.UpdateCredential(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, []byte("hash"), upd.PasswordHash)
	assert.True(t, upd.LastLogin.Equal(got.LastLogin))

	require.NoError(t, repo.DeleteCredential(ctx, c.ID))
	_, err = repo.GetCredential(ctx, c.ID)
	assert.Equal(t, user.ErrIdentityNotFound, err)
	_, err = repo.GetCredentialByEmail(ctx, c.Email)
	assert.Equal(t, user.ErrIdentityNotFound, err)
}

func TestAppointmentRepository(t *testing.T, repo appointment.Repository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	student, teacher, other := uuid.New().String(), uuid.New().String(), uuid.New().String()

	newAppt := func(teacherID string, in time.Duration) appointment.Appointment {
		return appointment.Appointment{
			ID:        uuid.New().String(),
			StudentID: student,
			TeacherID: teacherID,
			Datetime:  now.Add(in),
			Status:    appointment.StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	later, err := repo.CreatePending(ctx, newAppt(teacher, 48*time.Hour))
	require.NoError(t, err)

	t.Run("one pending per pair", func(t *testing.T) {
		_, err := repo.CreatePending(ctx, newAppt(teacher, 24*time.Hour))
		assert.Equal(t, appointment.ErrAlreadyPending, err)
	})

	t.Run("concurrent requests", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.CreatePending(ctx, newAppt(other, time.Duration(i+1)*time.Hour))
			}(i)
		}
		wg.Wait()
		var created int
		for _, err := range errs {
			if err == nil {
				created++
				continue
			}
			assert.Equal(t, appointment.ErrAlreadyPending, err)
		}
		assert.Equal(t, 1, created)
	})

	t.Run("query by datetime", func(t *testing.T) {
		appts, err := repo.QueryAppointments(ctx, appointment.QueryFilter{StudentID: student})
		require.NoError(t, err)
		require.Len(t, appts, 2)
		assert.Equal(t, other, appts[0].TeacherID)
		assert.Equal(t, later.ID, appts[1].ID)

		appts, err = repo.QueryAppointments(ctx, appointment.QueryFilter{TeacherID: teacher})
		require.NoError(t, err)
		assert.Len(t, appts, 1)

		appts, err = repo.QueryAppointments(ctx, appointment.QueryFilter{Status: appointment.StatusApproved})
		require.NoError(t, err)
		assert.Len(t, appts, 0)
	})

	t.Run("ties broken by id", func(t *testing.T) {
		tied := uuid.New().String()
		ids := make([]string, 0, 5)
		for i := 0; i < 5; i++ {
			a := newAppt(uuid.New().String(), 96*time.Hour)
			a.StudentID = tied
			_, err := repo.CreatePending(ctx, a)
			require.NoError(t, err)
			ids = append(ids, a.ID)
		}
		sort.Strings(ids)

		for i := 0; i < 3; i++ {
			appts, err := repo.QueryAppointments(ctx, appointment.QueryFilter{StudentID: tied})
			require.NoError(t, err)
			got := make([]string, 0, len(appts))
			for _, a := range appts {
				got = append(got, a.ID)
			}
			assert.Equal(t, ids, got)
		}
	})

	t.Run("status compare and set", func(t *testing.T) {
		at := now.Add(time.Minute)
		got, err := repo.UpdateStatus(ctx, later.ID, appointment.StatusPending, appointment.StatusApproved, at)
		require.NoError(t, err)
		assert.Equal(t, appointment.StatusApproved, got.Status)
		assert.True(t, got.UpdatedAt.Equal(at))

		_, err = repo.UpdateStatus(ctx, later.ID, appointment.StatusPending, appointment.StatusCancelled, at)
		assert.Equal(t, appointment.ErrNotPending, err)
		_, err = repo.UpdateStatus(ctx, uuid.New().String(), appointment.StatusPending, appointment.StatusCancelled, at)
		assert.Equal(t, appointment.ErrNotFound, err)

		stored, err := repo.GetAppointment(ctx, later.ID)
		require.NoError(t, err)
		assert.Equal(t, appointment.StatusApproved, stored.Status)

		// the pair may request again once nothing is pending
		_, err = repo.CreatePending(ctx, newAppt(teacher, 72*time.Hour))
		assert.NoError(t, err)
	})
}

func TestMessageRepository(t *testing.T, repo message.Repository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	alice, bob, carl := uuid.New().String(), uuid.New().String(), uuid.New().String()

	send := func(from, to, content string, at time.Duration) message.Message {
		m, err := repo.CreateMessage(ctx, message.Message{
			ID:        uuid.New().String(),
			FromID:    from,
			ToID:      to,
			Content:   content,
			Timestamp: now.Add(at),
		})
		require.NoError(t, err)
		return m
	}
	second := send(bob, alice, "second", 2*time.Second)
	first := send(alice, bob, "first", time.Second)
	third := send(alice, carl, "third", 3*time.Second)

	sent, err := repo.QueryMessages(ctx, message.QueryFilter{FromID: alice})
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, third.ID}, messageIDs(sent))

	received, err := repo.QueryMessages(ctx, message.QueryFilter{ToID: alice})
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, messageIDs(received))

	between, err := repo.QueryMessages(ctx, message.QueryFilter{FromID: alice, ToID: carl})
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID}, messageIDs(between))

	t.Run("equal timestamps keep insertion order", func(t *testing.T) {
		dave, erin := uuid.New().String(), uuid.New().String()
		a := send(dave, erin, "a", time.Minute)
		b := send(erin, dave, "b", time.Minute)
		c := send(dave, erin, "c", time.Minute)
		assert.True(t, a.Seq < b.Seq && b.Seq < c.Seq)

		sent, err := repo.QueryMessages(ctx, message.QueryFilter{FromID: dave})
		require.NoError(t, err)
		assert.Equal(t, []string{a.ID, c.ID}, messageIDs(sent))
		assert.True(t, sent[0].Before(b) && b.Before(sent[1]))
	})
}

func messageIDs(msgs []message.Message) []string {
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	return ids
}
