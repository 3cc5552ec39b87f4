package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core/appointment"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

func Test_appointmentApi(t *testing.T) {
	app := setup(t)
	_, aliceToken := app.createUser(t, "Alice", "alice@test.cd", user.RoleStudent, true)
	_, bobToken := app.createUser(t, "Bob", "bob@test.cd", user.RoleStudent, false)
	tom, tomToken := app.createUser(t, "Tom", "tom@test.cd", user.RoleTeacher, true)
	_, timToken := app.createUser(t, "Tim", "tim@test.cd", user.RoleTeacher, true)
	_, adminToken := app.createUser(t, "Root", "root@test.cd", user.RoleAdmin, true)

	tomorrow := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	booking := marshalObj(t, appointment.NewRequest{TeacherID: tom.ID, Datetime: tomorrow})

	rec := app.do(http.MethodPost, "/v1/appointments", aliceToken, booking)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	var appt appointment.Appointment
	unmarshalBody(t, rec, &appt)
	assert.Equal(t, appointment.StatusPending, appt.Status)
	assert.True(t, appt.Datetime.Equal(tomorrow))

	statusPath := "/v1/appointments/" + appt.ID + "/status"
	approve := marshalObj(t, appointment.StatusUpdate{Status: appointment.StatusApproved})

	app.run(t, []httpTest{
		{
			name: "unapproved student", method: http.MethodPost, path: "/v1/appointments", body: booking, token: bobToken,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "your account is waiting for approval"}),
		},
		{name: "teacher cannot book", method: http.MethodPost, path: "/v1/appointments", body: booking, token: tomToken, wantCode: http.StatusForbidden},
		{
			name: "already pending", method: http.MethodPost, path: "/v1/appointments", body: booking, token: aliceToken,
			wantCode: http.StatusConflict, wantData: marshalObj(t, httpErr{Error: "you already have a pending appointment with this teacher"}),
		},
		{
			name: "past datetime", method: http.MethodPost, path: "/v1/appointments", token: aliceToken,
			body:     marshalObj(t, appointment.NewRequest{TeacherID: tom.ID, Datetime: time.Now().Add(-time.Hour)}),
			wantCode: http.StatusConflict,
		},
		{name: "student cannot decide", method: http.MethodPatch, path: statusPath, body: approve, token: aliceToken, wantCode: http.StatusForbidden},
		{
			name: "other teacher", method: http.MethodPatch, path: statusPath, body: approve, token: timToken,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "this appointment belongs to another teacher"}),
		},
		{
			name: "invalid status", method: http.MethodPatch, path: statusPath, token: tomToken,
			body: []byte(`{"status":"pending"}`), wantCode: http.StatusBadRequest,
		},
		{name: "unknown appointment", method: http.MethodPatch, path: "/v1/appointments/unknown/status", body: approve, token: tomToken, wantCode: http.StatusNotFound},
		{name: "approved", method: http.MethodPatch, path: statusPath, body: approve, token: tomToken},
		{
			name: "already decided", method: http.MethodPatch, path: statusPath, token: tomToken,
			body:     marshalObj(t, appointment.StatusUpdate{Status: appointment.StatusCancelled}),
			wantCode: http.StatusConflict, wantData: marshalObj(t, httpErr{Error: "the appointment is no longer pending"}),
		},
		{name: "all requires admin", path: "/v1/appointments?all=true", token: tomToken, wantCode: http.StatusForbidden},
	})

	grouped := func(t *testing.T, path, token string) appointment.Grouped {
		rec := app.do(http.MethodGet, path, token)
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
		var g appointment.Grouped
		unmarshalBody(t, rec, &g)
		return g
	}

	t.Run("student list", func(t *testing.T) {
		g := grouped(t, "/v1/appointments", aliceToken)
		assert.Len(t, g.Pending, 0)
		require.Len(t, g.Approved, 1)
		assert.Equal(t, appt.ID, g.Approved[0].ID)
	})

	t.Run("unapproved student list", func(t *testing.T) {
		g := grouped(t, "/v1/appointments", bobToken)
		assert.Len(t, g.Approved, 0)
	})

	t.Run("teacher list", func(t *testing.T) {
		assert.Len(t, grouped(t, "/v1/appointments", tomToken).Approved, 1)
		assert.Len(t, grouped(t, "/v1/appointments", timToken).Approved, 0)
	})

	t.Run("admin list", func(t *testing.T) {
		assert.Len(t, grouped(t, "/v1/appointments?all=true", adminToken).Approved, 1)
		assert.Len(t, grouped(t, "/v1/appointments?all=true&status=pending", adminToken).Approved, 0)
	})

	t.Run("notifications", func(t *testing.T) {
		sent := app.mailSvc.SentMessages()
		require.Len(t, sent, 2)
		assert.Equal(t, "tom@test.cd", sent[0].To[0].Address)
		assert.Equal(t, "alice@test.cd", sent[1].To[0].Address)
	})
}
