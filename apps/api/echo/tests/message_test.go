package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core/message"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
)

func Test_messageApi(t *testing.T) {
	app := setup(t)
	alice, aliceToken := app.createUser(t, "Alice", "alice@test.cd", user.RoleStudent, true)
	bob, bobToken := app.createUser(t, "Bob", "bob@test.cd", user.RoleStudent, false)
	tom, tomToken := app.createUser(t, "Tom", "tom@test.cd", user.RoleTeacher, true)
	_, adminToken := app.createUser(t, "Root", "root@test.cd", user.RoleAdmin, true)

	app.run(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/messages", wantCode: http.StatusUnauthorized},
		{
			name: "unapproved student", method: http.MethodPost, path: "/v1/messages", token: bobToken,
			body: marshalObj(t, message.NewMessage{ToID: tom.ID, Content: "Hi"}), wantCode: http.StatusForbidden,
		},
		{
			name: "blank", method: http.MethodPost, path: "/v1/messages", token: aliceToken,
			body: marshalObj(t, message.NewMessage{ToID: tom.ID, Content: " "}), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error":"please fill all fields","fields":{"content":"this field cannot be blank"}}`),
		},
		{
			name: "to self", method: http.MethodPost, path: "/v1/messages", token: aliceToken,
			body: marshalObj(t, message.NewMessage{ToID: alice.ID, Content: "Hi"}), wantCode: http.StatusConflict,
		},
		{
			name: "unknown recipient", method: http.MethodPost, path: "/v1/messages", token: aliceToken,
			body: marshalObj(t, message.NewMessage{ToID: "unknown", Content: "Hi"}), wantCode: http.StatusNotFound,
		},
		{
			name: "student to teacher", method: http.MethodPost, path: "/v1/messages", token: aliceToken,
			body: marshalObj(t, message.NewMessage{ToID: tom.ID, Content: "Hello Tom"}), wantCode: http.StatusCreated,
		},
		{
			name: "teacher replies", method: http.MethodPost, path: "/v1/messages", token: tomToken,
			body: marshalObj(t, message.NewMessage{ToID: alice.ID, Content: "Hello Alice"}), wantCode: http.StatusCreated,
		},
		{
			name: "admin to pending student", method: http.MethodPost, path: "/v1/messages", token: adminToken,
			body: marshalObj(t, message.NewMessage{ToID: bob.ID, Content: "Welcome"}), wantCode: http.StatusCreated,
		},
	})

	t.Run("list", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/messages", aliceToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var msgs []message.Message
		unmarshalBody(t, rec, &msgs)
		require.Len(t, msgs, 2)
		assert.Equal(t, "Hello Tom", msgs[0].Content)
		assert.Equal(t, "Tom", msgs[1].FromName)
	})

	t.Run("unapproved student reads", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/messages", bobToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var msgs []message.Message
		unmarshalBody(t, rec, &msgs)
		require.Len(t, msgs, 1)
		assert.Equal(t, "Root", msgs[0].FromName)
	})

	t.Run("conversations", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/messages/conversations", tomToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var convs []message.Conversation
		unmarshalBody(t, rec, &convs)
		require.Len(t, convs, 1)
		assert.Equal(t, alice.ID, convs[0].CounterpartID)
		assert.Equal(t, "Alice", convs[0].CounterpartName)
		assert.Len(t, convs[0].Messages, 2)
	})

	t.Run("conversation", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/messages/conversations/"+tom.ID, aliceToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var conv message.Conversation
		unmarshalBody(t, rec, &conv)
		assert.Equal(t, "Tom", conv.CounterpartName)
		require.Len(t, conv.Messages, 2)
		assert.Equal(t, "Hello Alice", conv.Messages[1].Content)
	})
}
