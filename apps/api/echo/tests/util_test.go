package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/fonsecajr2/Student-Teacher-Appointment/apps/api/echo"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/access"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/appointment"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/message"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/registration"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
	emailsvc "github.com/fonsecajr2/Student-Teacher-Appointment/services/email"
	identitysvc "github.com/fonsecajr2/Student-Teacher-Appointment/services/identity"
	locksvc "github.com/fonsecajr2/Student-Teacher-Appointment/services/lock"
	inmemdb "github.com/fonsecajr2/Student-Teacher-Appointment/storage/database/inmem"
	testutil "github.com/fonsecajr2/Student-Teacher-Appointment/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	Server
	profiles   user.Repository // unwrapped
	identities *identitysvc.Provider
	mailSvc    *emailsvc.ConsoleServiceMock
}

// setup returns a server on a fresh in-memory store.
// wrap decorates the profile store the services see.
func setup(t *testing.T, wrap ...func(user.Repository) user.Repository) *testApp {
	t.Helper()

	db := inmemdb.Open()
	profiles := inmemdb.NewProfileRepository(db)
	svcProfiles := profiles
	for _, w := range wrap {
		svcProfiles = w(svcProfiles)
	}

	logger := core.NewNopLogger()
	validator := core.NewValidator()
	user.InitValidators(validator)
	locker := locksvc.NewLocalLocker()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	identities := identitysvc.NewProvider(inmemdb.NewCredentialRepository(db), conf, logger)

	srv := NewServer(ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validator:       validator,
		Gate:            access.NewGate(svcProfiles, logger),
		Identity:        identities,
		RegistrationSvc: registration.NewService(svcProfiles, identities, locker, mailSvc, validator, logger),
		AppointmentSvc:  appointment.NewService(inmemdb.NewAppointmentRepository(db), svcProfiles, locker, mailSvc, validator, logger),
		MessageSvc:      message.NewService(inmemdb.NewMessageRepository(db), svcProfiles, validator, logger),
	})
	return &testApp{Server: srv, profiles: profiles, identities: identities, mailSvc: mailSvc}
}

// createUser creates a user and returns it with a session token.
func (app *testApp) createUser(t *testing.T, name, email string, role user.Role, approved bool) (user.Profile, string) {
	t.Helper()
	p := testutil.CreateUser(t, app.identities, app.profiles, name, email, role, approved)
	return p, app.token(t, email)
}

func (app *testApp) token(t *testing.T, email string) string {
	t.Helper()
	sess, err := app.identities.SignIn(context.Background(), email, testutil.DefaultPassword)
	require.NoError(t, err)
	return sess.Token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// do serves the request and returns the recorded response.
func (app *testApp) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), "body: %s", rec.Body.String())
}

// checkCodeAndData checks the status code, and the JSON body when tt.wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
}
