package identitysvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fonsecajr2/Student-Teacher-Appointment/core"
	"github.com/fonsecajr2/Student-Teacher-Appointment/core/user"
	"github.com/fonsecajr2/Student-Teacher-Appointment/storage/database/inmem"
)

func setup() (*Provider, user.CredentialRepository) {
	creds := inmemdb.NewCredentialRepository(inmemdb.Open())
	return NewProvider(creds, core.NewTestConfig(), core.NewNopLogger()), creds
}

func TestProvider_SignUp(t *testing.T) {
	provider, creds := setup()
	ctx := context.Background()

	id, err := provider.SignUp(ctx, "  Alice@Test.CD ", "s3cr3t-Pass!")
	require.NoError(t, err)
	assert.NotEmpty(t, id.ID)
	assert.Equal(t, "alice@test.cd", id.Email)

	c, err := creds.GetCredential(ctx, id.ID)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("s3cr3t-Pass!"), c.PasswordHash)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "duplicate email", email: "alice@test.cd", pwd: "whatever-123", wantErr: user.ErrEmailExists},
		{name: "duplicate email, other case", email: "ALICE@test.cd", pwd: "whatever-123", wantErr: user.ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := provider.SignUp(ctx, tt.email, tt.pwd)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	t.Run("missing fields", func(t *testing.T) {
		_, err := provider.SignUp(ctx, "", "pwd")
		assert.True(t, core.IsValidation(err))
	})
}

func TestProvider_SignIn_Verify_SignOut(t *testing.T) {
	provider, _ := setup()
	ctx := context.Background()

	id, err := provider.SignUp(ctx, "bob@test.cd", "s3cr3t-Pass!")
	require.NoError(t, err)

	var changes []*user.Identity
	unsubscribe := provider.OnIdentityChange(func(i *user.Identity) { changes = append(changes, i) })

	t.Run("wrong password", func(t *testing.T) {
		_, err := provider.SignIn(ctx, "bob@test.cd", "wrong-password")
		assert.Equal(t, ErrInvalidCredentials, err)
		assert.True(t, core.IsUnauthenticated(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := provider.SignIn(ctx, "nobody@test.cd", "s3cr3t-Pass!")
		assert.Equal(t, ErrInvalidCredentials, err)
	})

	sess, err := provider.SignIn(ctx, "BOB@test.cd", "s3cr3t-Pass!")
	require.NoError(t, err)
	assert.Equal(t, id, sess.Identity)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, sess.ExpiresAt.After(time.Now()))
	require.Len(t, changes, 1)
	assert.Equal(t, id, *changes[0])

	verified, err := provider.Verify(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, id, verified)

	t.Run("garbage token", func(t *testing.T) {
		_, err := provider.Verify(ctx, "not.a.token")
		assert.Equal(t, ErrInvalidToken, err)
	})

	require.NoError(t, provider.SignOut(ctx, sess.Token))
	require.Len(t, changes, 2)
	assert.Nil(t, changes[1])

	_, err = provider.Verify(ctx, sess.Token)
	assert.Equal(t, ErrRevokedToken, err)

	unsubscribe()
	_, err = provider.SignIn(ctx, "bob@test.cd", "s3cr3t-Pass!")
	require.NoError(t, err)
	assert.Len(t, changes, 2)
}

func TestProvider_expiredToken(t *testing.T) {
	provider, _ := setup()
	ctx := context.Background()

	_, err := provider.SignUp(ctx, "carol@test.cd", "s3cr3t-Pass!")
	require.NoError(t, err)

	nowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	sess, err := provider.SignIn(ctx, "carol@test.cd", "s3cr3t-Pass!")
	nowFunc = time.Now // reset
	require.NoError(t, err)

	_, err = provider.Verify(ctx, sess.Token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestProvider_SetPassword_DeleteIdentity(t *testing.T) {
	provider, _ := setup()
	ctx := context.Background()

	id, err := provider.SignUp(ctx, "dan@test.cd", "s3cr3t-Pass!")
	require.NoError(t, err)

	require.NoError(t, provider.SetPassword(ctx, id.ID, "n3w-Passw0rd"))
	_, err = provider.SignIn(ctx, "dan@test.cd", "s3cr3t-Pass!")
	assert.Equal(t, ErrInvalidCredentials, err)
	_, err = provider.SignIn(ctx, "dan@test.cd", "n3w-Passw0rd")
	assert.NoError(t, err)

	found, err := provider.GetIdentityByEmail(ctx, " DAN@test.cd")
	require.NoError(t, err)
	assert.Equal(t, id, found)

	require.NoError(t, provider.DeleteIdentity(ctx, id.ID))
	_, err = provider.SignIn(ctx, "dan@test.cd", "n3w-Passw0rd")
	assert.Equal(t, ErrInvalidCredentials, err)
	assert.Equal(t, user.ErrIdentityNotFound, provider.SetPassword(ctx, id.ID, "n3w-Passw0rd"))
}
