package identity

import (
	"context"
	"testing"

	"ngo_tracker/internal/domain"
	"ngo_tracker/internal/events"
	"ngo_tracker/internal/store/storetest"
	"ngo_tracker/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(storetest.New(t).Users, "test-secret", nil)
}

func TestSignUpValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  SignUpRequest
	}{
		{"missing name", SignUpRequest{Email: "a@example.com", Password: "password1", Role: domain.RoleDonor}},
		{"bad email", SignUpRequest{Name: "A", Email: "nope", Password: "password1", Role: domain.RoleDonor}},
		{"short password", SignUpRequest{Name: "A", Email: "a@example.com", Password: "short", Role: domain.RoleDonor}},
		{"unknown role", SignUpRequest{Name: "A", Email: "a@example.com", Password: "password1", Role: "Admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.SignUp(ctx, tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestSignUpLoginVerify(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	user, verifyToken, err := svc.SignUp(ctx, SignUpRequest{
		Name: "Relief Corp", Email: " Relief@Example.com ", Password: "password1", Role: domain.RoleNGO,
	})
	require.NoError(t, err)
	assert.Equal(t, "relief@example.com", user.Email)
	assert.NotEqual(t, "password1", user.Password)

	_, _, err = svc.SignUp(ctx, SignUpRequest{Name: "Dup", Email: "relief@example.com", Password: "password1", Role: domain.RoleNGO})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = svc.Login(ctx, "relief@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, _, err := svc.Login(ctx, "RELIEF@example.com", "password1")
	require.NoError(t, err)

	p, err := svc.CurrentPrincipal(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{Email: "relief@example.com", Verified: false}, *p)

	_, err = svc.Authorize(ctx, "relief@example.com", domain.RoleNGO)
	assert.ErrorIs(t, err, domain.ErrForbidden, "unverified accounts are refused")

	// A session token cannot verify an email
	_, err = svc.VerifyEmail(ctx, session)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	email, err := svc.VerifyEmail(ctx, verifyToken)
	require.NoError(t, err)
	assert.Equal(t, "relief@example.com", email)

	p, err = svc.CurrentPrincipal(ctx, session)
	require.NoError(t, err)
	assert.True(t, p.Verified)

	_, err = svc.Authorize(ctx, "relief@example.com", domain.RoleNGO)
	assert.NoError(t, err)
	_, err = svc.Authorize(ctx, "relief@example.com", domain.RoleAuthorizer)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCurrentPrincipalRejectsBadTokens(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CurrentPrincipal(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Valid signature, but the account does not exist
	token, err := utils.GenerateJWT("ghost@example.com", "test-secret")
	require.NoError(t, err)
	_, err = svc.CurrentPrincipal(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordReset(t *testing.T) {
	rec := &events.Recorder{}
	svc := NewService(storetest.New(t).Users, "test-secret", rec)
	ctx := context.Background()

	_, _, err := svc.SignUp(ctx, SignUpRequest{Name: "Dana", Email: "dana@example.com", Password: "password1", Role: domain.RoleDonor})
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Empty(t, rec.Events(), "unknown accounts get no token")

	require.NoError(t, svc.RequestPasswordReset(ctx, " DANA@example.com"))
	require.Len(t, rec.Events(), 1)
	e := rec.Events()[0]
	assert.Equal(t, events.PasswordResetRequested, e.Type)
	assert.Equal(t, "dana@example.com", e.Attributes["email"])
	token := e.Attributes["token"]
	require.NotEmpty(t, token)

	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "short"), domain.ErrValidation)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "garbage", "password2"), ErrInvalidCredentials)

	session, _, err := svc.Login(ctx, "dana@example.com", "password1")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ResetPassword(ctx, session, "password2"), ErrInvalidCredentials)

	require.NoError(t, svc.ResetPassword(ctx, token, "password2"))
	_, _, err = svc.Login(ctx, "dana@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "dana@example.com", "password2")
	require.NoError(t, err)

	// The old hash signed the token, so it is spent now
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "password3"), ErrInvalidCredentials)
}
