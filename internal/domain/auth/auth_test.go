package auth

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockAuthenticator struct {
	session     *Session
	email       string
	err         error
	signInCalls int32
	verifyCalls int32
}

func (m *mockAuthenticator) SignIn(_ context.Context, _, _ string) (*Session, error) {
	atomic.AddInt32(&m.signInCalls, 1)
	return m.session, m.err
}

func (m *mockAuthenticator) Verify(_ context.Context, _ string) (string, error) {
	atomic.AddInt32(&m.verifyCalls, 1)
	return m.email, m.err
}

// --- Tests ---

func TestSignIn_AllowListedEmail(t *testing.T) {
	ident := &mockAuthenticator{session: &Session{
		Token: "tok", Email: "admin@panaderia.com", ExpiresIn: time.Hour,
	}}
	svc := NewService(ident, "admin@panaderia.com")

	sess, err := svc.SignIn(context.Background(), "Admin@Panaderia.COM", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)
}

func TestSignIn_RejectedBeforeProviderCall(t *testing.T) {
	ident := &mockAuthenticator{}
	svc := NewService(ident, "admin@panaderia.com")

	_, err := svc.SignIn(context.Background(), "intruso@example.com", "secret")

	var uErr *UnauthorizedError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, ReasonDenied, uErr.Reason)
	assert.Zero(t, atomic.LoadInt32(&ident.signInCalls),
		"the credential must never reach the provider for a denied email")
}

func TestSignIn_NoAllowListPassesThrough(t *testing.T) {
	ident := &mockAuthenticator{session: &Session{Token: "tok", Email: "a@b.com"}}
	svc := NewService(ident, "")

	_, err := svc.SignIn(context.Background(), "a@b.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ident.signInCalls))
}

func TestSignIn_ProviderRejection(t *testing.T) {
	ident := &mockAuthenticator{err: &UnauthorizedError{Reason: ReasonBadCredentials}}
	svc := NewService(ident, "")

	_, err := svc.SignIn(context.Background(), "a@b.com", "wrong")

	var uErr *UnauthorizedError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, ReasonBadCredentials, uErr.Reason)
}

func TestVerify_ReappliesAllowList(t *testing.T) {
	ident := &mockAuthenticator{email: "otro@example.com"}
	svc := NewService(ident, "admin@panaderia.com")

	_, err := svc.Verify(context.Background(), "stale-token")

	var uErr *UnauthorizedError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, ReasonDenied, uErr.Reason)
}

func TestVerify_ValidSession(t *testing.T) {
	ident := &mockAuthenticator{email: "admin@panaderia.com"}
	svc := NewService(ident, "ADMIN@panaderia.com")

	email, err := svc.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "admin@panaderia.com", email)
}
