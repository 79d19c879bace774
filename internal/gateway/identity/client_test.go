package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/auth"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	})
}

func TestSignIn(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:signInWithPassword", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "admin@panaderia.com", req["email"])
		assert.Equal(t, "secret", req["password"])
		assert.Equal(t, true, req["returnSecureToken"])

		_, _ = w.Write([]byte(`{
			"idToken":"opaque-session-token",
			"email":"admin@panaderia.com",
			"refreshToken":"r",
			"expiresIn":"3600",
			"localId":"uid1"
		}`))
	})

	sess, err := c.SignIn(context.Background(), "admin@panaderia.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "opaque-session-token", sess.Token)
	assert.Equal(t, "admin@panaderia.com", sess.Email)
	assert.Equal(t, time.Hour, sess.ExpiresIn)
}

func TestSignIn_VendorRejections(t *testing.T) {
	tests := []struct {
		name       string
		vendorCode string
		want       auth.Reason
	}{
		{"bad credentials", "INVALID_LOGIN_CREDENTIALS", auth.ReasonBadCredentials},
		{"wrong password", "INVALID_PASSWORD", auth.ReasonBadCredentials},
		{"unknown user", "EMAIL_NOT_FOUND", auth.ReasonBadCredentials},
		{"malformed email", "INVALID_EMAIL", auth.ReasonMalformedEmail},
		{"rate limited", "TOO_MANY_ATTEMPTS_TRY_LATER : Access blocked", auth.ReasonRateLimited},
		{"unrecognized code", "SOMETHING_NEW", auth.ReasonBadCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"code":400,"message":"` + tt.vendorCode + `"}}`))
			})

			_, err := c.SignIn(context.Background(), "a@b.com", "pw")

			var uErr *auth.UnauthorizedError
			require.ErrorAs(t, err, &uErr)
			assert.Equal(t, tt.want, uErr.Reason)
		})
	}
}

func TestSignIn_ProviderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	c := New(Config{APIKey: "k", BaseURL: srv.URL, Timeout: time.Second})

	_, err := c.SignIn(context.Background(), "a@b.com", "pw")
	require.Error(t, err)

	var uErr *auth.UnauthorizedError
	assert.False(t, errors.As(err, &uErr), "transport failure must not look like a rejection")
}

func TestVerify(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/accounts:lookup", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "tok", req["idToken"])

		_, _ = w.Write([]byte(`{"users":[{"localId":"uid1","email":"admin@panaderia.com","emailVerified":true}]}`))
	})

	email, err := c.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "admin@panaderia.com", email)
}

func TestVerify_InvalidToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_ID_TOKEN"}}`))
	})

	_, err := c.Verify(context.Background(), "expired")

	var uErr *auth.UnauthorizedError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, auth.ReasonInvalidSession, uErr.Reason)
}

func TestVerify_NoUsers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"users":[]}`))
	})

	_, err := c.Verify(context.Background(), "tok")

	var uErr *auth.UnauthorizedError
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, auth.ReasonInvalidSession, uErr.Reason)
}
