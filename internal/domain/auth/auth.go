// Package auth gates access to the admin panel. Credential verification is
// delegated to an external identity provider; the only local policy is an
// optional single allow-listed administrator email.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Reason classifies why an authentication attempt was rejected.
type Reason string

const (
	// ReasonDenied: the email is not the allow-listed administrator.
	ReasonDenied Reason = "denied"
	// ReasonBadCredentials: the identity provider rejected email/password.
	ReasonBadCredentials Reason = "bad_credentials"
	// ReasonMalformedEmail: the email is not syntactically valid.
	ReasonMalformedEmail Reason = "malformed_email"
	// ReasonRateLimited: too many failed attempts, provider-side lockout.
	ReasonRateLimited Reason = "rate_limited"
	// ReasonInvalidSession: the bearer token is expired or unknown.
	ReasonInvalidSession Reason = "invalid_session"
)

// UnauthorizedError is returned for every rejected sign-in or session check.
type UnauthorizedError struct {
	Reason Reason
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

// Session is the opaque handle issued by the identity provider on sign-in.
type Session struct {
	Token     string
	Email     string
	ExpiresIn time.Duration
}

// Authenticator is the identity-provider boundary.
type Authenticator interface {
	// SignIn verifies an email/password pair and returns a session.
	// Rejections surface as *UnauthorizedError.
	SignIn(ctx context.Context, email, password string) (*Session, error)

	// Verify checks a session token and returns the signed-in email.
	Verify(ctx context.Context, token string) (string, error)
}

// Service applies the local access policy before delegating to the
// identity provider.
type Service struct {
	ident      Authenticator
	adminEmail string
}

// NewService creates an auth Service. adminEmail may be empty, in which case
// any account known to the identity provider may sign in.
func NewService(ident Authenticator, adminEmail string) *Service {
	return &Service{
		ident:      ident,
		adminEmail: strings.TrimSpace(adminEmail),
	}
}

// SignIn rejects non-allow-listed emails locally, without the credential
// ever leaving the process, then delegates to the identity provider.
// Emails are compared case-insensitively.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	if s.adminEmail != "" && !strings.EqualFold(email, s.adminEmail) {
		return nil, &UnauthorizedError{Reason: ReasonDenied}
	}
	return s.ident.SignIn(ctx, email, password)
}

// Verify checks a bearer token against the identity provider and re-applies
// the allow-list, so a stale session for a removed admin cannot slip through.
func (s *Service) Verify(ctx context.Context, token string) (string, error) {
	email, err := s.ident.Verify(ctx, token)
	if err != nil {
		return "", err
	}
	if s.adminEmail != "" && !strings.EqualFold(email, s.adminEmail) {
		return "", &UnauthorizedError{Reason: ReasonDenied}
	}
	return email, nil
}
