// Package identity implements the auth boundary over a Google Identity
// Toolkit compatible REST API (Firebase Auth).
package identity

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/auth"
)

// DefaultBaseURL is the public Identity Toolkit host.
const DefaultBaseURL = "https://identitytoolkit.googleapis.com"

// Config holds the client settings.
type Config struct {
	// APIKey is the project's web API key, sent as a query parameter.
	APIKey string

	// BaseURL overrides the API host, mainly for tests.
	BaseURL string

	// Timeout bounds each call. Zero means 5s.
	Timeout time.Duration
}

var _ auth.Authenticator = (*Client)(nil)

// Client signs users in with email/password and verifies issued session
// tokens. Vendor rejection codes are mapped to auth reasons; transport
// failures are returned wrapped so callers can treat them as transient.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
	}
}

// SignIn exchanges an email/password pair for a session token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("email", func(e *jx.Encoder) { e.Str(email) })
		e.Field("password", func(e *jx.Encoder) { e.Str(password) })
		e.Field("returnSecureToken", func(e *jx.Encoder) { e.Bool(true) })
	})

	raw, vendorCode, err := c.post(ctx, "/v1/accounts:signInWithPassword", e.Bytes())
	if err != nil {
		return nil, err
	}
	if vendorCode != "" {
		return nil, &auth.UnauthorizedError{Reason: mapVendorCode(vendorCode)}
	}

	sess := &auth.Session{}
	var expiresIn string
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "idToken":
			sess.Token, err = d.Str()
		case "email":
			sess.Email, err = d.Str()
		case "expiresIn":
			expiresIn, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return nil, errors.Wrap(err, "parse sign-in response")
	}
	if sess.Token == "" {
		return nil, errors.New("sign-in response has no idToken")
	}
	if secs, err := strconv.Atoi(expiresIn); err == nil {
		sess.ExpiresIn = time.Duration(secs) * time.Second
	}
	return sess, nil
}

// Verify looks up a session token and returns the account email.
func (c *Client) Verify(ctx context.Context, token string) (string, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("idToken", func(e *jx.Encoder) { e.Str(token) })
	})

	raw, vendorCode, err := c.post(ctx, "/v1/accounts:lookup", e.Bytes())
	if err != nil {
		return "", err
	}
	if vendorCode != "" {
		return "", &auth.UnauthorizedError{Reason: auth.ReasonInvalidSession}
	}

	var email string
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "users" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "email" || email != "" {
					return d.Skip()
				}
				v, err := d.Str()
				email = v
				return err
			})
		})
	}); err != nil {
		return "", errors.Wrap(err, "parse lookup response")
	}
	if email == "" {
		return "", &auth.UnauthorizedError{Reason: auth.ReasonInvalidSession}
	}
	return email, nil
}

// post issues the request and returns either the success body or the vendor
// error code from a rejection. Transport failures return an error.
func (c *Client) post(ctx context.Context, path string, body []byte) (raw []byte, vendorCode string, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s%s?key=%s", c.cfg.BaseURL, path, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", errors.Wrap(err, "identity provider unreachable")
	}
	defer resp.Body.Close()

	raw, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, "", errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code := parseVendorCode(raw)
		if code == "" {
			return nil, "", errors.Errorf("identity provider returned status %d", resp.StatusCode)
		}
		return nil, code, nil
	}
	return raw, "", nil
}

// parseVendorCode extracts error.message (the vendor's machine code, e.g.
// INVALID_LOGIN_CREDENTIALS) from a rejection body.
func parseVendorCode(raw []byte) string {
	var code string
	d := jx.DecodeBytes(raw)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		if key != "error" {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "message" {
				return d.Skip()
			}
			v, err := d.Str()
			code = v
			return err
		})
	})
	return code
}

// mapVendorCode translates Identity Toolkit rejection codes to auth reasons.
// Codes may carry a suffix, e.g. "TOO_MANY_ATTEMPTS_TRY_LATER : ...".
func mapVendorCode(code string) auth.Reason {
	switch {
	case strings.HasPrefix(code, "INVALID_LOGIN_CREDENTIALS"),
		strings.HasPrefix(code, "INVALID_PASSWORD"),
		strings.HasPrefix(code, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(code, "USER_DISABLED"):
		return auth.ReasonBadCredentials
	case strings.HasPrefix(code, "INVALID_EMAIL"),
		strings.HasPrefix(code, "MISSING_EMAIL"):
		return auth.ReasonMalformedEmail
	case strings.HasPrefix(code, "TOO_MANY_ATTEMPTS_TRY_LATER"):
		return auth.ReasonRateLimited
	default:
		return auth.ReasonBadCredentials
	}
}
