package api

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/auth"
)

// devToken is issued by the login endpoint when authentication is disabled.
const devToken = "dev-session"

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if h.auth == nil {
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			encodeSession(e, &auth.Session{Token: devToken})
		})
		return
	}

	email, password, err := decodeLoginRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.auth.SignIn(r.Context(), email, password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeSession(e, session)
	})
}

func decodeLoginRequest(r *http.Request) (email, password string, err error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return "", "", errors.Wrap(err, "read body")
	}

	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "email":
			email, err = d.Str()
		case "password":
			password, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	}); err != nil {
		return "", "", &auth.UnauthorizedError{Reason: auth.ReasonMalformedEmail}
	}
	return email, password, nil
}

func encodeSession(e *jx.Encoder, s *auth.Session) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("token", func(e *jx.Encoder) { e.Str(s.Token) })
		e.Field("email", func(e *jx.Encoder) { e.Str(s.Email) })
		e.Field("expiresIn", func(e *jx.Encoder) { e.Int(int(s.ExpiresIn.Seconds())) })
	})
}
