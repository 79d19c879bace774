package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/auth"
)

type ctxKey int

const emailKey ctxKey = iota

// EmailFromContext returns the signed-in administrator email, when the
// request passed through requireSession with authentication enabled.
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(emailKey).(string)
	return email
}

// requireSession gates a route group behind a verified bearer token. With a
// nil auth service every request passes through unauthenticated.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.auth == nil {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			writeError(w, r, &auth.UnauthorizedError{Reason: auth.ReasonInvalidSession})
			return
		}

		email, err := h.auth.Verify(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), emailKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
