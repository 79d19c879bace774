package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/asset"
	"github.com/pasteleriaruby/catalog-admin/internal/domain/auth"
	"github.com/pasteleriaruby/catalog-admin/internal/domain/catalog"
)

// writeJSON encodes a response body with the given encoder function.
func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeMessage writes the standard error body. resync tells the client its
// local product list diverged and must be refetched.
func writeMessage(w http.ResponseWriter, status int, msg string, resync bool) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
			if resync {
				e.Field("resync", func(e *jx.Encoder) { e.Bool(true) })
			}
		})
	})
}

// writeError maps a domain error to a status code and a Spanish user
// message. The technical cause is logged, never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr   *catalog.ValidationError
		uploadErr       *asset.UploadError
		resyncErr       *catalog.ResyncError
		unauthorizedErr *auth.UnauthorizedError
	)

	switch {
	case errors.As(err, &validationErr):
		writeMessage(w, http.StatusBadRequest, validationMessage(validationErr), false)
		return
	case errors.Is(err, catalog.ErrAlreadyExists):
		writeMessage(w, http.StatusConflict, "La categoría ya existe.", false)
	case errors.Is(err, catalog.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "El producto no existe.", false)
	case errors.As(err, &resyncErr):
		writeMessage(w, http.StatusBadGateway, "No se pudo eliminar el producto.", true)
	case errors.Is(err, asset.ErrMisconfigured):
		writeMessage(w, http.StatusServiceUnavailable, "El servicio de imágenes no está configurado.", false)
	case errors.As(err, &uploadErr):
		writeMessage(w, http.StatusBadGateway, "No se pudo subir la imagen.", false)
	case errors.Is(err, catalog.ErrRemoteUnavailable):
		writeMessage(w, http.StatusServiceUnavailable, "No se pudieron cargar los datos. Revisa tu conexión.", false)
	case errors.As(err, &unauthorizedErr):
		writeMessage(w, http.StatusUnauthorized, unauthorizedMessage(unauthorizedErr.Reason), false)
	default:
		writeMessage(w, http.StatusInternalServerError, "Algo salió mal. Inténtalo de nuevo.", false)
	}

	zctx.From(r.Context()).Warn("Request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
}

func validationMessage(err *catalog.ValidationError) string {
	switch err.Field {
	case "name":
		return "El nombre es obligatorio."
	case "description":
		return "La descripción es obligatoria."
	case "category":
		return "La categoría es obligatoria."
	case "price":
		return "El precio debe ser mayor que 0."
	case "image":
		return "La imagen es obligatoria."
	default:
		return "Los datos enviados no son válidos."
	}
}

func unauthorizedMessage(reason auth.Reason) string {
	switch reason {
	case auth.ReasonDenied:
		return "Acceso denegado. Este email no está autorizado."
	case auth.ReasonBadCredentials:
		return "Usuario o contraseña incorrectos."
	case auth.ReasonMalformedEmail:
		return "El formato del email no es válido."
	case auth.ReasonRateLimited:
		return "Demasiados intentos fallidos. Espera unos minutos."
	case auth.ReasonInvalidSession:
		return "La sesión ha expirado. Inicia sesión de nuevo."
	default:
		return "No autorizado."
	}
}
