package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/catalog"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.sync.ListCategoriesOrSeed(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCategories(e, categories)
	})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	name, err := decodeCategoryRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.sync.CreateCategory(r.Context(), name)
	if err != nil {
		if errors.Is(err, catalog.ErrAlreadyExists) {
			writeMessage(w, http.StatusConflict, fmt.Sprintf("La categoría %q ya existe.", name), false)
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeCategory(e, *created)
	})
}

func (h *Handler) ensureCategory(w http.ResponseWriter, r *http.Request) {
	name, err := decodeCategoryRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.sync.EnsureCategory(r.Context(), name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeCategory(e, *c)
	})
}

// decodeCategoryRequest reads the {"name": ...} request body. Malformed JSON
// surfaces as a name validation error so the client sees one message shape.
func decodeCategoryRequest(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return "", errors.Wrap(err, "read body")
	}

	var name string
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "name" {
			return d.Skip()
		}
		name, err = d.Str()
		return err
	}); err != nil {
		return "", &catalog.ValidationError{Field: "name", Reason: "malformed request body"}
	}
	return name, nil
}

func encodeCategory(e *jx.Encoder, c catalog.Category) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
	})
}

func encodeCategories(e *jx.Encoder, categories []catalog.Category) {
	e.Arr(func(e *jx.Encoder) {
		for _, c := range categories {
			encodeCategory(e, c)
		}
	})
}
