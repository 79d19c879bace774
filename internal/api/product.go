package api

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/asset"
	"github.com/pasteleriaruby/catalog-admin/internal/domain/catalog"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.sync.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.view.Replace(products)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				encodeProduct(e, p)
			}
		})
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, &catalog.ValidationError{Field: "body", Reason: "malformed multipart form"})
		return
	}

	price, err := parsePrice(r.FormValue("price"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	draft := catalog.ProductDraft{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    r.FormValue("category"),
	}

	img, err := readImage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if img == nil {
		img = &asset.Image{}
	}

	created, err := h.sync.CreateProduct(r.Context(), draft, *img)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.view.Apply(*created)

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeProduct(e, *created)
	})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, &catalog.ValidationError{Field: "body", Reason: "malformed multipart form"})
		return
	}

	patch, err := buildPatch(r.MultipartForm)
	if err != nil {
		writeError(w, r, err)
		return
	}

	img, err := readImage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.sync.UpdateProduct(r.Context(), id, patch, img); err != nil {
		writeError(w, r, err)
		return
	}
	// The snapshot does not know the stored image URL after a patch, so the
	// next list refetches.
	h.view.MarkStale()

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Optimistic: the snapshot drops the product before the remote call.
	h.view.Remove(id)

	if err := h.sync.DeleteProduct(r.Context(), id); err != nil {
		h.view.MarkStale()
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// buildPatch turns the set multipart fields into a partial update. A field
// absent from the form is left nil and untouched.
func buildPatch(form *multipart.Form) (catalog.ProductPatch, error) {
	var patch catalog.ProductPatch

	field := func(name string) *string {
		values, ok := form.Value[name]
		if !ok || len(values) == 0 {
			return nil
		}
		return &values[0]
	}

	patch.Name = field("name")
	patch.Description = field("description")
	patch.Category = field("category")

	if raw := field("price"); raw != nil {
		price, err := parsePrice(*raw)
		if err != nil {
			return catalog.ProductPatch{}, err
		}
		patch.Price = &price
	}
	return patch, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, &catalog.ValidationError{Field: "price", Reason: "must be a number"}
	}
	return price, nil
}

// readImage extracts the optional "image" file part. It returns (nil, nil)
// when the part is absent.
func readImage(r *http.Request) (*asset.Image, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, &catalog.ValidationError{Field: "image", Reason: "malformed file part"}
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrap(err, "read image part")
	}
	return &asset.Image{Filename: header.Filename, Content: content}, nil
}

func encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("price", func(e *jx.Encoder) { e.Num(jx.Num(p.Price.String())) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		e.Field("imageUrl", func(e *jx.Encoder) { e.Str(p.ImageURL) })
	})
}
