package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/sync/singleflight"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/asset"
)

// Synchronizer owns every cross-gateway invariant of the catalog: input
// validation before any I/O, the two-phase image-then-metadata write,
// duplicate-checked category creation, single-flight default seeding, and
// the resync-on-failed-delete policy.
type Synchronizer struct {
	store  Store
	assets asset.Uploader
	seed   singleflight.Group
}

// NewSynchronizer creates a Synchronizer over the given store and uploader.
func NewSynchronizer(store Store, assets asset.Uploader) *Synchronizer {
	return &Synchronizer{
		store:  store,
		assets: assets,
	}
}

// ListProducts fetches the full product list, ordered by name.
func (s *Synchronizer) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

// ListCategoriesOrSeed fetches all categories. When the collection is empty
// it seeds the default set and returns it sorted by name. Seeding is
// serialized through a single-flight group so concurrent first reads share
// one seeding pass; the store's batch is additionally idempotent, so even
// racing processes cannot double-seed.
func (s *Synchronizer) ListCategoriesOrSeed(ctx context.Context) ([]Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	if len(categories) > 0 {
		return categories, nil
	}

	v, err, _ := s.seed.Do("categories", func() (interface{}, error) {
		// Re-check inside the flight: a previous flight may have seeded
		// between our empty read and acquiring the flight.
		existing, err := s.store.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return existing, nil
		}
		seeded, err := s.store.SeedCategories(ctx, DefaultCategoryNames)
		if err != nil {
			return nil, err
		}
		sort.Slice(seeded, func(i, j int) bool { return seeded[i].Name < seeded[j].Name })
		return seeded, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "seed default categories")
	}

	// Every caller of a shared flight gets the same slice; hand out copies
	// so none of them can mutate another's result.
	return append([]Category(nil), v.([]Category)...), nil
}

// CreateCategory is the strict creation path used by the category manager:
// it fails with ErrAlreadyExists when the trimmed name is already taken
// (case-insensitive).
func (s *Synchronizer) CreateCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	existing, err := s.store.FindCategoryByName(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "find category")
	}
	if existing != nil {
		return nil, errors.Wrapf(ErrAlreadyExists, "%q", existing.Name)
	}

	created, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	return created, nil
}

// EnsureCategory is the tolerant creation path used by the product form: a
// duplicate name returns the existing record instead of failing.
func (s *Synchronizer) EnsureCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	existing, err := s.store.FindCategoryByName(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "find category")
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		// A racing creator may have won; surface their record.
		if errors.Is(err, ErrAlreadyExists) {
			winner, findErr := s.store.FindCategoryByName(ctx, name)
			if findErr != nil {
				return nil, errors.Wrap(findErr, "find category")
			}
			if winner == nil {
				return nil, errors.Wrap(err, "create category")
			}
			return winner, nil
		}
		return nil, errors.Wrap(err, "create category")
	}
	return created, nil
}

// CreateProduct validates the draft, uploads the image, then persists the
// metadata with the returned URL. Validation failures happen before any
// network call. An upload failure aborts with no metadata write. A metadata
// failure after a successful upload orphans the uploaded asset; there is no
// compensating delete.
func (s *Synchronizer) CreateProduct(ctx context.Context, draft ProductDraft, img asset.Image) (*Product, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if len(img.Content) == 0 {
		return nil, &ValidationError{Field: "image", Reason: "is required"}
	}

	url, err := s.assets.Upload(ctx, img)
	if err != nil {
		return nil, errors.Wrap(err, "upload image")
	}

	created, err := s.store.CreateProduct(ctx, draft, url)
	if err != nil {
		return nil, errors.Wrapf(err, "persist product (uploaded asset %s is orphaned)", url)
	}
	return created, nil
}

// UpdateProduct applies a partial update. A new image, when supplied, is
// uploaded before any metadata write; an upload failure leaves the prior
// record fully intact. When the effective patch is empty and no image was
// supplied, no remote write is issued at all.
func (s *Synchronizer) UpdateProduct(ctx context.Context, id string, patch ProductPatch, img *asset.Image) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	if img != nil {
		if len(img.Content) == 0 {
			return &ValidationError{Field: "image", Reason: "must not be empty"}
		}
		url, err := s.assets.Upload(ctx, *img)
		if err != nil {
			return errors.Wrap(err, "upload image")
		}
		patch.ImageURL = &url
	}

	if patch.IsZero() {
		return nil
	}

	if err := s.store.UpdateProduct(ctx, id, patch); err != nil {
		return errors.Wrapf(err, "update product %q", id)
	}
	return nil
}

// DeleteProduct removes the product metadata record. The caller is expected
// to have already removed the product from its local view (optimistic
// delete); when the remote delete fails, the returned ResyncError tells the
// caller to refetch the full list instead of attempting a rollback.
func (s *Synchronizer) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return &ResyncError{Cause: err}
	}
	return nil
}
