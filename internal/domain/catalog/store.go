package catalog

import "context"

// Store is the remote catalog boundary: collection-level CRUD over the
// products and categories collections of a managed document store.
// Implementations translate connectivity and timeout failures into
// ErrRemoteUnavailable wraps and never leak driver-level errors.
type Store interface {
	// ListCategories returns all categories ordered by name ascending.
	ListCategories(ctx context.Context) ([]Category, error)

	// FindCategoryByName looks up a category by case-insensitive name
	// equality. It returns (nil, nil) when no category matches.
	FindCategoryByName(ctx context.Context, name string) (*Category, error)

	// CreateCategory stores a new category with a generated id. It returns
	// ErrAlreadyExists when the name is already taken.
	CreateCategory(ctx context.Context, name string) (*Category, error)

	// SeedCategories creates every listed category that does not already
	// exist, as an idempotent batch, and returns the resulting full category
	// list ordered by name. Concurrent seeding of the same names must not
	// produce duplicates.
	SeedCategories(ctx context.Context, names []string) ([]Category, error)

	// ListProducts returns all products ordered by name ascending.
	ListProducts(ctx context.Context) ([]Product, error)

	// CreateProduct stores a new product with a generated id.
	CreateProduct(ctx context.Context, draft ProductDraft, imageURL string) (*Product, error)

	// UpdateProduct applies a partial update. An empty patch is a no-op and
	// must not issue a remote write. Returns ErrNotFound when id is missing.
	UpdateProduct(ctx context.Context, id string, patch ProductPatch) error

	// DeleteProduct removes the product metadata record. Deleting a missing
	// id succeeds silently. The product's image is left behind on the asset
	// store; asset reclamation is a deliberately deferred concern.
	DeleteProduct(ctx context.Context, id string) error
}
