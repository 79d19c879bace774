package postgres

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/catalog"
)

const (
	listCategoriesSQL = `SELECT id, name FROM categories ORDER BY name`

	findCategoryByNameSQL = `SELECT id, name FROM categories WHERE LOWER(name) = LOWER($1)`

	insertCategorySQL = `INSERT INTO categories (id, name) VALUES ($1, $2)`

	seedCategorySQL = `INSERT INTO categories (id, name) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	listProductsSQL = `SELECT id, name, description, price, category, image_url
		FROM products ORDER BY name`

	insertProductSQL = `INSERT INTO products (id, name, description, price, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	uniqueViolationCode = "23505"
)

var _ catalog.Store = (*CatalogStore)(nil)

// CatalogStore implements catalog.Store backed by PostgreSQL. Every call runs
// under a per-operation timeout so a slow or unreachable database surfaces as
// catalog.ErrRemoteUnavailable instead of hanging the caller.
type CatalogStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewCatalogStore returns a CatalogStore that uses the given pool. A
// non-positive timeout disables the per-operation deadline.
func NewCatalogStore(pool *pgxpool.Pool, timeout time.Duration) *CatalogStore {
	return &CatalogStore{pool: pool, timeout: timeout}
}

func (s *CatalogStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// ListCategories returns all categories ordered by name.
func (s *CatalogStore) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, wrapStoreErr("listing categories", err)
	}
	out, err := pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, wrapStoreErr("listing categories", err)
	}
	return out, nil
}

// FindCategoryByName looks up a category by case-insensitive name equality.
func (s *CatalogStore) FindCategoryByName(ctx context.Context, name string) (*catalog.Category, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, findCategoryByNameSQL, name)
	if err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("finding category %q", name), err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapStoreErr(fmt.Sprintf("finding category %q", name), err)
	}
	return &c, nil
}

// CreateCategory stores a new category with a generated id. The unique index
// on LOWER(name) enforces case-insensitive name uniqueness even under
// concurrent writers.
func (s *CatalogStore) CreateCategory(ctx context.Context, name string) (*catalog.Category, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	c := catalog.Category{ID: uuid.NewString(), Name: name}
	if _, err := s.pool.Exec(ctx, insertCategorySQL, c.ID, c.Name); err != nil {
		if isUniqueViolation(err) {
			return nil, errors.Wrapf(catalog.ErrAlreadyExists, "category %q", name)
		}
		return nil, wrapStoreErr(fmt.Sprintf("creating category %q", name), err)
	}
	return &c, nil
}

// SeedCategories inserts every listed name that is not already present, in a
// single batch, then returns the resulting full category list. ON CONFLICT DO
// NOTHING makes the batch safe to run concurrently from multiple instances.
func (s *CatalogStore) SeedCategories(ctx context.Context, names []string) ([]catalog.Category, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	batch := &pgx.Batch{}
	for _, name := range names {
		batch.Queue(seedCategorySQL, uuid.NewString(), name)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return nil, wrapStoreErr("seeding categories", err)
	}

	return s.ListCategories(ctx)
}

// ListProducts returns all products ordered by name.
func (s *CatalogStore) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, wrapStoreErr("listing products", err)
	}
	out, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, wrapStoreErr("listing products", err)
	}
	return out, nil
}

// CreateProduct stores a new product with a generated id.
func (s *CatalogStore) CreateProduct(ctx context.Context, draft catalog.ProductDraft, imageURL string) (*catalog.Product, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	p := catalog.Product{
		ID:          uuid.NewString(),
		Name:        draft.Name,
		Description: draft.Description,
		Price:       draft.Price,
		Category:    draft.Category,
		ImageURL:    imageURL,
	}
	_, err := s.pool.Exec(ctx, insertProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL,
	)
	if err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("creating product %q", draft.Name), err)
	}
	return &p, nil
}

// UpdateProduct applies a partial update built from the set fields of the
// patch. An empty patch issues no write at all.
func (s *CatalogStore) UpdateProduct(ctx context.Context, id string, patch catalog.ProductPatch) error {
	if patch.IsZero() {
		return nil
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	set, args := buildProductUpdate(patch)
	set = append(set, "updated_at = now()")
	args = append(args, id)
	sql := fmt.Sprintf("UPDATE products SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))

	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return wrapStoreErr(fmt.Sprintf("updating product %q", id), err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(catalog.ErrNotFound, "product %q", id)
	}
	return nil
}

// DeleteProduct removes the product record. Deleting a missing id succeeds.
func (s *CatalogStore) DeleteProduct(ctx context.Context, id string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.pool.Exec(ctx, deleteProductSQL, id); err != nil {
		return wrapStoreErr(fmt.Sprintf("deleting product %q", id), err)
	}
	return nil
}

func buildProductUpdate(patch catalog.ProductPatch) (set []string, args []any) {
	add := func(column string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	return set, args
}

func scanCategory(row pgx.CollectableRow) (catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(&c.ID, &c.Name)
	return c, err
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p     catalog.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.ImageURL)
	p.Price = price
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// wrapStoreErr classifies driver failures. Deadline, cancellation and network
// errors become catalog.ErrRemoteUnavailable so callers can distinguish remote
// outages from data-level failures.
func wrapStoreErr(op string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), errors.As(err, &netErr):
		return errors.Wrapf(catalog.ErrRemoteUnavailable, "%s: %s", op, err)
	default:
		return errors.Wrap(err, op)
	}
}
