package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog item managed through the admin panel. Category is a
// denormalized copy of a Category.Name, not a foreign key. ImageURL always
// points at an asset previously uploaded through the asset store.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
}

// ProductDraft holds the caller-supplied fields for creating a product.
// The image is handled separately and its URL is assigned after upload.
type ProductDraft struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
}

// Validate trims the draft's text fields in place and checks the creation
// invariants: non-empty name, description and category, price > 0.
func (d *ProductDraft) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)

	switch {
	case d.Name == "":
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	case d.Description == "":
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	case d.Category == "":
		return &ValidationError{Field: "category", Reason: "must not be empty"}
	case !d.Price.IsPositive():
		return &ValidationError{Field: "price", Reason: "must be greater than 0"}
	}
	return nil
}

// ProductPatch is a partial update. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	ImageURL    *string
}

// IsZero reports whether the patch changes nothing.
func (p ProductPatch) IsZero() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Category == nil && p.ImageURL == nil
}

// Validate checks every present field against the same rules as creation,
// trimming text fields in place.
func (p *ProductPatch) Validate() error {
	if p.Name != nil {
		*p.Name = strings.TrimSpace(*p.Name)
		if *p.Name == "" {
			return &ValidationError{Field: "name", Reason: "must not be empty"}
		}
	}
	if p.Description != nil {
		*p.Description = strings.TrimSpace(*p.Description)
		if *p.Description == "" {
			return &ValidationError{Field: "description", Reason: "must not be empty"}
		}
	}
	if p.Category != nil {
		*p.Category = strings.TrimSpace(*p.Category)
		if *p.Category == "" {
			return &ValidationError{Field: "category", Reason: "must not be empty"}
		}
	}
	if p.Price != nil && !p.Price.IsPositive() {
		return &ValidationError{Field: "price", Reason: "must be greater than 0"}
	}
	return nil
}
