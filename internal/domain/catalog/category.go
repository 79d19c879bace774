package catalog

// Category is a flat catalog grouping. Names are unique case-insensitively:
// "pasteles" and "Pasteles" cannot coexist. Categories are never renamed or
// deleted by this service.
type Category struct {
	ID   string
	Name string
}

// DefaultCategoryNames are created when the categories collection is empty at
// first read, in this order.
var DefaultCategoryNames = []string{"Pasteles", "Panes", "Especiales"}
