package domain

import "time"

// Product is a merchant's stock item. Only what the catalog renderer needs is
// modeled here; order and stock management live in their own services.
type Product struct {
	ID          string
	TenantID    string
	Name        string
	Description string
	Category    string
	PriceCents  int64
	Currency    string
	Stock       int
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CatalogFilter narrows which products are included in a generated catalog.
// The zero value matches every product the tenant owns, capped by Limit.
type CatalogFilter struct {
	MinStock int
	Category string
	Limit    int
}
