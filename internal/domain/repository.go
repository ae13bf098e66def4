package domain

import "context"

// ProductSource lists catalog-eligible products for a tenant.
type ProductSource interface {
	ListForCatalog(ctx context.Context, tenantID string, filter CatalogFilter) ([]Product, error)
}
