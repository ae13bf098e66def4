package repo

import (
	"context"
	"fmt"

	"comercio/internal/domain"
	"comercio/internal/domain/jsoncfg"
	"comercio/internal/infra"
	"comercio/internal/sqlinline"
)

// ProductRepositoryPG implements domain.ProductSource backed by PostgreSQL.
type ProductRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProductRepository constructs the repository.
func NewProductRepository(sql infra.SQLExecutor) *ProductRepositoryPG {
	return &ProductRepositoryPG{sql: sql}
}

// ListForCatalog returns the tenant's products that satisfy the filter,
// ordered by category then name so rendered catalogs are stable between
// runs. A non-positive limit falls back to the catalog default.
func (r *ProductRepositoryPG) ListForCatalog(ctx context.Context, tenantID string, filter domain.CatalogFilter) ([]domain.Product, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = jsoncfg.DefaultCatalogLimit
	}
	if limit > jsoncfg.MaxCatalogLimit {
		limit = jsoncfg.MaxCatalogLimit
	}
	minStock := filter.MinStock
	if minStock < 0 {
		minStock = 0
	}

	rows, err := r.sql.Query(ctx, sqlinline.QListProductsForCatalog, tenantID, minStock, filter.Category, limit)
	if err != nil {
		return nil, fmt.Errorf("repo: list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.TenantID,
			&p.Name,
			&p.Description,
			&p.Category,
			&p.PriceCents,
			&p.Currency,
			&p.Stock,
			&p.ImageURL,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("repo: scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: list products: %w", err)
	}
	return products, nil
}

// Insert stores a new product and returns its generated id.
func (r *ProductRepositoryPG) Insert(ctx context.Context, p *domain.Product) (string, error) {
	currency := p.Currency
	if currency == "" {
		currency = jsoncfg.DefaultCatalogCurrency
	}

	row := r.sql.QueryRow(ctx, sqlinline.QInsertProduct,
		p.TenantID,
		p.Name,
		p.Description,
		p.Category,
		p.PriceCents,
		currency,
		p.Stock,
		p.ImageURL,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("repo: insert product: %w", err)
	}
	return id, nil
}

// CountByTenant reports how many products the tenant owns.
func (r *ProductRepositoryPG) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QCountProductsByTenant, tenantID)
	var total int
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

var _ domain.ProductSource = (*ProductRepositoryPG)(nil)
