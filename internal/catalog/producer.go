// Package catalog turns a tenant's product list into a short-lived PDF
// artifact ready for dispatch.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"comercio/internal/artifact"
	"comercio/internal/domain"
	"comercio/internal/infra"
	"comercio/internal/providers/render"
)

// DocumentRenderer is the slice of the renderer client the producer needs.
type DocumentRenderer interface {
	RenderCatalog(ctx context.Context, req render.RenderRequest) (*render.RenderResult, error)
}

// Options tunes presentation of one generated catalog.
type Options struct {
	Title      string
	Locale     string
	Currency   string
	HidePrices bool
}

// Request asks for one catalog document.
type Request struct {
	TenantID string
	Filter   domain.CatalogFilter
	Options  Options
}

// Result describes a stored artifact. The payload itself stays in the
// artifact store; callers hold only the reference.
type Result struct {
	Reference string `json:"reference"`
	ItemCount int    `json:"item_count"`
	PageCount int    `json:"page_count"`
	Filename  string `json:"filename"`
	SizeKB    int    `json:"size_kb"`
}

// ProducerOptions tunes a Producer. Zero values fall back to defaults.
type ProducerOptions struct {
	TTL          time.Duration
	Now          func() time.Time
	NewReference func() string
	Logger       *infra.Logger
}

// Producer generates catalog documents and parks them in the artifact store.
type Producer struct {
	source   domain.ProductSource
	renderer DocumentRenderer
	store    artifact.Store

	ttl          time.Duration
	now          func() time.Time
	newReference func() string
	logger       *infra.Logger
}

func NewProducer(source domain.ProductSource, renderer DocumentRenderer, store artifact.Store, opts ProducerOptions) *Producer {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = artifact.DefaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newReference := opts.NewReference
	if newReference == nil {
		newReference = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Producer{
		source:       source,
		renderer:     renderer,
		store:        store,
		ttl:          ttl,
		now:          now,
		newReference: newReference,
		logger:       logger,
	}
}

// Produce loads products, renders them and stores the resulting artifact.
// Nothing is stored unless every step succeeded, and a successful call stores
// exactly one artifact.
func (p *Producer) Produce(ctx context.Context, req Request) (Result, error) {
	if req.TenantID == "" {
		return Result{}, errors.New("catalog: tenant id is required")
	}

	products, err := p.source.ListForCatalog(ctx, req.TenantID, req.Filter)
	if err != nil {
		return Result{}, fmt.Errorf("%w: list products: %v", domain.ErrGenerationFailed, err)
	}
	if len(products) == 0 {
		return Result{}, fmt.Errorf("%w: no products match filter", domain.ErrGenerationFailed)
	}

	locale := normalizeLocale(req.Options.Locale)
	title := req.Options.Title
	if title == "" {
		title = defaultTitle(locale)
	}

	rendered, err := p.renderer.RenderCatalog(ctx, render.RenderRequest{
		TenantID:   req.TenantID,
		Title:      title,
		Locale:     locale,
		Currency:   req.Options.Currency,
		HidePrices: req.Options.HidePrices,
		Items:      renderItems(products),
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	if rendered == nil || len(rendered.PDF) == 0 {
		return Result{}, fmt.Errorf("%w: renderer returned an empty document", domain.ErrGenerationFailed)
	}

	now := p.now()
	doc := &domain.Artifact{
		Reference:   p.newReference(),
		TenantID:    req.TenantID,
		Payload:     rendered.PDF,
		Filename:    localizedFilename(locale, now),
		ContentType: "application/pdf",
		SizeBytes:   int64(len(rendered.PDF)),
		CreatedAt:   now,
		ExpiresAt:   now.Add(p.ttl),
	}
	if err := p.store.Put(ctx, doc); err != nil {
		return Result{}, fmt.Errorf("%w: store artifact: %v", domain.ErrGenerationFailed, err)
	}

	p.logger.Info().
		Str("tenant_id", req.TenantID).
		Str("reference", doc.Reference).
		Int("items", len(products)).
		Int("pages", rendered.PageCount).
		Int("size_kb", doc.SizeKB()).
		Msg("catalog: artifact produced")

	return Result{
		Reference: doc.Reference,
		ItemCount: len(products),
		PageCount: rendered.PageCount,
		Filename:  doc.Filename,
		SizeKB:    doc.SizeKB(),
	}, nil
}

func renderItems(products []domain.Product) []render.RenderItem {
	items := make([]render.RenderItem, len(products))
	for i, p := range products {
		items[i] = render.RenderItem{
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			PriceCents:  p.PriceCents,
			Currency:    p.Currency,
			Stock:       p.Stock,
			ImageURL:    p.ImageURL,
		}
	}
	return items
}

func normalizeLocale(locale string) string {
	switch locale {
	case "en":
		return "en"
	default:
		return "es"
	}
}

func defaultTitle(locale string) string {
	if locale == "en" {
		return "Product Catalog"
	}
	return "Catalogo de Productos"
}

// localizedFilename names the document the way the recipient will see it in
// the chat attachment.
func localizedFilename(locale string, t time.Time) string {
	date := t.Format("20060102")
	if locale == "en" {
		return "product-catalog-" + date + ".pdf"
	}
	return "catalogo-productos-" + date + ".pdf"
}
