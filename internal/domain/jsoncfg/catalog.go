package jsoncfg

import (
	"fmt"
	"strings"
)

// CatalogFilterJSON selects which products a generated catalog includes.
type CatalogFilterJSON struct {
	MinStock int    `json:"min_stock"`
	Category string `json:"category"`
	Limit    int    `json:"limit"`
}

// CatalogOptionsJSON tunes presentation of the generated catalog.
type CatalogOptionsJSON struct {
	Title      string `json:"title"`
	Locale     string `json:"locale"`
	Currency   string `json:"currency"`
	HidePrices bool   `json:"hide_prices"`
}

// CatalogRequestJSON is the canonical catalog-generation contract accepted by
// the API and persisted for tracing.
type CatalogRequestJSON struct {
	Version string             `json:"version"`
	Filter  CatalogFilterJSON  `json:"filter"`
	Options CatalogOptionsJSON `json:"options"`
}

const (
	// DefaultCatalogVersion represents the schema version of the contract.
	DefaultCatalogVersion = "2025-06"
	// DefaultCatalogLimit caps item count when the request omits a limit.
	DefaultCatalogLimit = 50
	// MaxCatalogLimit is the hard ceiling on items per catalog.
	MaxCatalogLimit = 200
	// DefaultCatalogLocale is applied when no locale preference is known.
	DefaultCatalogLocale = "es"
	// DefaultCatalogCurrency is assumed when the tenant does not specify one.
	DefaultCatalogCurrency = "ARS"
)

var allowedLocales = map[string]struct{}{
	"es": {},
	"en": {},
}

// Normalize ensures the request respects server defaults and limits.
func (c *CatalogRequestJSON) Normalize(preferredLocale string) {
	if c == nil {
		return
	}
	if c.Version == "" {
		c.Version = DefaultCatalogVersion
	}
	if c.Filter.MinStock < 0 {
		c.Filter.MinStock = 0
	}
	if c.Filter.Limit <= 0 {
		c.Filter.Limit = DefaultCatalogLimit
	}
	if c.Filter.Limit > MaxCatalogLimit {
		c.Filter.Limit = MaxCatalogLimit
	}
	if c.Options.Locale == "" {
		if preferredLocale != "" {
			c.Options.Locale = preferredLocale
		} else {
			c.Options.Locale = DefaultCatalogLocale
		}
	}
	if c.Options.Currency == "" {
		c.Options.Currency = DefaultCatalogCurrency
	}
}

// Validate ensures the request satisfies the contract before generation.
func (c CatalogRequestJSON) Validate() error {
	if _, ok := allowedLocales[c.Options.Locale]; !ok {
		return fmt.Errorf("options.locale must be one of es, en")
	}
	if c.Filter.Limit < 1 || c.Filter.Limit > MaxCatalogLimit {
		return fmt.Errorf("filter.limit must be between 1 and %d", MaxCatalogLimit)
	}
	if len(c.Options.Currency) != 3 {
		return fmt.Errorf("options.currency must be a 3-letter code")
	}
	if strings.ToUpper(c.Options.Currency) != c.Options.Currency {
		return fmt.Errorf("options.currency must be upper case")
	}
	return nil
}
