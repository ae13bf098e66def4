// Package render talks to the external catalog renderer. When no renderer is
// configured the client builds a small deterministic PDF locally so the rest
// of the pipeline stays fully operational in development and CI.
package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"comercio/internal/infra"
)

// Options controls how the renderer client is configured.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is a facade over the renderer HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *infra.Logger
}

// RenderItem is one product row in the rendered catalog.
type RenderItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	PriceCents  int64  `json:"priceCents"`
	Currency    string `json:"currency,omitempty"`
	Stock       int    `json:"stock"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// RenderRequest describes one catalog document to produce.
type RenderRequest struct {
	TenantID   string       `json:"tenantId"`
	Title      string       `json:"title"`
	Locale     string       `json:"locale,omitempty"`
	Currency   string       `json:"currency,omitempty"`
	HidePrices bool         `json:"hidePrices,omitempty"`
	Items      []RenderItem `json:"items"`
}

// RenderResult carries the produced document.
type RenderResult struct {
	PDF       []byte
	PageCount int
}

type renderResponse struct {
	PDF       string `json:"pdf"`
	PageCount int    `json:"pageCount"`
}

type renderErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a renderer client with sane defaults. Callers may
// provide a nil HTTP client; a reusable one with sensible timeouts will be
// created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: client,
		logger:     logger,
	}, nil
}

// RenderCatalog produces a PDF for the given items. An empty item list is
// rejected before any renderer work happens.
func (c *Client) RenderCatalog(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, errors.New("render: at least one item is required")
	}

	if c.baseURL == "" || c.apiKey == "" {
		return c.syntheticCatalog(req)
	}
	return c.remoteRenderCatalog(ctx, req)
}

func (c *Client) syntheticCatalog(req RenderRequest) (*RenderResult, error) {
	pdf, pages := buildCatalogPDF(req)
	c.logger.Debug().
		Str("tenant_id", req.TenantID).
		Int("items", len(req.Items)).
		Int("pages", pages).
		Msg("render: produced synthetic catalog document")
	return &RenderResult{PDF: pdf, PageCount: pages}, nil
}

func (c *Client) remoteRenderCatalog(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("render: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("render: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("render: invoke renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr renderErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("render: renderer status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return nil, fmt.Errorf("render: renderer status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return nil, fmt.Errorf("render: renderer status %d", resp.StatusCode)
	}

	var decoded renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("render: decode renderer response: %w", err)
	}
	pdf, err := base64.StdEncoding.DecodeString(decoded.PDF)
	if err != nil {
		return nil, fmt.Errorf("render: decode pdf payload: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("render: renderer returned an empty document")
	}
	pages := decoded.PageCount
	if pages <= 0 {
		pages = pageCountFor(len(req.Items))
	}

	c.logger.Debug().
		Str("tenant_id", req.TenantID).
		Int("items", len(req.Items)).
		Int("pages", pages).
		Msg("render: produced remote catalog document")

	return &RenderResult{PDF: pdf, PageCount: pages}, nil
}
