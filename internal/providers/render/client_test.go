package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testRequest(items int) RenderRequest {
	req := RenderRequest{
		TenantID: "tenant-a",
		Title:    "Catalogo de Productos",
		Locale:   "es",
		Currency: "ARS",
	}
	for i := 0; i < items; i++ {
		req.Items = append(req.Items, RenderItem{
			Name:       "Producto",
			Category:   "general",
			PriceCents: 129900,
			Stock:      3,
		})
	}
	return req
}

func TestRenderCatalogRejectsEmptyItems(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.RenderCatalog(context.Background(), testRequest(0)); err == nil {
		t.Fatalf("RenderCatalog expected error for empty items")
	}
}

func TestRenderCatalogSyntheticIsDeterministic(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	first, err := client.RenderCatalog(context.Background(), testRequest(12))
	if err != nil {
		t.Fatalf("RenderCatalog returned error: %v", err)
	}
	second, err := client.RenderCatalog(context.Background(), testRequest(12))
	if err != nil {
		t.Fatalf("RenderCatalog returned error: %v", err)
	}

	if !bytes.Equal(first.PDF, second.PDF) {
		t.Fatalf("synthetic output is not deterministic")
	}
	if !bytes.HasPrefix(first.PDF, []byte("%PDF-1.4")) {
		t.Fatalf("synthetic output missing pdf header: %q", first.PDF[:16])
	}
	if first.PageCount != 2 {
		t.Fatalf("PageCount = %d, want 2", first.PageCount)
	}
}

func TestRenderCatalogSyntheticHidesPrices(t *testing.T) {
	client, err := NewClient(Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	req := testRequest(1)
	req.HidePrices = true
	got, err := client.RenderCatalog(context.Background(), req)
	if err != nil {
		t.Fatalf("RenderCatalog returned error: %v", err)
	}
	if bytes.Contains(got.PDF, []byte("ARS 1299.00")) {
		t.Fatalf("hidden prices leaked into the document")
	}
}

func TestRenderCatalogRemote(t *testing.T) {
	pdf := []byte("%PDF-1.4 remote document")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/render" {
			t.Errorf("path = %q, want /v1/render", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-key" {
			t.Errorf("Authorization = %q, want Bearer secret-key", got)
		}
		var req RenderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if len(req.Items) != 3 {
			t.Errorf("items = %d, want 3", len(req.Items))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pdf":       base64.StdEncoding.EncodeToString(pdf),
			"pageCount": 1,
		})
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL, APIKey: "secret-key", HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	got, err := client.RenderCatalog(context.Background(), testRequest(3))
	if err != nil {
		t.Fatalf("RenderCatalog returned error: %v", err)
	}
	if !bytes.Equal(got.PDF, pdf) {
		t.Fatalf("PDF = %q, want remote bytes", got.PDF)
	}
	if got.PageCount != 1 {
		t.Fatalf("PageCount = %d, want 1", got.PageCount)
	}
}

func TestRenderCatalogRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 502, "message": "template engine crashed"},
		})
	}))
	defer server.Close()

	client, err := NewClient(Options{BaseURL: server.URL, APIKey: "secret-key", HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = client.RenderCatalog(context.Background(), testRequest(1))
	if err == nil {
		t.Fatalf("RenderCatalog expected error")
	}
	if !strings.Contains(err.Error(), "renderer status 502") || !strings.Contains(err.Error(), "template engine crashed") {
		t.Fatalf("error = %q, want renderer status and message", err)
	}
}

func TestPageCountFor(t *testing.T) {
	tests := []struct {
		items int
		want  int
	}{
		{items: 0, want: 1},
		{items: 1, want: 1},
		{items: 10, want: 1},
		{items: 11, want: 2},
		{items: 25, want: 3},
	}
	for _, tc := range tests {
		if got := pageCountFor(tc.items); got != tc.want {
			t.Fatalf("pageCountFor(%d) = %d, want %d", tc.items, got, tc.want)
		}
	}
}
