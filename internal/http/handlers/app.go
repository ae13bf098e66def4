package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"comercio/internal/artifact"
	"comercio/internal/catalog"
	"comercio/internal/delivery"
	"comercio/internal/middleware"
)

// CatalogProducer generates a catalog document and parks it in the artifact
// store.
type CatalogProducer interface {
	Produce(ctx context.Context, req catalog.Request) (catalog.Result, error)
}

// CatalogDispatcher hands a stored artifact to the delivery pipeline.
type CatalogDispatcher interface {
	Dispatch(ctx context.Context, req delivery.DispatchRequest) (delivery.DispatchResult, error)
}

// App carries the dependencies shared by the HTTP handlers.
type App struct {
	Producer   CatalogProducer
	Dispatcher CatalogDispatcher
	Artifacts  artifact.Store
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]errorBody{"error": {Code: code, Message: message}})
}

func (a *App) currentTenantID(r *http.Request) string {
	return middleware.TenantIDFromContext(r.Context())
}
