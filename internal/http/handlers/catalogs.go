package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"comercio/internal/catalog"
	"comercio/internal/delivery"
	"comercio/internal/domain"
	"comercio/internal/domain/jsoncfg"
	"comercio/internal/middleware"
)

type catalogMetadata struct {
	Reference   string    `json:"reference"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeKB      int       `json:"size_kb"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type dispatchBody struct {
	Recipient string `json:"recipient"`
	Caption   string `json:"caption"`
	SessionID string `json:"session_id"`
}

type dispatchResponse struct {
	JobID     string `json:"job_id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// CatalogsGenerate produces a catalog document for the tenant and returns the
// reference under which it can be dispatched while it lives.
func (a *App) CatalogsGenerate(w http.ResponseWriter, r *http.Request) {
	tenantID := a.currentTenantID(r)
	if tenantID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing tenant context")
		return
	}
	var req jsoncfg.CatalogRequestJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Normalize(middleware.LocaleFromContext(r.Context()))
	if err := req.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result, err := a.Producer.Produce(r.Context(), catalog.Request{
		TenantID: tenantID,
		Filter: domain.CatalogFilter{
			MinStock: req.Filter.MinStock,
			Category: req.Filter.Category,
			Limit:    req.Filter.Limit,
		},
		Options: catalog.Options{
			Title:      req.Options.Title,
			Locale:     req.Options.Locale,
			Currency:   req.Options.Currency,
			HidePrices: req.Options.HidePrices,
		},
	})
	if err != nil {
		if errors.Is(err, domain.ErrGenerationFailed) {
			a.error(w, http.StatusBadGateway, "generation_failed", "could not generate the catalog")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "catalog generation failed")
		return
	}
	a.json(w, http.StatusCreated, result)
}

// CatalogGet returns metadata for a stored catalog, never the payload itself.
func (a *App) CatalogGet(w http.ResponseWriter, r *http.Request) {
	tenantID := a.currentTenantID(r)
	if tenantID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing tenant context")
		return
	}
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "reference required")
		return
	}

	art, err := a.Artifacts.Get(r.Context(), tenantID, reference)
	if err != nil {
		if errors.Is(err, domain.ErrReferenceNotFound) {
			a.error(w, http.StatusNotFound, "reference_not_found", "catalog is no longer available, generate a new one")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load catalog")
		return
	}
	a.json(w, http.StatusOK, catalogMetadata{
		Reference:   art.Reference,
		Filename:    art.Filename,
		ContentType: art.ContentType,
		SizeKB:      art.SizeKB(),
		CreatedAt:   art.CreatedAt,
		ExpiresAt:   art.ExpiresAt,
	})
}

// CatalogDispatch uploads the referenced catalog to durable storage and
// enqueues its delivery. 202 means durably queued, not delivered.
func (a *App) CatalogDispatch(w http.ResponseWriter, r *http.Request) {
	tenantID := a.currentTenantID(r)
	if tenantID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing tenant context")
		return
	}
	reference := chi.URLParam(r, "reference")
	if reference == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "reference required")
		return
	}
	var body dispatchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(body.Recipient) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "recipient required")
		return
	}

	result, err := a.Dispatcher.Dispatch(r.Context(), delivery.DispatchRequest{
		TenantID:      tenantID,
		SessionID:     body.SessionID,
		Reference:     reference,
		Recipient:     strings.TrimSpace(body.Recipient),
		Caption:       body.Caption,
		CorrelationID: middleware.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrReferenceNotFound):
			a.error(w, http.StatusNotFound, "reference_not_found", "catalog is no longer available, generate a new one")
		case errors.Is(err, domain.ErrUploadFailed):
			a.error(w, http.StatusBadGateway, "upload_failed", "could not send the catalog right now, try again")
		case errors.Is(err, domain.ErrEnqueueFailed):
			a.error(w, http.StatusServiceUnavailable, "enqueue_failed", "could not send the catalog right now, try again")
		default:
			a.error(w, http.StatusInternalServerError, "internal", "dispatch failed")
		}
		return
	}
	a.json(w, http.StatusAccepted, dispatchResponse{
		JobID:     result.JobID,
		Reference: result.Reference,
		Status:    "queued",
	})
}
