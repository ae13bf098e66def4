package handlers

import (
	"net/http"
)

// Health answers liveness probes without touching downstream dependencies.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok", "service": "comercio-api"})
}
