// Package report serves stored entity reports over HTTP.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"finrep/pkg/core/store"
)

// ReportStore is the persistence surface the handler needs.
type ReportStore interface {
	Get(ctx context.Context, period, tin string) (json.RawMessage, error)
}

// Handler serves the report lookup API.
type Handler struct {
	store ReportStore
}

func NewHandler(s ReportStore) *Handler {
	return &Handler{store: s}
}

// Register attaches the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/ping", HandlePing)
	mux.HandleFunc("/api/report/", h.HandleReport)
}

// HandlePing is a liveness probe.
func HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok"}`)
}

// HandleReport serves GET /api/report/{period}/{tin}. Requests must
// carry the x-api-key header matching the API_KEY environment variable.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	apiKey := os.Getenv("API_KEY")
	if apiKey == "" || r.Header.Get("x-api-key") != apiKey {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	// Path shape: /api/report/{period}/{tin}
	rest := strings.TrimPrefix(r.URL.Path, "/api/report/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusNotFound, "expected /api/report/{period}/{tin}")
		return
	}
	period, tin := parts[0], parts[1]

	payload, err := h.store.Get(r.Context(), period, tin)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no report for %s in %s", tin, period))
		return
	}
	if err != nil {
		fmt.Printf("[API] Report lookup failed for %s/%s: %v\n", period, tin, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
