package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/xburncrust/xburncrust/internal/assets"
	"github.com/xburncrust/xburncrust/internal/catalog"
	"github.com/xburncrust/xburncrust/internal/generation"
)

// Handler carries the shared dependencies of every HTTP endpoint.
type Handler struct {
	store        *catalog.Store
	orchestrator *generation.Orchestrator
	uploader     *assets.Uploader // nil when storage credentials are absent
	adminToken   string
}

// New wires the handler layer. uploader may be nil; save requests then fail
// with a configuration error instead of an upload error.
func New(store *catalog.Store, orchestrator *generation.Orchestrator, uploader *assets.Uploader, adminToken string) *Handler {
	return &Handler{
		store:        store,
		orchestrator: orchestrator,
		uploader:     uploader,
		adminToken:   adminToken,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	}
	h.writeJSON(w, code, map[string]string{"error": message})
}

// requireAdmin gates the back-office endpoints on a static bearer token.
// Session-based authentication lives outside this service.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if h.adminToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		h.writeError(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// userID identifies the caller for favorites. The upstream auth proxy sets
// this header; an empty value means anonymous.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}
