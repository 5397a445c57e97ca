package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Routes builds the API router.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()

	// Admin back-office
	r.HandleFunc("/api/admin/generate", h.HandleGenerate).Methods("POST")
	r.HandleFunc("/api/admin/save-generated", h.HandleSaveGenerated).Methods("POST")
	r.HandleFunc("/api/admin/upload", h.HandleAdminUpload).Methods("POST")
	r.HandleFunc("/api/admin/media", h.HandleAdminListMedia).Methods("GET")
	r.HandleFunc("/api/admin/media", h.HandleAdminCreateMedia).Methods("POST")
	r.HandleFunc("/api/admin/media/{id}", h.HandleAdminDeleteMedia).Methods("DELETE")

	// Public catalog
	r.HandleFunc("/api/media", h.HandleListMedia).Methods("GET")
	r.HandleFunc("/api/media/{id}", h.HandleGetMedia).Methods("GET")
	r.HandleFunc("/api/media/{id}/view", h.HandleIncrementView).Methods("POST")
	r.HandleFunc("/api/categories", h.HandleListCategories).Methods("GET")

	// Favorites
	r.HandleFunc("/api/favorites", h.HandleListFavorites).Methods("GET")
	r.HandleFunc("/api/favorites", h.HandleAddFavorite).Methods("POST")
	r.HandleFunc("/api/favorites", h.HandleRemoveFavorite).Methods("DELETE")

	r.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	}).Methods("GET")

	return r
}
