package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xburncrust/xburncrust/internal/catalog"
)

// HandleListFavorites returns the caller's favorited media IDs. Anonymous
// callers get an empty list rather than an error, matching the public pages.
func (h *Handler) HandleListFavorites(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		h.writeJSON(w, http.StatusOK, map[string]any{"favoriteIds": []string{}})
		return
	}

	ids, err := h.store.ListFavorites(r.Context(), user)
	if err != nil {
		h.writeError(w, "failed to list favorites: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"favoriteIds": ids})
}

type favoriteRequest struct {
	MediaID string `json:"mediaId"`
}

// HandleAddFavorite marks a media entry as a favorite. Idempotent.
func (h *Handler) HandleAddFavorite(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		h.writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.MediaID == "" {
		h.writeError(w, "mediaId is required", http.StatusBadRequest)
		return
	}

	added, err := h.store.AddFavorite(r.Context(), user, req.MediaID)
	if err != nil {
		if errors.Is(err, catalog.ErrMediaNotFound) {
			h.writeError(w, "Media not found", http.StatusNotFound)
			return
		}
		h.writeError(w, "failed to add favorite: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if !added {
		h.writeJSON(w, http.StatusOK, map[string]string{"message": "Already in favorites"})
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"message": "Added to favorites"})
}

// HandleRemoveFavorite unmarks a favorite. Removing an absent favorite still
// succeeds.
func (h *Handler) HandleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		h.writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.MediaID == "" {
		h.writeError(w, "mediaId is required", http.StatusBadRequest)
		return
	}

	if err := h.store.RemoveFavorite(r.Context(), user, req.MediaID); err != nil {
		h.writeError(w, "failed to remove favorite: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from favorites"})
}
