package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/xburncrust/xburncrust/internal/assets"
	"github.com/xburncrust/xburncrust/internal/catalog"
	"github.com/xburncrust/xburncrust/internal/models"
)

type saveRequest struct {
	Image      string `json:"image"`
	Title      string `json:"title"`
	Performer  string `json:"performer"`
	CategoryID int64  `json:"categoryId"`
	ShowOnHome bool   `json:"showOnHome"`
}

// HandleSaveGenerated persists a reviewed image: upload to object storage
// first, then write the catalog record. A failed upload aborts the whole
// confirmation so no catalog row ever points at a missing asset.
func (h *Handler) HandleSaveGenerated(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Image == "" || req.Title == "" || req.Performer == "" || req.CategoryID == 0 {
		h.writeError(w, "image, title, performer and categoryId are required", http.StatusBadRequest)
		return
	}
	if !assets.ValidDataURI(req.Image) {
		h.writeError(w, "image must be a base64 data URI", http.StatusBadRequest)
		return
	}

	if h.uploader == nil {
		h.writeError(w, "image storage is not configured", http.StatusInternalServerError)
		return
	}

	if _, err := h.store.GetCategory(r.Context(), req.CategoryID); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			h.writeError(w, "unknown category", http.StatusBadRequest)
			return
		}
		h.writeError(w, "failed to load category: "+err.Error(), http.StatusInternalServerError)
		return
	}

	upload, err := h.uploader.Upload(r.Context(), req.Image)
	if err != nil {
		h.writeError(w, "failed to upload image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	media := &models.Media{
		ID:         "ai-gen-" + uuid.New().String(),
		Title:      req.Title,
		Type:       "photo",
		CoverURL:   upload.PublicID,
		Performer:  req.Performer,
		AgeBadge:   "18+",
		ShowOnHome: req.ShowOnHome,
		CategoryID: req.CategoryID,
	}

	if err := h.store.CreateMedia(r.Context(), media); err != nil {
		h.writeError(w, "failed to save media: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Saved generated image", "id", media.ID, "asset", upload.PublicID)

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"media":    media,
		"assetUrl": upload.SecureURL,
	})
}
