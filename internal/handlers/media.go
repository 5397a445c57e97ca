package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/xburncrust/xburncrust/internal/catalog"
	"github.com/xburncrust/xburncrust/internal/models"
)

// HandleListMedia serves the public catalog listing.
func (h *Handler) HandleListMedia(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := catalog.Filter{
		Category: query.Get("category"),
		Type:     query.Get("type"),
	}
	if filter.Category == "all" {
		filter.Category = ""
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		filter.Limit = limit
	} else {
		filter.Limit = 50
	}

	media, err := h.store.ListMedia(r.Context(), filter)
	if err != nil {
		h.writeError(w, "failed to list media: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if media == nil {
		media = []models.Media{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"data": media,
		"meta": map[string]any{"total": len(media)},
	})
}

// HandleGetMedia serves one catalog entry.
func (h *Handler) HandleGetMedia(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	media, err := h.store.GetMedia(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrMediaNotFound) {
			h.writeError(w, "Media not found", http.StatusNotFound)
			return
		}
		h.writeError(w, "failed to load media: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, media)
}

// HandleIncrementView bumps the view counter for one entry.
func (h *Handler) HandleIncrementView(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	views, err := h.store.IncrementViews(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrMediaNotFound) {
			h.writeError(w, "Media not found", http.StatusNotFound)
			return
		}
		h.writeError(w, "failed to increment views: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"views":   views,
	})
}

// HandleListCategories serves the category list.
func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, "failed to list categories: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": categories})
}

// HandleAdminListMedia serves the full back-office listing.
func (h *Handler) HandleAdminListMedia(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	query := r.URL.Query()
	filter := catalog.Filter{Type: query.Get("type")}
	if categoryID, err := strconv.ParseInt(query.Get("categoryId"), 10, 64); err == nil {
		filter.CategoryID = categoryID
	}

	media, err := h.store.ListMedia(r.Context(), filter)
	if err != nil {
		h.writeError(w, "failed to list media: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if media == nil {
		media = []models.Media{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"data": media})
}

type createMediaRequest struct {
	Title      string `json:"title"`
	Type       string `json:"type"`
	Duration   int    `json:"duration"`
	IsHD       bool   `json:"isHd"`
	CoverURL   string `json:"coverUrl"`
	VideoURL   string `json:"videoUrl"`
	Performer  string `json:"performer"`
	AgeBadge   string `json:"ageBadge"`
	ShowOnHome bool   `json:"showOnHome"`
	CategoryID int64  `json:"categoryId"`
}

// HandleAdminCreateMedia creates a catalog entry directly, without the
// generation flow.
func (h *Handler) HandleAdminCreateMedia(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req createMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Title == "" || req.Type == "" || req.CoverURL == "" || req.CategoryID == 0 {
		h.writeError(w, "title, type, coverUrl and categoryId are required", http.StatusBadRequest)
		return
	}
	if !models.ValidMediaType(req.Type) {
		h.writeError(w, "type must be photo or video", http.StatusBadRequest)
		return
	}

	performer := req.Performer
	if performer == "" {
		performer = "Inconnu"
	}

	media := &models.Media{
		ID:         req.Type + "-" + uuid.New().String(),
		Title:      req.Title,
		Type:       req.Type,
		Duration:   req.Duration,
		IsHD:       req.IsHD,
		CoverURL:   req.CoverURL,
		VideoURL:   req.VideoURL,
		Performer:  performer,
		AgeBadge:   req.AgeBadge,
		ShowOnHome: req.ShowOnHome,
		CategoryID: req.CategoryID,
	}

	if err := h.store.CreateMedia(r.Context(), media); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			h.writeError(w, "unknown category", http.StatusBadRequest)
			return
		}
		h.writeError(w, "failed to create media: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    media,
	})
}

// HandleAdminDeleteMedia removes a catalog entry.
func (h *Handler) HandleAdminDeleteMedia(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.store.DeleteMedia(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrMediaNotFound) {
			h.writeError(w, "Media not found", http.StatusNotFound)
			return
		}
		h.writeError(w, "failed to delete media: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
