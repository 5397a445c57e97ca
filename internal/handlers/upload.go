package handlers

import (
	"log/slog"
	"net/http"

	"github.com/xburncrust/xburncrust/internal/models"
)

// 50 MB covers the video clips admins push through the back-office.
const maxUploadBytes = 50 << 20

// HandleAdminUpload pushes a raw media file to object storage and returns the
// stored asset reference. The catalog record is created separately via the
// admin media endpoint once the admin has the public ID in hand.
func (h *Handler) HandleAdminUpload(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mediaType := r.FormValue("type")
	if !models.ValidMediaType(mediaType) {
		h.writeError(w, "type must be photo or video", http.StatusBadRequest)
		return
	}

	if h.uploader == nil {
		h.writeError(w, "media storage is not configured", http.StatusInternalServerError)
		return
	}

	resourceType := "image"
	if mediaType == "video" {
		resourceType = "video"
	}

	result, err := h.uploader.UploadFile(r.Context(), header.Filename, file, resourceType)
	if err != nil {
		h.writeError(w, "failed to upload file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Uploaded media file", "filename", header.Filename, "asset", result.PublicID, "type", mediaType)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data": map[string]any{
			"publicId":     result.PublicID,
			"url":          result.SecureURL,
			"format":       result.Format,
			"resourceType": result.ResourceType,
			"bytes":        result.Bytes,
		},
	})
}
