package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xburncrust/xburncrust/internal/generation"
)

type generateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	NumSteps       int    `json:"numSteps"`
}

type generateResponse struct {
	Success        bool   `json:"success"`
	Image          string `json:"image"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
	Model          string `json:"model"`
	Steps          int    `json:"steps"`
}

// HandleGenerate runs one prompt through the generation fallback chain and
// returns the winning image as a data URI. The image is not persisted; the
// admin reviews it and confirms via save-generated.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.orchestrator.Orchestrate(r.Context(), generation.Request{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Width:          req.Width,
		Height:         req.Height,
		Steps:          req.NumSteps,
	})
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, generateResponse{
		Success:        true,
		Image:          result.Image,
		Prompt:         result.Prompt,
		NegativePrompt: result.NegativePrompt,
		Model:          result.Model,
		Steps:          result.Steps,
	})
}

// writeGenerationError maps orchestration outcomes onto the API error
// envelope. Per-candidate diagnostics stay in the logs; the caller only sees
// the terminal outcome.
func (h *Handler) writeGenerationError(w http.ResponseWriter, err error) {
	if errors.Is(err, generation.ErrEmptyPrompt) {
		h.writeError(w, "prompt is required", http.StatusBadRequest)
		return
	}

	var loading *generation.LoadingError
	if errors.As(err, &loading) {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":      loading.Message,
			"retryAfter": loading.RetryAfter,
		})
		return
	}

	var exhausted *generation.ExhaustionError
	if errors.As(err, &exhausted) {
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "all generation attempts failed",
			"details": exhausted.Last.Message,
		})
		return
	}

	h.writeError(w, "image generation failed: "+err.Error(), http.StatusInternalServerError)
}
