package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

const defaultLoadingRetryAfter = 30

// HuggingFaceBackend calls the Hugging Face serverless inference API: a JSON
// POST per model returning raw image bytes. A 503 with an estimated_time body
// means the model is still warming up, which is classified as ReasonLoading
// rather than a hard failure.
type HuggingFaceBackend struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHuggingFaceBackend returns a backend pointed at the public inference
// endpoint. An empty token sends unauthenticated requests.
func NewHuggingFaceBackend(token string) *HuggingFaceBackend {
	return &HuggingFaceBackend{
		BaseURL: "https://api-inference.huggingface.co/models",
		Token:   token,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Generate attempts image synthesis for one candidate model.
func (b *HuggingFaceBackend) Generate(ctx context.Context, cand Candidate, req Request) Attempt {
	payload := map[string]any{
		"inputs": req.Prompt,
		"parameters": map[string]any{
			"negative_prompt":     req.NegativePrompt,
			"width":               req.Width,
			"height":              req.Height,
			"num_inference_steps": req.Steps,
			"seed":                rand.Int64N(1 << 31),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return failure(cand, ReasonNetwork, fmt.Sprintf("failed to marshal request body: %v", err))
	}

	endpoint := b.BaseURL + "/" + cand.ID
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return failure(cand, ReasonNetwork, fmt.Sprintf("failed to build request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/png")
	if b.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.Token)
	}

	resp, err := b.Client.Do(httpReq)
	if err != nil {
		return classifyTransportError(cand, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return b.classifyUnavailable(cand, resp.Body)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Attempt{Candidate: cand, Failure: &Failure{
			Reason:     ReasonHTTPError,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("inference API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(cand, ReasonNetwork, fmt.Sprintf("failed to read image body: %v", err))
	}
	if len(data) == 0 || strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return failure(cand, ReasonMalformed, "inference API did not return image bytes")
	}

	return Attempt{Candidate: cand, Image: data}
}

// classifyUnavailable distinguishes a warming model from a plain outage. Only
// a 503 carrying a warm-up estimate counts as loading; a bare 503 is an HTTP
// failure so the fallback chain moves on to the next candidate.
func (b *HuggingFaceBackend) classifyUnavailable(cand Candidate, body io.Reader) Attempt {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))

	var loading struct {
		Error         string  `json:"error"`
		EstimatedTime float64 `json:"estimated_time"`
	}
	if err := json.Unmarshal(raw, &loading); err != nil || loading.EstimatedTime <= 0 {
		return Attempt{Candidate: cand, Failure: &Failure{
			Reason:     ReasonHTTPError,
			StatusCode: http.StatusServiceUnavailable,
			Message:    fmt.Sprintf("inference API returned status 503: %s", strings.TrimSpace(string(raw))),
		}}
	}

	message := "model is loading"
	if loading.Error != "" {
		message = loading.Error
	}

	return Attempt{Candidate: cand, Failure: &Failure{
		Reason:     ReasonLoading,
		StatusCode: http.StatusServiceUnavailable,
		Message:    message,
		RetryAfter: int(math.Ceil(loading.EstimatedTime)),
	}}
}
