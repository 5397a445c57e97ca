package generation

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PollinationsBackend calls the Pollinations text-to-image API: a GET with the
// prompt in the path and everything else as query parameters, returning raw
// image bytes.
type PollinationsBackend struct {
	BaseURL string
	Client  *http.Client
}

// NewPollinationsBackend returns a backend pointed at the public Pollinations
// endpoint.
func NewPollinationsBackend() *PollinationsBackend {
	return &PollinationsBackend{
		BaseURL: "https://image.pollinations.ai",
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Generate attempts image synthesis for one candidate model.
func (b *PollinationsBackend) Generate(ctx context.Context, cand Candidate, req Request) Attempt {
	params := url.Values{}
	params.Set("model", cand.ID)
	params.Set("width", strconv.Itoa(req.Width))
	params.Set("height", strconv.Itoa(req.Height))
	// Randomize the seed per attempt so identical prompts across candidates
	// do not collide on a cached result.
	params.Set("seed", strconv.FormatInt(rand.Int64N(1<<31), 10))
	params.Set("nologo", "true")
	params.Set("enhance", "true")
	if req.NegativePrompt != "" {
		params.Set("negative", req.NegativePrompt)
	}

	endpoint := fmt.Sprintf("%s/prompt/%s?%s", b.BaseURL, url.PathEscape(req.Prompt), params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return failure(cand, ReasonNetwork, fmt.Sprintf("failed to build request: %v", err))
	}

	resp, err := b.Client.Do(httpReq)
	if err != nil {
		return classifyTransportError(cand, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Attempt{Candidate: cand, Failure: &Failure{
			Reason:     ReasonHTTPError,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("pollinations returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(cand, ReasonNetwork, fmt.Sprintf("failed to read image body: %v", err))
	}
	if len(data) == 0 {
		return failure(cand, ReasonMalformed, "empty image body")
	}

	return Attempt{Candidate: cand, Image: data}
}
