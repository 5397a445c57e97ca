package generation

import "encoding/base64"

// Result is the wire payload for a successful generation.
type Result struct {
	Image          string `json:"image"`
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
	Model          string `json:"model"`
	ModelID        string `json:"modelId"`
	Steps          int    `json:"steps"`
}

// PackageResult base64-encodes a winning attempt into a PNG data URI and
// echoes the request fields alongside the winning candidate. Pure; encoding
// well-formed bytes cannot fail.
func PackageResult(att Attempt, req Request) *Result {
	return &Result{
		Image:          "data:image/png;base64," + base64.StdEncoding.EncodeToString(att.Image),
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Model:          att.Candidate.DisplayName,
		ModelID:        att.Candidate.ID,
		Steps:          req.Steps,
	}
}
