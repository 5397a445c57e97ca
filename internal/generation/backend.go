package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Backend name keys used by candidates to select an implementation.
const (
	BackendPollinations = "pollinations"
	BackendHuggingFace  = "huggingface"
)

// FailureReason classifies why one backend attempt did not produce an image.
type FailureReason string

const (
	ReasonHTTPError FailureReason = "http_error"
	ReasonTimeout   FailureReason = "timeout"
	ReasonNetwork   FailureReason = "network_error"
	ReasonMalformed FailureReason = "malformed_response"
	ReasonLoading   FailureReason = "model_loading"
)

// Request carries one incoming generation request. Defaults are applied by the
// orchestrator before any backend sees it.
type Request struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Steps          int
}

// Failure describes a classified, non-successful attempt outcome.
type Failure struct {
	Reason     FailureReason
	Message    string
	StatusCode int
	RetryAfter int // seconds, only set for ReasonLoading
}

// Attempt is the outcome of trying one candidate. Exactly one of Image or
// Failure is set.
type Attempt struct {
	Candidate Candidate
	Image     []byte
	Failure   *Failure
}

// Succeeded reports whether the attempt produced an image.
func (a Attempt) Succeeded() bool { return a.Failure == nil }

// Backend issues one synthesis call against one external API shape. All
// failure conditions are captured in the returned Attempt; Generate never
// propagates a bare error to the caller.
type Backend interface {
	Generate(ctx context.Context, cand Candidate, req Request) Attempt
}

func failure(cand Candidate, reason FailureReason, msg string) Attempt {
	return Attempt{Candidate: cand, Failure: &Failure{Reason: reason, Message: msg}}
}

// classifyTransportError maps a transport-level error from http.Client.Do to a
// timeout or network failure.
func classifyTransportError(cand Candidate, err error) Attempt {
	if errors.Is(err, context.DeadlineExceeded) {
		return failure(cand, ReasonTimeout, "request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failure(cand, ReasonTimeout, "request timed out")
	}
	return failure(cand, ReasonNetwork, fmt.Sprintf("request failed: %v", err))
}
