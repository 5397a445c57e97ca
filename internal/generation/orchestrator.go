package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var ErrEmptyPrompt = errors.New("prompt is required")

// LoadingPolicy controls what the orchestrator does when a backend reports
// that the model is still warming up.
type LoadingPolicy int

const (
	// LoadingShortCircuit stops the fallback chain and asks the caller to
	// retry later. A warming model is not a quality judgment on the
	// candidate, and the caller may prefer waiting over a lower-tier result.
	LoadingShortCircuit LoadingPolicy = iota
	// LoadingContinue treats a warming model as one more candidate failure.
	LoadingContinue
)

// LoadingError reports that a preferred backend is warming up and the caller
// should retry after the suggested delay.
type LoadingError struct {
	Candidate  Candidate
	RetryAfter int
	Message    string
}

func (e *LoadingError) Error() string {
	return fmt.Sprintf("model %s is loading, retry in %ds", e.Candidate.ID, e.RetryAfter)
}

// ExhaustionError reports that every candidate in the fallback chain failed.
// Last carries the most recent failure; earlier failures are logged only.
type ExhaustionError struct {
	Attempts int
	Last     Failure
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("all %d generation candidates failed, last: %s", e.Attempts, e.Last.Message)
}

// Orchestrator walks the registry in priority order until one candidate
// yields an image. Candidates are tried strictly sequentially; first success
// wins and no quality comparison is made across candidates.
type Orchestrator struct {
	Registry       *Registry
	Backends       map[string]Backend
	Limiter        *rate.Limiter
	Policy         LoadingPolicy
	AttemptTimeout time.Duration
}

// NewOrchestrator wires a registry to its backends with the default policy:
// loading short-circuits, 30s per attempt, outbound calls limited to a small
// steady rate so a misbehaving admin session cannot hammer the upstreams.
func NewOrchestrator(registry *Registry, backends map[string]Backend) *Orchestrator {
	return &Orchestrator{
		Registry:       registry,
		Backends:       backends,
		Limiter:        rate.NewLimiter(rate.Every(time.Second), 3),
		Policy:         LoadingShortCircuit,
		AttemptTimeout: 30 * time.Second,
	}
}

// Orchestrate runs one generation request through the fallback chain. It
// returns ErrEmptyPrompt before any backend call when the prompt is blank, a
// *LoadingError when the chain is cut short by a warming model, and an
// *ExhaustionError when every candidate fails.
func (o *Orchestrator) Orchestrate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	if req.Width <= 0 {
		req.Width = 1024
	}
	if req.Height <= 0 {
		req.Height = 1024
	}
	if req.Steps <= 0 {
		req.Steps = 25
	}

	var last *Failure
	attempts := 0

	for _, cand := range o.Registry.Candidates() {
		backend, ok := o.Backends[cand.Backend]
		if !ok {
			slog.Warn("No backend registered for candidate", "candidate", cand.ID, "backend", cand.Backend)
			continue
		}

		if o.Limiter != nil {
			if err := o.Limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("generation aborted: %w", err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, o.AttemptTimeout)
		att := backend.Generate(attemptCtx, cand, req)
		cancel()
		attempts++

		if att.Succeeded() {
			slog.Info("Generated image", "model", cand.DisplayName, "bytes", len(att.Image), "attempts", attempts)
			return PackageResult(att, req), nil
		}

		last = att.Failure
		slog.Warn("Generation attempt failed",
			"model", cand.DisplayName,
			"reason", att.Failure.Reason,
			"error", att.Failure.Message)

		if att.Failure.Reason == ReasonLoading && o.Policy == LoadingShortCircuit {
			retryAfter := att.Failure.RetryAfter
			if retryAfter <= 0 {
				retryAfter = defaultLoadingRetryAfter
			}
			return nil, &LoadingError{Candidate: cand, RetryAfter: retryAfter, Message: att.Failure.Message}
		}

		// Caller cancellation aborts the chain between attempts.
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation aborted: %w", err)
		}
	}

	if last == nil {
		last = &Failure{Reason: ReasonNetwork, Message: "no usable generation backend"}
	}
	return nil, &ExhaustionError{Attempts: attempts, Last: *last}
}
