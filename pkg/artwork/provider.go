// Package artwork orchestrates batch generation of per-symbol images
// against an asynchronous image provider.
//
// The orchestrator takes one text description per symbol and produces one
// image per symbol, index-aligned. Throughput is bounded two ways: a
// concurrency ceiling on in-flight provider calls and a sliding-window
// request-rate ceiling, both enforced by a caller-ownable [Gate]. Work is
// dispatched in chunks for progress granularity, each item is retried with a
// rate-limit-aware backoff, and one symbol's permanent failure never stops
// the rest of the batch.
//
// Cancellation is cooperative: the context is checked at chunk boundaries
// and before each dispatch. In-flight items finish and record their results;
// the batch then returns [ErrCancelled] with the partial result attached,
// distinguishable from a completed batch with failures.
package artwork

import (
	"context"
	"errors"
)

// ErrCancelled is returned by [Orchestrator.Generate] when the batch stops
// because its context was cancelled. It is a distinct terminal outcome, not
// a failure: callers should not display it as an error.
var ErrCancelled = errors.New("artwork generation cancelled")

// JobState is the remote state of one image-generation job.
type JobState int

const (
	// JobPending means the provider is still working; keep polling.
	JobPending JobState = iota
	// JobReady means the image is available at Poll.ImageURL.
	JobReady
	// JobFailed means the provider gave up on this job.
	JobFailed
)

// Poll is the result of one provider poll.
type Poll struct {
	State JobState

	// ImageURL is set when State is JobReady.
	ImageURL string

	// Reason carries the provider's failure detail when State is JobFailed.
	Reason string
}

// Provider is the external image-generation capability: a multi-step remote
// workflow of submit, poll-until-ready, and fetch. Implementations classify
// their failures with pkg/errors codes (rate-limit signals in particular)
// so the orchestrator can pick the right backoff.
type Provider interface {
	// Submit starts generation for one description and returns a job ID.
	Submit(ctx context.Context, description string) (string, error)

	// Poll reports the state of a previously submitted job.
	Poll(ctx context.Context, jobID string) (Poll, error)

	// Fetch downloads a ready image.
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}
