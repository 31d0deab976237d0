package artwork

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/spotdeck/spotdeck/pkg/errors"
	"github.com/spotdeck/spotdeck/pkg/observability"
)

// Option defaults beyond the gate's.
const (
	DefaultMaxAttempts      = 3
	DefaultChunkPause       = time.Second
	DefaultPollInterval     = 2 * time.Second
	DefaultMaxPolls         = 60
	DefaultTransientBackoff = 2 * time.Second
	DefaultRateLimitBackoff = 10 * time.Second
)

// Options configures an Orchestrator. The zero value gets sensible defaults.
type Options struct {
	// Concurrency is the ceiling on in-flight provider calls and the chunk
	// size for progress reporting. Default 10.
	Concurrency int

	// RequestsPerMinute is the sliding-window rate ceiling. Default 100.
	RequestsPerMinute int

	// MaxAttempts is the per-symbol retry budget. Default 3.
	MaxAttempts int

	// ChunkPause is the idle time between chunks, independent of the gate.
	// Chunks that dispatched no provider calls skip it. Default 1s.
	ChunkPause time.Duration

	// PollInterval and MaxPolls bound the poll-until-ready loop of one
	// provider job. Exhausting MaxPolls is a timeout, retried like any
	// transient failure. Defaults 2s and 60.
	PollInterval time.Duration
	MaxPolls     int

	// TransientBackoff is the fixed delay before retrying an ordinary
	// transient failure. RateLimitBackoff is the unit delay for
	// rate-limit signals, scaled by the attempt number (10s, 20s, 30s).
	TransientBackoff time.Duration
	RateLimitBackoff time.Duration

	// Gate is the admission control. Leave nil for a private gate built
	// from Concurrency and RequestsPerMinute; pass a shared one to make
	// several orchestrators respect a single provider budget.
	Gate *Gate

	// Store, when set, persists each success (fire-and-forget) and lets a
	// re-run skip symbols whose artwork it already holds.
	Store *Store

	// Observer receives progress and per-item completion events.
	Observer Observer

	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.RequestsPerMinute <= 0 {
		o.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.ChunkPause <= 0 {
		o.ChunkPause = DefaultChunkPause
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MaxPolls <= 0 {
		o.MaxPolls = DefaultMaxPolls
	}
	if o.TransientBackoff <= 0 {
		o.TransientBackoff = DefaultTransientBackoff
	}
	if o.RateLimitBackoff <= 0 {
		o.RateLimitBackoff = DefaultRateLimitBackoff
	}
	if o.Observer == nil {
		o.Observer = NoopObserver{}
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Result is the outcome of one batch.
type Result struct {
	// Images holds one entry per description, index-aligned. A nil entry
	// means that symbol permanently failed or was never attempted.
	Images [][]byte

	Succeeded int
	Failed    int

	// CacheHits counts the successes that came from the store without a
	// provider call. Always <= Succeeded.
	CacheHits int

	// Cancelled marks a batch stopped by context cancellation. Items that
	// settled before the stop keep their results.
	Cancelled bool
}

// Orchestrator runs artwork batches against one provider.
// It holds no state across batches; each Generate call owns its own result
// array, and the only shared mutable state is the gate.
type Orchestrator struct {
	provider Provider
	opts     Options
	gate     *Gate
}

// New creates an orchestrator for the given provider.
func New(provider Provider, opts Options) *Orchestrator {
	opts.setDefaults()
	gate := opts.Gate
	if gate == nil {
		gate = NewGate(opts.Concurrency, opts.RequestsPerMinute)
	}
	return &Orchestrator{provider: provider, opts: opts, gate: gate}
}

// Generate produces one image per description, index-aligned.
//
// It returns once every item has settled (success or permanent failure),
// or earlier with [ErrCancelled] once cancellation is observed at a chunk
// boundary or before a dispatch. The partial Result accompanies the error
// in the cancelled case. A completed batch with failures is NOT an error:
// inspect Result.Failed.
func (o *Orchestrator) Generate(ctx context.Context, descriptions []string) (*Result, error) {
	total := len(descriptions)
	res := &Result{Images: make([][]byte, total)}
	if total == 0 {
		return res, nil
	}

	o.opts.Logger.Info("starting artwork batch",
		"symbols", total,
		"concurrency", o.opts.Concurrency,
		"rate", o.opts.RequestsPerMinute)

	var mu sync.Mutex
	completed := 0

	settle := func(ctx context.Context, idx, attempts int, image []byte, err error) {
		mu.Lock()
		res.Images[idx] = image
		if err != nil {
			res.Failed++
		} else {
			res.Succeeded++
			// Zero attempts means the image came straight from the store.
			if attempts == 0 {
				res.CacheHits++
			}
		}
		completed++
		done := completed
		mu.Unlock()

		if err == nil && attempts > 0 && o.opts.Store != nil {
			o.opts.Store.Put(ctx, idx, image)
		}

		observability.Pipeline().OnArtworkItem(ctx, idx, attempts, err)
		o.opts.Observer.OnItem(Item{Index: idx, Image: image, Err: err})

		status := fmt.Sprintf("generated %d of %d images", done, total)
		if err != nil {
			status = fmt.Sprintf("symbol %d failed; %d of %d settled", idx, done, total)
		}
		o.opts.Observer.OnProgress(Progress{Completed: done, Total: total, Status: status})
	}

	cancelled := false
	chunk := o.opts.Concurrency

chunks:
	for start := 0; start < total; start += chunk {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		end := min(start+chunk, total)
		dispatched := 0
		var wg sync.WaitGroup

		for idx := start; idx < end; idx++ {
			if ctx.Err() != nil {
				cancelled = true
				break
			}

			// Best-effort cache read: a prior session may already hold
			// this symbol's artwork.
			if o.opts.Store != nil {
				if data, ok := o.opts.Store.Get(ctx, idx); ok {
					settle(ctx, idx, 0, data, nil)
					continue
				}
			}

			if err := o.gate.Acquire(ctx); err != nil {
				cancelled = true
				break
			}

			dispatched++
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				defer o.gate.Release()
				image, attempts, err := o.generateOne(ctx, descriptions[idx])
				settle(ctx, idx, attempts, image, err)
			}(idx)
		}

		// In-flight items always run to completion, cancelled or not.
		wg.Wait()

		if cancelled {
			break
		}
		// The pause protects the provider between bursts; a chunk served
		// entirely from the store made no calls and needs none.
		if end < total && dispatched > 0 {
			select {
			case <-ctx.Done():
				cancelled = true
				break chunks
			case <-time.After(o.opts.ChunkPause):
			}
		}
	}

	if cancelled {
		res.Cancelled = true
		o.opts.Logger.Info("artwork batch cancelled",
			"settled", res.Succeeded+res.Failed, "total", total)
		return res, ErrCancelled
	}

	o.opts.Logger.Info("artwork batch complete",
		"succeeded", res.Succeeded, "failed", res.Failed, "total", total)
	return res, nil
}

// generateOne runs the retry loop for a single symbol and reports how many
// attempts it consumed.
func (o *Orchestrator) generateOne(ctx context.Context, description string) ([]byte, int, error) {
	var lastErr error

	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		image, err := o.attempt(ctx, description)
		if err == nil {
			return image, attempt, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == o.opts.MaxAttempts {
			break
		}

		delay := o.opts.TransientBackoff
		if errors.IsRateLimited(err) {
			delay = time.Duration(attempt) * o.opts.RateLimitBackoff
		}
		o.opts.Logger.Debug("retrying symbol",
			"attempt", attempt, "backoff", delay, "err", err)

		select {
		case <-ctx.Done():
			return nil, attempt, lastErr
		case <-time.After(delay):
		}
	}
	return nil, o.opts.MaxAttempts, lastErr
}

// attempt runs one submit / poll-until-ready / fetch cycle.
func (o *Orchestrator) attempt(ctx context.Context, description string) ([]byte, error) {
	jobID, err := o.provider.Submit(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	for poll := 0; poll < o.opts.MaxPolls; poll++ {
		p, err := o.provider.Poll(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("poll job %s: %w", jobID, err)
		}
		switch p.State {
		case JobReady:
			image, err := o.provider.Fetch(ctx, p.ImageURL)
			if err != nil {
				return nil, fmt.Errorf("fetch job %s: %w", jobID, err)
			}
			return image, nil
		case JobFailed:
			return nil, errors.New(errors.ErrCodeJobFailed, "job %s failed: %s", jobID, p.Reason)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.opts.PollInterval):
		}
	}
	return nil, errors.New(errors.ErrCodeTimeout,
		"job %s still pending after %d polls", jobID, o.opts.MaxPolls)
}
