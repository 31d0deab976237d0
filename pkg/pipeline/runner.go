package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/spotdeck/spotdeck/pkg/artwork"
	"github.com/spotdeck/spotdeck/pkg/cache"
	"github.com/spotdeck/spotdeck/pkg/deck"
	"github.com/spotdeck/spotdeck/pkg/errors"
	"github.com/spotdeck/spotdeck/pkg/layout"
	"github.com/spotdeck/spotdeck/pkg/observability"
	"github.com/spotdeck/spotdeck/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// It is stateless except for the cache and logger; multiple goroutines can
// safely share one Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete deck → layout → describe → artwork → render
// pipeline. Partial artwork is a warning carried in Stats, not an error;
// cancellation mid-artwork returns artwork.ErrCancelled.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Artifacts: make(map[string][][]byte),
	}

	// Stage 1: Deck. Pure math, never cached.
	if err := r.runDeckStage(ctx, opts, result); err != nil {
		return nil, err
	}

	// Stage 2: Layout.
	if err := r.runLayoutStage(ctx, opts, result); err != nil {
		return nil, err
	}

	// Stage 3+4: Describe and artwork, skipped for layout-only decks.
	if opts.NeedsProviders() {
		if err := r.runDescribeStage(ctx, opts, result); err != nil {
			return nil, err
		}
		if err := r.runArtworkStage(ctx, opts, result); err != nil {
			return nil, err
		}
	} else {
		result.Artwork = make([][]byte, result.Stats.SymbolCount)
	}

	// Stage 5: Render.
	if err := r.runRenderStage(ctx, opts, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *Runner) runDeckStage(ctx context.Context, opts Options, result *Result) error {
	start := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageDeck)

	cards, err := deck.Generate(opts.Order)
	observability.Pipeline().OnStageComplete(ctx, observability.StageDeck, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("deck: %w", err)
	}

	data, _ := json.Marshal(cards)
	result.Cards = cards
	result.DeckHash = cache.Hash(data)
	result.Stats.CardCount = len(cards)
	result.Stats.SymbolCount = deck.SymbolCount(opts.Order)
	result.Stats.DeckTime = time.Since(start)

	r.Logger.Info("generated deck",
		"order", opts.Order,
		"cards", len(cards),
		"symbols_per_card", deck.CardSize(opts.Order))
	return nil
}

func (r *Runner) runLayoutStage(ctx context.Context, opts Options, result *Result) error {
	start := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageLayout)

	placements, hit, err := r.GenerateLayoutWithCacheInfo(ctx, result.DeckHash, opts)
	observability.Pipeline().OnStageComplete(ctx, observability.StageLayout, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}

	result.Placements = placements
	result.CacheInfo.LayoutHit = hit
	result.Stats.LayoutTime = time.Since(start)

	r.Logger.Info("computed layout",
		"cards", len(placements),
		"cached", hit,
		"duration", result.Stats.LayoutTime)
	return nil
}

func (r *Runner) runDescribeStage(ctx context.Context, opts Options, result *Result) error {
	if opts.Describer == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "no description provider configured")
	}

	start := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageDescribe)

	descriptions, err := opts.Describer.Descriptions(ctx, opts.Theme, result.Stats.SymbolCount)
	observability.Pipeline().OnStageComplete(ctx, observability.StageDescribe, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("describe: %w", err)
	}

	data, _ := json.Marshal(descriptions)
	result.Descriptions = descriptions
	result.SessionHash = cache.Hash(data)
	result.Stats.DescribeTime = time.Since(start)

	r.Logger.Info("generated descriptions",
		"theme", opts.Theme,
		"count", len(descriptions),
		"duration", result.Stats.DescribeTime)
	return nil
}

func (r *Runner) runArtworkStage(ctx context.Context, opts Options, result *Result) error {
	if opts.Provider == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "no image provider configured")
	}

	start := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageArtwork)

	store := artwork.NewStore(r.Cache, r.Keyer, result.SessionHash, r.Logger)
	orch := artwork.New(opts.Provider, opts.artworkOptions(store))

	res, err := orch.Generate(ctx, result.Descriptions)
	observability.Pipeline().OnStageComplete(ctx, observability.StageArtwork, time.Since(start), err)
	if res != nil {
		result.Artwork = res.Images
		result.Stats.ArtworkSucceeded = res.Succeeded
		result.Stats.ArtworkFailed = res.Failed
		result.CacheInfo.ArtworkHits = res.CacheHits
	}
	result.Stats.ArtworkTime = time.Since(start)
	if err != nil {
		// Cancellation keeps the partial result attached for the caller.
		return fmt.Errorf("artwork: %w", err)
	}

	if res.Failed > 0 {
		r.Logger.Warn("artwork generation finished with failures",
			"succeeded", res.Succeeded,
			"failed", res.Failed,
			"total", len(result.Descriptions))
	} else {
		r.Logger.Info("generated artwork",
			"images", res.Succeeded,
			"duration", result.Stats.ArtworkTime)
	}
	return nil
}

func (r *Runner) runRenderStage(ctx context.Context, opts Options, result *Result) error {
	start := time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageRender)

	artifacts, hit, err := r.RenderWithCacheInfo(ctx, result, opts)
	observability.Pipeline().OnStageComplete(ctx, observability.StageRender, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = hit
	result.Stats.RenderTime = time.Since(start)

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)
	return nil
}

// GenerateLayoutWithCacheInfo computes the deck layout with caching and
// reports whether the result came from cache.
func (r *Runner) GenerateLayoutWithCacheInfo(ctx context.Context, deckHash string, opts Options) ([][]layout.Placement, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	cardCount := deck.SymbolCount(opts.Order)
	symbolsPerCard := deck.CardSize(opts.Order)
	cacheKey := r.Keyer.LayoutKey(deckHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached [][]layout.Placement
			if err := json.Unmarshal(data, &cached); err == nil && len(cached) == cardCount {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// Undecodable entries fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	placements := layout.GenerateAll(cardCount, symbolsPerCard, opts.CanvasSize)

	if data, err := json.Marshal(placements); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return placements, false, nil
}

// RenderWithCacheInfo renders all requested formats with per-format caching
// and reports whether every artifact came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, result *Result, opts Options) (map[string][][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	// Artifacts depend on the deck and on this session's artwork.
	contentHash := cache.Hash([]byte(result.DeckHash + ":" + result.SessionHash))

	if !opts.Refresh {
		artifacts := make(map[string][][]byte, len(opts.Formats))
		allCached := true
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(contentHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				allCached = false
				break
			}
			var pages [][]byte
			if err := json.Unmarshal(data, &pages); err != nil {
				allCached = false
				break
			}
			artifacts[format] = pages
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	rendered, err := r.renderFormats(result, opts)
	if err != nil {
		return nil, false, err
	}

	for format, pages := range rendered {
		cacheKey := r.Keyer.ArtifactKey(contentHash, opts.ArtifactKeyOpts(format))
		if data, err := json.Marshal(pages); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
				observability.Cache().OnCacheSet(ctx, "artifact", len(data))
			}
		}
	}
	return rendered, false, nil
}

// renderFormats produces every requested format from the in-memory result.
func (r *Runner) renderFormats(result *Result, opts Options) (map[string][][]byte, error) {
	d := render.Deck{
		Cards:      result.Cards,
		Placements: result.Placements,
		Artwork:    result.Artwork,
		CanvasSize: opts.CanvasSize,
	}

	out := make(map[string][][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatJSON:
			data, err := json.MarshalIndent(struct {
				Order        int                  `json:"order"`
				Theme        string               `json:"theme,omitempty"`
				Cards        []deck.Card          `json:"cards"`
				Placements   [][]layout.Placement `json:"placements"`
				Descriptions []string             `json:"descriptions,omitempty"`
			}{
				Order:        opts.Order,
				Theme:        opts.Theme,
				Cards:        result.Cards,
				Placements:   result.Placements,
				Descriptions: result.Descriptions,
			}, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("marshal deck json: %w", err)
			}
			out[format] = [][]byte{data}

		case FormatSVG:
			pages, err := render.Sheets(d)
			if err != nil {
				return nil, err
			}
			out[format] = pages

		case FormatPDF:
			pages, err := render.Sheets(d)
			if err != nil {
				return nil, err
			}
			pdfs := make([][]byte, len(pages))
			for i, page := range pages {
				pdf, err := render.ToPDF(page)
				if err != nil {
					return nil, err
				}
				pdfs[i] = pdf
			}
			out[format] = pdfs

		case FormatPNG:
			pages, err := render.Sheets(d)
			if err != nil {
				return nil, err
			}
			pngs := make([][]byte, len(pages))
			for i, page := range pages {
				png, err := render.ToPNG(page, opts.PNGScale)
				if err != nil {
					return nil, err
				}
				pngs[i] = png
			}
			out[format] = pngs
		}
	}
	return out, nil
}

// CardSVG renders one card from a finished result, for previews.
func (r *Runner) CardSVG(result *Result, opts Options, cardIndex int) ([]byte, error) {
	return render.CardSVG(render.Deck{
		Cards:      result.Cards,
		Placements: result.Placements,
		Artwork:    result.Artwork,
		CanvasSize: opts.CanvasSize,
	}, cardIndex)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
