// Package pipeline runs the complete deck generation flow:
// deck → layout → describe → artwork → render.
//
// Centralizing the flow here keeps the CLI and the preview server on
// identical behavior, including per-stage caching. Each stage can also be
// invoked on its own against a Runner.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Order:     5,
//	    Theme:     "safari animals",
//	    Formats:   []string{"svg", "pdf"},
//	    Describer: describeClient,
//	    Provider:  imageClient,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pages := result.Artifacts["pdf"]
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/spotdeck/spotdeck/pkg/artwork"
	"github.com/spotdeck/spotdeck/pkg/cache"
	"github.com/spotdeck/spotdeck/pkg/deck"
	"github.com/spotdeck/spotdeck/pkg/errors"
	"github.com/spotdeck/spotdeck/pkg/layout"
)

// Defaults shared by CLI and server entry points.
const (
	DefaultOrder      = 7
	DefaultCanvasSize = layout.DefaultCanvasSize
	DefaultPNGScale   = 2.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// Describer is the text-generation capability the pipeline consumes:
// exactly count short descriptions for a theme, or a single error.
type Describer interface {
	Descriptions(ctx context.Context, theme string, count int) ([]string, error)
}

// Options contains all configuration for one pipeline run.
// The struct supports JSON serialization for server requests.
type Options struct {
	// Deck options
	Order int    `json:"order"`
	Theme string `json:"theme,omitempty"`

	// Layout options
	CanvasSize float64 `json:"canvas_size,omitempty"`

	// Artwork options
	Concurrency       int  `json:"concurrency,omitempty"`
	RequestsPerMinute int  `json:"requests_per_minute,omitempty"`
	MaxAttempts       int  `json:"max_attempts,omitempty"`
	SkipArtwork       bool `json:"skip_artwork,omitempty"` // layout-only decks, artwork slots stay empty

	// Render options
	Formats  []string `json:"formats,omitempty"`
	PNGScale float64  `json:"png_scale,omitempty"`

	// Refresh bypasses stage caches and recomputes everything.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Describer Describer        `json:"-"`
	Provider  artwork.Provider `json:"-"`
	Gate      *artwork.Gate    `json:"-"`
	Observer  artwork.Observer `json:"-"`
	Logger    *log.Logger      `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Cards is the card/symbol incidence structure.
	Cards []deck.Card

	// DeckHash is the content hash of the cards, used in cache keys.
	DeckHash string

	// Placements holds one placement list per card.
	Placements [][]layout.Placement

	// Descriptions holds one description per symbol.
	Descriptions []string

	// SessionHash is the content hash of the descriptions; it scopes the
	// artwork cache to this description set.
	SessionHash string

	// Artwork holds one image per symbol, nil where generation failed.
	Artwork [][]byte

	// Artifacts contains rendered outputs keyed by format. Sheet formats
	// (svg, pdf, png) hold one entry per print page; json holds a single
	// entry with the deck document.
	Artifacts map[string][][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CardCount   int
	SymbolCount int

	ArtworkSucceeded int
	ArtworkFailed    int

	DeckTime     time.Duration
	LayoutTime   time.Duration
	DescribeTime time.Duration
	ArtworkTime  time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit   bool // whether the layout came from cache
	ArtworkHits int  // how many symbols were served from the artwork cache
	RenderHit   bool // whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Order == 0 {
		o.Order = DefaultOrder
	}
	if !deck.Supported(o.Order) {
		return errors.New(errors.ErrCodeInvalidOrder,
			"unsupported order %d (supported: 2, 3, 5, 7)", o.Order)
	}
	if o.Theme != "" {
		if err := errors.ValidateTheme(o.Theme); err != nil {
			return err
		}
	}
	if o.CanvasSize == 0 {
		o.CanvasSize = DefaultCanvasSize
	}
	if o.CanvasSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "canvas size must be positive")
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// NeedsProviders reports whether this run will call the remote providers.
func (o *Options) NeedsProviders() bool {
	return !o.SkipArtwork
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		CardCount:      deck.SymbolCount(o.Order),
		SymbolsPerCard: deck.CardSize(o.Order),
		CanvasSize:     o.CanvasSize,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		CanvasSize: o.CanvasSize,
		PerPage:    9,
	}
}

// artworkOptions builds the orchestrator options for this run.
func (o *Options) artworkOptions(store *artwork.Store) artwork.Options {
	return artwork.Options{
		Concurrency:       o.Concurrency,
		RequestsPerMinute: o.RequestsPerMinute,
		MaxAttempts:       o.MaxAttempts,
		Gate:              o.Gate,
		Store:             store,
		Observer:          o.Observer,
		Logger:            o.Logger,
	}
}
