package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spotdeck/spotdeck/pkg/artwork"
	"github.com/spotdeck/spotdeck/pkg/deck"
	"github.com/spotdeck/spotdeck/pkg/errors"
	"github.com/spotdeck/spotdeck/pkg/httputil"
	"github.com/spotdeck/spotdeck/pkg/pipeline"
	"github.com/spotdeck/spotdeck/pkg/providers/describe"
	"github.com/spotdeck/spotdeck/pkg/providers/image"
	"github.com/spotdeck/spotdeck/pkg/store"
)

// httpCacheTTL bounds how long provider HTTP responses are reused.
const httpCacheTTL = 24 * time.Hour

// generateFlags holds the command-line flags for the generate command.
type generateFlags struct {
	configFile  string
	name        string
	output      string
	formatsStr  string
	skipArtwork bool
	noCache     bool
	noSave      bool
	refresh     bool
	plain       bool
}

// generateCommand creates the generate command, the main entry point for
// building a complete deck.
func (c *CLI) generateCommand() *cobra.Command {
	var flags generateFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a themed matching card deck",
		Long: `Generate a themed matching card deck.

The generate command builds the full deck: the card/symbol structure, a
deterministic layout for every card, themed symbol descriptions, artwork for
each symbol, and printable card sheets. Any two cards in the result share
exactly one symbol.

Artwork generation needs provider credentials; configure them in
~/.config/spotdeck/config.toml or via SPOTDECK_* environment variables.
Use --skip-artwork to produce a layout-only deck without any provider calls.

Results are cached locally, so re-running with the same theme reuses
previously generated artwork.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configFile)
			if err != nil {
				return err
			}
			applyGenerateConfig(cmd, &opts, cfg)
			opts.Formats = parseFormats(flags.formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), opts, cfg, flags)
		},
	}

	// Common flags
	cmd.Flags().StringVar(&flags.configFile, "config", "", "config file (default: ~/.config/spotdeck/config.toml)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output base path (default: derived from deck name)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "recompute all stages, bypassing caches")
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "plain output without the progress display")

	// Deck flags
	cmd.Flags().StringVarP(&opts.Theme, "theme", "t", "", "deck theme (e.g. \"farm animals\")")
	cmd.Flags().IntVarP(&opts.Order, "order", "n", 0, "deck order: 2, 3, 5, or 7 (default 7, 57 cards)")
	cmd.Flags().StringVar(&flags.name, "name", "", "deck name for the saved deck (default: theme)")
	cmd.Flags().BoolVar(&flags.noSave, "no-save", false, "do not save the deck to the local store")

	// Artwork flags
	cmd.Flags().BoolVar(&flags.skipArtwork, "skip-artwork", false, "skip descriptions and artwork (layout-only deck)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "max in-flight artwork requests (default 10)")
	cmd.Flags().IntVar(&opts.RequestsPerMinute, "rpm", 0, "artwork request rate ceiling per minute (default 100)")
	cmd.Flags().IntVar(&opts.MaxAttempts, "max-attempts", 0, "attempts per symbol before giving up (default 3)")

	// Render flags
	cmd.Flags().StringVarP(&flags.formatsStr, "format", "f", "", "output format(s): svg (default), pdf, png, json (comma-separated)")
	cmd.Flags().Float64Var(&opts.PNGScale, "png-scale", 0, "raster scale factor for PNG output (default 2.0)")

	return cmd
}

// applyGenerateConfig fills options from the resolved config for every flag
// the user did not set explicitly. Flags always win.
func applyGenerateConfig(cmd *cobra.Command, opts *pipeline.Options, cfg Config) {
	if !cmd.Flags().Changed("order") {
		opts.Order = cfg.Order
	}
	if !cmd.Flags().Changed("theme") {
		opts.Theme = cfg.Theme
	}
	if !cmd.Flags().Changed("concurrency") {
		opts.Concurrency = cfg.Concurrency
	}
	if !cmd.Flags().Changed("rpm") {
		opts.RequestsPerMinute = cfg.RequestsPerMinute
	}
	if !cmd.Flags().Changed("max-attempts") {
		opts.MaxAttempts = cfg.MaxAttempts
	}
	if !cmd.Flags().Changed("png-scale") {
		opts.PNGScale = cfg.PNGScale
	}
}

// runGenerate executes the full pipeline and writes the results.
func (c *CLI) runGenerate(ctx context.Context, opts pipeline.Options, cfg Config, flags generateFlags) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.SkipArtwork = flags.skipArtwork
	opts.Refresh = flags.refresh
	opts.Logger = loggerFromContext(ctx)

	if !opts.SkipArtwork {
		if err := c.attachProviders(&opts, cfg, flags.noCache); err != nil {
			return err
		}
	}

	var result *pipeline.Result
	if flags.plain || opts.SkipArtwork {
		result, err = c.executeWithSpinner(ctx, runner, opts)
	} else {
		result, err = c.executeWithTUI(ctx, runner, opts)
	}
	if err != nil {
		// A user-directed stop is a normal outcome, not a failure. Settled
		// artwork is already in the cache, so the next run resumes from it.
		if isCancelled(err) {
			printInfo("Cancelled; completed artwork stays cached for the next run")
			return err
		}
		if errors.Is(err, errors.ErrCodeInvalidConfig) {
			printDetail("Configure providers in ~/.config/spotdeck/config.toml or SPOTDECK_* env vars")
		}
		return err
	}

	var saved *store.Deck
	if !flags.noSave {
		if saved, err = c.saveDeck(ctx, opts, result, flags.name); err != nil {
			printWarning("Deck not saved: %v", err)
		}
	}

	base := outputBase(flags.output, deckName(flags.name, opts.Theme))
	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		base:      base,
	})
	if err != nil {
		return err
	}

	printSuccess("Deck complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats.CardCount, result.Stats.SymbolCount, result.CacheInfo.LayoutHit)
	if !opts.SkipArtwork {
		printArtworkStats(result.Stats.ArtworkSucceeded, result.Stats.ArtworkFailed, result.CacheInfo.ArtworkHits)
	}
	if saved != nil {
		printNewline()
		printNextStep("Re-render", "spotdeck render --deck "+saved.ID)
	}
	return nil
}

// attachProviders builds the describe and image clients from config and
// wires them into the pipeline options.
func (c *CLI) attachProviders(opts *pipeline.Options, cfg Config, noCache bool) error {
	if cfg.Describe.APIKey == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "describe provider API key is not configured")
	}
	if cfg.Image.APIKey == "" || cfg.Image.BaseURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "image provider API key and base URL are not configured")
	}

	httpClient := httputil.NewHTTPClient()

	var hcache *httputil.Cache
	if !noCache {
		if dir, err := cacheDir(); err == nil {
			hcache, _ = httputil.NewCache(filepath.Join(dir, "http"), httpCacheTTL)
		}
	}

	opts.Describer = describe.NewClient(httpClient, hcache, cfg.describeConfig(), opts.Logger)
	opts.Provider = image.NewClient(httpClient, cfg.imageConfig())
	return nil
}

// executeWithSpinner runs the pipeline behind a simple spinner.
func (c *CLI) executeWithSpinner(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Generating order-%d deck...", effectiveOrder(opts)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Generation failed")
		return nil, err
	}
	spinner.Stop()
	return result, nil
}

// executeWithTUI runs the pipeline behind the live artwork progress display.
func (c *CLI) executeWithTUI(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	symbols := deck.SymbolCount(effectiveOrder(opts))

	var result *pipeline.Result
	err := runWithArtworkTUI(ctx, make([]string, symbols), func(ctx context.Context, obs artwork.Observer) error {
		opts.Observer = obs
		r, err := runner.Execute(ctx, opts)
		result = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// saveDeck persists the generated deck to the local store.
func (c *CLI) saveDeck(ctx context.Context, opts pipeline.Options, result *pipeline.Result, name string) (*store.Deck, error) {
	st, err := newStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	d := store.NewDeck(deckName(name, opts.Theme), opts.Theme, effectiveOrder(opts))
	d.Cards = result.Cards
	d.Placements = result.Placements
	d.Descriptions = result.Descriptions
	d.SessionHash = result.SessionHash
	d.CanvasSize = effectiveCanvasSize(opts)

	if err := st.Put(ctx, d); err != nil {
		return nil, err
	}
	loggerFromContext(ctx).Info("saved deck", "id", d.ID, "name", d.Name)
	return d, nil
}

// isCancelled reports whether err is a user-directed stop rather than a
// failure: either the batch's own cancellation sentinel or a cancelled
// context surfacing through another stage.
func isCancelled(err error) bool {
	return stderrors.Is(err, artwork.ErrCancelled) || stderrors.Is(err, context.Canceled)
}

// deckName picks the saved deck's display name.
func deckName(name, theme string) string {
	if name != "" {
		return name
	}
	if theme != "" {
		return theme
	}
	return "deck"
}

// effectiveOrder resolves the order the pipeline will actually use.
func effectiveOrder(opts pipeline.Options) int {
	if opts.Order == 0 {
		return pipeline.DefaultOrder
	}
	return opts.Order
}

// effectiveCanvasSize resolves the canvas size the pipeline will actually use.
func effectiveCanvasSize(opts pipeline.Options) float64 {
	if opts.CanvasSize <= 0 {
		return pipeline.DefaultCanvasSize
	}
	return opts.CanvasSize
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
