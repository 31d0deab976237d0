package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spotdeck/spotdeck/pkg/artwork"
	"github.com/spotdeck/spotdeck/pkg/cache"
	"github.com/spotdeck/spotdeck/pkg/pipeline"
	"github.com/spotdeck/spotdeck/pkg/store"
)

// renderCommand creates the render command for re-rendering saved decks.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		deckID     string
		output     string
		formatsStr string
		cardIndex  int
		pngScale   float64
		noCache    bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Re-render a saved deck without regenerating it",
		Long: `Re-render a saved deck without regenerating it.

The render command loads a deck saved by 'generate' and produces fresh
output files from it. Artwork is pulled from the local cache; symbols whose
artwork has expired render as empty slots.

Use --card to render a single card instead of the full sheet set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deckID == "" {
				return fmt.Errorf("--deck is required (see 'spotdeck decks list')")
			}
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), renderParams{
				deckID:    deckID,
				output:    output,
				formats:   formats,
				cardIndex: cardIndex,
				pngScale:  pngScale,
				noCache:   noCache,
				refresh:   refresh,
			})
		},
	}

	cmd.Flags().StringVar(&deckID, "deck", "", "ID of the saved deck to render")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path (default: derived from deck name)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), pdf, png, json (comma-separated)")
	cmd.Flags().IntVar(&cardIndex, "card", -1, "render a single card by index instead of sheets")
	cmd.Flags().Float64Var(&pngScale, "png-scale", 0, "raster scale factor for PNG output (default 2.0)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-render even when cached artifacts exist")

	return cmd
}

// renderParams holds the resolved inputs for runRender.
type renderParams struct {
	deckID    string
	output    string
	formats   []string
	cardIndex int
	pngScale  float64
	noCache   bool
	refresh   bool
}

// runRender loads the deck, restores its artwork from cache, and renders.
func (c *CLI) runRender(ctx context.Context, p renderParams) error {
	st, err := newStore()
	if err != nil {
		return fmt.Errorf("open deck store: %w", err)
	}
	defer st.Close()

	d, err := st.Get(ctx, p.deckID)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(p.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		Order:      d.Order,
		Theme:      d.Theme,
		CanvasSize: d.CanvasSize,
		Formats:    p.formats,
		PNGScale:   p.pngScale,
		Refresh:    p.refresh,
		Logger:     loggerFromContext(ctx),
	}

	result, restored := resultFromDeck(ctx, runner, d)

	if p.cardIndex >= 0 {
		return c.renderSingleCard(runner, result, opts, p, d)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %q...", d.Name))
	spinner.Start()

	artifacts, cacheHit, err := runner.RenderWithCacheInfo(ctx, result, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return fmt.Errorf("render: %w", err)
	}
	spinner.Stop()

	base := outputBase(p.output, d.Name)
	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   p.formats,
		base:      base,
	})
	if err != nil {
		return err
	}

	printSuccess("Rendered %q", d.Name)
	for _, path := range paths {
		printFile(path)
	}
	printStats(len(d.Cards), len(d.Descriptions), cacheHit)
	if missing := len(result.Artwork) - restored; missing > 0 {
		printWarning("%d symbols have no cached artwork and render empty", missing)
	}
	return nil
}

// renderSingleCard writes one card as a standalone SVG.
func (c *CLI) renderSingleCard(runner *pipeline.Runner, result *pipeline.Result, opts pipeline.Options, p renderParams, d *store.Deck) error {
	svg, err := runner.CardSVG(result, opts, p.cardIndex)
	if err != nil {
		return err
	}

	base := outputBase(p.output, fmt.Sprintf("%s-card-%d", d.Name, p.cardIndex))
	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][][]byte{pipeline.FormatSVG: {svg}},
		formats:   []string{pipeline.FormatSVG},
		base:      base,
	})
	if err != nil {
		return err
	}

	printSuccess("Rendered card %d of %q", p.cardIndex, d.Name)
	for _, path := range paths {
		printFile(path)
	}
	return nil
}

// resultFromDeck rebuilds a pipeline result from a saved deck, restoring
// artwork from the cache. It returns the result and how many symbols had
// cached artwork.
func resultFromDeck(ctx context.Context, runner *pipeline.Runner, d *store.Deck) (*pipeline.Result, int) {
	data, _ := json.Marshal(d.Cards)
	result := &pipeline.Result{
		Cards:        d.Cards,
		DeckHash:     cache.Hash(data),
		Placements:   d.Placements,
		Descriptions: d.Descriptions,
		SessionHash:  d.SessionHash,
	}

	// Symbol count equals card count for these decks.
	result.Artwork = make([][]byte, len(d.Cards))

	restored := 0
	if d.SessionHash != "" {
		art := artwork.NewStore(runner.Cache, runner.Keyer, d.SessionHash, runner.Logger)
		for i := range result.Artwork {
			if img, ok := art.Get(ctx, i); ok {
				result.Artwork[i] = img
				restored++
			}
		}
	}
	return result, restored
}
