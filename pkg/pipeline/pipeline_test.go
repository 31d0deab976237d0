package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/spotdeck/spotdeck/pkg/artwork"
	"github.com/spotdeck/spotdeck/pkg/cache"
	"github.com/spotdeck/spotdeck/pkg/deck"
	"github.com/spotdeck/spotdeck/pkg/errors"
)

// stubDescriber returns numbered placeholder descriptions.
type stubDescriber struct {
	calls int
	fail  bool
}

func (s *stubDescriber) Descriptions(ctx context.Context, theme string, count int) ([]string, error) {
	s.calls++
	if s.fail {
		return nil, errors.New(errors.ErrCodeProviderError, "provider down")
	}
	out := make([]string, count)
	for i := range out {
		out[i] = fmt.Sprintf("%s symbol %d", theme, i)
	}
	return out, nil
}

// stubImageProvider serves a tiny PNG for every description immediately.
type stubImageProvider struct {
	mu      sync.Mutex
	submits int
	failAll bool
}

func (s *stubImageProvider) Submit(ctx context.Context, description string) (string, error) {
	s.mu.Lock()
	s.submits++
	s.mu.Unlock()
	if s.failAll {
		return "", stderrors.New("provider unavailable")
	}
	return "job", nil
}

func (s *stubImageProvider) Poll(ctx context.Context, jobID string) (artwork.Poll, error) {
	return artwork.Poll{State: artwork.JobReady, ImageURL: "img"}, nil
}

func (s *stubImageProvider) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func testOptions() Options {
	return Options{
		Order:     2,
		Theme:     "animals",
		Formats:   []string{FormatSVG, FormatJSON},
		Describer: &stubDescriber{},
		Provider:  &stubImageProvider{},
		Logger:    quietLogger(),
	}
}

func testRunner(t *testing.T) *Runner {
	t.Helper()
	fileCache, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(fileCache, nil, quietLogger())
}

func TestExecuteFullPipeline(t *testing.T) {
	runner := testRunner(t)

	result, err := runner.Execute(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	symbols := deck.SymbolCount(2)
	if result.Stats.CardCount != 7 || result.Stats.SymbolCount != symbols {
		t.Errorf("stats = %+v, want 7 cards / %d symbols", result.Stats, symbols)
	}
	if len(result.Descriptions) != symbols {
		t.Errorf("%d descriptions, want %d", len(result.Descriptions), symbols)
	}
	if result.Stats.ArtworkSucceeded != symbols || result.Stats.ArtworkFailed != 0 {
		t.Errorf("artwork stats = %d/%d, want %d/0",
			result.Stats.ArtworkSucceeded, result.Stats.ArtworkFailed, symbols)
	}
	if result.DeckHash == "" || result.SessionHash == "" {
		t.Error("content hashes not populated")
	}

	svgPages, ok := result.Artifacts[FormatSVG]
	if !ok || len(svgPages) != 1 {
		t.Fatalf("svg artifact pages = %d, want 1", len(svgPages))
	}
	if !bytes.Contains(svgPages[0], []byte("<svg")) {
		t.Error("svg artifact is not an SVG document")
	}
	jsonPages := result.Artifacts[FormatJSON]
	if len(jsonPages) != 1 || !bytes.Contains(jsonPages[0], []byte(`"cards"`)) {
		t.Error("json artifact missing deck document")
	}
}

func TestExecuteLayoutCacheHit(t *testing.T) {
	runner := testRunner(t)
	ctx := context.Background()

	first, err := runner.Execute(ctx, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.LayoutHit {
		t.Error("first run should not hit the layout cache")
	}

	second, err := runner.Execute(ctx, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run should hit the layout cache")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit the artifact cache")
	}
}

func TestExecuteRefreshBypassesCache(t *testing.T) {
	runner := testRunner(t)
	ctx := context.Background()

	if _, err := runner.Execute(ctx, testOptions()); err != nil {
		t.Fatal(err)
	}

	opts := testOptions()
	opts.Refresh = true
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Errorf("refresh run used caches: %+v", result.CacheInfo)
	}
}

func TestExecuteSkipArtwork(t *testing.T) {
	runner := testRunner(t)

	opts := testOptions()
	opts.SkipArtwork = true
	opts.Describer = nil
	opts.Provider = nil

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Descriptions) != 0 {
		t.Error("layout-only run should not generate descriptions")
	}
	if len(result.Artwork) != result.Stats.SymbolCount {
		t.Errorf("artwork slots = %d, want %d empty slots", len(result.Artwork), result.Stats.SymbolCount)
	}
	if _, ok := result.Artifacts[FormatSVG]; !ok {
		t.Error("layout-only run should still render")
	}
}

func TestExecuteInvalidOrder(t *testing.T) {
	runner := testRunner(t)

	opts := testOptions()
	opts.Order = 4
	_, err := runner.Execute(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeInvalidOrder) {
		t.Fatalf("err = %v, want INVALID_ORDER", err)
	}
}

func TestExecuteInvalidFormat(t *testing.T) {
	runner := testRunner(t)

	opts := testOptions()
	opts.Formats = []string{"docx"}
	_, err := runner.Execute(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Fatalf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestExecuteDescriberFailureIsFatal(t *testing.T) {
	runner := testRunner(t)

	opts := testOptions()
	opts.Describer = &stubDescriber{fail: true}
	provider := &stubImageProvider{}
	opts.Provider = provider

	_, err := runner.Execute(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeProviderError) {
		t.Fatalf("err = %v, want PROVIDER_ERROR", err)
	}
	if provider.submits != 0 {
		t.Error("image provider must not be called when descriptions fail")
	}
}

func TestExecutePartialArtworkIsNotAnError(t *testing.T) {
	runner := testRunner(t)

	opts := testOptions()
	opts.Provider = &stubImageProvider{failAll: true}
	opts.MaxAttempts = 1

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Stats.ArtworkFailed != result.Stats.SymbolCount {
		t.Errorf("artwork failed = %d, want %d", result.Stats.ArtworkFailed, result.Stats.SymbolCount)
	}
	// Cards render with empty slots.
	if _, ok := result.Artifacts[FormatSVG]; !ok {
		t.Error("render should proceed despite artwork failures")
	}
}

func TestExecuteCancellation(t *testing.T) {
	runner := testRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := testOptions()
	_, err := runner.Execute(ctx, opts)
	if !stderrors.Is(err, artwork.ErrCancelled) && !stderrors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want cancellation", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if opts.Order != DefaultOrder {
		t.Errorf("Order = %d, want %d", opts.Order, DefaultOrder)
	}
	if opts.CanvasSize != DefaultCanvasSize {
		t.Errorf("CanvasSize = %v, want %v", opts.CanvasSize, DefaultCanvasSize)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.PNGScale != DefaultPNGScale {
		t.Errorf("PNGScale = %v, want %v", opts.PNGScale, DefaultPNGScale)
	}
}

func TestArtworkCacheReuseAcrossRuns(t *testing.T) {
	runner := testRunner(t)
	ctx := context.Background()

	provider := &stubImageProvider{}
	opts := testOptions()
	opts.Provider = provider

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	firstSubmits := provider.submits
	if first.CacheInfo.ArtworkHits != 0 {
		t.Errorf("first run artwork hits = %d, want 0", first.CacheInfo.ArtworkHits)
	}

	// Same theme yields the same session hash, so artwork comes from cache.
	opts2 := testOptions()
	opts2.Provider = provider
	second, err := runner.Execute(ctx, opts2)
	if err != nil {
		t.Fatal(err)
	}
	if provider.submits != firstSubmits {
		t.Errorf("second run submitted %d new jobs, want 0", provider.submits-firstSubmits)
	}
	if second.CacheInfo.ArtworkHits != second.Stats.SymbolCount {
		t.Errorf("second run artwork hits = %d, want %d",
			second.CacheInfo.ArtworkHits, second.Stats.SymbolCount)
	}
}

func TestStatsTimings(t *testing.T) {
	runner := testRunner(t)

	result, err := runner.Execute(context.Background(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	for name, d := range map[string]time.Duration{
		"deck":   result.Stats.DeckTime,
		"layout": result.Stats.LayoutTime,
		"render": result.Stats.RenderTime,
	} {
		if d <= 0 {
			t.Errorf("%s stage time not recorded", name)
		}
	}
}
