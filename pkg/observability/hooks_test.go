package observability

import (
	"context"
	"testing"
	"time"
)

type recordingPipelineHooks struct {
	NoopPipelineHooks
	started   []string
	completed []string
	items     int
}

func (h *recordingPipelineHooks) OnStageStart(_ context.Context, stage string) {
	h.started = append(h.started, stage)
}

func (h *recordingPipelineHooks) OnStageComplete(_ context.Context, stage string, _ time.Duration, _ error) {
	h.completed = append(h.completed, stage)
}

func (h *recordingPipelineHooks) OnArtworkItem(_ context.Context, _ int, _ int, _ error) {
	h.items++
}

func TestDefaultHooksAreNoop(t *testing.T) {
	Reset()

	// No panics, no effects.
	ctx := context.Background()
	Pipeline().OnStageStart(ctx, StageDeck)
	Pipeline().OnStageComplete(ctx, StageDeck, time.Second, nil)
	Pipeline().OnArtworkItem(ctx, 0, 1, nil)
	Cache().OnCacheHit(ctx, "layout")
	Cache().OnCacheMiss(ctx, "layout")
	Cache().OnCacheSet(ctx, "layout", 128)
	HTTP().OnRequest(ctx, "GET", "example.com", "/v1/generations")
}

func TestSetAndResetHooks(t *testing.T) {
	defer Reset()

	rec := &recordingPipelineHooks{}
	SetPipelineHooks(rec)

	ctx := context.Background()
	Pipeline().OnStageStart(ctx, StageArtwork)
	Pipeline().OnStageComplete(ctx, StageArtwork, time.Millisecond, nil)
	Pipeline().OnArtworkItem(ctx, 3, 2, nil)

	if len(rec.started) != 1 || rec.started[0] != StageArtwork {
		t.Errorf("started = %v, want [%s]", rec.started, StageArtwork)
	}
	if len(rec.completed) != 1 {
		t.Errorf("completed = %v, want one entry", rec.completed)
	}
	if rec.items != 1 {
		t.Errorf("items = %d, want 1", rec.items)
	}

	Reset()
	Pipeline().OnStageStart(ctx, StageDeck)
	if len(rec.started) != 1 {
		t.Error("Reset did not restore the no-op hooks")
	}
}

func TestSetNilHooksKeepsCurrent(t *testing.T) {
	defer Reset()

	rec := &recordingPipelineHooks{}
	SetPipelineHooks(rec)
	SetPipelineHooks(nil)

	Pipeline().OnStageStart(context.Background(), StageRender)
	if len(rec.started) != 1 {
		t.Error("SetPipelineHooks(nil) should not replace registered hooks")
	}
}
