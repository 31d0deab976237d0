package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/spotdeck/spotdeck/pkg/artwork"
	"github.com/spotdeck/spotdeck/pkg/errors"
)

func TestIsCancelled(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"stopped batch", artwork.ErrCancelled, true},
		{"wrapped stopped batch", fmt.Errorf("artwork: %w", artwork.ErrCancelled), true},
		{"cancelled context", context.Canceled, true},
		{"provider failure", errors.New(errors.ErrCodeProviderError, "down"), false},
		{"plain error", stderrors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCancelled(tt.err); got != tt.want {
				t.Errorf("isCancelled(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDeckName(t *testing.T) {
	tests := []struct {
		name, theme, want string
	}{
		{"safari", "farm animals", "safari"},
		{"", "farm animals", "farm animals"},
		{"", "", "deck"},
	}
	for _, tt := range tests {
		if got := deckName(tt.name, tt.theme); got != tt.want {
			t.Errorf("deckName(%q, %q) = %q, want %q", tt.name, tt.theme, got, tt.want)
		}
	}
}
