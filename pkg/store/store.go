// Package store persists finished decks so they can be listed, re-rendered,
// and deleted without regenerating. Two backends ship: a JSON file store for
// the CLI and a MongoDB store for the preview server.
//
// Artwork bytes are not stored inline; a deck records the artwork session
// hash and renderers pull the images back out of the artwork cache.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spotdeck/spotdeck/pkg/deck"
	"github.com/spotdeck/spotdeck/pkg/layout"
)

// Deck is one saved deck document.
type Deck struct {
	ID    string `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Theme string `json:"theme" bson:"theme"`
	Order int    `json:"order" bson:"order"`

	Cards        []deck.Card          `json:"cards" bson:"cards"`
	Placements   [][]layout.Placement `json:"placements" bson:"placements"`
	Descriptions []string             `json:"descriptions" bson:"descriptions"`
	CanvasSize   float64              `json:"canvas_size" bson:"canvas_size"`

	// SessionHash keys this deck's artwork in the artwork cache.
	SessionHash string `json:"session_hash" bson:"session_hash"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Summary is the listing view of a deck, without the card data.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Theme     string    `json:"theme" bson:"theme"`
	Order     int       `json:"order" bson:"order"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Store is the deck persistence backend.
type Store interface {
	// Put saves a deck, assigning an ID when it has none.
	Put(ctx context.Context, d *Deck) error

	// Get retrieves a deck by ID. Returns a DECK_NOT_FOUND error when no
	// deck has that ID.
	Get(ctx context.Context, id string) (*Deck, error)

	// List returns summaries of all saved decks, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a deck. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	Close() error
}

// NewDeck builds an unsaved deck document with a fresh ID and timestamps.
func NewDeck(name, theme string, order int) *Deck {
	now := time.Now().UTC()
	return &Deck{
		ID:        uuid.NewString(),
		Name:      name,
		Theme:     theme,
		Order:     order,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d *Deck) summary() Summary {
	return Summary{
		ID:        d.ID,
		Name:      d.Name,
		Theme:     d.Theme,
		Order:     d.Order,
		CreatedAt: d.CreatedAt,
	}
}
