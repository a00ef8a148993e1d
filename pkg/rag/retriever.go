// Package rag retrieves stored strategy notes relevant to the current battle
// state, for inclusion in the decision prompt.
package rag

import (
	"context"
)

// Note is one stored strategy note.
type Note struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Keywords []string `json:"keywords"`
}

// Retriever looks up strategy notes by keyword.
type Retriever interface {
	// Retrieve returns the texts of notes matching any of the keywords,
	// most-matched first, capped at limit.
	Retrieve(ctx context.Context, keywords []string, limit int) ([]string, error)
}

// Store persists notes for later retrieval.
type Store interface {
	Retriever

	// Add persists a note under its keywords.
	Add(ctx context.Context, note Note) error
}

// Noop is a Retriever that never returns notes. Used when no note store is
// configured; the pipeline treats an empty result the same as a Redis miss.
type Noop struct{}

// Retrieve always returns no notes.
func (Noop) Retrieve(ctx context.Context, keywords []string, limit int) ([]string, error) {
	return nil, nil
}
