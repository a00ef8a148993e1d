package dex

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Move category constants match Showdown's data files.
const (
	CategoryPhysical = "Physical"
	CategorySpecial  = "Special"
	CategoryStatus   = "Status"
)

// Move holds the static data for one move.
type Move struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Category  string `json:"category"`
	BasePower int    `json:"basePower"`
	Accuracy  int    `json:"accuracy"` // 0 means "never misses"
	Priority  int    `json:"priority"`
}

// IsDamaging reports whether the move deals direct damage.
func (m Move) IsDamaging() bool {
	return m.Category != CategoryStatus && m.BasePower > 0
}

// MoveRegistry is a lookup table of moves keyed by normalized ID.
type MoveRegistry struct {
	moves map[string]Move
}

// NewMoveRegistry builds a registry from a list of moves.
func NewMoveRegistry(moves ...Move) *MoveRegistry {
	r := &MoveRegistry{moves: make(map[string]Move, len(moves))}
	for _, m := range moves {
		r.Add(m)
	}
	return r
}

// Add inserts or replaces a move. The ID is derived from the name if unset.
func (r *MoveRegistry) Add(m Move) {
	if m.ID == "" {
		m.ID = NormalizeID(m.Name)
	}
	r.moves[NormalizeID(m.ID)] = m
}

// Lookup finds a move by name or ID.
func (r *MoveRegistry) Lookup(name string) (Move, bool) {
	m, ok := r.moves[NormalizeID(name)]
	return m, ok
}

// Len returns the number of registered moves.
func (r *MoveRegistry) Len() int {
	return len(r.moves)
}

type rawMove struct {
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Category  string          `json:"category"`
	BasePower int             `json:"basePower"`
	Accuracy  json.RawMessage `json:"accuracy"` // number, or boolean true for "never misses"
	Priority  int             `json:"priority"`
}

// LoadMoves reads a Showdown-format moves JSON file (map of id -> move data).
func LoadMoves(path string) (*MoveRegistry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open moves file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var raw map[string]rawMove
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode moves file: %w", err)
	}

	r := &MoveRegistry{moves: make(map[string]Move, len(raw))}
	for id, rm := range raw {
		acc := 100
		if len(rm.Accuracy) > 0 {
			var n int
			if err := json.Unmarshal(rm.Accuracy, &n); err == nil {
				acc = n
			} else {
				// "accuracy": true means the move cannot miss
				acc = 0
			}
		}
		r.Add(Move{
			ID:        NormalizeID(id),
			Name:      rm.Name,
			Type:      strings.ToLower(rm.Type),
			Category:  rm.Category,
			BasePower: rm.BasePower,
			Accuracy:  acc,
			Priority:  rm.Priority,
		})
	}
	return r, nil
}

// NormalizeID lowercases a name and strips spaces, dashes, dots and
// apostrophes, matching Showdown's internal IDs ("Ice Beam" -> "icebeam").
func NormalizeID(name string) string {
	s := strings.ToLower(name)
	replacer := strings.NewReplacer(" ", "", "-", "", ".", "", "'", "", "’", "", "%", "", ":", "")
	return replacer.Replace(s)
}
