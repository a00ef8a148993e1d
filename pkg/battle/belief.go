package battle

import (
	"sort"

	"github.com/tailglowbot/tailglow/pkg/dex"
)

// SpeciesBelief accumulates what we know about one opposing species over the
// battle. Revealed fields only ever gain entries; the possible_* pools are
// static reference data seeded on first sighting.
type SpeciesBelief struct {
	Species string

	RevealedMoves   map[string]bool
	RevealedItem    string
	RevealedAbility string
	DeducedItem     string // advisory, never treated as confirmed
	Fainted         bool

	PossibleMoves     map[string]bool
	PossibleItems     []string
	PossibleAbilities []string
	PossibleTeraTypes []string
}

// UnrevealedMoves returns possible moves not yet revealed, sorted for
// deterministic iteration.
func (b *SpeciesBelief) UnrevealedMoves() []string {
	var moves []string
	for m := range b.PossibleMoves {
		if !b.RevealedMoves[m] {
			moves = append(moves, m)
		}
	}
	sort.Strings(moves)
	return moves
}

// KnownMoves returns the revealed move IDs, sorted.
func (b *SpeciesBelief) KnownMoves() []string {
	moves := make([]string, 0, len(b.RevealedMoves))
	for m := range b.RevealedMoves {
		moves = append(moves, m)
	}
	sort.Strings(moves)
	return moves
}

// CouldHoldItem reports whether the species could plausibly hold an item.
// A revealed item settles the question; otherwise the possible-item pool
// decides, and an empty pool means "cannot rule it out".
func (b *SpeciesBelief) CouldHoldItem(itemID string) bool {
	if b == nil {
		return true
	}
	if b.RevealedItem != "" {
		return dex.NormalizeID(b.RevealedItem) == itemID
	}
	if len(b.PossibleItems) == 0 {
		return true
	}
	for _, item := range b.PossibleItems {
		if dex.NormalizeID(item) == itemID {
			return true
		}
	}
	return false
}

// BeliefState maps opposing species (normalized ID) to their belief record.
type BeliefState map[string]*SpeciesBelief

// Get returns the belief for a species, or nil.
func (bs BeliefState) Get(species string) *SpeciesBelief {
	return bs[dex.NormalizeID(species)]
}

// UpdateBeliefs merges a new snapshot into the belief state and returns the
// result. It is a pure function: the input map is not mutated. Facts only
// accumulate; nothing revealed is ever retracted.
func UpdateBeliefs(prev BeliefState, snap *Snapshot, sets *dex.SetData) BeliefState {
	next := make(BeliefState, len(prev))
	for key, b := range prev {
		next[key] = cloneBelief(b)
	}

	for _, p := range snap.Theirs.Pokemon {
		key := dex.NormalizeID(p.Species)
		b, ok := next[key]
		if !ok {
			b = newBelief(p.Species, sets)
			next[key] = b
		}

		for _, move := range p.Moves {
			b.RevealedMoves[dex.NormalizeID(move)] = true
		}
		// First revealed item/ability wins and is never overwritten.
		if p.Item != "" && b.RevealedItem == "" {
			b.RevealedItem = p.Item
		}
		if p.Ability != "" && b.RevealedAbility == "" {
			b.RevealedAbility = p.Ability
		}
		if p.Fainted {
			b.Fainted = true
		}

		if b.RevealedItem == "" && b.DeducedItem == "" {
			if item, ok := deduceItem(b); ok {
				b.DeducedItem = item
			}
		}
	}

	return next
}

func newBelief(species string, sets *dex.SetData) *SpeciesBelief {
	b := &SpeciesBelief{
		Species:       species,
		RevealedMoves: make(map[string]bool),
		PossibleMoves: make(map[string]bool),
	}
	if sets != nil {
		b.PossibleMoves = sets.PossibleMoves(species)
		b.PossibleItems = sets.PossibleItems(species)
		b.PossibleAbilities = sets.PossibleAbilities(species)
		b.PossibleTeraTypes = sets.PossibleTeraTypes(species)
	}
	return b
}

func cloneBelief(b *SpeciesBelief) *SpeciesBelief {
	c := *b
	c.RevealedMoves = make(map[string]bool, len(b.RevealedMoves))
	for m := range b.RevealedMoves {
		c.RevealedMoves[m] = true
	}
	// The possible_* pools are static after creation; sharing them is safe.
	return &c
}

// deduceItem narrows the item when the plausible pool has exactly one
// candidate. More behavioral deduction (no Leftovers recovery observed,
// scarf-tier speed) would need turn history.
func deduceItem(b *SpeciesBelief) (string, bool) {
	if len(b.PossibleItems) == 1 {
		return b.PossibleItems[0], true
	}
	return "", false
}
