package battle

import (
	"github.com/tailglowbot/tailglow/pkg/dex"
)

// Status strings follow Showdown's protocol tokens.
const (
	StatusBurn      = "brn"
	StatusParalysis = "par"
	StatusSleep     = "slp"
	StatusFreeze    = "frz"
	StatusPoison    = "psn"
	StatusToxic     = "tox"
)

// Side condition and field tokens, normalized.
const (
	ConditionStealthRock = "stealthrock"
	ConditionSpikes      = "spikes"
	ConditionTailwind    = "tailwind"
	FieldTrickRoom       = "trickroom"
)

// Pokemon is the observable state of one combatant within a snapshot.
// For our own side stats and moves are exact; for the opponent only what the
// battle has revealed is populated.
type Pokemon struct {
	Species string
	Level   int
	Types   []dex.Type

	HPPercent float64 // 0..100 of max HP
	MaxHP     int     // absolute, 0 when unknown (opponent side)
	CurrentHP int     // absolute, 0 when unknown

	Status string
	Boosts map[string]int // stat -> stage, -6..+6

	Moves   []string // known move IDs (revealed, for the opponent)
	Item    string   // "" when unknown
	Ability string   // "" when unknown

	Stats map[string]int // exact stats when known (our side)

	Active        bool
	Fainted       bool
	Terastallized bool
	TeraType      string
}

// Boost returns the stage for a stat, 0 when unset.
func (p *Pokemon) Boost(stat string) int {
	if p.Boosts == nil {
		return 0
	}
	return p.Boosts[stat]
}

// HasType reports whether the Pokemon currently has the given type.
func (p *Pokemon) HasType(t dex.Type) bool {
	if p.Terastallized && p.TeraType != "" {
		return dex.ParseType(p.TeraType) == t
	}
	for _, pt := range p.Types {
		if pt == t {
			return true
		}
	}
	return false
}

// Side is one player's roster and side conditions.
type Side struct {
	Pokemon    []*Pokemon
	Conditions map[string]int // condition -> layers (1 for un-layered)
}

// Active returns the side's active Pokemon, or nil.
func (s *Side) Active() *Pokemon {
	for _, p := range s.Pokemon {
		if p.Active && !p.Fainted {
			return p
		}
	}
	return nil
}

// Bench returns the side's non-active, non-fainted Pokemon.
func (s *Side) Bench() []*Pokemon {
	var bench []*Pokemon
	for _, p := range s.Pokemon {
		if !p.Active && !p.Fainted {
			bench = append(bench, p)
		}
	}
	return bench
}

// Find returns the side's Pokemon with the given species, or nil.
func (s *Side) Find(species string) *Pokemon {
	id := dex.NormalizeID(species)
	for _, p := range s.Pokemon {
		if dex.NormalizeID(p.Species) == id {
			return p
		}
	}
	return nil
}

// HasCondition reports whether a side condition is present.
func (s *Side) HasCondition(name string) bool {
	return s.Conditions[name] > 0
}

// Snapshot is the complete observable game state for one turn, delivered by
// the game client. The pipeline treats it as read-only.
type Snapshot struct {
	BattleTag string
	Turn      int

	Ours   Side
	Theirs Side

	Fields  map[string]bool // field effects: trickroom, terrain, ...
	Weather string

	LegalMoves    []string // move IDs the active Pokemon may use this turn
	LegalSwitches []string // species legal to switch to
	ForceSwitch   bool     // the client requires a switch (fainted, u-turn, ...)
	CanTera       bool
}

// OurActive returns our active Pokemon, or nil.
func (s *Snapshot) OurActive() *Pokemon { return s.Ours.Active() }

// TheirActive returns the opponent's active Pokemon, or nil.
func (s *Snapshot) TheirActive() *Pokemon { return s.Theirs.Active() }

// HasField reports whether a field effect is active.
func (s *Snapshot) HasField(name string) bool {
	return s.Fields[name]
}

// MustSwitch reports whether a move action is impossible this turn.
func (s *Snapshot) MustSwitch() bool {
	return s.ForceSwitch || (len(s.LegalMoves) == 0 && len(s.LegalSwitches) > 0)
}
