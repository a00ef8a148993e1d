package calc

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/dex"
)

// Outcome of a simulated one-on-one.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeDraw Outcome = "draw"
)

// MatchupVerdict summarizes a simulated one-on-one between two Pokemon.
type MatchupVerdict struct {
	OurSpecies        string
	TheirSpecies      string
	Outcome           Outcome
	OurRemainingHP    float64 // percent
	TheirRemainingHP  float64 // percent
	Turns             int
	WeOutspeed        bool
	UsedFallbackOurs  bool // our damage per turn was the flat default
	UsedFallbackTheir bool
}

func (v MatchupVerdict) String() string {
	return fmt.Sprintf("%s vs %s: %s in %d turns (%.0f%% vs %.0f%% remaining)",
		v.OurSpecies, v.TheirSpecies, v.Outcome, v.Turns, v.OurRemainingHP, v.TheirRemainingHP)
}

// PairKey identifies one simulated pairing. Species names are normalized.
type PairKey struct {
	Ours   string
	Theirs string
}

// MatchupTable holds verdicts for every simulated pairing.
type MatchupTable map[PairKey]MatchupVerdict

// For looks up a verdict by species pair.
func (t MatchupTable) For(ours, theirs string) (MatchupVerdict, bool) {
	v, ok := t[PairKey{Ours: dex.NormalizeID(ours), Theirs: dex.NormalizeID(theirs)}]
	return v, ok
}

// Wins returns our species that win against the given opposing species,
// sorted by remaining HP descending.
func (t MatchupTable) Wins(theirs string) []MatchupVerdict {
	id := dex.NormalizeID(theirs)
	var wins []MatchupVerdict
	for k, v := range t {
		if k.Theirs == id && v.Outcome == OutcomeWin {
			wins = append(wins, v)
		}
	}
	sort.Slice(wins, func(i, j int) bool {
		if wins[i].OurRemainingHP != wins[j].OurRemainingHP {
			return wins[i].OurRemainingHP > wins[j].OurRemainingHP
		}
		return wins[i].OurSpecies < wins[j].OurSpecies
	})
	return wins
}

// MatchupSimulator trades averaged per-turn damage between pairs of Pokemon
// until one side faints or the turn cap is hit. The faster side strikes
// first each turn, so a KO forestalls the return hit. It is a deterministic
// heuristic, not a battle engine: no move selection, no status, no switching.
type MatchupSimulator struct {
	// DefaultDamagePerTurn stands in when no damage data exists for a side.
	DefaultDamagePerTurn float64
	// MaxTurns caps the exchange; hitting it is a draw.
	MaxTurns int

	estimator *battle.StatEstimator
	logger    *slog.Logger
}

// NewMatchupSimulator creates a simulator with the standard parameters. The
// estimator supplies speeds for bench pairings, where no live comparison of
// the actives applies.
func NewMatchupSimulator(estimator *battle.StatEstimator, logger *slog.Logger) *MatchupSimulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchupSimulator{
		DefaultDamagePerTurn: 25.0,
		MaxTurns:             20,
		estimator:            estimator,
		logger:               logger,
	}
}

// SimulateAll runs every pairing of our healthy Pokemon against their
// healthy Pokemon using the pre-computed damage data.
func (m *MatchupSimulator) SimulateAll(snap *battle.Snapshot, dmg *DamageData) MatchupTable {
	table := make(MatchupTable)
	if snap == nil {
		return table
	}
	for _, ours := range snap.Ours.Pokemon {
		if ours.Fainted {
			continue
		}
		for _, theirs := range snap.Theirs.Pokemon {
			if theirs.Fainted {
				continue
			}
			v := m.Simulate(ours, theirs, dmg)
			table[PairKey{Ours: dex.NormalizeID(ours.Species), Theirs: dex.NormalizeID(theirs.Species)}] = v
		}
	}
	return table
}

// Simulate runs a single pairing. Each turn the faster side deals its
// averaged best-move damage first; if the other side faints it never gets
// the return hit. A speed tie is scored pessimistically: the opponent is
// assumed to move first.
func (m *MatchupSimulator) Simulate(ours, theirs *battle.Pokemon, dmg *DamageData) MatchupVerdict {
	v := MatchupVerdict{
		OurSpecies:   ours.Species,
		TheirSpecies: theirs.Species,
		WeOutspeed:   m.pokemonSpeed(ours) > m.pokemonSpeed(theirs),
	}

	ourDPT, ok := averageDamage(dmg, ours.Species, theirs.Species, true)
	if !ok {
		ourDPT = m.DefaultDamagePerTurn
		v.UsedFallbackOurs = true
	}
	theirDPT, ok := averageDamage(dmg, theirs.Species, ours.Species, false)
	if !ok {
		theirDPT = m.DefaultDamagePerTurn
		v.UsedFallbackTheir = true
	}

	ourHP, theirHP := ours.HPPercent, theirs.HPPercent
	for turn := 1; turn <= m.MaxTurns; turn++ {
		v.Turns = turn
		if v.WeOutspeed {
			theirHP -= ourDPT
			if theirHP <= 0 {
				break
			}
			ourHP -= theirDPT
		} else {
			ourHP -= theirDPT
			if ourHP <= 0 {
				break
			}
			theirHP -= ourDPT
		}
		if ourHP <= 0 || theirHP <= 0 {
			break
		}
	}

	switch {
	case theirHP <= 0:
		v.Outcome = OutcomeWin
	case ourHP <= 0:
		v.Outcome = OutcomeLose
	default:
		// Turn cap reached with both standing.
		v.Outcome = OutcomeDraw
	}
	v.OurRemainingHP = clampHP(ourHP)
	v.TheirRemainingHP = clampHP(theirHP)
	return v
}

// pokemonSpeed mirrors the effective-speed estimate used for ordering:
// known or estimated speed stat, stat stages, and paralysis.
func (m *MatchupSimulator) pokemonSpeed(p *battle.Pokemon) int {
	base := DefaultSpeed
	if m.estimator != nil {
		if stats, ok := m.estimator.For(p); ok && stats.Spe > 0 {
			base = stats.Spe
		}
	} else if p.Stats["spe"] > 0 {
		base = p.Stats["spe"]
	}
	speed := float64(base) * StageMultiplier(p.Boost("spe"))
	if p.Status == battle.StatusParalysis {
		speed *= 0.5
	}
	return int(speed)
}

func averageDamage(dmg *DamageData, attacker, defender string, ourAttack bool) (float64, bool) {
	if dmg == nil {
		return 0, false
	}
	return dmg.AverageFor(attacker, defender, ourAttack)
}

func clampHP(hp float64) float64 {
	if hp < 0 {
		return 0
	}
	return hp
}
