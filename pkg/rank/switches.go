package rank

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/calc"
	"github.com/tailglowbot/tailglow/pkg/dex"
)

// Switch scoring constants. A switch-in that would faint to the incoming
// attack is pinned below every surviving option.
const (
	surviveBase  = 100.0
	faintPenalty = -100.0
	winBonus     = 50.0
	drawBonus    = 25.0
)

// Entry damage from spikes by layer count.
var spikesDamage = map[int]float64{1: 12.5, 2: 16.67, 3: 25}

// RankedSwitch is one scored switch candidate.
type RankedSwitch struct {
	Species       string
	Score         float64
	HazardDamage  float64 // percent lost on entry
	HPAfterEntry  float64 // percent remaining after hazards
	Survives      bool    // survives hazards plus the expected incoming hit
	Outcome       calc.Outcome
	Justification string
}

// SwitchRanker scores our legal switch-ins against the opposing active.
type SwitchRanker struct {
	pokedex *dex.Pokedex
	logger  *slog.Logger
}

// NewSwitchRanker creates a switch ranker.
func NewSwitchRanker(pokedex *dex.Pokedex, logger *slog.Logger) *SwitchRanker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SwitchRanker{pokedex: pokedex, logger: logger}
}

// Rank scores every legal switch, sorted by score descending. Entry hazard
// damage is applied first, then the expected hit: the opponent's predicted
// move when one is known, their strongest pre-computed move otherwise. A
// candidate whose remaining HP does not cover the average of that hit is
// pinned below every surviving option.
func (r *SwitchRanker) Rank(snap *battle.Snapshot, dmg *calc.DamageData, matchups calc.MatchupTable, expectedMove string) []RankedSwitch {
	theirs := snap.TheirActive()
	expectedMove = dex.NormalizeID(expectedMove)

	ranked := make([]RankedSwitch, 0, len(snap.LegalSwitches))
	for _, species := range snap.LegalSwitches {
		p := snap.Ours.Find(species)
		if p == nil || p.Fainted {
			continue
		}
		ranked = append(ranked, r.score(p, theirs, snap, dmg, matchups, expectedMove))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func (r *SwitchRanker) score(p, theirs *battle.Pokemon, snap *battle.Snapshot, dmg *calc.DamageData, matchups calc.MatchupTable, expectedMove string) RankedSwitch {
	rs := RankedSwitch{Species: p.Species}
	var parts []string

	rs.HazardDamage = r.hazardDamage(p, &snap.Ours)
	rs.HPAfterEntry = p.HPPercent - rs.HazardDamage
	if rs.HazardDamage > 0 {
		parts = append(parts, fmt.Sprintf("%.1f%% hazard damage on entry", rs.HazardDamage))
	}

	if rs.HPAfterEntry <= 0 {
		rs.Score = faintPenalty
		rs.Justification = strings.Join(append(parts, "faints to entry hazards"), ", ")
		return rs
	}

	// The expected hit is averaged over its damage rolls, matching how the
	// matchup simulator trades damage.
	var expectedDamage float64
	incoming, worstCase := r.incomingDamage(p, expectedMove, dmg)
	if incoming != nil {
		expectedDamage = (incoming.MinPercent + incoming.MaxPercent) / 2
		if worstCase {
			parts = append(parts, fmt.Sprintf("takes %.0f-%.0f%% from %s (worst case)",
				incoming.MinPercent, incoming.MaxPercent, incoming.MoveID))
		} else {
			parts = append(parts, fmt.Sprintf("takes %.0f-%.0f%% from predicted %s",
				incoming.MinPercent, incoming.MaxPercent, incoming.MoveID))
		}
	}

	rs.Survives = rs.HPAfterEntry-expectedDamage > 0
	if !rs.Survives {
		rs.Score = faintPenalty
		rs.Justification = strings.Join(append(parts, "faints on switch-in"), ", ")
		return rs
	}

	score := surviveBase + (rs.HPAfterEntry - expectedDamage)
	if theirs != nil && matchups != nil {
		if v, ok := matchups.For(p.Species, theirs.Species); ok {
			rs.Outcome = v.Outcome
			switch v.Outcome {
			case calc.OutcomeWin:
				score += winBonus + v.OurRemainingHP/2
				parts = append(parts, fmt.Sprintf("wins the one-on-one with %.0f%% left", v.OurRemainingHP))
			case calc.OutcomeDraw:
				score += drawBonus
				parts = append(parts, "one-on-one is a toss-up")
			case calc.OutcomeLose:
				parts = append(parts, "loses the one-on-one")
			}
		}
	}

	rs.Score = score
	rs.Justification = strings.Join(parts, ", ")
	return rs
}

// incomingDamage returns the hit the candidate should expect on entry: the
// predicted move's pre-computed result when available, otherwise the opposing
// active's strongest move. The second return reports the worst-case fallback.
func (r *SwitchRanker) incomingDamage(p *battle.Pokemon, expectedMove string, dmg *calc.DamageData) (*calc.DamageResult, bool) {
	if dmg == nil {
		return nil, false
	}
	id := dex.NormalizeID(p.Species)
	for i := range dmg.TheirVsBench {
		m := &dmg.TheirVsBench[i]
		if dex.NormalizeID(m.Defender) != id {
			continue
		}
		if expectedMove != "" {
			for j := range m.Results {
				if dex.NormalizeID(m.Results[j].MoveID) == expectedMove {
					return &m.Results[j], false
				}
			}
		}
		return m.Best(), true
	}
	return nil, false
}

// hazardDamage estimates entry damage from our side's hazards as a percent
// of max HP.
func (r *SwitchRanker) hazardDamage(p *battle.Pokemon, side *battle.Side) float64 {
	var total float64

	types := p.Types
	if len(types) == 0 && r.pokedex != nil {
		if sp, ok := r.pokedex.Lookup(p.Species); ok {
			types = sp.TypeList()
		}
	}

	if side.HasCondition(battle.ConditionStealthRock) {
		total += 12.5 * dex.EffectivenessAgainst(dex.TypeRock, types)
	}

	if layers := side.Conditions[battle.ConditionSpikes]; layers > 0 {
		grounded := !typeListHas(types, dex.TypeFlying) && dex.NormalizeID(p.Ability) != "levitate"
		if grounded {
			if layers > 3 {
				layers = 3
			}
			total += spikesDamage[layers]
		}
	}

	return total
}

func typeListHas(types []dex.Type, t dex.Type) bool {
	for _, have := range types {
		if have == t {
			return true
		}
	}
	return false
}
