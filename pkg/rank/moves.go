// Package rank turns raw calculation output into scored, justified action
// candidates for the decision prompt.
package rank

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/calc"
	"github.com/tailglowbot/tailglow/pkg/dex"
)

// Score bonuses for move ranking.
const (
	guaranteedKOBonus = 200.0
)

// Choice items lock the holder into its first move.
var choiceItems = map[string]bool{
	"choiceband":  true,
	"choicespecs": true,
	"choicescarf": true,
}

// RankedMove is one scored move candidate with a human-readable case for it.
type RankedMove struct {
	MoveID        string
	Score         float64
	MinPercent    float64
	MaxPercent    float64
	KOChance      string
	Justification string
}

// MoveRanker scores the legal moves of our active Pokemon.
type MoveRanker struct {
	moves  *dex.MoveRegistry
	logger *slog.Logger
}

// NewMoveRanker creates a move ranker.
func NewMoveRanker(moves *dex.MoveRegistry, logger *slog.Logger) *MoveRanker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MoveRanker{moves: moves, logger: logger}
}

// Rank scores every legal move against the opposing active, sorted by score
// descending. A choice-locked Pokemon short-circuits to its single legal
// move. Status moves are listed unscored so the decision prompt still sees
// them.
func (r *MoveRanker) Rank(snap *battle.Snapshot, dmg *calc.DamageData) []RankedMove {
	if len(snap.LegalMoves) == 0 {
		return nil
	}

	if locked, moveID := r.choiceLocked(snap); locked {
		return []RankedMove{{
			MoveID:        moveID,
			Score:         guaranteedKOBonus,
			Justification: "choice locked, only usable move",
		}}
	}

	var (
		active *calc.MatchupDamage
		bench  []calc.MatchupDamage
	)
	if dmg != nil {
		active = dmg.OurVsActive
		bench = dmg.OurVsBench
	}

	ranked := make([]RankedMove, 0, len(snap.LegalMoves))
	for _, m := range snap.LegalMoves {
		ranked = append(ranked, r.scoreMove(m, active, bench))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func (r *MoveRanker) choiceLocked(snap *battle.Snapshot) (bool, string) {
	active := snap.OurActive()
	if active == nil || len(snap.LegalMoves) != 1 {
		return false, ""
	}
	if !choiceItems[dex.NormalizeID(active.Item)] {
		return false, ""
	}
	return true, dex.NormalizeID(snap.LegalMoves[0])
}

func (r *MoveRanker) scoreMove(moveID string, active *calc.MatchupDamage, bench []calc.MatchupDamage) RankedMove {
	id := dex.NormalizeID(moveID)
	rm := RankedMove{MoveID: id}

	move, known := r.moves.Lookup(id)
	if known && !move.IsDamaging() {
		rm.Justification = "status move, not scored on damage"
		return rm
	}

	var result *calc.DamageResult
	if active != nil {
		result = active.ForMove(id)
	}
	if result == nil {
		rm.Justification = "no damage data"
		return rm
	}

	rm.MinPercent = result.MinPercent
	rm.MaxPercent = result.MaxPercent
	rm.KOChance = result.KOChance

	score := (result.MinPercent + result.MaxPercent) / 2
	parts := []string{fmt.Sprintf("%.1f-%.1f%% damage", result.MinPercent, result.MaxPercent)}

	switch {
	case result.KOChance == calc.KOGuaranteed:
		score += guaranteedKOBonus
		parts = append(parts, "guaranteed KO")
	case result.KOChance != "":
		if pct, err := strconv.ParseFloat(strings.TrimSuffix(result.KOChance, "%"), 64); err == nil {
			score += pct
			parts = append(parts, result.KOChance+" chance to KO")
		}
	}

	if known && move.Accuracy > 0 && move.Accuracy < 100 {
		score *= float64(move.Accuracy) / 100
		parts = append(parts, fmt.Sprintf("%d%% accuracy", move.Accuracy))
	}

	// Coverage into their bench matters when they pivot out of the hit.
	koCount := 0
	for i := range bench {
		if res := bench[i].ForMove(id); res != nil && res.KOChance == calc.KOGuaranteed {
			koCount++
		}
	}
	if koCount > 0 {
		parts = append(parts, fmt.Sprintf("KOs %d bench Pokemon", koCount))
	}

	if known && move.Priority > 0 {
		parts = append(parts, fmt.Sprintf("+%d priority", move.Priority))
	} else if known && move.Priority < 0 {
		parts = append(parts, fmt.Sprintf("%d priority (moves last)", move.Priority))
	}

	rm.Score = score
	rm.Justification = strings.Join(parts, ", ")
	return rm
}
