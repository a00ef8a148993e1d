package calc

import (
	"fmt"
	"log/slog"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/dex"
)

// DefaultSpeed is used when no stat data exists for a Pokemon. The speed
// comparison must always produce an answer.
const DefaultSpeed = 100

// StageMultiplier converts a stat boost stage to its multiplier.
func StageMultiplier(stage int) float64 {
	if stage > 6 {
		stage = 6
	} else if stage < -6 {
		stage = -6
	}
	if stage >= 0 {
		return float64(2+stage) / 2
	}
	return 2 / float64(2-stage)
}

// PriorityMove is a legal or plausible move with non-zero priority.
type PriorityMove struct {
	MoveID      string
	Priority    int
	IsEstimated bool
}

// SpeedComparison is the full speed picture for the two active Pokemon.
type SpeedComparison struct {
	OurSpeed            int
	TheirSpeed          int
	TheirSpeedWithScarf int // 0 when Choice Scarf is ruled out
	WeOutspeed          bool
	OutspeedIfScarf     bool
	TrickRoom           bool
	OurPriorityMoves    []PriorityMove
	TheirPriorityMoves  []PriorityMove
	Notes               []string
}

// Summary renders a one-line ordering verdict.
func (s *SpeedComparison) Summary() string {
	verb := "outspeeds us"
	if s.WeOutspeed {
		verb = "we outspeed"
	}
	line := fmt.Sprintf("%d vs %d: %s", s.OurSpeed, s.TheirSpeed, verb)
	if s.TrickRoom {
		line += " (Trick Room)"
	}
	return line
}

// SpeedEngine computes effective speeds with boosts, status, and field
// conditions applied.
type SpeedEngine struct {
	moves     *dex.MoveRegistry
	estimator *battle.StatEstimator
	logger    *slog.Logger
}

// NewSpeedEngine creates a speed engine.
func NewSpeedEngine(moves *dex.MoveRegistry, estimator *battle.StatEstimator, logger *slog.Logger) *SpeedEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeedEngine{moves: moves, estimator: estimator, logger: logger}
}

// Compare builds the speed comparison for the current actives. It never
// fails: missing stat data falls back to DefaultSpeed. Returns nil only when
// an active slot is empty.
func (e *SpeedEngine) Compare(snap *battle.Snapshot, beliefs battle.BeliefState) *SpeedComparison {
	ours, theirs := snap.OurActive(), snap.TheirActive()
	if ours == nil || theirs == nil {
		return nil
	}

	cmp := &SpeedComparison{TrickRoom: snap.HasField(battle.FieldTrickRoom)}

	cmp.OurSpeed = e.effectiveSpeed(ours, &snap.Ours)
	cmp.TheirSpeed = e.effectiveSpeed(theirs, &snap.Theirs)

	// A Choice Scarf on the opponent changes who moves first; surface the
	// hypothetical only while the item is still plausible.
	if theirs.Item == "" && beliefs.Get(theirs.Species).CouldHoldItem("choicescarf") {
		cmp.TheirSpeedWithScarf = int(float64(cmp.TheirSpeed) * 1.5)
	} else if dex.NormalizeID(theirs.Item) == "choicescarf" {
		cmp.TheirSpeed = int(float64(cmp.TheirSpeed) * 1.5)
		cmp.Notes = append(cmp.Notes, "opponent holds Choice Scarf")
	}

	if cmp.TrickRoom {
		cmp.WeOutspeed = cmp.OurSpeed < cmp.TheirSpeed
		cmp.OutspeedIfScarf = cmp.TheirSpeedWithScarf == 0 || cmp.OurSpeed < cmp.TheirSpeedWithScarf
		cmp.Notes = append(cmp.Notes, "Trick Room inverts move order")
	} else {
		cmp.WeOutspeed = cmp.OurSpeed > cmp.TheirSpeed
		cmp.OutspeedIfScarf = cmp.TheirSpeedWithScarf == 0 || cmp.OurSpeed > cmp.TheirSpeedWithScarf
	}

	for _, m := range snap.LegalMoves {
		if p, ok := e.priorityOf(m); ok {
			cmp.OurPriorityMoves = append(cmp.OurPriorityMoves, PriorityMove{MoveID: dex.NormalizeID(m), Priority: p})
		}
	}
	for _, entry := range EstimateMoveset(e.moves, theirs, beliefs) {
		if p, ok := e.priorityOf(entry.MoveID); ok {
			cmp.TheirPriorityMoves = append(cmp.TheirPriorityMoves, PriorityMove{
				MoveID:      entry.MoveID,
				Priority:    p,
				IsEstimated: entry.IsEstimated,
			})
		}
	}

	return cmp
}

func (e *SpeedEngine) priorityOf(moveID string) (int, bool) {
	move, ok := e.moves.Lookup(moveID)
	if !ok || move.Priority <= 0 {
		return 0, false
	}
	return move.Priority, true
}

func (e *SpeedEngine) effectiveSpeed(p *battle.Pokemon, side *battle.Side) int {
	base := DefaultSpeed
	if stats, ok := e.estimator.For(p); ok && stats.Spe > 0 {
		base = stats.Spe
	} else {
		e.logger.Debug("speed fallback", "species", p.Species, "speed", DefaultSpeed)
	}

	speed := float64(base) * StageMultiplier(p.Boost("spe"))
	if p.Status == battle.StatusParalysis {
		speed *= 0.5
	}
	if side.HasCondition(battle.ConditionTailwind) {
		speed *= 2
	}
	return int(speed)
}
