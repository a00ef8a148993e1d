// Package agent orchestrates the per-turn decision pipeline: deterministic
// analysis stages feed LLM calls that produce the turn's action.
package agent

import (
	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/calc"
	"github.com/tailglowbot/tailglow/pkg/dex"
	"github.com/tailglowbot/tailglow/pkg/rank"
)

// ActionType is the kind of action a decision selects.
type ActionType string

const (
	ActionMove   ActionType = "move"
	ActionSwitch ActionType = "switch"
)

// Decision is the parsed outcome of a turn.
type Decision struct {
	Type      ActionType
	Target    string // move ID, or species to switch to
	Reasoning string
	Tera      bool // Terastallize alongside the move
	Fallback  bool // produced by the failure path, not the LLM
}

// TurnState carries everything computed during one turn. Each stage writes
// only its own fields, so stages in the same phase can run concurrently
// without coordination.
type TurnState struct {
	// Inputs, set before any stage runs.
	Snapshot *battle.Snapshot
	Beliefs  battle.BeliefState
	Sets     *dex.SetData

	// Carried across turns by the session.
	TeamAnalysis string
	Strategy     string
	Memory       string

	// Phase 1 analysis outputs.
	Damage       *calc.DamageData
	Speed        *calc.SpeedComparison
	Matchups     calc.MatchupTable
	TypeMatchups []string
	EffectNotes  []string
	RAGNotes     []string

	// Prediction outputs. PredictedMove carries the full response text for
	// the decision prompt; Predictions is the parsed ranked list.
	PredictedMove string
	Predictions   []PredictedAction

	// Phase 2 outputs.
	RankedMoves    []rank.RankedMove
	RankedSwitches []rank.RankedSwitch
	TeraAdvice     string

	// Decision outputs.
	RawDecision string
	Decision    *Decision

	// StageErrors maps stage name to its failure. A failed stage leaves its
	// output fields zero; later stages and the prompt builder treat that as
	// "no information".
	StageErrors map[string]error
}

// NewTurnState creates a turn state for a snapshot.
func NewTurnState(snap *battle.Snapshot) *TurnState {
	return &TurnState{
		Snapshot:    snap,
		Beliefs:     battle.BeliefState{},
		StageErrors: make(map[string]error),
	}
}

// Failed reports whether a named stage recorded an error.
func (st *TurnState) Failed(stage string) bool {
	_, ok := st.StageErrors[stage]
	return ok
}

// ExpectedMove returns the likeliest predicted opponent move, or "" when the
// prediction favored a switch, failed, or did not parse.
func (st *TurnState) ExpectedMove() string {
	for _, p := range st.Predictions {
		if p.Type == ActionMove {
			return p.Target
		}
	}
	return ""
}
