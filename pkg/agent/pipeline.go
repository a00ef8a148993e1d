package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/dex"
	"github.com/tailglowbot/tailglow/pkg/prompts"
)

// Pipeline runs the per-turn decision flow. It is stateless between turns;
// Session owns everything that persists.
type Pipeline struct {
	engines Engines
	logger  *slog.Logger
}

// NewPipeline creates a pipeline over a set of engines.
func NewPipeline(engines Engines) *Pipeline {
	logger := engines.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{engines: engines, logger: logger}
}

// DecideTurn runs the full pipeline on a prepared turn state and returns the
// decision. It always returns a decision: if every LLM call fails, the
// fallback path picks a legal action deterministically.
func (p *Pipeline) DecideTurn(ctx context.Context, st *TurnState) (*Decision, error) {
	if st.Snapshot == nil {
		return nil, fmt.Errorf("turn state has no snapshot")
	}

	if st.Snapshot.MustSwitch() {
		return p.decideForcedSwitch(ctx, st)
	}

	e := p.engines

	// Deterministic analysis. Damage feeds matchups, so they are split
	// across two phases.
	runPhase(ctx, st, p.logger,
		e.damageStage(),
		e.speedStage(),
		e.typeMatchupsStage(),
		e.effectsStage(),
		e.ragStage(),
	)
	runPhase(ctx, st, p.logger, e.matchupStage())

	// Opponent prediction runs alone: the ranking stages want its output in
	// the prompt and the decision stage needs everything.
	runPhase(ctx, st, p.logger, e.predictionStage())

	runPhase(ctx, st, p.logger,
		e.rankMovesStage(),
		e.rankSwitchesStage(),
		e.teraStage(),
	)

	runPhase(ctx, st, p.logger, e.decideStage())
	p.resolveDecision(st)

	runPhase(ctx, st, p.logger, e.memoryStage(summarizeTurn(st)))

	return st.Decision, nil
}

// decideForcedSwitch handles turns where a move is impossible: the active
// fainted or a pivot effect demands a replacement. Move ranking and move
// prediction are skipped entirely.
func (p *Pipeline) decideForcedSwitch(ctx context.Context, st *TurnState) (*Decision, error) {
	e := p.engines

	if len(st.Snapshot.LegalSwitches) == 0 {
		return nil, fmt.Errorf("forced switch with no legal switches")
	}

	runPhase(ctx, st, p.logger,
		e.damageStage(),
		e.effectsStage(),
	)
	runPhase(ctx, st, p.logger, e.matchupStage())
	runPhase(ctx, st, p.logger, e.rankSwitchesStage())

	// One switch means no decision to make.
	if len(st.Snapshot.LegalSwitches) == 1 {
		st.Decision = &Decision{
			Type:      ActionSwitch,
			Target:    dex.NormalizeID(st.Snapshot.LegalSwitches[0]),
			Reasoning: "Only one Pokemon can come in.",
		}
		return st.Decision, nil
	}

	runPhase(ctx, st, p.logger, e.decideStage())
	p.resolveDecision(st)

	// The forced path must produce a switch no matter what came back.
	if st.Decision.Type != ActionSwitch {
		p.logger.Warn("forced switch got a move decision, overriding",
			"target", st.Decision.Target)
		st.Decision = p.bestRankedSwitch(st)
	}
	return st.Decision, nil
}

// resolveDecision parses the raw response and replaces anything unusable
// with the deterministic fallback.
func (p *Pipeline) resolveDecision(st *TurnState) {
	raw := st.RawDecision
	if raw == "" {
		raw = FallbackText(st.Snapshot)
		p.logger.Warn("no decision response, using fallback", "action", raw)
	}

	d := ParseDecision(raw)
	if err := ValidateDecision(d, st.Snapshot); err != nil {
		p.logger.Warn("decision failed validation, using fallback",
			"error", err, "raw", truncate(st.RawDecision, 120))
		d = ParseDecision(FallbackText(st.Snapshot))
		d.Fallback = true
	}
	if st.RawDecision == "" {
		d.Fallback = true
	}
	st.Decision = d
}

// bestRankedSwitch builds a switch decision from the ranking output, falling
// back to the first legal switch when ranking produced nothing.
func (p *Pipeline) bestRankedSwitch(st *TurnState) *Decision {
	if len(st.RankedSwitches) > 0 {
		best := st.RankedSwitches[0]
		return &Decision{
			Type:      ActionSwitch,
			Target:    dex.NormalizeID(best.Species),
			Reasoning: best.Justification,
			Fallback:  true,
		}
	}
	return &Decision{
		Type:     ActionSwitch,
		Target:   dex.NormalizeID(st.Snapshot.LegalSwitches[0]),
		Fallback: true,
	}
}

// AnalyzeTeam runs the turn-one sub-pipeline: team analysis, then strategy
// against the opposing lead. Both results land on the turn state; either
// call failing leaves its field empty.
func (p *Pipeline) AnalyzeTeam(ctx context.Context, st *TurnState) {
	e := p.engines

	analysis, err := e.LLM.Generate(ctx, prompts.TeamAnalysisSystemPrompt,
		prompts.TeamAnalysisUserPrompt(&st.Snapshot.Ours))
	if err != nil {
		p.logger.Warn("team analysis failed", "error", err)
		st.StageErrors["team_analysis"] = err
		return
	}
	st.TeamAnalysis = strings.TrimSpace(analysis)

	lead := st.Snapshot.TheirActive()
	if lead == nil {
		return
	}
	strategy, err := e.LLM.Generate(ctx, prompts.StrategySystemPrompt,
		prompts.StrategyUserPrompt(st.TeamAnalysis, lead.Species))
	if err != nil {
		p.logger.Warn("strategy call failed", "error", err)
		st.StageErrors["strategy"] = err
		return
	}
	st.Strategy = strings.TrimSpace(strategy)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Session carries one battle's persistent state across turns and drives the
// pipeline for each snapshot the client delivers.
type Session struct {
	pipeline *Pipeline
	sets     *dex.SetData
	logger   *slog.Logger

	beliefs      battle.BeliefState
	teamAnalysis string
	strategy     string
	memory       string
	analyzed     bool
}

// NewSession creates a session for one battle.
func NewSession(pipeline *Pipeline, sets *dex.SetData, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		pipeline: pipeline,
		sets:     sets,
		logger:   logger,
		beliefs:  battle.BeliefState{},
	}
}

// Decide processes one snapshot and returns the action to take. Belief
// state, strategy, and battle notes carry over to the next call.
func (s *Session) Decide(ctx context.Context, snap *battle.Snapshot) (*Decision, error) {
	s.beliefs = battle.UpdateBeliefs(s.beliefs, snap, s.sets)

	st := NewTurnState(snap)
	st.Beliefs = s.beliefs
	st.Sets = s.sets
	st.TeamAnalysis = s.teamAnalysis
	st.Strategy = s.strategy
	st.Memory = s.memory

	if !s.analyzed && !snap.MustSwitch() {
		s.pipeline.AnalyzeTeam(ctx, st)
		s.analyzed = true
		s.teamAnalysis = st.TeamAnalysis
		s.strategy = st.Strategy
	}

	decision, err := s.pipeline.DecideTurn(ctx, st)
	if err != nil {
		return nil, err
	}
	s.memory = st.Memory

	if len(st.StageErrors) > 0 {
		for stage, stageErr := range st.StageErrors {
			s.logger.Debug("stage error this turn", "stage", stage, "error", stageErr)
		}
	}
	s.logger.Info("turn decided",
		"battle", snap.BattleTag,
		"turn", snap.Turn,
		"action", decision.Type,
		"target", decision.Target,
		"fallback", decision.Fallback)
	return decision, nil
}

// Memory exposes the running battle notes, mainly for rendering.
func (s *Session) Memory() string { return s.memory }

// Strategy exposes the battle strategy text.
func (s *Session) Strategy() string { return s.strategy }
