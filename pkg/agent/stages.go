package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tailglowbot/tailglow/internal/services"
	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/calc"
	"github.com/tailglowbot/tailglow/pkg/dex"
	"github.com/tailglowbot/tailglow/pkg/prompts"
	"github.com/tailglowbot/tailglow/pkg/rag"
	"github.com/tailglowbot/tailglow/pkg/rank"
)

// Stage names, used as StageErrors keys.
const (
	StageDamage     = "damage"
	StageSpeed      = "speed"
	StageTypes      = "type_matchups"
	StageEffects    = "effects"
	StageRAG        = "rag"
	StageMatchups   = "matchups"
	StagePrediction = "prediction"
	StageMoves      = "rank_moves"
	StageSwitches   = "rank_switches"
	StageTera       = "tera"
	StageDecide     = "decide"
	StageMemory     = "memory"
)

// ragNoteLimit caps how many retrieved notes enter the decision prompt.
const ragNoteLimit = 3

// Engines bundles the deterministic engines and external services the
// pipeline stages depend on.
type Engines struct {
	Moves        *dex.MoveRegistry
	Pokedex      *dex.Pokedex
	Damage       *calc.DamageEngine
	Speed        *calc.SpeedEngine
	Matchup      *calc.MatchupSimulator
	MoveRanker   *rank.MoveRanker
	SwitchRanker *rank.SwitchRanker
	LLM          services.LLMService
	Retriever    rag.Retriever
	Logger       *slog.Logger
}

func (e Engines) damageStage() Stage {
	return Stage{Name: StageDamage, Run: func(ctx context.Context, st *TurnState) error {
		st.Damage = e.Damage.ComputeAll(st.Snapshot, st.Beliefs)
		return nil
	}}
}

func (e Engines) speedStage() Stage {
	return Stage{Name: StageSpeed, Run: func(ctx context.Context, st *TurnState) error {
		st.Speed = e.Speed.Compare(st.Snapshot, st.Beliefs)
		return nil
	}}
}

// typeMatchupsStage summarizes type effectiveness both ways for the active
// pairing: each of our damaging moves into them, their STAB into us, and
// warnings for exploitable immunities and 4x weaknesses.
func (e Engines) typeMatchupsStage() Stage {
	return Stage{Name: StageTypes, Run: func(ctx context.Context, st *TurnState) error {
		ours, theirs := st.Snapshot.OurActive(), st.Snapshot.TheirActive()
		if ours == nil || theirs == nil {
			return nil
		}

		var lines []string
		for _, moveID := range st.Snapshot.LegalMoves {
			move, ok := e.Moves.Lookup(moveID)
			if !ok || !move.IsDamaging() {
				continue
			}
			eff := dex.EffectivenessAgainst(dex.ParseType(move.Type), activeTypes(theirs))
			lines = append(lines, fmt.Sprintf("Your %s (%s) into %s: %s",
				move.Name, move.Type, prompts.DisplayName(theirs.Species),
				describeEffectiveness(eff)))
			if eff == 0 {
				lines = append(lines, fmt.Sprintf("Warning: %s does nothing to %s",
					move.Name, prompts.DisplayName(theirs.Species)))
			}
		}

		for _, stab := range activeTypes(theirs) {
			eff := dex.EffectivenessAgainst(stab, activeTypes(ours))
			lines = append(lines, fmt.Sprintf("Their %s STAB into you: %s",
				prompts.DisplayName(string(stab)), describeEffectiveness(eff)))
			if eff >= 4 {
				lines = append(lines, fmt.Sprintf("Warning: you are 4x weak to their %s STAB",
					prompts.DisplayName(string(stab))))
			}
		}

		if theirs.Terastallized && theirs.TeraType != "" {
			lines = append(lines, fmt.Sprintf("%s has Terastallized to %s.",
				prompts.DisplayName(theirs.Species), prompts.DisplayName(theirs.TeraType)))
		}

		st.TypeMatchups = lines
		return nil
	}}
}

// activeTypes is a Pokemon's current defensive and STAB typing; Terastallizing
// replaces it outright.
func activeTypes(p *battle.Pokemon) []dex.Type {
	if p.Terastallized && p.TeraType != "" {
		return []dex.Type{dex.ParseType(p.TeraType)}
	}
	return p.Types
}

func describeEffectiveness(mult float64) string {
	switch {
	case mult == 0:
		return "immune (0x)"
	case mult < 1:
		return fmt.Sprintf("not very effective (%gx)", mult)
	case mult == 1:
		return "neutral (1x)"
	default:
		return fmt.Sprintf("super effective (%gx)", mult)
	}
}

// effectsStage collects competitive notes for the revealed items, abilities,
// and moves in play, so the decision prompt does not assume the model knows
// every mechanic.
func (e Engines) effectsStage() Stage {
	return Stage{Name: StageEffects, Run: func(ctx context.Context, st *TurnState) error {
		var notes []string
		seen := make(map[string]bool)
		add := func(name, effect string) {
			if effect == "" || seen[name] {
				return
			}
			seen[name] = true
			notes = append(notes, fmt.Sprintf("%s: %s", prompts.DisplayName(name), effect))
		}

		theirs := st.Snapshot.TheirActive()
		if theirs != nil {
			if belief := st.Beliefs.Get(theirs.Species); belief != nil {
				if belief.RevealedItem != "" {
					add(belief.RevealedItem, dex.ItemEffect(belief.RevealedItem))
				}
				if belief.RevealedAbility != "" {
					add(belief.RevealedAbility, dex.AbilityEffect(belief.RevealedAbility))
				}
				for _, m := range belief.KnownMoves() {
					add(m, dex.MoveEffect(m))
				}
			}
		}
		if ours := st.Snapshot.OurActive(); ours != nil {
			add(ours.Item, dex.ItemEffect(ours.Item))
			add(ours.Ability, dex.AbilityEffect(ours.Ability))
		}

		st.EffectNotes = notes
		return nil
	}}
}

func (e Engines) ragStage() Stage {
	return Stage{Name: StageRAG, Run: func(ctx context.Context, st *TurnState) error {
		var keywords []string
		if p := st.Snapshot.TheirActive(); p != nil {
			keywords = append(keywords, dex.NormalizeID(p.Species))
			if belief := st.Beliefs.Get(p.Species); belief != nil {
				keywords = append(keywords, belief.KnownMoves()...)
			}
		}
		if p := st.Snapshot.OurActive(); p != nil {
			keywords = append(keywords, dex.NormalizeID(p.Species))
		}
		if len(keywords) == 0 {
			return nil
		}

		notes, err := e.Retriever.Retrieve(ctx, keywords, ragNoteLimit)
		if err != nil {
			return fmt.Errorf("note retrieval failed: %w", err)
		}
		st.RAGNotes = notes
		return nil
	}}
}

func (e Engines) matchupStage() Stage {
	return Stage{Name: StageMatchups, Run: func(ctx context.Context, st *TurnState) error {
		st.Matchups = e.Matchup.SimulateAll(st.Snapshot, st.Damage)
		return nil
	}}
}

func (e Engines) predictionStage() Stage {
	return Stage{Name: StagePrediction, Run: func(ctx context.Context, st *TurnState) error {
		user := prompts.PredictionUserPrompt(st.Snapshot, st.Beliefs, st.Damage, st.Speed)
		prediction, err := e.LLM.Generate(ctx, prompts.PredictionSystemPrompt, user)
		if err != nil {
			return fmt.Errorf("prediction call failed: %w", err)
		}
		st.PredictedMove = strings.TrimSpace(prediction)
		st.Predictions = ParsePredictions(prediction)
		return nil
	}}
}

func (e Engines) rankMovesStage() Stage {
	return Stage{Name: StageMoves, Run: func(ctx context.Context, st *TurnState) error {
		st.RankedMoves = e.MoveRanker.Rank(st.Snapshot, st.Damage)
		return nil
	}}
}

func (e Engines) rankSwitchesStage() Stage {
	return Stage{Name: StageSwitches, Run: func(ctx context.Context, st *TurnState) error {
		st.RankedSwitches = e.SwitchRanker.Rank(st.Snapshot, st.Damage, st.Matchups, st.ExpectedMove())
		return nil
	}}
}

// teraStage writes a short advisory on Terastallizing this turn.
func (e Engines) teraStage() Stage {
	return Stage{Name: StageTera, Run: func(ctx context.Context, st *TurnState) error {
		if !st.Snapshot.CanTera {
			return nil
		}
		ours, theirs := st.Snapshot.OurActive(), st.Snapshot.TheirActive()
		if ours == nil || theirs == nil || ours.TeraType == "" {
			return nil
		}

		teraType := dex.ParseType(ours.TeraType)
		var sb strings.Builder
		fmt.Fprintf(&sb, "Your Tera type is %s.", prompts.DisplayName(ours.TeraType))

		offense := dex.EffectivenessAgainst(teraType, theirs.Types)
		if offense >= 2 {
			fmt.Fprintf(&sb, " Tera %s attacks hit %s for %.0fx.",
				prompts.DisplayName(ours.TeraType), prompts.DisplayName(theirs.Species), offense)
		}

		// Terastallizing replaces our defensive typing entirely.
		var clears []string
		for _, moveID := range theirs.Moves {
			move, ok := e.Moves.Lookup(moveID)
			if !ok || !move.IsDamaging() {
				continue
			}
			moveType := dex.ParseType(move.Type)
			before := dex.EffectivenessAgainst(moveType, ours.Types)
			after := dex.Effectiveness(moveType, teraType)
			if before >= 2 && after < before {
				clears = append(clears, prompts.DisplayName(moveID))
			}
		}
		if len(clears) > 0 {
			fmt.Fprintf(&sb, " Terastallizing changes your weakness to %s.", strings.Join(clears, ", "))
		}

		st.TeraAdvice = sb.String()
		return nil
	}}
}

func (e Engines) decideStage() Stage {
	return Stage{Name: StageDecide, Run: func(ctx context.Context, st *TurnState) error {
		user, err := prompts.New().
			WithSnapshot(st.Snapshot).
			WithBeliefs(st.Beliefs).
			WithRankedMoves(st.RankedMoves).
			WithRankedSwitches(st.RankedSwitches).
			WithSpeed(st.Speed).
			WithDamage(st.Damage).
			WithMatchups(st.Matchups).
			WithTypeMatchups(st.TypeMatchups).
			WithPredictedMove(st.PredictedMove).
			WithStrategy(st.Strategy).
			WithMemory(st.Memory).
			WithRAGNotes(append(st.RAGNotes, st.EffectNotes...)).
			Build()
		if err != nil {
			return fmt.Errorf("failed to build decision prompt: %w", err)
		}
		if st.TeraAdvice != "" {
			user = st.TeraAdvice + "\n\n" + user
		}

		raw, err := e.LLM.Generate(ctx, prompts.DecisionSystemPrompt, user)
		if err != nil {
			return fmt.Errorf("decision call failed: %w", err)
		}
		st.RawDecision = raw
		return nil
	}}
}

func (e Engines) memoryStage(turnSummary string) Stage {
	return Stage{Name: StageMemory, Run: func(ctx context.Context, st *TurnState) error {
		user := prompts.MemoryUserPrompt(st.Memory, turnSummary)
		notes, err := e.LLM.Generate(ctx, prompts.MemorySystemPrompt, user)
		if err != nil {
			return fmt.Errorf("memory call failed: %w", err)
		}
		st.Memory = strings.TrimSpace(notes)
		return nil
	}}
}

// summarizeTurn renders what the decision stage concluded, for the memory
// update.
func summarizeTurn(st *TurnState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Turn %d.", st.Snapshot.Turn)
	if ours := st.Snapshot.OurActive(); ours != nil {
		fmt.Fprintf(&sb, " Your %s (%.0f%% HP)", prompts.DisplayName(ours.Species), ours.HPPercent)
		if theirs := st.Snapshot.TheirActive(); theirs != nil {
			fmt.Fprintf(&sb, " vs their %s (%.0f%% HP)", prompts.DisplayName(theirs.Species), theirs.HPPercent)
		}
		sb.WriteString(".")
	}
	if st.Decision != nil {
		switch st.Decision.Type {
		case ActionSwitch:
			fmt.Fprintf(&sb, " You chose to switch to %s.", prompts.DisplayName(st.Decision.Target))
		default:
			fmt.Fprintf(&sb, " You chose %s.", prompts.DisplayName(st.Decision.Target))
		}
		if st.Decision.Reasoning != "" {
			fmt.Fprintf(&sb, " Reasoning: %s", st.Decision.Reasoning)
		}
	}
	if theirs := st.Snapshot.TheirActive(); theirs != nil {
		if boosts := describeBoosts(theirs); boosts != "" {
			fmt.Fprintf(&sb, " Their %s is at %s.", prompts.DisplayName(theirs.Species), boosts)
		}
	}
	if st.PredictedMove != "" {
		fmt.Fprintf(&sb, " Predicted opponent action: %s", st.PredictedMove)
	}
	return sb.String()
}

func describeBoosts(p *battle.Pokemon) string {
	if p == nil || len(p.Boosts) == 0 {
		return ""
	}
	var parts []string
	for stat, stage := range p.Boosts {
		if stage != 0 {
			parts = append(parts, fmt.Sprintf("%s %+d", stat, stage))
		}
	}
	return strings.Join(parts, " ")
}
