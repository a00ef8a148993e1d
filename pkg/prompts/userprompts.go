package prompts

import (
	"fmt"
	"strings"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/calc"
)

// PredictionUserPrompt renders the state the expected-move call needs.
func PredictionUserPrompt(snap *battle.Snapshot, beliefs battle.BeliefState, damage *calc.DamageData, speed *calc.SpeedComparison) string {
	var sb strings.Builder

	ours, theirs := snap.OurActive(), snap.TheirActive()
	if ours != nil && theirs != nil {
		fmt.Fprintf(&sb, "Opponent's %s (%.0f%% HP) is facing your %s (%.0f%% HP).\n",
			DisplayName(theirs.Species), theirs.HPPercent, DisplayName(ours.Species), ours.HPPercent)
	}
	if speed != nil {
		fmt.Fprintf(&sb, "Speed: %s\n", speed.Summary())
	}

	if theirs != nil {
		if belief := beliefs.Get(theirs.Species); belief != nil {
			if known := belief.KnownMoves(); len(known) > 0 {
				fmt.Fprintf(&sb, "Revealed moves: %s\n", joinDisplay(known))
			}
			if unrevealed := belief.UnrevealedMoves(); len(unrevealed) > 0 {
				fmt.Fprintf(&sb, "Other possible moves: %s\n", joinDisplay(unrevealed))
			}
		}
	}

	if damage != nil && damage.TheirVsActive != nil && len(damage.TheirVsActive.Results) > 0 {
		sb.WriteString("Damage their moves would deal to you:\n")
		for _, r := range damage.TheirVsActive.Results {
			writeDamageLine(&sb, r)
		}
	}
	if damage != nil && damage.OurVsActive != nil {
		if best := damage.OurVsActive.Best(); best != nil {
			fmt.Fprintf(&sb, "Your best move against them deals up to %.1f%%", best.MaxPercent)
			if best.KOChance != "" {
				fmt.Fprintf(&sb, " (%s KO)", best.KOChance)
			}
			sb.WriteString(", which they may play around.\n")
		}
	}

	sb.WriteString("\nWhat will the opponent most likely do this turn?\n")
	return sb.String()
}

// TeamAnalysisUserPrompt renders our full team for the turn-one review.
func TeamAnalysisUserPrompt(side *battle.Side) string {
	var sb strings.Builder
	sb.WriteString("Your team:\n\n")
	for _, p := range side.Pokemon {
		fmt.Fprintf(&sb, "%s", DisplayName(p.Species))
		if len(p.Types) > 0 {
			types := make([]string, len(p.Types))
			for i, t := range p.Types {
				types[i] = DisplayName(string(t))
			}
			fmt.Fprintf(&sb, " (%s)", strings.Join(types, "/"))
		}
		sb.WriteString("\n")
		if len(p.Moves) > 0 {
			fmt.Fprintf(&sb, "  Moves: %s\n", joinDisplay(p.Moves))
		}
		if p.Item != "" {
			fmt.Fprintf(&sb, "  Item: %s\n", DisplayName(p.Item))
		}
		if p.Ability != "" {
			fmt.Fprintf(&sb, "  Ability: %s\n", DisplayName(p.Ability))
		}
		if len(p.Stats) > 0 {
			fmt.Fprintf(&sb, "  Stats: %d HP / %d Atk / %d Def / %d SpA / %d SpD / %d Spe\n",
				p.Stats["hp"], p.Stats["atk"], p.Stats["def"], p.Stats["spa"], p.Stats["spd"], p.Stats["spe"])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// StrategyUserPrompt renders the strategy call input.
func StrategyUserPrompt(teamAnalysis, opposingLead string) string {
	var sb strings.Builder
	sb.WriteString("Your team analysis:\n")
	sb.WriteString(teamAnalysis)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "The opponent leads with %s.\n", DisplayName(opposingLead))
	sb.WriteString("Write your battle strategy.\n")
	return sb.String()
}

// MemoryUserPrompt renders the notes-update call input.
func MemoryUserPrompt(previousNotes, turnSummary string) string {
	var sb strings.Builder
	if previousNotes != "" {
		sb.WriteString("Previous notes:\n")
		sb.WriteString(previousNotes)
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("No previous notes; this is the start of the battle.\n\n")
	}
	sb.WriteString("This turn:\n")
	sb.WriteString(turnSummary)
	sb.WriteString("\n\nWrite the updated notes.\n")
	return sb.String()
}
