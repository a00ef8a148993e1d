// Command localbattle runs the decision pipeline offline against a scripted
// battle, with a mock LLM standing in for the real provider. Useful for
// eyeballing prompts, rankings, and fallback behavior without a server or an
// API key.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tailglowbot/tailglow/internal/services"
	"github.com/tailglowbot/tailglow/pkg/agent"
	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/calc"
	"github.com/tailglowbot/tailglow/pkg/dex"
	"github.com/tailglowbot/tailglow/pkg/rag"
	"github.com/tailglowbot/tailglow/pkg/rank"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	turnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	oursStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	theirsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Bold(true)

	reasoningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 2)

	hpHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	hpMidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	hpLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	mock := services.NewMockLLMAPI()
	mock.Responses = []string{
		"Team analysis: Garchomp is the physical breaker; Azumarill answers opposing Fire-types.",
		"Strategy: lead with ground coverage and keep Azumarill healthy as the Heatran answer.",
		"Heatran likely clicks Magma Storm to trap us.",
		"REASONING: Earthquake is 4x effective on Heatran and we outspeed, so we take the KO line now.\nACTION: Earthquake",
		"Turn 1: Earthquake chunked Heatran; it stayed in.",
		"Heatran is in KO range and may switch out.",
		"REASONING: Staying in is still right; Earthquake finishes Heatran even through a cautious play.\nACTION: Earthquake",
		"Turn 2: Heatran fainted to Earthquake.",
	}

	session := agent.NewSession(agent.NewPipeline(demoEngines(mock, logger)), nil, logger)

	fmt.Println(titleStyle.Render("TAIL GLOW") + "  local battle (mock LLM)")
	fmt.Println()

	for turn, snap := range scriptedTurns() {
		decision, err := session.Decide(context.Background(), snap)
		if err != nil {
			logger.Error("turn failed", "turn", snap.Turn, "error", err)
			os.Exit(1)
		}
		fmt.Println(renderTurn(snap, decision))
		if turn == 0 {
			fmt.Println(reasoningStyle.Render("strategy: " + session.Strategy()))
			fmt.Println()
		}
	}

	fmt.Println(titleStyle.Render("battle script complete"))
	fmt.Println(reasoningStyle.Render("final notes: " + session.Memory()))
}

func demoEngines(llm services.LLMService, logger *slog.Logger) agent.Engines {
	moves := dex.NewMoveRegistry(
		dex.Move{ID: "earthquake", Name: "Earthquake", Type: "ground", Category: dex.CategoryPhysical, BasePower: 100, Accuracy: 100},
		dex.Move{ID: "dragonclaw", Name: "Dragon Claw", Type: "dragon", Category: dex.CategoryPhysical, BasePower: 80, Accuracy: 100},
		dex.Move{ID: "swordsdance", Name: "Swords Dance", Type: "normal", Category: dex.CategoryStatus},
		dex.Move{ID: "magmastorm", Name: "Magma Storm", Type: "fire", Category: dex.CategorySpecial, BasePower: 100, Accuracy: 75},
		dex.Move{ID: "earthpower", Name: "Earth Power", Type: "ground", Category: dex.CategorySpecial, BasePower: 90, Accuracy: 100},
		dex.Move{ID: "aquajet", Name: "Aqua Jet", Type: "water", Category: dex.CategoryPhysical, BasePower: 40, Accuracy: 100, Priority: 1},
		dex.Move{ID: "playrough", Name: "Play Rough", Type: "fairy", Category: dex.CategoryPhysical, BasePower: 90, Accuracy: 90},
	)
	pokedex := dex.NewPokedex(
		dex.Species{Name: "Garchomp", Types: []string{"Dragon", "Ground"}, BaseStats: dex.BaseStats{HP: 108, Atk: 130, Def: 95, SpA: 80, SpD: 85, Spe: 102}},
		dex.Species{Name: "Heatran", Types: []string{"Fire", "Steel"}, BaseStats: dex.BaseStats{HP: 91, Atk: 90, Def: 106, SpA: 130, SpD: 106, Spe: 77}},
		dex.Species{Name: "Azumarill", Types: []string{"Water", "Fairy"}, BaseStats: dex.BaseStats{HP: 100, Atk: 50, Def: 80, SpA: 60, SpD: 80, Spe: 50}},
	)
	estimator := battle.NewStatEstimator(pokedex, nil, logger)

	return agent.Engines{
		Moves:        moves,
		Pokedex:      pokedex,
		Damage:       calc.NewDamageEngine(moves, estimator, logger),
		Speed:        calc.NewSpeedEngine(moves, estimator, logger),
		Matchup:      calc.NewMatchupSimulator(estimator, logger),
		MoveRanker:   rank.NewMoveRanker(moves, logger),
		SwitchRanker: rank.NewSwitchRanker(pokedex, logger),
		LLM:          llm,
		Retriever:    rag.Noop{},
		Logger:       logger,
	}
}

// scriptedTurns is a short fixed battle: Garchomp against a weakening Heatran.
func scriptedTurns() []*battle.Snapshot {
	turn := func(n int, theirHP float64, ourHP float64) *battle.Snapshot {
		return &battle.Snapshot{
			BattleTag: "local-battle-1",
			Turn:      n,
			Ours: battle.Side{Pokemon: []*battle.Pokemon{
				{Species: "Garchomp", Level: 100, Types: []dex.Type{dex.TypeDragon, dex.TypeGround},
					HPPercent: ourHP, Active: true,
					Stats: map[string]int{"hp": 357, "atk": 359, "def": 267, "spa": 207, "spd": 247, "spe": 281},
					Moves: []string{"earthquake", "dragonclaw", "swordsdance"}},
				{Species: "Azumarill", Level: 100, Types: []dex.Type{dex.TypeWater, dex.TypeFairy}, HPPercent: 100,
					Stats: map[string]int{"hp": 341, "atk": 157, "def": 217, "spa": 177, "spd": 217, "spe": 157},
					Moves: []string{"aquajet", "playrough"}},
			}},
			Theirs: battle.Side{Pokemon: []*battle.Pokemon{
				{Species: "Heatran", Level: 100, Types: []dex.Type{dex.TypeFire, dex.TypeSteel},
					HPPercent: theirHP, Active: true,
					Moves: []string{"magmastorm"}},
			}},
			LegalMoves:    []string{"earthquake", "dragonclaw", "swordsdance"},
			LegalSwitches: []string{"Azumarill"},
		}
	}

	return []*battle.Snapshot{
		turn(1, 100, 100),
		turn(2, 42, 81),
	}
}

func renderTurn(snap *battle.Snapshot, d *agent.Decision) string {
	var b strings.Builder

	b.WriteString(turnStyle.Render(fmt.Sprintf("Turn %d", snap.Turn)) + "\n\n")

	ours := snap.OurActive()
	theirs := snap.TheirActive()
	b.WriteString(oursStyle.Render(fmt.Sprintf("%-10s", ours.Species)) + " " + hpBar(ours.HPPercent) + "\n")
	b.WriteString(theirsStyle.Render(fmt.Sprintf("%-10s", theirs.Species)) + " " + hpBar(theirs.HPPercent) + "\n\n")

	action := string(d.Type) + " " + d.Target
	if d.Tera {
		action += " (terastallize)"
	}
	if d.Fallback {
		action += " [fallback]"
	}
	b.WriteString(actionStyle.Render("-> "+action) + "\n")
	if d.Reasoning != "" {
		b.WriteString(reasoningStyle.Render(d.Reasoning) + "\n")
	}

	return panelStyle.Width(72).Render(b.String()) + "\n"
}

// hpBar renders a 30-cell health bar colored by remaining HP.
func hpBar(percent float64) string {
	const cells = 30
	filled := int(percent / 100 * cells)
	if filled < 0 {
		filled = 0
	}
	if filled > cells {
		filled = cells
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", cells-filled)
	label := fmt.Sprintf(" %3.0f%%", percent)

	style := hpHighStyle
	switch {
	case percent <= 25:
		style = hpLowStyle
	case percent <= 55:
		style = hpMidStyle
	}
	return style.Render(bar) + label
}
