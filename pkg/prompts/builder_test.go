package prompts

import (
	"strings"
	"testing"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/calc"
	"github.com/tailglowbot/tailglow/pkg/rank"
)

func buildSnapshot() *battle.Snapshot {
	return &battle.Snapshot{
		Turn: 5,
		Ours: battle.Side{Pokemon: []*battle.Pokemon{
			{Species: "Garchomp", HPPercent: 85, Active: true, Item: "Rocky Helmet"},
			{Species: "Heatran", HPPercent: 100},
		}},
		Theirs: battle.Side{Pokemon: []*battle.Pokemon{
			{Species: "Kingambit", HPPercent: 60, Active: true},
			{Species: "Gholdengo", HPPercent: 100},
		}},
		LegalMoves:    []string{"earthquake"},
		LegalSwitches: []string{"Heatran"},
		CanTera:       true,
	}
}

func TestBuilder_RequiresSnapshot(t *testing.T) {
	_, err := New().Build()
	if err == nil {
		t.Fatal("Expected error when snapshot is missing")
	}
}

func TestBuilder_FluentInterface(t *testing.T) {
	snap := buildSnapshot()
	b := New().
		WithSnapshot(snap).
		WithPredictedMove("Kingambit will use Sucker Punch").
		WithStrategy("Keep Heatran healthy").
		WithMemory("Turn 3: they revealed Leftovers")

	if b.snap != snap {
		t.Error("WithSnapshot did not set the snapshot")
	}
	if b.predictedMove == "" || b.strategy == "" || b.memory == "" {
		t.Error("fluent setters did not stick")
	}
}

func TestBuilder_Build_Sections(t *testing.T) {
	prompt, err := New().
		WithSnapshot(buildSnapshot()).
		WithRankedMoves([]rank.RankedMove{
			{MoveID: "earthquake", Score: 250, Justification: "60.0-72.0% damage, guaranteed KO"},
		}).
		WithRankedSwitches([]rank.RankedSwitch{
			{Species: "Heatran", Score: 180, HPAfterEntry: 87.5, Justification: "wins the one-on-one with 60% left"},
		}).
		WithSpeed(&calc.SpeedComparison{OurSpeed: 120, TheirSpeed: 90, WeOutspeed: true}).
		WithTypeMatchups([]string{"Your Earthquake (Ground) into Kingambit: super effective (2x)"}).
		WithPredictedMove("Kingambit will use Sucker Punch to pick off your weakened attacker.").
		WithStrategy("Preserve Heatran for Gholdengo.").
		WithMemory("They lost Dragonite turn 2.").
		WithRAGNotes([]string{"Kingambit saves Sucker Punch for sweepers."}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wantFragments := []string{
		"### Turn 5",
		"You can Terastallize this turn.",
		"Garchomp, 85% HP",
		"Kingambit, 60% HP",
		"Opponent has 2 Pokemon remaining.",
		"120 vs 90: we outspeed",
		"### Type matchups",
		"- Your Earthquake (Ground) into Kingambit: super effective (2x)",
		"Sucker Punch",
		"- Earthquake: 60.0-72.0% damage, guaranteed KO",
		"- Heatran, 88% HP after entry",
		"Preserve Heatran for Gholdengo.",
		"They lost Dragonite turn 2.",
		"- Kingambit saves Sucker Punch for sweepers.",
		"Choose your action for this turn.",
	}
	for _, want := range wantFragments {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q\n\nprompt:\n%s", want, prompt)
		}
	}
}

func TestBuilder_OmitsEmptySections(t *testing.T) {
	prompt, err := New().WithSnapshot(buildSnapshot()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, notWant := range []string{"### Speed", "### Type matchups", "### Predicted", "### Battle strategy", "### Relevant strategy notes"} {
		if strings.Contains(prompt, notWant) {
			t.Errorf("prompt should omit section %q when no data is set", notWant)
		}
	}
}

func TestBuilder_BeliefRendering(t *testing.T) {
	beliefs := battle.BeliefState{
		"kingambit": &battle.SpeciesBelief{
			Species:       "kingambit",
			RevealedMoves: map[string]bool{"suckerpunch": true},
			PossibleItems: []string{"leftovers", "blackglasses"},
		},
	}
	prompt, err := New().WithSnapshot(buildSnapshot()).WithBeliefs(beliefs).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(prompt, "Revealed moves: Suckerpunch") {
		t.Errorf("prompt missing revealed moves:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Possible items: Leftovers, Blackglasses") {
		t.Errorf("prompt missing possible items:\n%s", prompt)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"garchomp", "Garchomp"},
		{"iron-valiant", "Iron-Valiant"},
		{"stealth_rock", "Stealth Rock"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := DisplayName(tc.in); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
