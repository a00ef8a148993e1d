package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailglowbot/tailglow/internal/services"
	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/calc"
	"github.com/tailglowbot/tailglow/pkg/dex"
	"github.com/tailglowbot/tailglow/pkg/rank"
)

func testEngines(llm services.LLMService) Engines {
	moves := dex.NewMoveRegistry(
		dex.Move{ID: "earthquake", Name: "Earthquake", Type: "Ground", Category: dex.CategoryPhysical, BasePower: 100, Accuracy: 100},
		dex.Move{ID: "dragonclaw", Name: "Dragon Claw", Type: "Dragon", Category: dex.CategoryPhysical, BasePower: 80, Accuracy: 100},
		dex.Move{ID: "flamethrower", Name: "Flamethrower", Type: "Fire", Category: dex.CategorySpecial, BasePower: 90, Accuracy: 100},
		dex.Move{ID: "swordsdance", Name: "Swords Dance", Type: "Normal", Category: dex.CategoryStatus},
	)
	pokedex := dex.NewPokedex(
		dex.Species{Name: "Garchomp", Types: []string{"Dragon", "Ground"}, BaseStats: dex.BaseStats{HP: 108, Atk: 130, Def: 95, SpA: 80, SpD: 85, Spe: 102}},
		dex.Species{Name: "Heatran", Types: []string{"Fire", "Steel"}, BaseStats: dex.BaseStats{HP: 91, Atk: 90, Def: 106, SpA: 130, SpD: 106, Spe: 77}},
		dex.Species{Name: "Azumarill", Types: []string{"Water", "Fairy"}, BaseStats: dex.BaseStats{HP: 100, Atk: 50, Def: 80, SpA: 60, SpD: 80, Spe: 50}},
	)
	estimator := battle.NewStatEstimator(pokedex, nil, nil)

	return Engines{
		Moves:        moves,
		Pokedex:      pokedex,
		Damage:       calc.NewDamageEngine(moves, estimator, nil),
		Speed:        calc.NewSpeedEngine(moves, estimator, nil),
		Matchup:      calc.NewMatchupSimulator(estimator, nil),
		MoveRanker:   rank.NewMoveRanker(moves, nil),
		SwitchRanker: rank.NewSwitchRanker(pokedex, nil),
		LLM:          llm,
		Retriever:    noopRetriever{},
	}
}

type noopRetriever struct{}

func (noopRetriever) Retrieve(ctx context.Context, keywords []string, limit int) ([]string, error) {
	return nil, nil
}

func pipelineSnapshot() *battle.Snapshot {
	return &battle.Snapshot{
		BattleTag: "battle-gen9randombattle-1",
		Turn:      3,
		Ours: battle.Side{Pokemon: []*battle.Pokemon{
			{Species: "Garchomp", Level: 100, Types: []dex.Type{dex.TypeDragon, dex.TypeGround}, HPPercent: 100, Active: true,
				Stats: map[string]int{"hp": 357, "atk": 359, "def": 267, "spa": 207, "spd": 247, "spe": 281},
				Moves: []string{"earthquake", "dragonclaw", "swordsdance"}},
			{Species: "Azumarill", Level: 100, Types: []dex.Type{dex.TypeWater, dex.TypeFairy}, HPPercent: 100,
				Stats: map[string]int{"hp": 341, "atk": 157, "def": 217, "spa": 177, "spd": 217, "spe": 157}},
		}},
		Theirs: battle.Side{Pokemon: []*battle.Pokemon{
			{Species: "Heatran", Level: 100, Types: []dex.Type{dex.TypeFire, dex.TypeSteel}, HPPercent: 70, Active: true,
				Moves: []string{"flamethrower"}},
		}},
		LegalMoves:    []string{"earthquake", "dragonclaw", "swordsdance"},
		LegalSwitches: []string{"Azumarill"},
	}
}

func TestPipelineHappyPath(t *testing.T) {
	mock := services.NewMockLLMAPI()
	mock.Responses = []string{
		"Their Heatran wants to spam Flamethrower.", // prediction
		"REASONING: Earthquake is 4x effective and we outspeed.\nACTION: Earthquake", // decision
		"Turn 3 notes: Heatran is weakened.", // memory
	}
	p := NewPipeline(testEngines(mock))

	st := NewTurnState(pipelineSnapshot())
	d, err := p.DecideTurn(context.Background(), st)
	require.NoError(t, err)

	assert.Equal(t, ActionMove, d.Type)
	assert.Equal(t, "earthquake", d.Target)
	assert.False(t, d.Fallback)
	assert.Contains(t, d.Reasoning, "4x effective")

	// Analysis stages all produced output.
	require.NotNil(t, st.Damage)
	require.NotNil(t, st.Damage.OurVsActive)
	assert.NotNil(t, st.Speed)
	assert.NotEmpty(t, st.Matchups)
	assert.NotEmpty(t, st.TypeMatchups)
	assert.NotEmpty(t, st.RankedMoves)
	assert.NotEmpty(t, st.RankedSwitches)
	assert.Equal(t, "Their Heatran wants to spam Flamethrower.", st.PredictedMove)
	assert.Equal(t, "Turn 3 notes: Heatran is weakened.", st.Memory)

	// Earthquake into Fire/Steel should dominate the move ranking.
	assert.Equal(t, "earthquake", st.RankedMoves[0].MoveID)

	// The decision prompt carried the computed analysis.
	calls := mock.GetGenerateCalls()
	require.Len(t, calls, 3)
	decisionPrompt := calls[1].User
	assert.Contains(t, decisionPrompt, "### Your move options")
	assert.Contains(t, decisionPrompt, "### Speed")
	assert.Contains(t, decisionPrompt, "### Type matchups")
	assert.Contains(t, decisionPrompt, "Heatran wants to spam Flamethrower")
}

func TestPipelineAllLLMCallsFail(t *testing.T) {
	mock := services.NewMockLLMAPI()
	mock.SetGenerateError(errors.New("api down"))
	p := NewPipeline(testEngines(mock))

	st := NewTurnState(pipelineSnapshot())
	d, err := p.DecideTurn(context.Background(), st)
	require.NoError(t, err)

	// The fallback still picks a legal action.
	require.NotNil(t, d)
	assert.True(t, d.Fallback)
	assert.Equal(t, ActionMove, d.Type)
	assert.Equal(t, "earthquake", d.Target)

	assert.True(t, st.Failed(StagePrediction))
	assert.True(t, st.Failed(StageDecide))
	assert.True(t, st.Failed(StageMemory))
	// Deterministic stages were unaffected.
	assert.NotNil(t, st.Damage)
	assert.NotEmpty(t, st.RankedMoves)
}

func TestPipelineIllegalActionFallsBack(t *testing.T) {
	mock := services.NewMockLLMAPI()
	mock.SetResponse("REASONING: Hydro Pump is strong.\nACTION: Hydro Pump")
	p := NewPipeline(testEngines(mock))

	st := NewTurnState(pipelineSnapshot())
	d, err := p.DecideTurn(context.Background(), st)
	require.NoError(t, err)

	assert.True(t, d.Fallback)
	assert.Equal(t, "earthquake", d.Target)
}

func TestPipelineForcedSwitch(t *testing.T) {
	snap := pipelineSnapshot()
	snap.ForceSwitch = true
	snap.LegalMoves = nil
	snap.Ours.Pokemon[0].Fainted = true
	snap.Ours.Pokemon[0].Active = false
	snap.LegalSwitches = []string{"Azumarill"}

	t.Run("single option needs no LLM", func(t *testing.T) {
		mock := services.NewMockLLMAPI()
		p := NewPipeline(testEngines(mock))

		st := NewTurnState(snap)
		d, err := p.DecideTurn(context.Background(), st)
		require.NoError(t, err)

		assert.Equal(t, ActionSwitch, d.Type)
		assert.Equal(t, "azumarill", d.Target)
		assert.Empty(t, mock.GetGenerateCalls())
		// Move ranking never ran.
		assert.Empty(t, st.RankedMoves)
	})

	t.Run("llm failure falls back to best ranked switch", func(t *testing.T) {
		multi := pipelineSnapshot()
		multi.ForceSwitch = true
		multi.LegalMoves = nil
		multi.Ours.Pokemon[0].Fainted = true
		multi.Ours.Pokemon[0].Active = false
		multi.Ours.Pokemon = append(multi.Ours.Pokemon, &battle.Pokemon{
			Species: "Heatran", Level: 100, Types: []dex.Type{dex.TypeFire, dex.TypeSteel}, HPPercent: 50,
			Stats: map[string]int{"hp": 344, "atk": 205, "def": 247, "spa": 296, "spd": 247, "spe": 189},
		})
		multi.LegalSwitches = []string{"Azumarill", "Heatran"}

		mock := services.NewMockLLMAPI()
		mock.SetGenerateError(errors.New("api down"))
		p := NewPipeline(testEngines(mock))

		st := NewTurnState(multi)
		d, err := p.DecideTurn(context.Background(), st)
		require.NoError(t, err)

		assert.Equal(t, ActionSwitch, d.Type)
		assert.Contains(t, []string{"azumarill", "heatran"}, d.Target)
		assert.True(t, d.Fallback)
	})

	t.Run("no legal switches is an error", func(t *testing.T) {
		empty := &battle.Snapshot{ForceSwitch: true}
		p := NewPipeline(testEngines(services.NewMockLLMAPI()))
		_, err := p.DecideTurn(context.Background(), NewTurnState(empty))
		assert.Error(t, err)
	})
}

func TestSessionCarriesStateAcrossTurns(t *testing.T) {
	mock := services.NewMockLLMAPI()
	mock.Responses = []string{
		"Team analysis: Garchomp is the win condition.", // team analysis
		"Strategy: lead aggressively.",                  // strategy
		"They will Flamethrower.",                       // prediction turn 1
		"REASONING: Best damage.\nACTION: Earthquake",   // decision turn 1
		"Notes after turn 1.",                           // memory turn 1
		"They will Flamethrower again.",                 // prediction turn 2
		"REASONING: Still best.\nACTION: Earthquake",    // decision turn 2
		"Notes after turn 2.",                           // memory turn 2
	}
	p := NewPipeline(testEngines(mock))
	session := NewSession(p, nil, nil)

	snap := pipelineSnapshot()
	snap.Turn = 1
	d1, err := session.Decide(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "earthquake", d1.Target)
	assert.Equal(t, "Notes after turn 1.", session.Memory())
	assert.Equal(t, "Strategy: lead aggressively.", session.Strategy())

	snap2 := pipelineSnapshot()
	snap2.Turn = 2
	snap2.Theirs.Pokemon[0].Moves = []string{"flamethrower", "earthpower"}
	_, err = session.Decide(context.Background(), snap2)
	require.NoError(t, err)

	calls := mock.GetGenerateCalls()
	// Turn 2 ran no team analysis; its decision prompt carried the notes
	// from turn 1.
	var turn2Decision string
	for _, c := range calls {
		if strings.Contains(c.User, "Choose your action") && strings.Contains(c.User, "Notes after turn 1.") {
			turn2Decision = c.User
		}
	}
	assert.NotEmpty(t, turn2Decision, "turn 2 decision prompt should include turn 1 notes")
}
