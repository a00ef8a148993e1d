package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/dex"
)

func speedSnapshot(ourSpe, theirSpe int) *battle.Snapshot {
	return &battle.Snapshot{
		Ours: battle.Side{Pokemon: []*battle.Pokemon{
			{Species: "Ours", Stats: map[string]int{"hp": 300, "spe": ourSpe}, HPPercent: 100, Active: true},
		}},
		Theirs: battle.Side{Pokemon: []*battle.Pokemon{
			{Species: "Theirs", Stats: map[string]int{"hp": 300, "spe": theirSpe}, HPPercent: 100, Active: true},
		}},
	}
}

func TestSpeedCompare(t *testing.T) {
	e := NewSpeedEngine(testMoveRegistry(), testEstimator(t), nil)

	t.Run("faster side outspeeds", func(t *testing.T) {
		cmp := e.Compare(speedSnapshot(120, 100), battle.BeliefState{})
		require.NotNil(t, cmp)
		assert.Equal(t, 120, cmp.OurSpeed)
		assert.Equal(t, 100, cmp.TheirSpeed)
		assert.True(t, cmp.WeOutspeed)
	})

	t.Run("paralysis halves speed", func(t *testing.T) {
		snap := speedSnapshot(120, 100)
		snap.Ours.Pokemon[0].Status = battle.StatusParalysis
		cmp := e.Compare(snap, battle.BeliefState{})
		require.NotNil(t, cmp)
		assert.Equal(t, 60, cmp.OurSpeed)
		assert.False(t, cmp.WeOutspeed)
	})

	t.Run("tailwind doubles speed", func(t *testing.T) {
		snap := speedSnapshot(60, 100)
		snap.Ours.Conditions = map[string]int{battle.ConditionTailwind: 1}
		cmp := e.Compare(snap, battle.BeliefState{})
		require.NotNil(t, cmp)
		assert.Equal(t, 120, cmp.OurSpeed)
		assert.True(t, cmp.WeOutspeed)
	})

	t.Run("boost stages apply", func(t *testing.T) {
		snap := speedSnapshot(60, 100)
		snap.Ours.Pokemon[0].Boosts = map[string]int{"spe": 2}
		cmp := e.Compare(snap, battle.BeliefState{})
		require.NotNil(t, cmp)
		assert.Equal(t, 120, cmp.OurSpeed)
	})

	t.Run("trick room inverts the verdict", func(t *testing.T) {
		snap := speedSnapshot(120, 100)
		snap.Fields = map[string]bool{battle.FieldTrickRoom: true}
		cmp := e.Compare(snap, battle.BeliefState{})
		require.NotNil(t, cmp)
		assert.True(t, cmp.TrickRoom)
		assert.False(t, cmp.WeOutspeed)
	})

	t.Run("missing stats fall back to the default", func(t *testing.T) {
		snap := speedSnapshot(120, 100)
		snap.Theirs.Pokemon[0].Species = "Unknownmon"
		snap.Theirs.Pokemon[0].Stats = nil
		cmp := e.Compare(snap, battle.BeliefState{})
		require.NotNil(t, cmp)
		assert.Equal(t, DefaultSpeed, cmp.TheirSpeed)
	})

	t.Run("nil when an active slot is empty", func(t *testing.T) {
		snap := speedSnapshot(120, 100)
		snap.Theirs.Pokemon[0].Fainted = true
		assert.Nil(t, e.Compare(snap, battle.BeliefState{}))
	})
}

func TestSpeedScarfHypothetical(t *testing.T) {
	e := NewSpeedEngine(testMoveRegistry(), testEstimator(t), nil)

	t.Run("plausible scarf surfaces the hypothetical", func(t *testing.T) {
		snap := speedSnapshot(130, 100)
		beliefs := battle.BeliefState{
			"theirs": &battle.SpeciesBelief{Species: "theirs", PossibleItems: []string{"Choice Scarf", "Leftovers"}},
		}
		cmp := e.Compare(snap, beliefs)
		require.NotNil(t, cmp)
		assert.Equal(t, 150, cmp.TheirSpeedWithScarf)
		assert.True(t, cmp.WeOutspeed)
		assert.False(t, cmp.OutspeedIfScarf)
	})

	t.Run("revealed non-scarf item rules it out", func(t *testing.T) {
		snap := speedSnapshot(130, 100)
		snap.Theirs.Pokemon[0].Item = "Leftovers"
		cmp := e.Compare(snap, battle.BeliefState{})
		require.NotNil(t, cmp)
		assert.Zero(t, cmp.TheirSpeedWithScarf)
		assert.True(t, cmp.OutspeedIfScarf)
	})

	t.Run("revealed scarf bakes into the real speed", func(t *testing.T) {
		snap := speedSnapshot(130, 100)
		snap.Theirs.Pokemon[0].Item = "Choice Scarf"
		cmp := e.Compare(snap, battle.BeliefState{})
		require.NotNil(t, cmp)
		assert.Equal(t, 150, cmp.TheirSpeed)
		assert.False(t, cmp.WeOutspeed)
	})
}

func TestSpeedPriorityMoves(t *testing.T) {
	e := NewSpeedEngine(testMoveRegistry(), testEstimator(t), nil)

	snap := speedSnapshot(100, 120)
	snap.LegalMoves = []string{"aquajet", "earthquake"}
	snap.Theirs.Pokemon[0].Moves = []string{"aquajet"}
	snap.Theirs.Pokemon[0].Types = []dex.Type{dex.TypeWater}

	cmp := e.Compare(snap, battle.BeliefState{})
	require.NotNil(t, cmp)
	require.Len(t, cmp.OurPriorityMoves, 1)
	assert.Equal(t, "aquajet", cmp.OurPriorityMoves[0].MoveID)
	assert.Equal(t, 1, cmp.OurPriorityMoves[0].Priority)
	require.Len(t, cmp.TheirPriorityMoves, 1)
	assert.False(t, cmp.TheirPriorityMoves[0].IsEstimated)
}
