package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/calc"
	"github.com/tailglowbot/tailglow/pkg/dex"
)

func switchSnapshot() *battle.Snapshot {
	return &battle.Snapshot{
		Ours: battle.Side{
			Pokemon: []*battle.Pokemon{
				{Species: "Garchomp", HPPercent: 40, Active: true, Types: []dex.Type{dex.TypeDragon, dex.TypeGround}},
				{Species: "Heatran", HPPercent: 100, Types: []dex.Type{dex.TypeFire, dex.TypeSteel}},
				{Species: "Corviknight", HPPercent: 80, Types: []dex.Type{dex.TypeFlying, dex.TypeSteel}},
			},
			Conditions: map[string]int{},
		},
		Theirs: battle.Side{Pokemon: []*battle.Pokemon{
			{Species: "Kingambit", HPPercent: 100, Active: true},
		}},
		LegalSwitches: []string{"Heatran", "Corviknight"},
	}
}

func TestRankSwitchesHazards(t *testing.T) {
	r := NewSwitchRanker(nil, nil)

	t.Run("stealth rock scales with rock effectiveness", func(t *testing.T) {
		snap := switchSnapshot()
		snap.Ours.Conditions[battle.ConditionStealthRock] = 1
		ranked := r.Rank(snap, nil, nil, "")
		require.Len(t, ranked, 2)

		for _, rs := range ranked {
			switch rs.Species {
			case "Heatran":
				// Rock is neutral into Fire/Steel (2x fire, 0.5x steel).
				assert.InDelta(t, 12.5, rs.HazardDamage, 0.01)
			case "Corviknight":
				// Rock is 2x into Flying, 0.5x into Steel.
				assert.InDelta(t, 12.5, rs.HazardDamage, 0.01)
			}
		}
	})

	t.Run("spikes skip flying types", func(t *testing.T) {
		snap := switchSnapshot()
		snap.Ours.Conditions[battle.ConditionSpikes] = 2
		ranked := r.Rank(snap, nil, nil, "")
		require.Len(t, ranked, 2)

		for _, rs := range ranked {
			switch rs.Species {
			case "Heatran":
				assert.InDelta(t, 16.67, rs.HazardDamage, 0.01)
			case "Corviknight":
				assert.Zero(t, rs.HazardDamage)
			}
		}
	})

	t.Run("hazards that would KO pin the score to the floor", func(t *testing.T) {
		snap := switchSnapshot()
		snap.Ours.Pokemon[1].HPPercent = 10
		snap.Ours.Conditions[battle.ConditionStealthRock] = 1
		ranked := r.Rank(snap, nil, nil, "")

		heatran := findRanked(t, ranked, "Heatran")
		assert.Equal(t, faintPenalty, heatran.Score)
		assert.False(t, heatran.Survives)
		assert.Contains(t, heatran.Justification, "faints to entry hazards")
	})
}

func TestRankSwitchesIncomingDamage(t *testing.T) {
	r := NewSwitchRanker(nil, nil)
	snap := switchSnapshot()

	dmg := &calc.DamageData{TheirVsBench: []calc.MatchupDamage{
		{
			Attacker: "Kingambit", Defender: "Heatran",
			Results: []calc.DamageResult{{MoveID: "lowkick", MinPercent: 110, MaxPercent: 130, KOChance: calc.KOGuaranteed}},
		},
		{
			Attacker: "Kingambit", Defender: "Corviknight",
			Results: []calc.DamageResult{{MoveID: "ironhead", MinPercent: 15, MaxPercent: 18}},
		},
	}}

	ranked := r.Rank(snap, dmg, nil, "")
	require.Len(t, ranked, 2)

	assert.Equal(t, "Corviknight", ranked[0].Species)
	assert.True(t, ranked[0].Survives)
	assert.Contains(t, ranked[0].Justification, "takes 15-18% from ironhead (worst case)")

	assert.Equal(t, "Heatran", ranked[1].Species)
	assert.False(t, ranked[1].Survives)
	assert.Equal(t, faintPenalty, ranked[1].Score)
	assert.Contains(t, ranked[1].Justification, "faints on switch-in")
}

// findRanked pulls one candidate out of a ranking by species.
func findRanked(t *testing.T, ranked []RankedSwitch, species string) *RankedSwitch {
	t.Helper()
	for i := range ranked {
		if ranked[i].Species == species {
			return &ranked[i]
		}
	}
	require.Failf(t, "species not ranked", "%s not in %v", species, ranked)
	return nil
}

func TestRankSwitchesExpectedDamageAverage(t *testing.T) {
	r := NewSwitchRanker(nil, nil)
	snap := switchSnapshot()

	// Heatran at 100% expects 90-120% (average 105): not a guaranteed KO,
	// but on average it does not survive, so it drops to the floor score.
	dmg := &calc.DamageData{TheirVsBench: []calc.MatchupDamage{
		{
			Attacker: "Kingambit", Defender: "Heatran",
			Results: []calc.DamageResult{{MoveID: "lowkick", MinPercent: 90, MaxPercent: 120}},
		},
		{
			Attacker: "Kingambit", Defender: "Corviknight",
			Results: []calc.DamageResult{{MoveID: "ironhead", MinPercent: 30, MaxPercent: 40}},
		},
	}}

	ranked := r.Rank(snap, dmg, nil, "")
	require.Len(t, ranked, 2)

	heatran := findRanked(t, ranked, "Heatran")
	assert.False(t, heatran.Survives)
	assert.Equal(t, faintPenalty, heatran.Score)

	corv := findRanked(t, ranked, "Corviknight")
	assert.True(t, corv.Survives)
	// 100 base + (80 HP - 35 average damage).
	assert.InDelta(t, 145, corv.Score, 0.01)
	assert.Greater(t, corv.Score, heatran.Score)
	assert.Equal(t, "Corviknight", ranked[0].Species)
}

func TestRankSwitchesExpectedMove(t *testing.T) {
	r := NewSwitchRanker(nil, nil)
	snap := switchSnapshot()

	dmg := &calc.DamageData{TheirVsBench: []calc.MatchupDamage{{
		Attacker: "Kingambit", Defender: "Heatran",
		Results: []calc.DamageResult{
			{MoveID: "lowkick", MinPercent: 110, MaxPercent: 130, KOChance: calc.KOGuaranteed},
			{MoveID: "ironhead", MinPercent: 20, MaxPercent: 24},
		},
	}}}

	t.Run("no prediction assumes the strongest move", func(t *testing.T) {
		heatran := findRanked(t, r.Rank(snap, dmg, nil, ""), "Heatran")
		assert.False(t, heatran.Survives)
		assert.Contains(t, heatran.Justification, "lowkick (worst case)")
	})

	t.Run("predicted move replaces the worst case", func(t *testing.T) {
		heatran := findRanked(t, r.Rank(snap, dmg, nil, "ironhead"), "Heatran")
		assert.True(t, heatran.Survives)
		assert.Contains(t, heatran.Justification, "predicted ironhead")
	})

	t.Run("unmatched prediction falls back to the worst case", func(t *testing.T) {
		heatran := findRanked(t, r.Rank(snap, dmg, nil, "suckerpunch"), "Heatran")
		assert.False(t, heatran.Survives)
		assert.Contains(t, heatran.Justification, "worst case")
	})
}

func TestRankSwitchesMatchupBonus(t *testing.T) {
	r := NewSwitchRanker(nil, nil)
	snap := switchSnapshot()

	matchups := calc.MatchupTable{
		{Ours: "heatran", Theirs: "kingambit"}: {
			OurSpecies: "Heatran", TheirSpecies: "Kingambit",
			Outcome: calc.OutcomeWin, OurRemainingHP: 60,
		},
		{Ours: "corviknight", Theirs: "kingambit"}: {
			OurSpecies: "Corviknight", TheirSpecies: "Kingambit",
			Outcome: calc.OutcomeLose,
		},
	}

	ranked := r.Rank(snap, nil, matchups, "")
	require.Len(t, ranked, 2)

	assert.Equal(t, "Heatran", ranked[0].Species)
	// 100 base + 100 HP + 50 win + 60/2.
	assert.InDelta(t, 280, ranked[0].Score, 0.01)
	assert.Equal(t, calc.OutcomeWin, ranked[0].Outcome)
	assert.Contains(t, ranked[0].Justification, "wins the one-on-one")

	assert.Equal(t, "Corviknight", ranked[1].Species)
	// 100 base + 80 HP, no bonus.
	assert.InDelta(t, 180, ranked[1].Score, 0.01)
	assert.Contains(t, ranked[1].Justification, "loses the one-on-one")
}

func TestRankSwitchesEmpty(t *testing.T) {
	r := NewSwitchRanker(nil, nil)
	snap := switchSnapshot()
	snap.LegalSwitches = nil
	assert.Empty(t, r.Rank(snap, nil, nil, ""))
}
