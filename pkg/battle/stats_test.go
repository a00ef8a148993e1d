package battle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailglowbot/tailglow/pkg/dex"
)

func testPokedex() *dex.Pokedex {
	return dex.NewPokedex(
		dex.Species{Name: "Garchomp", Types: []string{"Dragon", "Ground"}, BaseStats: dex.BaseStats{HP: 108, Atk: 130, Def: 95, SpA: 80, SpD: 85, Spe: 102}},
	)
}

func TestEstimateUsesStandardFormulas(t *testing.T) {
	e := NewStatEstimator(testPokedex(), nil, nil)

	line, ok := e.Estimate("Garchomp", 0)
	require.True(t, ok)

	// Level 100, 31 IVs, 84 EVs, neutral nature.
	// HP: (2*108+31+21)*100/100 + 110 = 378
	// Atk: (2*130+31+21)*100/100 + 5 = 317
	assert.Equal(t, 100, line.Level)
	assert.Equal(t, 378, line.HP)
	assert.Equal(t, 317, line.Atk)
	assert.Equal(t, 261, line.Spe) // (2*102+31+21) + 5
}

func TestEstimateLevelHint(t *testing.T) {
	e := NewStatEstimator(testPokedex(), nil, nil)

	full, ok := e.Estimate("Garchomp", 0)
	require.True(t, ok)

	e2 := NewStatEstimator(testPokedex(), nil, nil)
	half, ok := e2.Estimate("Garchomp", 50)
	require.True(t, ok)
	assert.Less(t, half.HP, full.HP)
	assert.Equal(t, 50, half.Level)
}

func TestEstimateUnknownSpecies(t *testing.T) {
	e := NewStatEstimator(testPokedex(), nil, nil)
	_, ok := e.Estimate("Missingno", 0)
	assert.False(t, ok)
}

func TestForPrefersKnownStats(t *testing.T) {
	e := NewStatEstimator(testPokedex(), nil, nil)

	line, ok := e.For(&Pokemon{
		Species: "Garchomp",
		Level:   100,
		Stats:   map[string]int{"hp": 400, "atk": 300, "def": 250, "spa": 200, "spd": 220, "spe": 290},
	})
	require.True(t, ok)
	assert.Equal(t, 400, line.HP)
	assert.Equal(t, 290, line.Spe)
	assert.Equal(t, 290, line.Stat("spe"))
}

func TestEstimateCaches(t *testing.T) {
	e := NewStatEstimator(testPokedex(), nil, nil)

	first, ok := e.Estimate("Garchomp", 0)
	require.True(t, ok)
	second, ok := e.Estimate("garchomp", 0)
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestEstimateConcurrentCallers(t *testing.T) {
	e := NewStatEstimator(testPokedex(), nil, nil)

	// The damage and speed stages share one estimator and run in parallel.
	var wg sync.WaitGroup
	results := make([]StatLine, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			line, ok := e.Estimate("Garchomp", 0)
			assert.True(t, ok)
			results[i] = line
		}(i)
	}
	wg.Wait()

	for _, line := range results {
		assert.Equal(t, results[0], line)
	}
}

func TestPokemonHasTypeTeraAware(t *testing.T) {
	p := &Pokemon{Species: "Garchomp", Types: []dex.Type{dex.TypeDragon, dex.TypeGround}}
	assert.True(t, p.HasType(dex.TypeDragon))

	p.Terastallized = true
	p.TeraType = "fire"
	assert.True(t, p.HasType(dex.TypeFire))
	assert.False(t, p.HasType(dex.TypeDragon), "tera replaces the original typing")
}

func TestSideHelpers(t *testing.T) {
	side := Side{
		Pokemon: []*Pokemon{
			{Species: "Garchomp", Active: true},
			{Species: "Heatran"},
			{Species: "Azumarill", Fainted: true},
		},
		Conditions: map[string]int{ConditionSpikes: 2},
	}

	require.NotNil(t, side.Active())
	assert.Equal(t, "Garchomp", side.Active().Species)

	bench := side.Bench()
	require.Len(t, bench, 1)
	assert.Equal(t, "Heatran", bench[0].Species)

	assert.NotNil(t, side.Find("garchomp"))
	assert.Nil(t, side.Find("kingambit"))
	assert.True(t, side.HasCondition(ConditionSpikes))
	assert.False(t, side.HasCondition(ConditionStealthRock))
}
