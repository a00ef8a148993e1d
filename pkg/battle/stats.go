package battle

import (
	"log/slog"
	"sync"

	"github.com/tailglowbot/tailglow/pkg/dex"
)

// DefaultLevel is assumed when neither the snapshot nor set data carries one.
const DefaultLevel = 100

// StatLine is a concrete stat block at a given level.
type StatLine struct {
	Level int
	HP    int
	Atk   int
	Def   int
	SpA   int
	SpD   int
	Spe   int
}

// Stat returns a stat by its short name.
func (s StatLine) Stat(name string) int {
	switch name {
	case "hp":
		return s.HP
	case "atk":
		return s.Atk
	case "def":
		return s.Def
	case "spa":
		return s.SpA
	case "spd":
		return s.SpD
	case "spe":
		return s.Spe
	}
	return 0
}

// StatEstimator computes stat lines for species whose real spread is unknown,
// using set-data levels and EV/IV spreads over pokedex base stats. Results
// are cached per species for the life of the battle; the underlying reference
// data is immutable within a battle, so recomputation would only be wasted
// work. The cache is mutex-guarded: pipeline stages share one estimator and
// run concurrently within a phase.
type StatEstimator struct {
	pokedex *dex.Pokedex
	sets    *dex.SetData
	mu      sync.Mutex
	cache   map[string]StatLine
	logger  *slog.Logger
}

// NewStatEstimator creates an estimator with an empty per-battle cache.
func NewStatEstimator(pokedex *dex.Pokedex, sets *dex.SetData, logger *slog.Logger) *StatEstimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatEstimator{
		pokedex: pokedex,
		sets:    sets,
		cache:   make(map[string]StatLine),
		logger:  logger,
	}
}

// For returns the stat line for a Pokemon, preferring its own known stats and
// estimating from reference data otherwise. The second return is false when
// no stats could be determined at all.
func (e *StatEstimator) For(p *Pokemon) (StatLine, bool) {
	if p == nil {
		return StatLine{}, false
	}
	if len(p.Stats) > 0 {
		level := p.Level
		if level == 0 {
			level = DefaultLevel
		}
		return StatLine{
			Level: level,
			HP:    p.Stats["hp"],
			Atk:   p.Stats["atk"],
			Def:   p.Stats["def"],
			SpA:   p.Stats["spa"],
			SpD:   p.Stats["spd"],
			Spe:   p.Stats["spe"],
		}, true
	}
	return e.Estimate(p.Species, p.Level)
}

// Estimate computes (and caches) the stat line for a species. levelHint is
// used when set data carries no level; pass 0 for none.
func (e *StatEstimator) Estimate(species string, levelHint int) (StatLine, bool) {
	key := dex.NormalizeID(species)
	e.mu.Lock()
	defer e.mu.Unlock()
	if line, ok := e.cache[key]; ok {
		return line, true
	}

	sp, ok := e.pokedex.Lookup(species)
	if !ok {
		e.logger.Debug("species not in pokedex, cannot estimate stats", "species", species)
		return StatLine{}, false
	}

	level := levelHint
	evs := map[string]int{}
	ivs := map[string]int{}
	if e.sets != nil {
		if setLevel := e.sets.Level(species); setLevel > 0 {
			level = setLevel
		}
		evs = e.sets.EVs(species)
		ivs = e.sets.IVs(species)
	}
	if level == 0 {
		level = DefaultLevel
	}

	line := StatLine{
		Level: level,
		HP:    computeHP(sp.BaseStats.HP, ivOr(ivs, "hp"), evOr(evs, "hp"), level),
		Atk:   computeStat(sp.BaseStats.Atk, ivOr(ivs, "atk"), evOr(evs, "atk"), level),
		Def:   computeStat(sp.BaseStats.Def, ivOr(ivs, "def"), evOr(evs, "def"), level),
		SpA:   computeStat(sp.BaseStats.SpA, ivOr(ivs, "spa"), evOr(evs, "spa"), level),
		SpD:   computeStat(sp.BaseStats.SpD, ivOr(ivs, "spd"), evOr(evs, "spd"), level),
		Spe:   computeStat(sp.BaseStats.Spe, ivOr(ivs, "spe"), evOr(evs, "spe"), level),
	}
	e.cache[key] = line

	e.logger.Debug("estimated stats",
		"species", species, "level", level,
		"hp", line.HP, "atk", line.Atk, "def", line.Def,
		"spa", line.SpA, "spd", line.SpD, "spe", line.Spe)
	return line, true
}

// Standard stat formulas with a neutral nature.
func computeHP(base, iv, ev, level int) int {
	return (2*base+iv+ev/4)*level/100 + level + 10
}

func computeStat(base, iv, ev, level int) int {
	return (2*base+iv+ev/4)*level/100 + 5
}

func evOr(m map[string]int, stat string) int {
	if v, ok := m[stat]; ok {
		return v
	}
	return dex.DefaultEV
}

func ivOr(m map[string]int, stat string) int {
	if v, ok := m[stat]; ok {
		return v
	}
	return dex.DefaultIV
}
