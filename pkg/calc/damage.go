package calc

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/dex"
)

// MaxMoveset caps how many opponent moves are worth calculating.
const MaxMoveset = 4

// KOGuaranteed is the KO classification when even the minimum roll KOs.
const KOGuaranteed = "guaranteed"

// DamageResult is the outcome of one damage calculation, as a percentage of
// the defender's max HP.
type DamageResult struct {
	MoveID      string
	MinPercent  float64
	MaxPercent  float64
	KOChance    string // KOGuaranteed, "75%", or "" for no KO
	IsEstimated bool   // the move was guessed from the plausible pool
	Assumption  string // item/ability assumed for this range, "" when none
}

// MatchupDamage collects damage results for one attacker/defender pairing.
type MatchupDamage struct {
	Attacker          string
	Defender          string
	DefenderHPPercent float64
	Results           []DamageResult
}

// Best returns the result with the highest max damage, or nil when empty.
func (m *MatchupDamage) Best() *DamageResult {
	var best *DamageResult
	for i := range m.Results {
		if best == nil || m.Results[i].MaxPercent > best.MaxPercent {
			best = &m.Results[i]
		}
	}
	return best
}

// ForMove returns the first result for a move ID, or nil.
func (m *MatchupDamage) ForMove(moveID string) *DamageResult {
	id := dex.NormalizeID(moveID)
	for i := range m.Results {
		if m.Results[i].MoveID == id {
			return &m.Results[i]
		}
	}
	return nil
}

// DamageData groups the four matchup sets computed every turn.
type DamageData struct {
	OurVsActive   *MatchupDamage
	OurVsBench    []MatchupDamage
	TheirVsActive *MatchupDamage
	TheirVsBench  []MatchupDamage
}

// AverageFor returns avg(min,max) of the best move from attacker to defender
// across the pre-computed sets, or false when no data exists.
func (d *DamageData) AverageFor(attacker, defender string, ourAttack bool) (float64, bool) {
	var matchups []MatchupDamage
	if ourAttack {
		if d.OurVsActive != nil {
			matchups = append(matchups, *d.OurVsActive)
		}
		matchups = append(matchups, d.OurVsBench...)
	} else {
		if d.TheirVsActive != nil {
			matchups = append(matchups, *d.TheirVsActive)
		}
		matchups = append(matchups, d.TheirVsBench...)
	}

	atk, def := dex.NormalizeID(attacker), dex.NormalizeID(defender)
	for i := range matchups {
		m := &matchups[i]
		if dex.NormalizeID(m.Attacker) != atk || dex.NormalizeID(m.Defender) != def {
			continue
		}
		if best := m.Best(); best != nil {
			return (best.MinPercent + best.MaxPercent) / 2, true
		}
	}
	return 0, false
}

// Items and abilities that change a damage range enough to show both sides.
var (
	attackerItemMods = map[string]struct {
		category string // "" applies to both
		mult     float64
	}{
		"choiceband":  {dex.CategoryPhysical, 1.5},
		"choicespecs": {dex.CategorySpecial, 1.5},
		"lifeorb":     {"", 1.3},
	}

	defenderAbilityMods = map[string]func(moveType dex.Type) float64{
		"levitate":    immunity(dex.TypeGround),
		"flashfire":   immunity(dex.TypeFire),
		"voltabsorb":  immunity(dex.TypeElectric),
		"waterabsorb": immunity(dex.TypeWater),
		"thickfat": func(t dex.Type) float64 {
			if t == dex.TypeFire || t == dex.TypeIce {
				return 0.5
			}
			return 1
		},
	}
)

func immunity(immune dex.Type) func(dex.Type) float64 {
	return func(t dex.Type) float64 {
		if t == immune {
			return 0
		}
		return 1
	}
}

// DamageEngine computes damage ranges and KO classifications. All entry
// points return nil on missing data rather than an error: callers must treat
// nil as "no information", never as zero damage.
type DamageEngine struct {
	moves     *dex.MoveRegistry
	estimator *battle.StatEstimator
	logger    *slog.Logger
}

// NewDamageEngine creates a damage engine.
func NewDamageEngine(moves *dex.MoveRegistry, estimator *battle.StatEstimator, logger *slog.Logger) *DamageEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &DamageEngine{moves: moves, estimator: estimator, logger: logger}
}

// ComputeAll produces the four matchup sets for a turn.
func (e *DamageEngine) ComputeAll(snap *battle.Snapshot, beliefs battle.BeliefState) *DamageData {
	return &DamageData{
		OurVsActive:   e.OurMovesVsActive(snap, beliefs),
		OurVsBench:    e.OurMovesVsBench(snap, beliefs),
		TheirVsActive: e.TheirMovesVsActive(snap, beliefs),
		TheirVsBench:  e.TheirMovesVsBench(snap, beliefs),
	}
}

// OurMovesVsActive calculates every legal move against the opposing active.
func (e *DamageEngine) OurMovesVsActive(snap *battle.Snapshot, beliefs battle.BeliefState) *MatchupDamage {
	attacker, defender := snap.OurActive(), snap.TheirActive()
	if attacker == nil || defender == nil {
		return nil
	}
	return e.movesVs(attacker, defender, legalMoveset(snap), beliefs)
}

// OurMovesVsBench calculates every legal move against each revealed opposing
// bench Pokemon.
func (e *DamageEngine) OurMovesVsBench(snap *battle.Snapshot, beliefs battle.BeliefState) []MatchupDamage {
	attacker := snap.OurActive()
	if attacker == nil {
		return nil
	}
	var out []MatchupDamage
	for _, defender := range snap.Theirs.Bench() {
		if m := e.movesVs(attacker, defender, legalMoveset(snap), beliefs); m != nil && len(m.Results) > 0 {
			out = append(out, *m)
		}
	}
	return out
}

// TheirMovesVsActive calculates the opposing active's estimated moveset
// against our active.
func (e *DamageEngine) TheirMovesVsActive(snap *battle.Snapshot, beliefs battle.BeliefState) *MatchupDamage {
	attacker, defender := snap.TheirActive(), snap.OurActive()
	if attacker == nil || defender == nil {
		return nil
	}
	return e.movesVs(attacker, defender, e.EstimateMoveset(attacker, beliefs), beliefs)
}

// TheirMovesVsBench calculates the opposing active's estimated moveset
// against each of our legal switch-ins.
func (e *DamageEngine) TheirMovesVsBench(snap *battle.Snapshot, beliefs battle.BeliefState) []MatchupDamage {
	attacker := snap.TheirActive()
	if attacker == nil {
		return nil
	}
	moveset := e.EstimateMoveset(attacker, beliefs)
	var out []MatchupDamage
	for _, species := range snap.LegalSwitches {
		defender := snap.Ours.Find(species)
		if defender == nil {
			continue
		}
		if m := e.movesVs(attacker, defender, moveset, beliefs); m != nil && len(m.Results) > 0 {
			out = append(out, *m)
		}
	}
	return out
}

// MovesetEntry is one move of an estimated moveset.
type MovesetEntry struct {
	MoveID      string
	IsEstimated bool
}

// EstimateMoveset returns the opponent's revealed moves topped up with the
// highest-threat moves from the plausible pool, up to MaxMoveset total.
// Pool moves are scored base power x STAB x accuracy.
func (e *DamageEngine) EstimateMoveset(p *battle.Pokemon, beliefs battle.BeliefState) []MovesetEntry {
	return EstimateMoveset(e.moves, p, beliefs)
}

// EstimateMoveset is the free-function form used by engines that do not
// carry a DamageEngine.
func EstimateMoveset(registry *dex.MoveRegistry, p *battle.Pokemon, beliefs battle.BeliefState) []MovesetEntry {
	var entries []MovesetEntry
	seen := make(map[string]bool)
	for _, m := range p.Moves {
		id := dex.NormalizeID(m)
		if !seen[id] {
			seen[id] = true
			entries = append(entries, MovesetEntry{MoveID: id})
		}
	}
	if len(entries) >= MaxMoveset {
		return entries[:MaxMoveset]
	}

	b := beliefs.Get(p.Species)
	if b == nil {
		return entries
	}

	type scored struct {
		id    string
		score float64
	}
	var pool []scored
	for _, id := range b.UnrevealedMoves() {
		move, ok := registry.Lookup(id)
		if !ok || !move.IsDamaging() {
			continue
		}
		score := float64(move.BasePower)
		if p.HasType(dex.ParseType(move.Type)) {
			score *= 1.5
		}
		if move.Accuracy > 0 && move.Accuracy < 100 {
			score *= float64(move.Accuracy) / 100
		}
		pool = append(pool, scored{id: id, score: score})
	}
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].id < pool[j].id
	})

	for _, s := range pool {
		if len(entries) >= MaxMoveset {
			break
		}
		if !seen[s.id] {
			seen[s.id] = true
			entries = append(entries, MovesetEntry{MoveID: s.id, IsEstimated: true})
		}
	}
	return entries
}

func legalMoveset(snap *battle.Snapshot) []MovesetEntry {
	entries := make([]MovesetEntry, 0, len(snap.LegalMoves))
	for _, m := range snap.LegalMoves {
		entries = append(entries, MovesetEntry{MoveID: dex.NormalizeID(m)})
	}
	return entries
}

func (e *DamageEngine) movesVs(attacker, defender *battle.Pokemon, moveset []MovesetEntry, beliefs battle.BeliefState) *MatchupDamage {
	out := &MatchupDamage{
		Attacker:          attacker.Species,
		Defender:          defender.Species,
		DefenderHPPercent: defender.HPPercent,
	}
	for _, entry := range moveset {
		results := e.Compute(attacker, defender, entry.MoveID, beliefs)
		for _, r := range results {
			r.IsEstimated = r.IsEstimated || entry.IsEstimated
			out.Results = append(out.Results, r)
		}
	}
	return out
}

// Compute calculates the damage range for a single move. When the defender's
// item or ability is not yet revealed, one result is produced per distinct
// plausible outcome range; identical ranges are deduplicated, so a collapsed
// case carries no assumption annotation. Returns nil when the calculation is
// impossible (unknown move, no stat data) - that is "no information", not
// zero damage.
func (e *DamageEngine) Compute(attacker, defender *battle.Pokemon, moveID string, beliefs battle.BeliefState) []DamageResult {
	move, ok := e.moves.Lookup(moveID)
	if !ok {
		e.logger.Debug("damage calc skipped, unknown move", "move", moveID)
		return nil
	}
	if !move.IsDamaging() {
		return nil
	}

	atkStats, ok := e.estimator.For(attacker)
	if !ok {
		e.logger.Debug("damage calc skipped, no attacker stats", "species", attacker.Species)
		return nil
	}
	defStats, ok := e.estimator.For(defender)
	if !ok {
		e.logger.Debug("damage calc skipped, no defender stats", "species", defender.Species)
		return nil
	}

	variants := e.variantsFor(attacker, defender, move, beliefs)
	var results []DamageResult
	for _, v := range variants {
		r := e.computeVariant(attacker, defender, move, atkStats, defStats, v)
		if !containsRange(results, r) {
			results = append(results, r)
		}
	}
	if len(results) == 1 {
		results[0].Assumption = ""
	}
	return results
}

type damageVariant struct {
	assumption string
	atkMult    float64
	defMult    float64 // multiplier applied to the final damage (ability mods)
	moveType   dex.Type
}

func (e *DamageEngine) variantsFor(attacker, defender *battle.Pokemon, move dex.Move, beliefs battle.BeliefState) []damageVariant {
	moveType := dex.ParseType(move.Type)
	base := damageVariant{atkMult: 1, defMult: 1, moveType: moveType}
	variants := []damageVariant{base}

	// Attacker-side item uncertainty (opponent attacking us).
	if attacker.Item == "" {
		if b := beliefs.Get(attacker.Species); b != nil {
			for itemID, mod := range attackerItemMods {
				if !b.CouldHoldItem(itemID) {
					continue
				}
				if mod.category != "" && mod.category != move.Category {
					continue
				}
				v := base
				v.assumption = itemID
				v.atkMult = mod.mult
				variants = append(variants, v)
			}
		}
	}

	// Defender-side ability uncertainty.
	if defender.Ability == "" {
		if b := beliefs.Get(defender.Species); b != nil && b.RevealedAbility == "" {
			for _, ability := range b.PossibleAbilities {
				id := dex.NormalizeID(ability)
				mod, ok := defenderAbilityMods[id]
				if !ok {
					continue
				}
				mult := mod(moveType)
				if mult == 1 {
					continue
				}
				v := base
				v.assumption = id
				v.defMult = mult
				variants = append(variants, v)
			}
		}
	} else if mod, ok := defenderAbilityMods[dex.NormalizeID(defender.Ability)]; ok {
		// Known ability applies unconditionally.
		for i := range variants {
			variants[i].defMult *= mod(moveType)
		}
	}

	return variants
}

func (e *DamageEngine) computeVariant(attacker, defender *battle.Pokemon, move dex.Move, atkStats, defStats battle.StatLine, v damageVariant) DamageResult {
	var atk, def float64
	if move.Category == dex.CategoryPhysical {
		atk = float64(atkStats.Atk) * StageMultiplier(attacker.Boost("atk"))
		def = float64(defStats.Def) * StageMultiplier(defender.Boost("def"))
	} else {
		atk = float64(atkStats.SpA) * StageMultiplier(attacker.Boost("spa"))
		def = float64(defStats.SpD) * StageMultiplier(defender.Boost("spd"))
	}
	if def <= 0 {
		def = 1
	}

	level := atkStats.Level
	baseDamage := (float64(2*level)/5+2)*float64(move.BasePower)*atk/def/50 + 2

	mod := 1.0
	if attacker.HasType(v.moveType) {
		mod *= 1.5
	}
	mod *= dex.EffectivenessAgainst(v.moveType, defenderTypes(defender))
	if move.Category == dex.CategoryPhysical && attacker.Status == battle.StatusBurn {
		mod *= 0.5
	}
	mod *= v.atkMult
	mod *= v.defMult

	maxDamage := math.Floor(baseDamage * mod)
	minDamage := math.Floor(maxDamage * 0.85)

	maxHP := defStats.HP
	if maxHP <= 0 {
		maxHP = 100
	}
	currentHP := int(math.Round(defender.HPPercent / 100 * float64(maxHP)))

	r := DamageResult{
		MoveID:     move.ID,
		MinPercent: round1(minDamage / float64(maxHP) * 100),
		MaxPercent: round1(maxDamage / float64(maxHP) * 100),
		KOChance:   koChance(int(minDamage), int(maxDamage), currentHP),
		Assumption: v.assumption,
	}
	return r
}

func defenderTypes(p *battle.Pokemon) []dex.Type {
	if p.Terastallized && p.TeraType != "" {
		return []dex.Type{dex.ParseType(p.TeraType)}
	}
	return p.Types
}

// koChance classifies the KO probability of a damage range against the
// defender's current HP, assuming a uniform distribution over the discrete
// roll range.
func koChance(minDamage, maxDamage, currentHP int) string {
	if currentHP <= 0 {
		return ""
	}
	if minDamage >= currentHP {
		return KOGuaranteed
	}
	if maxDamage >= currentHP {
		rangeSize := maxDamage - minDamage + 1
		koRolls := maxDamage - currentHP + 1
		if koRolls > 0 && rangeSize > 0 {
			return fmt.Sprintf("%.0f%%", float64(koRolls)/float64(rangeSize)*100)
		}
	}
	return ""
}

func containsRange(results []DamageResult, r DamageResult) bool {
	for _, existing := range results {
		if existing.MinPercent == r.MinPercent && existing.MaxPercent == r.MaxPercent {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
