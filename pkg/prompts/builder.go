package prompts

import (
	"fmt"
	"strings"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/calc"
	"github.com/tailglowbot/tailglow/pkg/rank"
)

// Builder constructs the decision user prompt section by section using a
// fluent interface. Sections whose data is missing are silently omitted; a
// failed analysis stage must never block the decision call.
type Builder struct {
	snap          *battle.Snapshot
	beliefs       battle.BeliefState
	rankedMoves   []rank.RankedMove
	rankedSwitch  []rank.RankedSwitch
	speed         *calc.SpeedComparison
	damage        *calc.DamageData
	matchups      calc.MatchupTable
	typeMatchups  []string
	predictedMove string
	strategy      string
	memory        string
	ragNotes      []string
}

// New creates an empty prompt builder.
func New() *Builder {
	return &Builder{}
}

// WithSnapshot sets the battle snapshot. Required.
func (b *Builder) WithSnapshot(snap *battle.Snapshot) *Builder {
	b.snap = snap
	return b
}

// WithBeliefs sets the opponent belief state.
func (b *Builder) WithBeliefs(beliefs battle.BeliefState) *Builder {
	b.beliefs = beliefs
	return b
}

// WithRankedMoves sets the scored move options.
func (b *Builder) WithRankedMoves(moves []rank.RankedMove) *Builder {
	b.rankedMoves = moves
	return b
}

// WithRankedSwitches sets the scored switch options.
func (b *Builder) WithRankedSwitches(switches []rank.RankedSwitch) *Builder {
	b.rankedSwitch = switches
	return b
}

// WithSpeed sets the speed comparison.
func (b *Builder) WithSpeed(speed *calc.SpeedComparison) *Builder {
	b.speed = speed
	return b
}

// WithDamage sets the pre-computed damage data.
func (b *Builder) WithDamage(damage *calc.DamageData) *Builder {
	b.damage = damage
	return b
}

// WithMatchups sets the one-on-one projection table.
func (b *Builder) WithMatchups(matchups calc.MatchupTable) *Builder {
	b.matchups = matchups
	return b
}

// WithTypeMatchups sets the type effectiveness summary lines.
func (b *Builder) WithTypeMatchups(lines []string) *Builder {
	b.typeMatchups = lines
	return b
}

// WithPredictedMove sets the expected opponent action.
func (b *Builder) WithPredictedMove(prediction string) *Builder {
	b.predictedMove = prediction
	return b
}

// WithStrategy sets the battle strategy text.
func (b *Builder) WithStrategy(strategy string) *Builder {
	b.strategy = strategy
	return b
}

// WithMemory sets the running battle notes.
func (b *Builder) WithMemory(memory string) *Builder {
	b.memory = memory
	return b
}

// WithRAGNotes sets retrieved strategy notes.
func (b *Builder) WithRAGNotes(notes []string) *Builder {
	b.ragNotes = notes
	return b
}

// Build renders the decision user prompt.
func (b *Builder) Build() (string, error) {
	if b.snap == nil {
		return "", fmt.Errorf("snapshot is required")
	}

	var sb strings.Builder
	b.writeOverview(&sb)
	b.writeOurActive(&sb)
	b.writeTheirActive(&sb)
	b.writeSpeed(&sb)
	b.writeTypeMatchups(&sb)
	b.writeIncomingDamage(&sb)
	b.writePrediction(&sb)
	b.writeMoves(&sb)
	b.writeSwitches(&sb)
	b.writeMatchups(&sb)
	b.writeContext(&sb)

	sb.WriteString("Choose your action for this turn.\n")
	return sb.String(), nil
}

func (b *Builder) writeOverview(sb *strings.Builder) {
	fmt.Fprintf(sb, "### Turn %d\n", b.snap.Turn)
	if b.snap.Weather != "" {
		fmt.Fprintf(sb, "Weather: %s\n", DisplayName(b.snap.Weather))
	}
	for field, active := range b.snap.Fields {
		if active {
			fmt.Fprintf(sb, "Field: %s\n", DisplayName(field))
		}
	}
	writeConditions(sb, "Your side", &b.snap.Ours)
	writeConditions(sb, "Opponent side", &b.snap.Theirs)
	if b.snap.CanTera {
		sb.WriteString("You can Terastallize this turn.\n")
	}
	sb.WriteString("\n")
}

func writeConditions(sb *strings.Builder, label string, side *battle.Side) {
	if len(side.Conditions) == 0 {
		return
	}
	var parts []string
	for name, layers := range side.Conditions {
		if layers > 1 {
			parts = append(parts, fmt.Sprintf("%s x%d", DisplayName(name), layers))
		} else {
			parts = append(parts, DisplayName(name))
		}
	}
	fmt.Fprintf(sb, "%s: %s\n", label, strings.Join(parts, ", "))
}

func (b *Builder) writeOurActive(sb *strings.Builder) {
	p := b.snap.OurActive()
	if p == nil {
		return
	}
	sb.WriteString("### Your active Pokemon\n")
	writePokemonLine(sb, p)
	if p.Item != "" {
		fmt.Fprintf(sb, "Item: %s\n", DisplayName(p.Item))
	}
	if p.Ability != "" {
		fmt.Fprintf(sb, "Ability: %s\n", DisplayName(p.Ability))
	}
	sb.WriteString("\n")
}

func (b *Builder) writeTheirActive(sb *strings.Builder) {
	p := b.snap.TheirActive()
	if p == nil {
		return
	}
	sb.WriteString("### Opponent's active Pokemon\n")
	writePokemonLine(sb, p)

	belief := b.beliefs.Get(p.Species)
	if belief != nil {
		if known := belief.KnownMoves(); len(known) > 0 {
			fmt.Fprintf(sb, "Revealed moves: %s\n", joinDisplay(known))
		}
		switch {
		case belief.RevealedItem != "":
			fmt.Fprintf(sb, "Item: %s\n", DisplayName(belief.RevealedItem))
		case belief.DeducedItem != "":
			fmt.Fprintf(sb, "Item (deduced, unconfirmed): %s\n", DisplayName(belief.DeducedItem))
		case len(belief.PossibleItems) > 0:
			fmt.Fprintf(sb, "Possible items: %s\n", joinDisplay(belief.PossibleItems))
		}
		if belief.RevealedAbility != "" {
			fmt.Fprintf(sb, "Ability: %s\n", DisplayName(belief.RevealedAbility))
		} else if len(belief.PossibleAbilities) > 0 {
			fmt.Fprintf(sb, "Possible abilities: %s\n", joinDisplay(belief.PossibleAbilities))
		}
	}

	remaining := 0
	for _, mon := range b.snap.Theirs.Pokemon {
		if !mon.Fainted {
			remaining++
		}
	}
	fmt.Fprintf(sb, "Opponent has %d Pokemon remaining.\n\n", remaining)
}

func writePokemonLine(sb *strings.Builder, p *battle.Pokemon) {
	fmt.Fprintf(sb, "%s, %.0f%% HP", DisplayName(p.Species), p.HPPercent)
	if p.Status != "" {
		fmt.Fprintf(sb, ", status %s", p.Status)
	}
	if p.Terastallized {
		fmt.Fprintf(sb, ", Terastallized %s", DisplayName(p.TeraType))
	}
	var boosts []string
	for stat, stage := range p.Boosts {
		if stage != 0 {
			boosts = append(boosts, fmt.Sprintf("%s %+d", stat, stage))
		}
	}
	if len(boosts) > 0 {
		fmt.Fprintf(sb, ", boosts: %s", strings.Join(boosts, " "))
	}
	sb.WriteString("\n")
}

func (b *Builder) writeSpeed(sb *strings.Builder) {
	if b.speed == nil {
		return
	}
	sb.WriteString("### Speed\n")
	fmt.Fprintf(sb, "%s\n", b.speed.Summary())
	if b.speed.TheirSpeedWithScarf > 0 {
		fmt.Fprintf(sb, "If the opponent holds a Choice Scarf: %d", b.speed.TheirSpeedWithScarf)
		if !b.speed.OutspeedIfScarf {
			sb.WriteString(" and it would outspeed you")
		}
		sb.WriteString("\n")
	}
	for _, note := range b.speed.Notes {
		fmt.Fprintf(sb, "%s\n", note)
	}
	writePriority(sb, "Your priority moves", b.speed.OurPriorityMoves)
	writePriority(sb, "Opponent priority moves", b.speed.TheirPriorityMoves)
	sb.WriteString("\n")
}

func writePriority(sb *strings.Builder, label string, moves []calc.PriorityMove) {
	if len(moves) == 0 {
		return
	}
	var parts []string
	for _, m := range moves {
		s := fmt.Sprintf("%s (+%d)", DisplayName(m.MoveID), m.Priority)
		if m.IsEstimated {
			s += " (estimated)"
		}
		parts = append(parts, s)
	}
	fmt.Fprintf(sb, "%s: %s\n", label, strings.Join(parts, ", "))
}

func (b *Builder) writeTypeMatchups(sb *strings.Builder) {
	if len(b.typeMatchups) == 0 {
		return
	}
	sb.WriteString("### Type matchups\n")
	for _, line := range b.typeMatchups {
		fmt.Fprintf(sb, "- %s\n", line)
	}
	sb.WriteString("\n")
}

func (b *Builder) writeIncomingDamage(sb *strings.Builder) {
	if b.damage == nil || b.damage.TheirVsActive == nil || len(b.damage.TheirVsActive.Results) == 0 {
		return
	}
	sb.WriteString("### Damage you may take this turn\n")
	for _, r := range b.damage.TheirVsActive.Results {
		writeDamageLine(sb, r)
	}
	sb.WriteString("\n")
}

func writeDamageLine(sb *strings.Builder, r calc.DamageResult) {
	fmt.Fprintf(sb, "- %s: %.1f-%.1f%%", DisplayName(r.MoveID), r.MinPercent, r.MaxPercent)
	if r.KOChance == calc.KOGuaranteed {
		sb.WriteString(", guaranteed KO")
	} else if r.KOChance != "" {
		fmt.Fprintf(sb, ", %s chance to KO", r.KOChance)
	}
	if r.Assumption != "" {
		fmt.Fprintf(sb, " (assuming %s)", DisplayName(r.Assumption))
	}
	if r.IsEstimated {
		sb.WriteString(" (estimated)")
	}
	sb.WriteString("\n")
}

func (b *Builder) writePrediction(sb *strings.Builder) {
	if b.predictedMove == "" {
		return
	}
	sb.WriteString("### Predicted opponent action\n")
	sb.WriteString(b.predictedMove)
	sb.WriteString("\n\n")
}

func (b *Builder) writeMoves(sb *strings.Builder) {
	if len(b.rankedMoves) == 0 {
		return
	}
	sb.WriteString("### Your move options (best first)\n")
	for _, m := range b.rankedMoves {
		fmt.Fprintf(sb, "- %s", DisplayName(m.MoveID))
		if m.Justification != "" {
			fmt.Fprintf(sb, ": %s", m.Justification)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (b *Builder) writeSwitches(sb *strings.Builder) {
	if len(b.rankedSwitch) == 0 {
		return
	}
	sb.WriteString("### Your switch options (best first)\n")
	for _, s := range b.rankedSwitch {
		fmt.Fprintf(sb, "- %s, %.0f%% HP after entry", DisplayName(s.Species), s.HPAfterEntry)
		if s.Justification != "" {
			fmt.Fprintf(sb, ": %s", s.Justification)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (b *Builder) writeMatchups(sb *strings.Builder) {
	theirs := b.snap.TheirActive()
	if b.matchups == nil || theirs == nil {
		return
	}
	wins := b.matchups.Wins(theirs.Species)
	if len(wins) == 0 {
		return
	}
	fmt.Fprintf(sb, "### Projected to beat %s one-on-one\n", DisplayName(theirs.Species))
	for _, w := range wins {
		fmt.Fprintf(sb, "- %s (%.0f%% HP remaining)\n", DisplayName(w.OurSpecies), w.OurRemainingHP)
	}
	sb.WriteString("\n")
}

func (b *Builder) writeContext(sb *strings.Builder) {
	if b.strategy != "" {
		sb.WriteString("### Battle strategy\n")
		sb.WriteString(b.strategy)
		sb.WriteString("\n\n")
	}
	if b.memory != "" {
		sb.WriteString("### Battle notes so far\n")
		sb.WriteString(b.memory)
		sb.WriteString("\n\n")
	}
	if len(b.ragNotes) > 0 {
		sb.WriteString("### Relevant strategy notes\n")
		for _, note := range b.ragNotes {
			fmt.Fprintf(sb, "- %s\n", note)
		}
		sb.WriteString("\n")
	}
}

func joinDisplay(ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = DisplayName(id)
	}
	return strings.Join(out, ", ")
}
