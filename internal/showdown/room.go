package showdown

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/dex"
)

// Room tracks the observable state of one battle room from the protocol
// stream. Our own side is authoritative in each request; the opponent's side
// is reconstructed from revealed events.
type Room struct {
	ID       string
	username string
	pokedex  *dex.Pokedex
	logger   *slog.Logger

	ourID   string // "p1" or "p2", learned from the player lines
	theirID string

	turn    int
	weather string
	fields  map[string]bool

	ourConditions   map[string]int
	theirConditions map[string]int

	// Boosts for our side are not part of the request, so they are tracked
	// from events alongside the opponent's.
	ourBoosts map[string]map[string]int

	opponents []*battle.Pokemon

	request *Request

	finished bool
	won      bool
}

// NewRoom creates a tracker for one battle room.
func NewRoom(id, username string, pokedex *dex.Pokedex, logger *slog.Logger) *Room {
	if logger == nil {
		logger = slog.Default()
	}
	return &Room{
		ID:              id,
		username:        username,
		pokedex:         pokedex,
		logger:          logger.With("battle", id),
		fields:          make(map[string]bool),
		ourConditions:   make(map[string]int),
		theirConditions: make(map[string]int),
		ourBoosts:       make(map[string]map[string]int),
	}
}

// Finished reports whether the battle has ended.
func (r *Room) Finished() bool { return r.finished }

// Won reports whether we won a finished battle.
func (r *Room) Won() bool { return r.won }

// Turn returns the current turn number.
func (r *Room) Turn() int { return r.turn }

// SetRequest records the latest decision request.
func (r *Room) SetRequest(req *Request) { r.request = req }

// Request returns the latest decision request, or nil.
func (r *Room) Request() *Request { return r.request }

// Apply folds one protocol message into the room state.
func (r *Room) Apply(msg Message) {
	switch msg.Command {
	case "player":
		if strings.EqualFold(msg.Arg(1), r.username) {
			r.ourID = msg.Arg(0)
		} else if msg.Arg(1) != "" && r.theirID == "" {
			r.theirID = msg.Arg(0)
		}
	case "turn":
		if t, err := strconv.Atoi(msg.Arg(0)); err == nil {
			r.turn = t
		}
	case "switch", "drag", "replace":
		r.applySwitch(msg)
	case "move":
		r.applyMove(msg)
	case "-damage", "-heal", "-sethp":
		r.applyHP(msg)
	case "faint":
		if player, _ := splitIdent(msg.Arg(0)); player == r.ourID {
			return
		}
		if p := r.opponentByIdent(msg.Arg(0)); p != nil {
			p.Fainted = true
			p.Active = false
			p.HPPercent = 0
		}
	case "-status":
		r.withPokemon(msg.Arg(0), func(p *battle.Pokemon) { p.Status = msg.Arg(1) })
	case "-curestatus":
		r.withPokemon(msg.Arg(0), func(p *battle.Pokemon) { p.Status = "" })
	case "-boost":
		r.applyBoost(msg, 1)
	case "-unboost":
		r.applyBoost(msg, -1)
	case "-setboost":
		if n, err := strconv.Atoi(msg.Arg(2)); err == nil {
			r.setBoost(msg.Arg(0), msg.Arg(1), n)
		}
	case "-clearboost", "-clearnegativeboost":
		r.clearBoosts(msg.Arg(0))
	case "-clearallboost":
		for _, p := range r.opponents {
			p.Boosts = nil
		}
		r.ourBoosts = make(map[string]map[string]int)
	case "-weather":
		w := normalizeName(msg.Arg(0))
		if w == "none" {
			w = ""
		}
		r.weather = w
	case "-fieldstart":
		r.fields[normalizeEffect(msg.Arg(0))] = true
	case "-fieldend":
		delete(r.fields, normalizeEffect(msg.Arg(0)))
	case "-sidestart":
		r.sideConditions(msg.Arg(0))[normalizeEffect(msg.Arg(1))]++
	case "-sideend":
		delete(r.sideConditions(msg.Arg(0)), normalizeEffect(msg.Arg(1)))
	case "-item":
		if p := r.opponentByIdent(msg.Arg(0)); p != nil {
			p.Item = dex.NormalizeID(msg.Arg(1))
		}
	case "-enditem":
		if p := r.opponentByIdent(msg.Arg(0)); p != nil {
			p.Item = ""
		}
	case "-ability":
		if p := r.opponentByIdent(msg.Arg(0)); p != nil {
			p.Ability = dex.NormalizeID(msg.Arg(1))
		}
	case "-terastallize":
		r.withPokemon(msg.Arg(0), func(p *battle.Pokemon) {
			p.Terastallized = true
			p.TeraType = strings.ToLower(msg.Arg(1))
		})
	case "win":
		r.finished = true
		r.won = strings.EqualFold(msg.Arg(0), r.username)
	case "tie":
		r.finished = true
	}
}

func (r *Room) applySwitch(msg Message) {
	player, _ := splitIdent(msg.Arg(0))
	species, level := parseDetails(msg.Arg(1))
	if player == r.ourID {
		// Our request data is authoritative; only reset tracked boosts.
		delete(r.ourBoosts, dex.NormalizeID(species))
		return
	}

	for _, p := range r.opponents {
		p.Active = false
	}
	p := r.findOpponent(species)
	if p == nil {
		p = &battle.Pokemon{Species: species, Level: level, HPPercent: 100}
		if s, ok := r.pokedex.Lookup(species); ok {
			p.Types = s.TypeList()
		}
		r.opponents = append(r.opponents, p)
	}
	p.Active = true
	p.Boosts = nil
	if c := parseCondition(msg.Arg(2)); c.Max > 0 {
		p.HPPercent = c.Percent
		p.Status = c.Status
	}
}

func (r *Room) applyMove(msg Message) {
	player, _ := splitIdent(msg.Arg(0))
	if player == r.ourID {
		return
	}
	p := r.opponentByIdent(msg.Arg(0))
	if p == nil {
		return
	}
	id := dex.NormalizeID(msg.Arg(1))
	for _, m := range p.Moves {
		if m == id {
			return
		}
	}
	p.Moves = append(p.Moves, id)
}

func (r *Room) applyHP(msg Message) {
	player, _ := splitIdent(msg.Arg(0))
	if player == r.ourID {
		return
	}
	p := r.opponentByIdent(msg.Arg(0))
	if p == nil {
		return
	}
	c := parseCondition(msg.Arg(1))
	if c.Fainted {
		p.HPPercent = 0
		p.Fainted = true
		p.Active = false
		return
	}
	if c.Max > 0 {
		p.HPPercent = c.Percent
	}
	if c.Status != "" {
		p.Status = c.Status
	}
}

func (r *Room) applyBoost(msg Message, sign int) {
	n, err := strconv.Atoi(msg.Arg(2))
	if err != nil {
		return
	}
	player, name := splitIdent(msg.Arg(0))
	stat := msg.Arg(1)
	if player == r.ourID {
		id := dex.NormalizeID(name)
		if r.ourBoosts[id] == nil {
			r.ourBoosts[id] = make(map[string]int)
		}
		r.ourBoosts[id][stat] += sign * n
		return
	}
	if p := r.opponentByIdent(msg.Arg(0)); p != nil {
		if p.Boosts == nil {
			p.Boosts = make(map[string]int)
		}
		p.Boosts[stat] += sign * n
	}
}

func (r *Room) setBoost(ident, stat string, value int) {
	player, name := splitIdent(ident)
	if player == r.ourID {
		id := dex.NormalizeID(name)
		if r.ourBoosts[id] == nil {
			r.ourBoosts[id] = make(map[string]int)
		}
		r.ourBoosts[id][stat] = value
		return
	}
	if p := r.opponentByIdent(ident); p != nil {
		if p.Boosts == nil {
			p.Boosts = make(map[string]int)
		}
		p.Boosts[stat] = value
	}
}

func (r *Room) clearBoosts(ident string) {
	player, name := splitIdent(ident)
	if player == r.ourID {
		delete(r.ourBoosts, dex.NormalizeID(name))
		return
	}
	if p := r.opponentByIdent(ident); p != nil {
		p.Boosts = nil
	}
}

// withPokemon applies fn to the opponent Pokemon named by ident. Our own
// Pokemon are covered by the request, except boosts, handled above.
func (r *Room) withPokemon(ident string, fn func(*battle.Pokemon)) {
	player, _ := splitIdent(ident)
	if player == r.ourID {
		return
	}
	if p := r.opponentByIdent(ident); p != nil {
		fn(p)
	}
}

func (r *Room) sideConditions(arg string) map[string]int {
	player, _ := splitIdent(arg)
	if player == "" {
		// "-sidestart|p1: name|..." keeps the ident form, but be lenient.
		player = strings.TrimSpace(arg)
		if len(player) > 2 {
			player = player[:2]
		}
	}
	if player == r.ourID {
		return r.ourConditions
	}
	return r.theirConditions
}

func (r *Room) opponentByIdent(ident string) *battle.Pokemon {
	_, name := splitIdent(ident)
	return r.findOpponent(name)
}

func (r *Room) findOpponent(species string) *battle.Pokemon {
	id := dex.NormalizeID(species)
	for _, p := range r.opponents {
		if dex.NormalizeID(p.Species) == id {
			return p
		}
	}
	// Nicknames and forme changes may not match the details species; fall
	// back to a prefix match.
	for _, p := range r.opponents {
		pid := dex.NormalizeID(p.Species)
		if strings.HasPrefix(pid, id) || strings.HasPrefix(id, pid) {
			return p
		}
	}
	return nil
}

// Snapshot assembles the complete turn state from the latest request and the
// tracked opponent side. Returns nil when no request has arrived yet.
func (r *Room) Snapshot() *battle.Snapshot {
	req := r.request
	if req == nil {
		return nil
	}

	snap := &battle.Snapshot{
		BattleTag: r.ID,
		Turn:      r.turn,
		Weather:   r.weather,
		Fields:    make(map[string]bool, len(r.fields)),
		Ours: battle.Side{
			Conditions: copyConditions(r.ourConditions),
		},
		Theirs: battle.Side{
			Conditions: copyConditions(r.theirConditions),
		},
		ForceSwitch: req.MustSwitch(),
	}
	for k, v := range r.fields {
		snap.Fields[k] = v
	}

	for _, rp := range req.Side.Pokemon {
		p := r.buildOurPokemon(rp)
		snap.Ours.Pokemon = append(snap.Ours.Pokemon, p)
		if !p.Active && !p.Fainted {
			snap.LegalSwitches = append(snap.LegalSwitches, p.Species)
		}
	}

	for _, p := range r.opponents {
		clone := *p
		if p.Boosts != nil {
			clone.Boosts = make(map[string]int, len(p.Boosts))
			for k, v := range p.Boosts {
				clone.Boosts[k] = v
			}
		}
		clone.Moves = append([]string(nil), p.Moves...)
		snap.Theirs.Pokemon = append(snap.Theirs.Pokemon, &clone)
	}

	if !snap.ForceSwitch && len(req.Active) > 0 {
		for _, m := range req.Active[0].Moves {
			if !m.Disabled {
				snap.LegalMoves = append(snap.LegalMoves, m.ID)
			}
		}
		snap.CanTera = req.Active[0].CanTerastallize.Allowed
		if req.Active[0].Trapped {
			snap.LegalSwitches = nil
		}
	}

	return snap
}

func (r *Room) buildOurPokemon(rp RequestPokemon) *battle.Pokemon {
	species, level := parseDetails(rp.Details)
	c := parseCondition(rp.Condition)

	p := &battle.Pokemon{
		Species:   species,
		Level:     level,
		HPPercent: c.Percent,
		MaxHP:     c.Max,
		CurrentHP: c.Current,
		Status:    c.Status,
		Moves:     append([]string(nil), rp.Moves...),
		Item:      dex.NormalizeID(rp.Item),
		Ability:   firstNonEmpty(rp.Ability, rp.BaseAbility),
		Stats:     rp.Stats,
		Active:    rp.Active,
		Fainted:   c.Fainted,
		TeraType:  strings.ToLower(rp.TeraType),
	}
	if rp.Terastallized != "" {
		p.Terastallized = true
		p.TeraType = strings.ToLower(rp.Terastallized)
	}
	p.Ability = dex.NormalizeID(p.Ability)
	if s, ok := r.pokedex.Lookup(species); ok {
		p.Types = s.TypeList()
	}
	if b, ok := r.ourBoosts[dex.NormalizeID(species)]; ok && p.Active {
		p.Boosts = make(map[string]int, len(b))
		for k, v := range b {
			p.Boosts[k] = v
		}
	}
	return p
}

func copyConditions(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
