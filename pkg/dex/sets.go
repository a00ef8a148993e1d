package dex

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Stat EV/IV defaults for random battle sets. Sets that omit a stat use these.
const (
	DefaultEV = 84
	DefaultIV = 31
)

var statOrder = []string{"hp", "atk", "def", "spa", "spd", "spe"}

// SetRole is one possible role for a species in random battles.
type SetRole struct {
	Name      string
	Moves     []string
	Abilities []string
	Items     []string
	TeraTypes []string
	EVs       map[string]int
	IVs       map[string]int
}

// SpeciesSet is the probabilistic set data for one species.
type SpeciesSet struct {
	Species   string
	Level     int
	Abilities []string
	Items     []string
	Roles     map[string]SetRole
	EVs       map[string]int
	IVs       map[string]int
}

// SetData contains set information for every species in a format, with
// normalized lookup.
type SetData struct {
	data   map[string]SpeciesSet
	lookup map[string]string // normalized -> original key
	logger *slog.Logger
}

// NewSetData wraps parsed species sets with a normalized lookup index.
func NewSetData(data map[string]SpeciesSet, logger *slog.Logger) *SetData {
	if logger == nil {
		logger = slog.Default()
	}
	sd := &SetData{
		data:   data,
		lookup: make(map[string]string, len(data)),
		logger: logger,
	}
	for species := range data {
		sd.lookup[NormalizeID(species)] = species
	}
	return sd
}

// Len returns the number of species with set data.
func (sd *SetData) Len() int {
	return len(sd.data)
}

// Get finds set data for a species. Forme variants fall back to the base
// species, and already-normalized forme names fall back to a prefix match.
// Returns false when no data exists; callers must degrade, not fail.
func (sd *SetData) Get(species string) (SpeciesSet, bool) {
	normalized := NormalizeID(species)
	if original, ok := sd.lookup[normalized]; ok {
		return sd.data[original], true
	}

	if base, _, found := strings.Cut(species, "-"); found {
		if original, ok := sd.lookup[NormalizeID(base)]; ok {
			sd.logger.Info("set lookup used forme fallback", "species", species, "base", original)
			return sd.data[original], true
		}
	}

	// Prefix match covers forme names whose dash was stripped before lookup.
	for normKey, original := range sd.lookup {
		if strings.HasPrefix(normalized, normKey) && len(normalized) > len(normKey) {
			sd.logger.Info("set lookup used prefix match", "species", species, "match", original)
			return sd.data[original], true
		}
	}

	sd.logger.Warn("set lookup failed", "species", species)
	return SpeciesSet{}, false
}

// Level returns the set level for a species, or 0 when unknown.
func (sd *SetData) Level(species string) int {
	if s, ok := sd.Get(species); ok {
		return s.Level
	}
	return 0
}

// EVs returns the EV spread for a species with unspecified stats defaulted.
func (sd *SetData) EVs(species string) map[string]int {
	return sd.spread(species, DefaultEV, func(s SpeciesSet) map[string]int { return s.EVs })
}

// IVs returns the IV spread for a species with unspecified stats defaulted.
func (sd *SetData) IVs(species string) map[string]int {
	return sd.spread(species, DefaultIV, func(s SpeciesSet) map[string]int { return s.IVs })
}

func (sd *SetData) spread(species string, def int, pick func(SpeciesSet) map[string]int) map[string]int {
	out := make(map[string]int, len(statOrder))
	for _, stat := range statOrder {
		out[stat] = def
	}
	if s, ok := sd.Get(species); ok {
		for stat, v := range pick(s) {
			out[strings.ToLower(stat)] = v
		}
	}
	return out
}

// PossibleMoves returns every move across all roles for a species,
// normalized to move IDs.
func (sd *SetData) PossibleMoves(species string) map[string]bool {
	moves := make(map[string]bool)
	s, ok := sd.Get(species)
	if !ok {
		return moves
	}
	for _, role := range s.Roles {
		for _, m := range role.Moves {
			moves[NormalizeID(m)] = true
		}
	}
	return moves
}

// PossibleAbilities returns all possible abilities for a species.
func (sd *SetData) PossibleAbilities(species string) []string {
	if s, ok := sd.Get(species); ok {
		return s.Abilities
	}
	return nil
}

// PossibleItems returns all possible items for a species.
func (sd *SetData) PossibleItems(species string) []string {
	if s, ok := sd.Get(species); ok {
		return s.Items
	}
	return nil
}

// PossibleTeraTypes returns the deduplicated tera types across all roles.
func (sd *SetData) PossibleTeraTypes(species string) []string {
	s, ok := sd.Get(species)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var types []string
	for _, role := range s.Roles {
		for _, t := range role.TeraTypes {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	return types
}

type rawSetRole struct {
	Moves     []string       `json:"moves"`
	Abilities []string       `json:"abilities"`
	Items     []string       `json:"items"`
	TeraTypes []string       `json:"teraTypes"`
	EVs       map[string]int `json:"evs"`
	IVs       map[string]int `json:"ivs"`
}

type rawSpeciesSet struct {
	Level     int                   `json:"level"`
	Abilities []string              `json:"abilities"`
	Items     []string              `json:"items"`
	Roles     map[string]rawSetRole `json:"roles"`
	EVs       map[string]int        `json:"evs"`
	IVs       map[string]int        `json:"ivs"`
}

// ParseSetData parses the pkmn.github.io randbats JSON payload.
func ParseSetData(payload []byte, logger *slog.Logger) (*SetData, error) {
	var raw map[string]rawSpeciesSet
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse set data: %w", err)
	}

	data := make(map[string]SpeciesSet, len(raw))
	for species, rs := range raw {
		set := SpeciesSet{
			Species:   species,
			Level:     rs.Level,
			Abilities: rs.Abilities,
			Items:     rs.Items,
			Roles:     make(map[string]SetRole, len(rs.Roles)),
			EVs:       lowerKeys(rs.EVs),
			IVs:       lowerKeys(rs.IVs),
		}
		if set.Level == 0 {
			set.Level = 100
		}
		for name, rr := range rs.Roles {
			role := SetRole{
				Name:      name,
				Moves:     rr.Moves,
				Abilities: rr.Abilities,
				Items:     rr.Items,
				TeraTypes: rr.TeraTypes,
				EVs:       lowerKeys(rr.EVs),
				IVs:       lowerKeys(rr.IVs),
			}
			if len(role.Abilities) == 0 {
				role.Abilities = rs.Abilities
			}
			if len(role.Items) == 0 {
				role.Items = rs.Items
			}
			set.Roles[name] = role
		}
		data[species] = set
	}

	return NewSetData(data, logger), nil
}

func lowerKeys(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
