package dex

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// BaseStats are a species' base stat values.
type BaseStats struct {
	HP  int `json:"hp"`
	Atk int `json:"atk"`
	Def int `json:"def"`
	SpA int `json:"spa"`
	SpD int `json:"spd"`
	Spe int `json:"spe"`
}

// Species holds the static data for one Pokemon species.
type Species struct {
	Name      string    `json:"name"`
	Types     []string  `json:"types"`
	BaseStats BaseStats `json:"baseStats"`
}

// TypeList returns the species' typing as parsed Types.
func (s Species) TypeList() []Type {
	types := make([]Type, 0, len(s.Types))
	for _, t := range s.Types {
		types = append(types, ParseType(t))
	}
	return types
}

// Pokedex is a lookup table of species keyed by normalized name.
type Pokedex struct {
	species map[string]Species
}

// NewPokedex builds a pokedex from a list of species.
func NewPokedex(species ...Species) *Pokedex {
	p := &Pokedex{species: make(map[string]Species, len(species))}
	for _, s := range species {
		p.Add(s)
	}
	return p
}

// Add inserts or replaces a species entry.
func (p *Pokedex) Add(s Species) {
	p.species[NormalizeID(s.Name)] = s
}

// Lookup finds a species by name. Forme variants fall back to the base
// species when the full forme name is unknown ("Tatsugiri-Curly" ->
// "Tatsugiri").
func (p *Pokedex) Lookup(name string) (Species, bool) {
	if s, ok := p.species[NormalizeID(name)]; ok {
		return s, true
	}
	if base, _, found := strings.Cut(name, "-"); found {
		if s, ok := p.species[NormalizeID(base)]; ok {
			return s, true
		}
	}
	return Species{}, false
}

// Len returns the number of registered species.
func (p *Pokedex) Len() int {
	return len(p.species)
}

// LoadPokedex reads a Showdown-format pokedex JSON file (map of id -> species).
func LoadPokedex(path string) (*Pokedex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pokedex file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var raw map[string]Species
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode pokedex file: %w", err)
	}

	p := &Pokedex{species: make(map[string]Species, len(raw))}
	for id, s := range raw {
		if s.Name == "" {
			s.Name = id
		}
		p.Add(s)
	}
	return p, nil
}
