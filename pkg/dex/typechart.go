package dex

import "strings"

// Type is a Pokemon type name, lowercased ("fire", "water", ...).
type Type string

const (
	TypeNormal   Type = "normal"
	TypeFire     Type = "fire"
	TypeWater    Type = "water"
	TypeElectric Type = "electric"
	TypeGrass    Type = "grass"
	TypeIce      Type = "ice"
	TypeFighting Type = "fighting"
	TypePoison   Type = "poison"
	TypeGround   Type = "ground"
	TypeFlying   Type = "flying"
	TypePsychic  Type = "psychic"
	TypeBug      Type = "bug"
	TypeRock     Type = "rock"
	TypeGhost    Type = "ghost"
	TypeDragon   Type = "dragon"
	TypeDark     Type = "dark"
	TypeSteel    Type = "steel"
	TypeFairy    Type = "fairy"
)

// typeChart holds only the non-neutral matchups: attacker -> defender -> multiplier.
var typeChart = map[Type]map[Type]float64{
	TypeNormal:   {TypeRock: 0.5, TypeGhost: 0, TypeSteel: 0.5},
	TypeFire:     {TypeFire: 0.5, TypeWater: 0.5, TypeGrass: 2, TypeIce: 2, TypeBug: 2, TypeRock: 0.5, TypeDragon: 0.5, TypeSteel: 2},
	TypeWater:    {TypeFire: 2, TypeWater: 0.5, TypeGrass: 0.5, TypeGround: 2, TypeRock: 2, TypeDragon: 0.5},
	TypeElectric: {TypeWater: 2, TypeElectric: 0.5, TypeGrass: 0.5, TypeGround: 0, TypeFlying: 2, TypeDragon: 0.5},
	TypeGrass:    {TypeFire: 0.5, TypeWater: 2, TypeGrass: 0.5, TypePoison: 0.5, TypeGround: 2, TypeFlying: 0.5, TypeBug: 0.5, TypeRock: 2, TypeDragon: 0.5, TypeSteel: 0.5},
	TypeIce:      {TypeFire: 0.5, TypeWater: 0.5, TypeGrass: 2, TypeIce: 0.5, TypeGround: 2, TypeFlying: 2, TypeDragon: 2, TypeSteel: 0.5},
	TypeFighting: {TypeNormal: 2, TypeIce: 2, TypePoison: 0.5, TypeFlying: 0.5, TypePsychic: 0.5, TypeBug: 0.5, TypeRock: 2, TypeGhost: 0, TypeDark: 2, TypeSteel: 2, TypeFairy: 0.5},
	TypePoison:   {TypeGrass: 2, TypePoison: 0.5, TypeGround: 0.5, TypeRock: 0.5, TypeGhost: 0.5, TypeSteel: 0, TypeFairy: 2},
	TypeGround:   {TypeFire: 2, TypeElectric: 2, TypeGrass: 0.5, TypePoison: 2, TypeFlying: 0, TypeBug: 0.5, TypeRock: 2, TypeSteel: 2},
	TypeFlying:   {TypeElectric: 0.5, TypeGrass: 2, TypeFighting: 2, TypeBug: 2, TypeRock: 0.5, TypeSteel: 0.5},
	TypePsychic:  {TypeFighting: 2, TypePoison: 2, TypePsychic: 0.5, TypeDark: 0, TypeSteel: 0.5},
	TypeBug:      {TypeFire: 0.5, TypeGrass: 2, TypeFighting: 0.5, TypePoison: 0.5, TypeFlying: 0.5, TypePsychic: 2, TypeGhost: 0.5, TypeDark: 2, TypeSteel: 0.5, TypeFairy: 0.5},
	TypeRock:     {TypeFire: 2, TypeIce: 2, TypeFighting: 0.5, TypeGround: 0.5, TypeFlying: 2, TypeBug: 2, TypeSteel: 0.5},
	TypeGhost:    {TypeNormal: 0, TypePsychic: 2, TypeGhost: 2, TypeDark: 0.5},
	TypeDragon:   {TypeDragon: 2, TypeSteel: 0.5, TypeFairy: 0},
	TypeDark:     {TypeFighting: 0.5, TypePsychic: 2, TypeGhost: 2, TypeDark: 0.5, TypeFairy: 0.5},
	TypeSteel:    {TypeFire: 0.5, TypeWater: 0.5, TypeElectric: 0.5, TypeIce: 2, TypeRock: 2, TypeSteel: 0.5, TypeFairy: 2},
	TypeFairy:    {TypeFire: 0.5, TypeFighting: 2, TypePoison: 0.5, TypeDragon: 2, TypeDark: 2, TypeSteel: 0.5},
}

// ParseType normalizes a type name to a Type. Unknown names come back as-is,
// lowercased, and behave neutrally in the chart.
func ParseType(name string) Type {
	return Type(strings.ToLower(strings.TrimSpace(name)))
}

// Effectiveness returns the damage multiplier of an attacking type against a
// single defending type.
func Effectiveness(attacking, defending Type) float64 {
	if row, ok := typeChart[attacking]; ok {
		if mult, ok := row[defending]; ok {
			return mult
		}
	}
	return 1.0
}

// EffectivenessAgainst returns the combined multiplier of an attacking type
// against a defender's full typing.
func EffectivenessAgainst(attacking Type, defending []Type) float64 {
	mult := 1.0
	for _, t := range defending {
		mult *= Effectiveness(attacking, t)
	}
	return mult
}
