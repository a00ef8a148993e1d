package dex

// Curated effect text for items, abilities and moves whose mechanics matter
// for turn decisions. Lookups are by normalized ID; missing entries return "".

var itemEffects = map[string]string{
	"choiceband":   "1.5x Attack, but locked into the first move used",
	"choicespecs":  "1.5x Sp. Atk, but locked into the first move used",
	"choicescarf":  "1.5x Speed, but locked into the first move used",
	"lifeorb":      "1.3x damage, loses 10% max HP per attack",
	"leftovers":    "restores 1/16 max HP each turn",
	"focussash":    "survives a OHKO from full HP with 1 HP",
	"assaultvest":  "1.5x Sp. Def, but cannot use status moves",
	"heavydutyboots": "ignores entry hazards when switching in",
	"rockyhelmet":  "attackers making contact lose 1/6 max HP",
	"airballoon":   "immune to Ground moves until hit",
	"sitrusberry":  "restores 25% max HP when below half",
	"lightclay":    "screens last 8 turns instead of 5",
	"eviolite":     "1.5x Def and Sp. Def if the holder can still evolve",
	"boosterenergy": "activates Protosynthesis/Quark Drive once",
}

var abilityEffects = map[string]string{
	"levitate":     "immune to Ground-type moves and Spikes",
	"intimidate":   "lowers the foe's Attack one stage on entry",
	"unaware":      "ignores the opponent's stat changes",
	"magicguard":   "only takes damage from direct attacks",
	"regenerator":  "restores 1/3 max HP on switching out",
	"sturdy":       "survives a OHKO from full HP",
	"flashfire":    "immune to Fire, powers up own Fire moves when hit",
	"voltabsorb":   "heals 25% when hit by an Electric move",
	"waterabsorb":  "heals 25% when hit by a Water move",
	"thickfat":     "halves damage from Fire and Ice moves",
	"guts":         "1.5x Attack when statused, ignores burn drop",
	"technician":   "1.5x power for moves with 60 BP or less",
	"moldbreaker":  "moves ignore the target's ability",
	"prankster":    "+1 priority on status moves",
	"swiftswim":    "doubles Speed in rain",
	"chlorophyll":  "doubles Speed in sun",
	"protosynthesis": "boosts highest stat in sun or with Booster Energy",
	"quarkdrive":   "boosts highest stat on Electric Terrain or with Booster Energy",
	"supremeoverlord": "moves gain power per fainted ally",
	"goodasgold":   "immune to status moves",
}

var moveEffects = map[string]string{
	"stealthrock":  "sets rocks: switch-ins lose HP by Rock effectiveness",
	"spikes":       "sets a layer of ground hazards (up to 3)",
	"rapidspin":    "removes hazards on own side, raises Speed",
	"defog":        "removes hazards on both sides",
	"toxic":        "badly poisons the target",
	"willowisp":    "burns the target (physical attackers hate this)",
	"thunderwave":  "paralyzes the target, Speed halved",
	"protect":      "blocks moves for one turn, fails if repeated",
	"substitute":   "costs 25% HP, blocks status and damage until broken",
	"swordsdance":  "+2 Attack",
	"nastyplot":    "+2 Sp. Atk",
	"dragondance":  "+1 Attack, +1 Speed",
	"calmmind":     "+1 Sp. Atk, +1 Sp. Def",
	"recover":      "restores 50% max HP",
	"roost":        "restores 50% max HP, loses Flying type this turn",
	"uturn":        "attacks then switches out",
	"voltswitch":   "attacks then switches out",
	"partingshot":  "lowers foe's offenses then switches out",
	"trickroom":    "slower Pokemon move first for 5 turns",
	"tailwind":     "doubles team Speed for 4 turns",
	"knockoff":     "removes the target's item, 1.5x power if it holds one",
	"suckerpunch":  "+1 priority, fails unless the target attacks",
	"extremespeed": "+2 priority",
	"aquajet":      "+1 priority",
	"iceshard":     "+1 priority",
	"bulletpunch":  "+1 priority",
	"haze":         "resets all stat changes",
	"whirlwind":    "forces the target to switch",
	"encore":       "locks the target into its last move",
	"leechseed":    "drains 1/8 max HP per turn",
}

// ItemEffect returns curated effect text for an item, or "".
func ItemEffect(name string) string {
	return itemEffects[NormalizeID(name)]
}

// AbilityEffect returns curated effect text for an ability, or "".
func AbilityEffect(name string) string {
	return abilityEffects[NormalizeID(name)]
}

// MoveEffect returns curated effect text for a move, or "".
func MoveEffect(name string) string {
	return moveEffects[NormalizeID(name)]
}
