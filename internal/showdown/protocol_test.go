package showdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	raw := ">battle-gen9randombattle-1234\n" +
		"|turn|5\n" +
		"|move|p2a: Garchomp|Earthquake|p1a: Heatran\n" +
		"this line is room intro text\n" +
		"|-damage|p1a: Heatran|12/100\n"

	msgs := ParseFrame(raw)
	require.Len(t, msgs, 3)

	assert.Equal(t, "battle-gen9randombattle-1234", msgs[0].Room)
	assert.Equal(t, "turn", msgs[0].Command)
	assert.Equal(t, "5", msgs[0].Arg(0))

	assert.Equal(t, "move", msgs[1].Command)
	assert.Equal(t, "p2a: Garchomp", msgs[1].Arg(0))
	assert.Equal(t, "Earthquake", msgs[1].Arg(1))

	assert.Equal(t, "-damage", msgs[2].Command)
	assert.Equal(t, "12/100", msgs[2].Arg(1))
}

func TestParseFrameGlobalMessages(t *testing.T) {
	msgs := ParseFrame("|challstr|4|deadbeef")
	require.Len(t, msgs, 1)
	assert.Equal(t, "", msgs[0].Room)
	assert.Equal(t, "challstr", msgs[0].Command)
	assert.Equal(t, []string{"4", "deadbeef"}, msgs[0].Args)
}

func TestSplitIdent(t *testing.T) {
	player, name := splitIdent("p2a: Garchomp")
	assert.Equal(t, "p2", player)
	assert.Equal(t, "Garchomp", name)

	player, name = splitIdent("p1: TailGlowBot")
	assert.Equal(t, "p1", player)
	assert.Equal(t, "TailGlowBot", name)

	player, name = splitIdent("Garchomp")
	assert.Equal(t, "", player)
	assert.Equal(t, "Garchomp", name)
}

func TestParseDetails(t *testing.T) {
	species, level := parseDetails("Garchomp, L76, M")
	assert.Equal(t, "Garchomp", species)
	assert.Equal(t, 76, level)

	species, level = parseDetails("Rotom-Wash")
	assert.Equal(t, "Rotom-Wash", species)
	assert.Equal(t, 100, level)
}

func TestParseCondition(t *testing.T) {
	c := parseCondition("210/270 par")
	assert.Equal(t, 210, c.Current)
	assert.Equal(t, 270, c.Max)
	assert.InDelta(t, 77.78, c.Percent, 0.01)
	assert.Equal(t, "par", c.Status)
	assert.False(t, c.Fainted)

	c = parseCondition("0 fnt")
	assert.True(t, c.Fainted)
	assert.Equal(t, 0, c.Current)

	c = parseCondition("100/100")
	assert.Equal(t, 100.0, c.Percent)
	assert.Empty(t, c.Status)
}

func TestNormalizeEffect(t *testing.T) {
	assert.Equal(t, "stealthrock", normalizeEffect("move: Stealth Rock"))
	assert.Equal(t, "trickroom", normalizeEffect("move: Trick Room"))
	assert.Equal(t, "spikes", normalizeEffect("Spikes"))
}

func TestParseRequest(t *testing.T) {
	payload := `{
		"active": [{
			"moves": [
				{"move": "Earthquake", "id": "earthquake", "pp": 16, "maxpp": 16, "disabled": false},
				{"move": "Fire Blast", "id": "fireblast", "pp": 8, "maxpp": 8, "disabled": true}
			],
			"canTerastallize": "Ground"
		}],
		"side": {
			"name": "TailGlowBot",
			"id": "p1",
			"pokemon": [{
				"ident": "p1: Garchomp",
				"details": "Garchomp, L76, M",
				"condition": "270/270",
				"active": true,
				"stats": {"atk": 244, "def": 183, "spa": 156, "spd": 164, "spe": 196},
				"moves": ["earthquake", "fireblast"],
				"ability": "roughskin",
				"item": "rockyhelmet",
				"teraType": "Steel"
			}]
		},
		"rqid": 7
	}`

	req, err := ParseRequest(payload)
	require.NoError(t, err)

	assert.Equal(t, 7, req.RQID)
	assert.False(t, req.MustSwitch())
	require.Len(t, req.Active, 1)
	assert.True(t, req.Active[0].CanTerastallize.Allowed)
	assert.Equal(t, "Ground", req.Active[0].CanTerastallize.Type)
	require.Len(t, req.Side.Pokemon, 1)
	assert.Equal(t, "270/270", req.Side.Pokemon[0].Condition)
	assert.Equal(t, "rockyhelmet", req.Side.Pokemon[0].Item)
}

func TestParseRequestTeraFalse(t *testing.T) {
	req, err := ParseRequest(`{"active": [{"canTerastallize": false}], "rqid": 2}`)
	require.NoError(t, err)
	assert.False(t, req.Active[0].CanTerastallize.Allowed)
}

func TestParseRequestForceSwitch(t *testing.T) {
	req, err := ParseRequest(`{"forceSwitch": [true], "side": {"pokemon": []}, "rqid": 3}`)
	require.NoError(t, err)
	assert.True(t, req.MustSwitch())
}
