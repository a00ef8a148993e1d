package showdown

import (
	"encoding/json"
	"fmt"
)

// Request is the simulator's decision request, delivered as JSON on a
// |request| line whenever our input is needed.
type Request struct {
	Active      []ActiveSlot `json:"active"`
	Side        RequestSide  `json:"side"`
	ForceSwitch []bool       `json:"forceSwitch"`
	Wait        bool         `json:"wait"`
	TeamPreview bool         `json:"teamPreview"`
	RQID        int          `json:"rqid"`
}

// MustSwitch reports whether the request demands a switch.
func (r *Request) MustSwitch() bool {
	for _, f := range r.ForceSwitch {
		if f {
			return true
		}
	}
	return false
}

// ActiveSlot describes what the active Pokemon may do this turn.
type ActiveSlot struct {
	Moves           []ActiveMove `json:"moves"`
	CanTerastallize TeraFlag     `json:"canTerastallize"`
	Trapped         bool         `json:"trapped"`
}

// ActiveMove is one usable move slot.
type ActiveMove struct {
	Move     string `json:"move"`
	ID       string `json:"id"`
	PP       int    `json:"pp"`
	MaxPP    int    `json:"maxpp"`
	Disabled bool   `json:"disabled"`
}

// RequestSide is our full team as the simulator sees it.
type RequestSide struct {
	Name    string           `json:"name"`
	ID      string           `json:"id"`
	Pokemon []RequestPokemon `json:"pokemon"`
}

// RequestPokemon is one team member in a request.
type RequestPokemon struct {
	Ident       string         `json:"ident"`
	Details     string         `json:"details"`
	Condition   string         `json:"condition"`
	Active      bool           `json:"active"`
	Stats       map[string]int `json:"stats"`
	Moves       []string       `json:"moves"`
	Ability     string         `json:"ability"`
	BaseAbility string         `json:"baseAbility"`
	Item        string         `json:"item"`
	TeraType    string         `json:"teraType"`
	// Set to the tera type name once the Pokemon has terastallized.
	Terastallized string `json:"terastallized"`
}

// TeraFlag decodes the canTerastallize field, which is either false or the
// string name of the tera type.
type TeraFlag struct {
	Allowed bool
	Type    string
}

func (t *TeraFlag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		t.Allowed = b
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unexpected canTerastallize value %s", data)
	}
	t.Allowed = s != ""
	t.Type = s
	return nil
}

// ParseRequest decodes a request payload.
func ParseRequest(payload string) (*Request, error) {
	var req Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return &req, nil
}
