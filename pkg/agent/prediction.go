package agent

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tailglowbot/tailglow/pkg/dex"
)

// maxPredictions caps how many parsed prediction entries are kept.
const maxPredictions = 5

var (
	// predictionLineRe matches ranked prediction lines like:
	//   1. **Earthquake** (60%) - 45% damage to you - They can KO and will
	predictionLineRe = regexp.MustCompile(`\d+\.\s*\*\*([^*]+)\*\*\s*\((\d+)%?\)\s*-\s*([^-]+)\s*-\s*(.+)`)

	switchPredictionRe = regexp.MustCompile(`(?i)switch(?:\s+to)?\s+(\w+)`)
)

// PredictedAction is one entry of the opponent prediction, parsed from the
// ranked list the prediction call is asked to produce.
type PredictedAction struct {
	Type        ActionType
	Target      string // normalized move or species ID
	Probability float64
	Damage      string // expected damage text, verbatim
	Reasoning   string
}

// ParsePredictions extracts the ranked prediction entries from a prediction
// response. Lines that do not match the expected shape are skipped, so a
// rambling response degrades to an empty list instead of an error. Entries
// come back sorted by probability descending.
func ParsePredictions(raw string) []PredictedAction {
	var preds []PredictedAction
	for _, m := range predictionLineRe.FindAllStringSubmatch(raw, -1) {
		action := strings.TrimSpace(m[1])
		prob, _ := strconv.Atoi(m[2])
		p := PredictedAction{
			Probability: float64(prob) / 100,
			Damage:      strings.TrimSpace(m[3]),
			Reasoning:   strings.TrimSpace(m[4]),
		}
		if strings.Contains(strings.ToLower(action), "switch") {
			p.Type = ActionSwitch
			if sm := switchPredictionRe.FindStringSubmatch(action); sm != nil {
				p.Target = dex.NormalizeID(sm[1])
			} else {
				p.Target = dex.NormalizeID(action)
			}
		} else {
			p.Type = ActionMove
			p.Target = dex.NormalizeID(action)
		}
		preds = append(preds, p)
	}

	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].Probability > preds[j].Probability
	})
	if len(preds) > maxPredictions {
		preds = preds[:maxPredictions]
	}
	return preds
}
