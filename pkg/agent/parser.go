package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tailglowbot/tailglow/pkg/battle"
	"github.com/tailglowbot/tailglow/pkg/dex"
)

// maxReasoningLen caps how much reasoning is kept from a response.
const maxReasoningLen = 280

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)

	// Reasoning spans lines until the ACTION marker or the end of the
	// response; the action is a single line.
	reasoningRe = regexp.MustCompile(`(?is)REASONING:\s*(.+?)(?:\nACTION:|\z)`)
	actionRe    = regexp.MustCompile(`(?i)ACTION:[ \t]*([^\n]+)`)
)

// ParseDecision extracts a structured decision from raw LLM output. The
// expected shape is a REASONING line followed by an ACTION line, but the
// parser is deliberately forgiving: models pad, rephrase, and decorate.
// A response with no ACTION marker parses to a move decision with an empty
// target; the caller decides what to do with it.
func ParseDecision(raw string) *Decision {
	d := &Decision{Type: ActionMove}

	d.Reasoning = extractMarked(raw, reasoningRe)
	if len(d.Reasoning) > maxReasoningLen {
		d.Reasoning = d.Reasoning[:maxReasoningLen]
	}

	action := extractMarked(raw, actionRe)
	if action == "" {
		return d
	}

	lower := strings.ToLower(action)
	if rest, ok := strings.CutPrefix(lower, "terastallize and use "); ok {
		d.Tera = true
		lower = rest
	} else if rest, ok := strings.CutPrefix(lower, "tera "); ok {
		d.Tera = true
		lower = rest
	}

	if strings.Contains(lower, "switch") {
		d.Type = ActionSwitch
		d.Target = parseSwitchTarget(lower)
		return d
	}

	d.Target = parseMoveName(lower)
	return d
}

// extractMarked returns the trimmed first capture of a marker pattern. The
// patterns match case-insensitively in place, so byte offsets stay aligned
// even when the response carries characters whose upper-cased form has a
// different width.
func extractMarked(raw string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// parseSwitchTarget pulls the species out of a switch action. "switch to
// garchomp" and "switch garchomp" both work; trailing punctuation and
// commentary are dropped.
func parseSwitchTarget(action string) string {
	var target string
	if _, after, ok := strings.Cut(action, "switch to"); ok {
		target = after
	} else if _, after, ok := strings.Cut(action, "switch"); ok {
		fields := strings.Fields(after)
		if len(fields) > 0 {
			target = fields[0]
		}
	}
	target = parentheticalRe.ReplaceAllString(target, "")
	target = strings.TrimFunc(target, func(r rune) bool {
		return r == '.' || r == ',' || r == '!' || r == ' ' || r == '"'
	})
	// Drop trailing commentary after the species name.
	if cut, _, ok := strings.Cut(target, " - "); ok {
		target = strings.TrimSpace(cut)
	}
	if cut, _, ok := strings.Cut(target, ","); ok {
		target = strings.TrimSpace(cut)
	}
	return dex.NormalizeID(target)
}

// parseMoveName cleans a move action down to a normalized move ID.
// Parentheticals and a trailing dash-clause are commentary, not move name.
func parseMoveName(action string) string {
	action = parentheticalRe.ReplaceAllString(action, "")
	if cut, _, ok := strings.Cut(action, " - "); ok {
		action = cut
	}
	action = strings.TrimFunc(action, func(r rune) bool {
		return r == '.' || r == ',' || r == '!' || r == ' ' || r == '"'
	})
	return dex.NormalizeID(action)
}

// FallbackText renders the canned response used when every LLM attempt
// failed. Running it through ParseDecision keeps the failure path on the
// same rails as the normal one.
func FallbackText(snap *battle.Snapshot) string {
	action := "Struggle"
	if len(snap.LegalMoves) > 0 && !snap.MustSwitch() {
		action = snap.LegalMoves[0]
	} else if len(snap.LegalSwitches) > 0 {
		action = "Switch to " + snap.LegalSwitches[0]
	} else if len(snap.LegalMoves) > 0 {
		action = snap.LegalMoves[0]
	}
	return fmt.Sprintf("REASONING: LLM error fallback.\nACTION: %s", action)
}

// ValidateDecision checks a decision against the turn's legal options and
// reports the first problem found.
func ValidateDecision(d *Decision, snap *battle.Snapshot) error {
	if d == nil || d.Target == "" {
		return fmt.Errorf("decision has no target")
	}
	switch d.Type {
	case ActionMove:
		if snap.MustSwitch() {
			return fmt.Errorf("move chosen but a switch is required")
		}
		for _, m := range snap.LegalMoves {
			if dex.NormalizeID(m) == d.Target {
				return nil
			}
		}
		return fmt.Errorf("move %q is not legal this turn", d.Target)
	case ActionSwitch:
		for _, s := range snap.LegalSwitches {
			if dex.NormalizeID(s) == d.Target {
				return nil
			}
		}
		return fmt.Errorf("switch target %q is not legal this turn", d.Target)
	}
	return fmt.Errorf("unknown action type %q", d.Type)
}
