package showdown

import (
	"strconv"
	"strings"
)

// Message is one decoded protocol line from the simulator.
type Message struct {
	Room    string
	Command string
	Args    []string
}

// Arg returns the i-th argument, or "" when absent.
func (m Message) Arg(i int) string {
	if i < 0 || i >= len(m.Args) {
		return ""
	}
	return m.Args[i]
}

// ParseFrame splits a raw websocket frame into messages. A frame may open
// with a ">roomid" line naming the room for every following line; lines
// without a leading pipe are room intro text and are dropped.
func ParseFrame(raw string) []Message {
	var msgs []Message
	room := ""
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			room = strings.TrimPrefix(line, ">")
			continue
		}
		if !strings.HasPrefix(line, "|") {
			continue
		}
		parts := strings.Split(line, "|")
		// parts[0] is the empty string before the first pipe.
		msg := Message{Room: room, Command: parts[1]}
		if len(parts) > 2 {
			msg.Args = parts[2:]
		}
		msgs = append(msgs, msg)
	}
	return msgs
}

// splitIdent breaks a Pokemon identifier like "p2a: Garchomp" into the
// player id ("p2") and the nickname.
func splitIdent(ident string) (player, name string) {
	pos, name, found := strings.Cut(ident, ": ")
	if !found {
		return "", ident
	}
	// Strip the slot letter: p1a -> p1.
	if len(pos) > 2 {
		pos = pos[:2]
	}
	return pos, name
}

// parseDetails reads the species and level out of a details string such as
// "Garchomp, L76, M" or "Rotom-Wash". Level defaults to 100 when absent.
func parseDetails(details string) (species string, level int) {
	level = 100
	parts := strings.Split(details, ",")
	species = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(p, "L") {
			if n, err := strconv.Atoi(p[1:]); err == nil {
				level = n
			}
		}
	}
	return species, level
}

// condition is a parsed HP string: "210/270 par", "75/100", "0 fnt".
type condition struct {
	Current int
	Max     int
	Percent float64
	Status  string
	Fainted bool
}

func parseCondition(s string) condition {
	var c condition
	hpPart, statusPart, _ := strings.Cut(strings.TrimSpace(s), " ")
	switch statusPart {
	case "fnt":
		c.Fainted = true
	case "":
	default:
		c.Status = statusPart
	}
	cur, max, found := strings.Cut(hpPart, "/")
	if !found {
		// "0 fnt" carries no max HP.
		c.Current, _ = strconv.Atoi(cur)
		return c
	}
	c.Current, _ = strconv.Atoi(cur)
	c.Max, _ = strconv.Atoi(max)
	if c.Max > 0 {
		c.Percent = float64(c.Current) / float64(c.Max) * 100
	}
	if c.Current <= 0 {
		c.Fainted = true
	}
	return c
}

// normalizeEffect strips the "move: " prefix the simulator attaches to
// field and side conditions ("move: Stealth Rock") and normalizes the name.
func normalizeEffect(s string) string {
	if _, rest, found := strings.Cut(s, ": "); found {
		s = rest
	}
	return normalizeName(s)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "'", "")
	return s
}
