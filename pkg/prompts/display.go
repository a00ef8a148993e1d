package prompts

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DisplayName renders an internal ID or species string for prompt text.
// Hyphenated formes keep their hyphen ("iron-valiant" -> "Iron-Valiant").
func DisplayName(id string) string {
	if id == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}
