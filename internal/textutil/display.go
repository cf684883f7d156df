// Package textutil derives human-readable display text from the opaque
// identifiers that flow through the pipeline. Meeting event IDs often embed a
// slugged title ("weekly-sync-2026-08-21"); DisplayName recovers a readable
// form for notifications and CLI output.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName converts an event identifier into presentable text: separator
// runs collapse to single spaces and the result is title-cased. Identifiers
// with no letters or digits fall back to "Untitled Meeting".
func DisplayName(eventID string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range eventID {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	name := strings.TrimSpace(cleaned.String())
	if name == "" {
		return "Untitled Meeting"
	}
	return cases.Title(language.Und).String(name)
}

// StatusLabel renders a lowercase status token for table and notification
// output ("transcribing" becomes "Transcribing").
func StatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return cases.Title(language.Und).String(status)
}
