package render

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	untitled   = "Untitled"
	missingURL = "#"
	ellipsis   = "..."
	urlBudget  = 45
)

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// Escape replaces the five reserved markup characters with entities.
// Every piece of free text goes through it before entering a document.
func Escape(s string) string {
	return markupEscaper.Replace(s)
}

// Truncate shortens s to at most budget runes, ending in "..." when cut.
// Input is NFC-normalized first so combining marks are not split.
func Truncate(s string, budget int) string {
	s = norm.NFC.String(s)
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	if budget <= len(ellipsis) {
		return string(runes[:budget])
	}
	return string(runes[:budget-len(ellipsis)]) + ellipsis
}

func titleOrDefault(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return untitled
}

func urlOrDefault(u string) string {
	if u = strings.TrimSpace(u); u != "" {
		return u
	}
	return missingURL
}

// displayURL strips the scheme for the secondary line of stacked cards.
func displayURL(u string) string {
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	return strings.TrimSuffix(u, "/")
}
