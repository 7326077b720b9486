package engine

import (
	"regexp"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// User-Agent sent when scraping the portfolio site.
const UserAgentBot = "JIA Portfolio Bot/1.0"

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	moreRe       = regexp.MustCompile(`(?i)\b(?:show|see|read|view)\s+more\b`)
	userMoreRe   = regexp.MustCompile(`(?i)\b(?:show|see|read)\s+more\b`)
	ellipsisRe   = regexp.MustCompile(`…+|\.{3,}`)
	uiLabelRe    = regexp.MustCompile(`(?im)^[ \t]*(?:back|menu|home|next|previous)[ \t\r]*$`)
)

var quoteReplacer = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`,
	"‘", "'", "’", "'", "‚", "'", "‛", "'",
)

// Clean normalises scraped or extracted text: drops UI chrome lines and
// "show more" style filler, straightens quotes, removes ellipses and
// collapses whitespace.
//
// Label lines are stripped before whitespace is collapsed; afterwards there
// are no lines left to match.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	t := uiLabelRe.ReplaceAllString(raw, "")
	t = quoteReplacer.Replace(t)
	t = ellipsisRe.ReplaceAllString(t, " ")
	t = whitespaceRe.ReplaceAllString(t, " ")
	t = moreRe.ReplaceAllString(t, "")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// NormalizeUserInput is the lighter pass applied to a live visitor message.
// Unlike Clean, it keeps "view more" and UI label lines.
func NormalizeUserInput(raw string) string {
	if raw == "" {
		return ""
	}
	t := quoteReplacer.Replace(raw)
	t = whitespaceRe.ReplaceAllString(t, " ")
	t = userMoreRe.ReplaceAllString(t, "")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// TruncateRunes caps s at limit runes, appending suffix if truncated.
// Pass suffix="" for no suffix. Safe for UTF-8 (Cyrillic, CJK, emoji).
func TruncateRunes(s string, limit int, suffix string) string {
	return strutil.TruncateWith(s, limit, suffix)
}

// TruncateWords keeps the first n words of s and reports whether any were dropped.
func TruncateWords(s string, n int) (string, bool) {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " "), false
	}
	return strings.Join(words[:n], " "), true
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
