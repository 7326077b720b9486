package engine

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxFallbackBullets = 5
	bulletDescWords    = 18
	contextBulletRunes = 400
	factBulletRunes    = 160
)

var (
	listItemRe  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+?)\s*$`)
	boldTitleRe = regexp.MustCompile(`^\*\*(.+?)\*\*\s*(?:[:—–-]\s*)?(.*)$`)
	titleSeps   = []string{": ", " — ", " – ", " - "}
)

// FactsSource exposes the derived knowledge facts.
type FactsSource interface {
	Facts() KnowledgeFacts
}

// FallbackComposer answers without an LLM, from stored facts and keyword
// matching. Output is always a bulleted list of at most five lines.
type FallbackComposer struct {
	facts   FactsSource
	persona Persona
}

func NewFallbackComposer(facts FactsSource, p Persona) *FallbackComposer {
	return &FallbackComposer{facts: facts, persona: p}
}

// Compose builds the answer for raw. A pasted bullet list is re-rendered and
// takes priority over keyword matching.
func (f *FallbackComposer) Compose(raw, context string) string {
	if items := parseListItems(raw); len(items) >= 2 {
		return joinBullets(items)
	}

	msg := strings.ToLower(raw)
	facts := f.facts.Facts()
	var bullets []string

	if containsAny(msg, skillKeywords) {
		if len(facts.Skills) > 0 {
			bullets = append(bullets, "Key skills: "+strings.Join(facts.Skills, ", "))
		} else {
			bullets = append(bullets, fmt.Sprintf("Key skills: %s works across modern web and software development.", f.persona.OwnerName))
		}
	}
	if containsAny(msg, projectKeywords) {
		for _, p := range facts.Projects {
			if len(bullets) >= maxFallbackBullets {
				break
			}
			bullets = append(bullets, "Project: "+TruncateRunes(Clean(p), factBulletRunes, "…"))
		}
	}
	if containsAny(msg, experienceKeywords) {
		for _, e := range facts.Experience {
			if len(bullets) >= maxFallbackBullets {
				break
			}
			bullets = append(bullets, "Experience: "+TruncateRunes(Clean(e), factBulletRunes, "…"))
		}
	}

	if len(bullets) == 0 {
		if c := Clean(context); c != "" && c != NotInitializedContext {
			bullets = append(bullets, TruncateRunes(c, contextBulletRunes, ""))
		}
	}
	if len(bullets) == 0 {
		bullets = append(bullets, fmt.Sprintf(
			"I'm %s, %s's assistant. Ask me about %s's skills, projects, or experience.",
			f.persona.AssistantName, f.persona.OwnerName, f.persona.OwnerName))
	}
	return joinBullets(bullets)
}

// parseListItems recognises a pasted list and renders each item as
// "**Title**: description" or "**Title**".
func parseListItems(raw string) []string {
	var items []string
	for line := range strings.Lines(raw) {
		m := listItemRe.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
		if m == nil {
			continue
		}
		title, desc := splitTitle(m[1])
		if title == "" {
			continue
		}
		if desc == "" {
			items = append(items, "**"+title+"**")
			continue
		}
		short, cut := TruncateWords(desc, bulletDescWords)
		if cut {
			short += "…"
		}
		items = append(items, "**"+title+"**: "+short)
	}
	return items
}

func splitTitle(item string) (title, desc string) {
	if m := boldTitleRe.FindStringSubmatch(item); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	for _, sep := range titleSeps {
		if t, d, ok := strings.Cut(item, sep); ok {
			return strings.TrimSpace(t), strings.TrimSpace(d)
		}
	}
	return strings.TrimSpace(item), ""
}

func joinBullets(items []string) string {
	if len(items) > maxFallbackBullets {
		items = items[:maxFallbackBullets]
	}
	var sb strings.Builder
	for i, it := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("- ")
		sb.WriteString(it)
	}
	return sb.String()
}
