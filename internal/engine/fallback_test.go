package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticFacts KnowledgeFacts

func (f staticFacts) Facts() KnowledgeFacts { return KnowledgeFacts(f) }

var testPersona = Persona{AssistantName: "Alfred", OwnerName: "Jeeva"}

func TestCompose_PastedList(t *testing.T) {
	f := NewFallbackComposer(staticFacts{Skills: []string{"Go"}}, testPersona)
	got := f.Compose("* React: build UIs\n* Node: backend", "Skills: Go")
	assert.Equal(t, "- **React**: build UIs\n- **Node**: backend", got)
}

func TestCompose_PastedListVariants(t *testing.T) {
	f := NewFallbackComposer(staticFacts{}, testPersona)
	raw := strings.Join([]string{
		"Here are my projects:",
		"1. **Shop** — an online store",
		"2) Tracker – habit tracking app",
		"- Dashboard",
		"• Blog - personal writing",
	}, "\n")
	want := strings.Join([]string{
		"- **Shop**: an online store",
		"- **Tracker**: habit tracking app",
		"- **Dashboard**",
		"- **Blog**: personal writing",
	}, "\n")
	assert.Equal(t, want, f.Compose(raw, ""))
}

func TestCompose_PastedListTruncatesDescription(t *testing.T) {
	f := NewFallbackComposer(staticFacts{}, testPersona)
	long := strings.Repeat("word ", 25)
	got := f.Compose("- Big: "+long+"\n- Small: tiny", "")
	lines := strings.Split(got, "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "…"), lines[0])
	assert.Len(t, strings.Fields(strings.TrimPrefix(lines[0], "- **Big**: ")), bulletDescWords)
	assert.Equal(t, "- **Small**: tiny", lines[1])
}

func TestCompose_SingleBulletIsNotAList(t *testing.T) {
	f := NewFallbackComposer(staticFacts{Skills: []string{"Go", "React"}}, testPersona)
	got := f.Compose("- what skills do you have", "")
	assert.Equal(t, "- Key skills: Go, React", got)
}

func TestCompose_Skills(t *testing.T) {
	f := NewFallbackComposer(staticFacts{Skills: []string{"React", "Node.js"}}, testPersona)
	assert.Equal(t, "- Key skills: React, Node.js", f.Compose("What are the main SKILLS?", "ctx"))
}

func TestCompose_SkillsEmpty(t *testing.T) {
	f := NewFallbackComposer(staticFacts{}, testPersona)
	got := f.Compose("skills?", "")
	assert.True(t, strings.HasPrefix(got, "- Key skills: "), got)
	assert.NotContains(t, got, "\n")
}

func TestCompose_ProjectsAndExperienceCapped(t *testing.T) {
	facts := staticFacts{
		Skills:     []string{"Go"},
		Projects:   []string{"p1", "p2", "p3", "p4"},
		Experience: []string{"e1", "e2", "e3"},
	}
	f := NewFallbackComposer(facts, testPersona)
	got := f.Compose("skills, projects and experience", "")
	lines := strings.Split(got, "\n")
	assert.Len(t, lines, maxFallbackBullets)
	assert.Equal(t, "- Key skills: Go", lines[0])
	assert.Equal(t, "- Project: p1", lines[1])
	assert.Equal(t, "- Project: p4", lines[4])
}

func TestCompose_ContextFallback(t *testing.T) {
	f := NewFallbackComposer(staticFacts{}, testPersona)
	ctx := strings.Repeat("a", 500)
	got := f.Compose("hello", ctx)
	assert.Equal(t, "- "+strings.Repeat("a", contextBulletRunes), got)
}

func TestCompose_Introduction(t *testing.T) {
	f := NewFallbackComposer(staticFacts{}, testPersona)
	for _, ctx := range []string{"", NotInitializedContext} {
		got := f.Compose("hello", ctx)
		assert.True(t, strings.HasPrefix(got, "- I'm Alfred, Jeeva's assistant."), got)
	}
}

func TestCompose_EveryLineIsBullet(t *testing.T) {
	f := NewFallbackComposer(staticFacts{Skills: []string{"Go"}, Projects: []string{"x"}}, testPersona)
	for _, raw := range []string{"", "skills", "project work", "random", "* a: b\n* c: d"} {
		for line := range strings.Lines(f.Compose(raw, "some context")) {
			assert.True(t, strings.HasPrefix(line, "- "), "line %q for %q", line, raw)
		}
	}
}
