package engine

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// FactDeriver turns the combined resume + portfolio text into structured facts.
// Swap it out to change extraction without touching the response pipeline.
type FactDeriver interface {
	DeriveFacts(text string) KnowledgeFacts
}

const (
	maxProjects     = 5
	maxExperience   = 3
	minFactSpanRune = 50 // spans of this length or shorter are noise
)

// referenceSkills is scanned in order; output preserves this order.
var referenceSkills = []string{
	"JavaScript", "TypeScript", "React", "Node.js", "Python", "Java", "C++", "C#",
	"HTML", "CSS", "SASS", "SCSS", "Bootstrap", "Tailwind CSS",
	"MongoDB", "PostgreSQL", "MySQL", "Redis", "Firebase",
	"AWS", "Azure", "Google Cloud", "Docker", "Kubernetes",
	"Git", "GitHub", "GitLab", "CI/CD", "Jenkins",
	"Express.js", "Next.js", "Vue.js", "Angular", "Svelte",
	"REST API", "GraphQL", "WebSocket", "Microservices",
	"Machine Learning", "AI", "Data Science", "TensorFlow", "PyTorch",
}

var (
	projectRe    = regexp.MustCompile(`(?i)(?:project|app|website|application|system)[\s\S]{0,200}?(?:built|developed|created|designed)[\s\S]{0,300}`)
	experienceRe = regexp.MustCompile(`(?i)(?:worked|experience|position|role)[\s\S]{0,200}?(?:at|in|for)[\s\S]{0,300}`)
	alnumRe      = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

type skillMatcher struct {
	name  string
	lower string
	loose *regexp.Regexp // nil for skills with punctuation or spaces
}

// RegexDeriver is the keyword/regex heuristic extractor.
type RegexDeriver struct {
	skills []skillMatcher
}

// NewRegexDeriver precompiles the skill matchers.
func NewRegexDeriver() *RegexDeriver {
	d := &RegexDeriver{skills: make([]skillMatcher, 0, len(referenceSkills))}
	for _, s := range referenceSkills {
		m := skillMatcher{name: s, lower: strings.ToLower(s)}
		if alnumRe.MatchString(s) {
			m.loose = regexp.MustCompile(`(?i)` + looseSkillPattern(s))
		}
		d.skills = append(d.skills, m)
	}
	return d
}

// looseSkillPattern tolerates whitespace between characters so that
// "Java Script" split by a PDF line wrap still matches "JavaScript".
func looseSkillPattern(skill string) string {
	parts := make([]string, 0, len(skill))
	for _, r := range skill {
		parts = append(parts, regexp.QuoteMeta(string(r)))
	}
	return strings.Join(parts, `\s*`)
}

// DeriveFacts implements FactDeriver.
func (d *RegexDeriver) DeriveFacts(text string) KnowledgeFacts {
	return KnowledgeFacts{
		Skills:     d.ExtractSkills(text),
		Projects:   ExtractProjects(text),
		Experience: ExtractExperience(text),
	}
}

// ExtractSkills returns the reference skills found in text, in reference order.
func (d *RegexDeriver) ExtractSkills(text string) []string {
	lower := strings.ToLower(text)
	found := make([]string, 0, 16)
	for _, s := range d.skills {
		if strings.Contains(lower, s.lower) || (s.loose != nil && s.loose.MatchString(text)) {
			found = append(found, s.name)
		}
	}
	return found
}

// ExtractProjects returns up to five "project ... built ..." spans.
func ExtractProjects(text string) []string {
	return matchSpans(projectRe, text, maxProjects)
}

// ExtractExperience returns up to three "worked ... at ..." spans.
func ExtractExperience(text string) []string {
	return matchSpans(experienceRe, text, maxExperience)
}

func matchSpans(re *regexp.Regexp, text string, limit int) []string {
	var out []string
	for _, m := range re.FindAllString(text, -1) {
		if utf8.RuneCountInString(m) <= minFactSpanRune {
			continue
		}
		out = append(out, strings.TrimSpace(m))
		if len(out) == limit {
			break
		}
	}
	return out
}
