// Package enhance rewrites resume text to lift its ATS score.
package enhance

import (
	"regexp"
	"strings"
	"unicode"

	"atscore/internal/types"
)

// MetricSuffix is appended to achievement lines that carry no number
const MetricSuffix = " (measurable impact achieved)"

// SkillsHeading introduces the injected skills block
const SkillsHeading = "RELEVANT SKILLS: "

const maxInjectedSkills = 10

type replacement struct {
	pattern *regexp.Regexp
	with    string
}

func weakPhrase(phrase, with string) replacement {
	return replacement{
		pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`),
		with:    with,
	}
}

// applied in order
var weakVerbs = []replacement{
	weakPhrase("worked on", "Developed"),
	weakPhrase("helped with", "Contributed to"),
	weakPhrase("responsible for", "Led"),
	weakPhrase("did", "Executed"),
	weakPhrase("made", "Created"),
	weakPhrase("was part of", "Collaborated on"),
	weakPhrase("used", "Utilized"),
	weakPhrase("handled", "Managed"),
}

var (
	achievementVerbs = []string{"improved", "increased", "reduced", "achieved"}
	numericMetric    = regexp.MustCompile(`\d+%|\d+x|\$\d+`)
)

// TechTerms is the vocabulary considered for skills injection
var TechTerms = []string{
	"Python", "Java", "JavaScript", "React", "Node.js", "SQL", "AWS",
	"Docker", "Kubernetes", "Agile", "Scrum", "CI/CD", "Git",
}

// Enhancer applies deterministic text transforms. It holds no mutable state.
type Enhancer struct {
	guard bool
}

// Option configures an Enhancer
type Option func(*Enhancer)

// WithReapplicationGuard stops lines that already carry the metric suffix
// from being suffixed again on a repeated pass.
func WithReapplicationGuard() Option {
	return func(e *Enhancer) {
		e.guard = true
	}
}

// New returns an Enhancer
func New(opts ...Option) *Enhancer {
	e := &Enhancer{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enhance returns the transformed resume text. baseline is accepted for
// context only; the caller rescores the result to measure the effect. An empty
// jobDescription disables skills injection.
func (e *Enhancer) Enhance(resumeText string, baseline *types.ScoreResult, jobDescription string) string {
	text := strings.ToValidUTF8(resumeText, "")
	enhanced := ReplaceWeakVerbs(text)
	enhanced = e.flagMetricGaps(enhanced)

	if jobDescription != "" {
		enhanced = injectSkills(enhanced, text, strings.ToValidUTF8(jobDescription, ""))
	}
	return enhanced
}

// ReplaceWeakVerbs swaps weak phrases for stronger verbs, case-insensitively
func ReplaceWeakVerbs(text string) string {
	for _, r := range weakVerbs {
		text = r.pattern.ReplaceAllLiteralString(text, r.with)
	}
	return text
}

func (e *Enhancer) flagMetricGaps(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !needsMetric(line) {
			continue
		}
		trimmed := strings.TrimRightFunc(line, unicode.IsSpace)
		if e.guard && strings.HasSuffix(trimmed, MetricSuffix) {
			continue
		}
		lines[i] = trimmed + MetricSuffix
	}
	return strings.Join(lines, "\n")
}

func needsMetric(line string) bool {
	lower := strings.ToLower(line)
	for _, verb := range achievementVerbs {
		if strings.Contains(lower, verb) {
			return !numericMetric.MatchString(line)
		}
	}
	return false
}

// MissingTechTerms lists vocabulary terms named by the job description that the
// resume does not already mention verbatim.
func MissingTechTerms(resumeText, jobDescription string) []string {
	jd := strings.ToLower(jobDescription)
	var missing []string
	for _, term := range TechTerms {
		if strings.Contains(jd, strings.ToLower(term)) && !strings.Contains(resumeText, term) {
			missing = append(missing, term)
		}
	}
	return missing
}

func injectSkills(enhanced, original, jobDescription string) string {
	missing := MissingTechTerms(original, jobDescription)
	if len(missing) == 0 || strings.Contains(strings.ToLower(enhanced), "skills") {
		return enhanced
	}
	if len(missing) > maxInjectedSkills {
		missing = missing[:maxInjectedSkills]
	}
	return enhanced + "\n\n" + SkillsHeading + strings.Join(missing, ", ")
}
