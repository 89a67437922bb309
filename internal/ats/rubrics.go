package ats

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"atscore/internal/tagger"
	"atscore/internal/types"
)

type section struct {
	title    string
	keywords []string
}

var essentialSections = []section{
	{title: "Contact", keywords: []string{"email", "phone", "address", "linkedin", "location"}},
	{title: "Summary", keywords: []string{"summary", "objective", "profile", "about"}},
	{title: "Experience", keywords: []string{"experience", "work history", "employment", "professional experience"}},
	{title: "Education", keywords: []string{"education", "academic", "degree", "university", "college"}},
	{title: "Skills", keywords: []string{"skills", "technical skills", "core competencies", "expertise"}},
}

func scoreSections(text string, recs *recommendations) float64 {
	lower := strings.ToLower(text)
	found := 0
	for _, sec := range essentialSections {
		if containsAny(lower, sec.keywords) {
			found++
			continue
		}
		recs.add(fmt.Sprintf("Add '%s' section to your resume", sec.title))
	}

	score := float64(found) * types.MaxSectionCompleteness / float64(len(essentialSections))
	if score < 20 {
		recs.add("Your resume is missing essential sections. Add all required sections for better ATS compatibility.")
	}
	return score
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

const degradedKeywordRecommendation = "Keyword analysis unavailable (language tagger not loaded) - keyword score reduced to baseline"

func (s *Scorer) scoreKeywords(text, jobDescription string, recs *recommendations) float64 {
	if s.tagger == nil {
		recs.add(degradedKeywordRecommendation)
		return DegradedKeywordScore
	}

	keywords, total := extractKeywords(s.tagger.Tag(strings.ToLower(text)))
	density := 0.0
	if total > 0 {
		density = float64(len(keywords)) / float64(total)
	}

	var score float64
	switch {
	case density >= 0.02 && density <= 0.04:
		score = 25
	case (density >= 0.01 && density < 0.02) || (density > 0.04 && density <= 0.06):
		score = 20
		recs.add("Adjust keyword density to 2-4% for optimal ATS performance")
	default:
		score = 15
		recs.add("Add more relevant keywords from the job description")
	}

	unique := toSet(keywords)
	if jobDescription != "" {
		jdKeywords, _ := extractKeywords(s.tagger.Tag(strings.ToLower(jobDescription)))
		jdSet := toSet(jdKeywords)
		// a job description without keywords counts as a 0% match
		rate := 0.0
		if len(jdSet) > 0 {
			matched := 0
			for kw := range jdSet {
				if _, ok := unique[kw]; ok {
					matched++
				}
			}
			rate = float64(matched) / float64(len(jdSet))
		}
		if rate < 0.3 {
			recs.add(fmt.Sprintf("Only %.1f%% keyword match with job description. Add more relevant keywords.", rate*100))
		}
	}

	if len(unique) < 20 {
		recs.add("Increase the number of relevant keywords (target: 20-30 keywords)")
	}
	return score
}

// extractKeywords returns the content tokens of at least three runes and the
// number of tokens that are neither punctuation nor whitespace.
func extractKeywords(tokens []tagger.Token) ([]string, int) {
	var keywords []string
	total := 0
	for _, tok := range tokens {
		if tok.POS == tagger.PUNCT || tok.POS == tagger.SPACE {
			continue
		}
		total++
		if tok.IsContent() && utf8.RuneCountInString(tok.Text) > 2 {
			keywords = append(keywords, tok.Text)
		}
	}
	return keywords, total
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

var (
	specialGlyphPattern = regexp.MustCompile(`[★☆●○■□▪▫◆◇]`)
	multiTabPattern     = regexp.MustCompile(`\t{2,}`)
)

func scoreFormatting(text string, recs *recommendations) float64 {
	score := types.MaxFormatting

	if specialGlyphPattern.MatchString(text) {
		score -= 5
		recs.add("Remove special characters (bullets, symbols) - use simple hyphens or asterisks")
	}
	if multiTabPattern.MatchString(text) {
		score -= 3
		recs.add("Avoid complex tables or multi-column layouts - use simple single-column format")
	}
	if averageLineLength(text) < 20 {
		score -= 3
		recs.add("Some lines are too short - check for formatting issues")
	}
	if strings.Contains(text, "\t") {
		score -= 2
		recs.add("Replace tabs with spaces for better ATS compatibility")
	}
	if uniformCase(text) {
		score -= 2
		recs.add("Use proper capitalization - avoid all caps or all lowercase")
	}

	score = math.Max(score, 0)
	if score < 15 {
		recs.add("Major formatting issues detected. Simplify layout for ATS systems.")
	}
	return score
}

// averageLineLength is the mean rune count over non-blank lines, or 0 if there are none.
func averageLineLength(text string) float64 {
	var chars, lines int
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		chars += utf8.RuneCountInString(line)
		lines++
	}
	if lines == 0 {
		return 0
	}
	return float64(chars) / float64(lines)
}

// uniformCase reports whether every cased letter shares one case.
func uniformCase(text string) bool {
	var upper, lower bool
	for _, r := range text {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
		if upper && lower {
			return false
		}
	}
	return upper != lower
}

var metricPattern = regexp.MustCompile(`\d+%|\$\d+|\d+\+|(?:increased|reduced) by \d+`)

func scoreContent(text string, recs *recommendations) float64 {
	score := types.MaxContentQuality

	words := len(strings.Fields(text))
	switch {
	case words < 300:
		score -= 5
		recs.add("Resume is too short (under 300 words). Add more details about your experience.")
	case words > 800:
		score -= 2
		recs.add("Resume might be too long. Keep it concise (500-800 words optimal).")
	}

	if len(metricPattern.FindAllStringIndex(strings.ToLower(text), -1)) < 3 {
		score -= 3
		recs.add("Add quantifiable achievements with numbers and metrics (e.g., 'increased sales by 25%')")
	}

	bullets := strings.Count(text, "•") + strings.Count(text, "-") + strings.Count(text, "*")
	if bullets < 5 {
		score -= 2
		recs.add("Use bullet points to list achievements and responsibilities")
	}

	return math.Max(score, 0)
}

// PowerWords is the action verb vocabulary, strongest examples first
var PowerWords = []string{
	"achieved", "implemented", "developed", "led", "managed",
	"created", "improved", "increased", "reduced", "optimized",
	"designed", "delivered", "launched", "streamlined", "automated",
	"negotiated", "resolved", "trained", "exceeded", "built",
}

var (
	powerWordPattern = regexp.MustCompile(`\b(?:` + strings.Join(PowerWords, "|") + `)\b`)
	passiveMarkers   = []string{" was ", " were ", " been ", " being "}
)

func scoreActionWords(text string, recs *recommendations) float64 {
	lower := strings.ToLower(text)

	found := len(powerWordPattern.FindAllStringIndex(lower, -1))
	score := math.Min(float64(found)/10*types.MaxActionWords, types.MaxActionWords)
	if score < 10 {
		recs.add(fmt.Sprintf("Use more action verbs (found %d, target 10+): %s",
			found, strings.Join(PowerWords[:10], ", ")))
	}

	passive := 0
	for _, marker := range passiveMarkers {
		passive += strings.Count(lower, marker)
	}
	if passive > 5 {
		score = math.Max(score-2, 0)
		recs.add("Reduce passive voice. Use active voice for stronger impact (e.g., 'Led team' instead of 'Team was led')")
	}
	return score
}
