// Package ats implements the local rule-based ATS scorer.
package ats

import (
	"errors"
	"math"
	"strings"

	"atscore/internal/tagger"
	"atscore/internal/types"
)

// LocalSource is the provenance reported by the local scorer
const LocalSource = "Local ATS Scorer"

// ErrTaggerUnavailable is returned by NewScorer when no tagger can be used
var ErrTaggerUnavailable = tagger.ErrTaggerUnavailable

// TaggerPolicy decides what happens when the tagger is unavailable
type TaggerPolicy string

const (
	// TaggerPolicyFail refuses to build a scorer without a tagger
	TaggerPolicyFail TaggerPolicy = "fail"
	// TaggerPolicyDegrade scores the keyword rubric at a fixed baseline
	TaggerPolicyDegrade TaggerPolicy = "degrade"
)

// DegradedKeywordScore is the keyword rubric score used when no tagger is loaded
const DegradedKeywordScore = 15.0

// Scorer evaluates resume text against the five ATS rubrics.
// A Scorer holds no mutable state and is safe for concurrent use.
type Scorer struct {
	tagger tagger.Tagger
	policy TaggerPolicy
}

// Option configures a Scorer
type Option func(*Scorer)

// WithTaggerPolicy sets the policy applied when the tagger is unavailable
func WithTaggerPolicy(policy TaggerPolicy) Option {
	return func(s *Scorer) {
		s.policy = policy
	}
}

// NewScorer builds a Scorer. A nil tagger is treated as unavailable.
func NewScorer(t tagger.Tagger, opts ...Option) (*Scorer, error) {
	s := &Scorer{tagger: t, policy: TaggerPolicyFail}
	for _, opt := range opts {
		opt(s)
	}
	if s.tagger == nil && s.policy != TaggerPolicyDegrade {
		return nil, ErrTaggerUnavailable
	}
	return s, nil
}

// NewScorerFromLexicon loads a lexical tagger from path and builds a Scorer with
// the given policy. Under TaggerPolicyDegrade a load failure is not an error.
func NewScorerFromLexicon(path string, policy TaggerPolicy) (*Scorer, error) {
	t, err := tagger.LoadLexicalTagger(path)
	if err != nil {
		if policy == TaggerPolicyDegrade && errors.Is(err, tagger.ErrTaggerUnavailable) {
			return NewScorer(nil, WithTaggerPolicy(policy))
		}
		return nil, err
	}
	return NewScorer(t, WithTaggerPolicy(policy))
}

// Degraded reports whether keyword analysis runs without a tagger
func (s *Scorer) Degraded() bool {
	return s.tagger == nil
}

// Score evaluates resumeText, optionally against jobDescription. An empty
// jobDescription means none was supplied. Score never fails.
func (s *Scorer) Score(resumeText, jobDescription string) types.ScoreResult {
	text := strings.ToValidUTF8(resumeText, "")
	jd := strings.ToValidUTF8(jobDescription, "")

	// rubric order fixes recommendation order
	var recs recommendations
	var breakdown types.ScoreBreakdown
	breakdown.SectionCompleteness = scoreSections(text, &recs)
	breakdown.KeywordOptimization = s.scoreKeywords(text, jd, &recs)
	breakdown.Formatting = scoreFormatting(text, &recs)
	breakdown.ContentQuality = scoreContent(text, &recs)
	breakdown.ActionWords = scoreActionWords(text, &recs)
	breakdown = breakdown.Clamped()

	total := Round2(breakdown.Total())
	grade := GradeFor(total)

	return types.ScoreResult{
		TotalScore:         total,
		Breakdown:          breakdown,
		Recommendations:    recs.list(),
		Grade:              grade.Letter,
		GradeLabel:         grade.Label(),
		ImprovementsNeeded: len(recs),
		Source:             LocalSource,
	}
}

type recommendations []string

func (r *recommendations) add(rec string) {
	*r = append(*r, rec)
}

func (r recommendations) list() []string {
	if r == nil {
		return []string{}
	}
	return r
}

// Round2 rounds v to two decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
