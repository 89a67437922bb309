package provider

import (
	"context"

	"atscore/internal/ats"
	"atscore/internal/config"
	"atscore/internal/tagger"
	"atscore/internal/types"
)

// LocalProvider scores with the in-process rubric scorer
type LocalProvider struct {
	scorer *ats.Scorer
}

var _ ScoreProvider = (*LocalProvider)(nil)

// NewLocalProvider wraps an existing scorer
func NewLocalProvider(scorer *ats.Scorer) *LocalProvider {
	return &LocalProvider{scorer: scorer}
}

// NewLocalProviderFromConfig builds the scorer described by cfg. Without a
// lexicon file the embedded lexicon is used.
func NewLocalProviderFromConfig(cfg config.ScoringConfig) (*LocalProvider, error) {
	policy := ats.TaggerPolicy(cfg.TaggerPolicy)
	if cfg.LexiconFile != "" {
		scorer, err := ats.NewScorerFromLexicon(cfg.LexiconFile, policy)
		if err != nil {
			return nil, err
		}
		return NewLocalProvider(scorer), nil
	}
	scorer, err := ats.NewScorer(tagger.NewLexicalTagger(), ats.WithTaggerPolicy(policy))
	if err != nil {
		return nil, err
	}
	return NewLocalProvider(scorer), nil
}

func (l *LocalProvider) Name() string { return ats.LocalSource }

// Score never fails unless ctx is already done
func (l *LocalProvider) Score(ctx context.Context, resumeText, jobDescription string) (*types.ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := l.scorer.Score(resumeText, jobDescription)
	return &result, nil
}

// Degraded reports whether keyword analysis is running without a tagger
func (l *LocalProvider) Degraded() bool {
	return l.scorer.Degraded()
}
