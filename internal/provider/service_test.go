package provider

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"atscore/internal/config"
	"atscore/internal/enhance"
	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalService(t *testing.T) *Service {
	t.Helper()
	return NewService(newLocal(t), enhance.New(), WithBatchConcurrency(2))
}

func TestServiceScore(t *testing.T) {
	svc := newLocalService(t)

	result, err := svc.Score(context.Background(), types.ScoreInput{ResumeText: sampleResume, JobDescription: sampleJD})
	require.NoError(t, err)
	assert.Equal(t, "Local ATS Scorer", result.Source)

	stats := svc.Stats()
	assert.Equal(t, int64(1), stats["scored"])
	assert.Equal(t, false, stats["tagger_degraded"])
}

func TestServiceEnhanceUsesSuppliedBaseline(t *testing.T) {
	svc := newLocalService(t)
	baseline := &types.ScoreResult{TotalScore: 10}

	out, err := svc.Enhance(context.Background(), types.EnhanceInput{
		ResumeText:     sampleResume,
		JobDescription: sampleJD,
		Baseline:       baseline,
	})
	require.NoError(t, err)
	assert.Same(t, baseline, out.Baseline)
	assert.Contains(t, out.EnhancedText, "Led on-call rotation.")
	assert.Contains(t, out.EnhancedText, "Utilized by 30+ teams")
	assert.NotContains(t, out.EnhancedText, enhance.SkillsHeading, "resume already has a skills section")
	assert.Equal(t, int64(0), svc.Stats()["scored"])
	assert.Equal(t, int64(1), svc.Stats()["enhanced"])
}

func TestServiceImprove(t *testing.T) {
	svc := newLocalService(t)

	out, err := svc.Improve(context.Background(), types.ImproveInput{ResumeText: sampleResume, JobDescription: sampleJD})
	require.NoError(t, err)

	assert.Equal(t, out.Original.TotalScore, out.Report.OriginalScore)
	assert.Equal(t, out.Enhanced.TotalScore, out.Report.EnhancedScore)
	assert.NotEqual(t, sampleResume, out.EnhancedText)
	assert.Equal(t, int64(2), svc.Stats()["scored"])
}

func TestServiceBatchScorePreservesOrder(t *testing.T) {
	svc := newLocalService(t)

	docs := []Document{
		{Name: "a.txt", Text: sampleResume},
		{Name: "b.txt", Text: "short"},
		{Name: "c.txt", Text: strings.ToUpper(sampleResume)},
	}
	out, err := svc.BatchScore(context.Background(), docs, sampleJD)
	require.NoError(t, err)
	require.Len(t, out.Results, 3)
	for i, doc := range docs {
		assert.Equal(t, doc.Name, out.Results[i].File)
	}
	assert.Greater(t, out.Results[0].Result.TotalScore, out.Results[1].Result.TotalScore)
}

func TestServiceBatchScoreFailure(t *testing.T) {
	remote := &stubProvider{name: "Acme", err: fmt.Errorf("down")}
	svc := NewService(remote, enhance.New())

	_, err := svc.BatchScore(context.Background(), []Document{{Name: "a.txt", Text: sampleResume}}, "")
	assert.ErrorContains(t, err, "a.txt")
	assert.Equal(t, int64(1), svc.Stats()["failures"])
}

func TestServiceCountsFallbacks(t *testing.T) {
	remote := &stubProvider{name: "Acme", err: fmt.Errorf("down")}
	svc := NewService(NewFallbackProvider(remote, newLocal(t), nil), enhance.New())

	result, err := svc.Score(context.Background(), types.ScoreInput{ResumeText: sampleResume})
	require.NoError(t, err)
	assert.Equal(t, "down", result.FallbackReason)

	stats := svc.Stats()
	assert.Equal(t, "Acme", stats["provider"])
	assert.Equal(t, int64(1), stats["fallbacks"])
	assert.Contains(t, stats, "circuit_breaker")
}

func TestNewServiceFromConfig(t *testing.T) {
	cfg := &config.Config{
		Scoring: config.ScoringConfig{
			Provider:         config.ProviderHTTP,
			Fallback:         true,
			TaggerPolicy:     "fail",
			BatchConcurrency: 3,
		},
		Remote: config.RemoteConfig{HTTP: config.HTTPProviderConfig{
			Name:     "Acme",
			Endpoint: "http://127.0.0.1:1/score",
			APIKey:   "k",
		}},
	}

	svc, err := NewServiceFromConfig(context.Background(), cfg, nil, errors.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "Acme", svc.ProviderName())
	assert.Equal(t, 3, svc.concurrency)

	result, err := svc.Score(context.Background(), types.ScoreInput{ResumeText: sampleResume})
	require.NoError(t, err)
	assert.Equal(t, "Local ATS Scorer (Acme unavailable)", result.Source)

	cfg.Scoring.Provider = "magic"
	_, err = NewServiceFromConfig(context.Background(), cfg, nil, errors.NewNopLogger())
	assert.Error(t, err)
}
