package provider

import (
	"context"
	"fmt"
	"testing"
	"time"

	"atscore/internal/ats"
	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/tagger"
	"atscore/internal/types"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Jane Doe
jane@example.com | 555-0100

SUMMARY
Backend engineer focused on distributed systems.

EXPERIENCE
Led migration of billing services to Go, reduced latency by 40%.
Developed internal tooling used by 30+ teams.
Responsible for on-call rotation.

EDUCATION
BSc Computer Science

SKILLS
Go, Python, Docker, Kubernetes`

const sampleJD = "We need a Go engineer with Kubernetes, AWS and Terraform experience."

func newLocal(t *testing.T) *LocalProvider {
	t.Helper()
	scorer, err := ats.NewScorer(tagger.NewLexicalTagger())
	require.NoError(t, err)
	return NewLocalProvider(scorer)
}

// stubProvider returns a fixed result or error
type stubProvider struct {
	name   string
	result *types.ScoreResult
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Score(ctx context.Context, _, _ string) (*types.ScoreResult, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.result, s.err
}

func TestLocalProvider(t *testing.T) {
	local := newLocal(t)
	assert.Equal(t, ats.LocalSource, local.Name())
	assert.False(t, local.Degraded())

	result, err := local.Score(context.Background(), sampleResume, sampleJD)
	require.NoError(t, err)
	assert.Equal(t, ats.LocalSource, result.Source)
	assert.InDelta(t, result.Breakdown.Total(), result.TotalScore, 0.01)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = local.Score(ctx, sampleResume, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLocalProviderFromConfig(t *testing.T) {
	local, err := NewLocalProviderFromConfig(config.ScoringConfig{TaggerPolicy: "fail"})
	require.NoError(t, err)
	assert.False(t, local.Degraded())

	_, err = NewLocalProviderFromConfig(config.ScoringConfig{TaggerPolicy: "fail", LexiconFile: "/nonexistent/lexicon.txt"})
	assert.ErrorIs(t, err, tagger.ErrTaggerUnavailable)

	local, err = NewLocalProviderFromConfig(config.ScoringConfig{TaggerPolicy: "degrade", LexiconFile: "/nonexistent/lexicon.txt"})
	require.NoError(t, err)
	assert.True(t, local.Degraded())
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb := NewCircuitBreaker("test", config.CircuitBreakerConfig{Enabled: false}, nil)
	assert.Nil(t, cb)
	assert.True(t, cb.IsHealthy())
	assert.Equal(t, false, cb.Stats()["enabled"])

	result, err := cb.Execute(func() (*types.ScoreResult, error) {
		return &types.ScoreResult{TotalScore: 42}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42.0, result.TotalScore)
}

func TestCircuitBreakerTrips(t *testing.T) {
	cb := NewCircuitBreaker("Remote ATS", config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}, errors.NewNopLogger())
	require.NotNil(t, cb)

	stats := cb.Stats()
	assert.Equal(t, "Remote ATS", stats["name"])
	assert.Equal(t, "closed", stats["state"])

	failing := func() (*types.ScoreResult, error) { return nil, fmt.Errorf("boom") }
	for range 2 {
		_, err := cb.Execute(failing)
		assert.EqualError(t, err, "boom")
	}

	assert.False(t, cb.IsHealthy())
	calls := 0
	_, err := cb.Execute(func() (*types.ScoreResult, error) {
		calls++
		return &types.ScoreResult{}, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Zero(t, calls)
}

func TestFallbackProvider(t *testing.T) {
	local := newLocal(t)

	t.Run("remote success passes through", func(t *testing.T) {
		remote := &stubProvider{name: "Acme", result: &types.ScoreResult{TotalScore: 91, Source: "Acme API"}}
		f := NewFallbackProvider(remote, local, nil)

		result, err := f.Score(context.Background(), sampleResume, "")
		require.NoError(t, err)
		assert.Equal(t, "Acme API", result.Source)
		assert.Empty(t, result.FallbackReason)
		assert.Equal(t, "Acme", f.Name())
	})

	t.Run("remote failure uses local", func(t *testing.T) {
		remote := &stubProvider{name: "Acme", err: fmt.Errorf("HTTP 503")}
		f := NewFallbackProvider(remote, local, errors.NewNopLogger())

		result, err := f.Score(context.Background(), sampleResume, sampleJD)
		require.NoError(t, err)
		assert.Equal(t, "Local ATS Scorer (Acme unavailable)", result.Source)
		assert.Equal(t, "HTTP 503", result.FallbackReason)

		direct, err := local.Score(context.Background(), sampleResume, sampleJD)
		require.NoError(t, err)
		assert.Equal(t, direct.TotalScore, result.TotalScore)
	})

	t.Run("cancelled context is not masked", func(t *testing.T) {
		remote := &stubProvider{name: "Acme"}
		f := NewFallbackProvider(remote, local, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := f.Score(ctx, sampleResume, "")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("breaker stats without breaker", func(t *testing.T) {
		f := NewFallbackProvider(&stubProvider{name: "Acme"}, local, nil)
		assert.Equal(t, false, f.BreakerStats()["enabled"])
	})
}
