package provider

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"atscore/internal/ats"
	"atscore/internal/config"
	"atscore/internal/enhance"
	"atscore/internal/errors"
	"atscore/internal/observability"
	"atscore/internal/types"

	"golang.org/x/sync/errgroup"
)

// Document is a named resume for batch scoring
type Document struct {
	Name string
	Text string
}

// Service runs scoring, enhancement and the improve pipeline
type Service struct {
	provider    ScoreProvider
	local       *LocalProvider
	enhancer    *enhance.Enhancer
	obs         *observability.Manager
	logger      *errors.Logger
	concurrency int
	started     time.Time

	scored    atomic.Int64
	enhanced  atomic.Int64
	fallbacks atomic.Int64
	failures  atomic.Int64
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *errors.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithObservability records traces and metrics through obs
func WithObservability(obs *observability.Manager) Option {
	return func(s *Service) { s.obs = obs }
}

// WithBatchConcurrency bounds the number of documents scored at once
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLocal sets the local provider reported in Stats
func WithLocal(local *LocalProvider) Option {
	return func(s *Service) { s.local = local }
}

// NewService builds a Service around provider and enhancer
func NewService(provider ScoreProvider, enhancer *enhance.Enhancer, opts ...Option) *Service {
	s := &Service{
		provider:    provider,
		enhancer:    enhancer,
		logger:      errors.NewNopLogger(),
		concurrency: 4,
		started:     time.Now(),
	}
	if local, ok := provider.(*LocalProvider); ok {
		s.local = local
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceFromConfig selects the provider named in cfg. Remote providers are
// wrapped in the local fallback unless it is disabled.
func NewServiceFromConfig(ctx context.Context, cfg *config.Config, obs *observability.Manager, logger *errors.Logger) (*Service, error) {
	local, err := NewLocalProviderFromConfig(cfg.Scoring)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeTaggerUnavailable, "failed to initialize local scorer", err)
	}
	if local.Degraded() {
		logger.Warn("Language tagger unavailable, keyword analysis is degraded")
	}

	var provider ScoreProvider
	switch cfg.Scoring.Provider {
	case config.ProviderLocal:
		provider = local
	case config.ProviderHTTP:
		provider, err = NewHTTPProvider(cfg.Remote.HTTP, logger)
	case config.ProviderGemini:
		provider, err = NewGeminiProvider(ctx, cfg.Remote.Gemini, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unsupported scoring provider: %s", cfg.Scoring.Provider), nil)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Scoring.Provider != config.ProviderLocal && cfg.Scoring.Fallback {
		provider = NewFallbackProvider(provider, local, logger)
	}

	logger.Debug("Scoring service initialized",
		"provider", provider.Name(),
		"fallback", cfg.Scoring.Fallback,
		"batch_concurrency", cfg.Scoring.BatchConcurrency)

	var enhanceOpts []enhance.Option
	if cfg.Enhance.GuardReapplication {
		enhanceOpts = append(enhanceOpts, enhance.WithReapplicationGuard())
	}

	return NewService(provider, enhance.New(enhanceOpts...),
		WithLocal(local),
		WithLogger(logger),
		WithObservability(obs),
		WithBatchConcurrency(cfg.Scoring.BatchConcurrency),
	), nil
}

// ProviderName is the name of the configured provider
func (s *Service) ProviderName() string {
	return s.provider.Name()
}

// Score scores one resume
func (s *Service) Score(ctx context.Context, input types.ScoreInput) (*types.ScoreResult, error) {
	var result *types.ScoreResult
	err := s.obs.TrackScore(ctx, s.provider.Name(), func(ctx context.Context) (float64, error) {
		var err error
		result, err = s.provider.Score(ctx, input.ResumeText, input.JobDescription)
		if err != nil {
			return 0, err
		}
		return result.TotalScore, nil
	})
	if err != nil {
		s.failures.Add(1)
		return nil, err
	}

	s.scored.Add(1)
	if result.FallbackReason != "" {
		s.fallbacks.Add(1)
		s.obs.Metrics().RecordFallback(ctx, s.provider.Name())
	}
	return result, nil
}

// Enhance rewrites the resume. A missing baseline is computed first.
func (s *Service) Enhance(ctx context.Context, input types.EnhanceInput) (*types.EnhanceOutput, error) {
	baseline := input.Baseline
	if baseline == nil {
		var err error
		baseline, err = s.Score(ctx, types.ScoreInput{ResumeText: input.ResumeText, JobDescription: input.JobDescription})
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := s.enhancer.Enhance(input.ResumeText, baseline, input.JobDescription)
	s.enhanced.Add(1)
	s.obs.Metrics().RecordEnhancement(ctx)

	return &types.EnhanceOutput{EnhancedText: text, Baseline: baseline}, nil
}

// Improve scores, enhances, rescores and compares
func (s *Service) Improve(ctx context.Context, input types.ImproveInput) (*types.ImproveOutput, error) {
	enhanced, err := s.Enhance(ctx, types.EnhanceInput{ResumeText: input.ResumeText, JobDescription: input.JobDescription})
	if err != nil {
		return nil, err
	}

	rescored, err := s.Score(ctx, types.ScoreInput{ResumeText: enhanced.EnhancedText, JobDescription: input.JobDescription})
	if err != nil {
		return nil, err
	}

	return &types.ImproveOutput{
		Original:     *enhanced.Baseline,
		EnhancedText: enhanced.EnhancedText,
		Enhanced:     *rescored,
		Report:       ats.CompareResults(*enhanced.Baseline, *rescored),
	}, nil
}

// BatchScore scores docs concurrently and returns results in input order.
// The first failure cancels the remaining work.
func (s *Service) BatchScore(ctx context.Context, docs []Document, jobDescription string) (*types.BatchScoreOutput, error) {
	results := make([]types.FileScore, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			result, err := s.Score(ctx, types.ScoreInput{ResumeText: doc.Text, JobDescription: jobDescription})
			if err != nil {
				return fmt.Errorf("%s: %w", doc.Name, err)
			}
			results[i] = types.FileScore{File: doc.Name, Result: *result}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &types.BatchScoreOutput{Results: results}, nil
}

// Stats reports counters and breaker state
func (s *Service) Stats() map[string]any {
	stats := map[string]any{
		"provider":       s.provider.Name(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"scored":         s.scored.Load(),
		"enhanced":       s.enhanced.Load(),
		"fallbacks":      s.fallbacks.Load(),
		"failures":       s.failures.Load(),
	}
	if r, ok := s.provider.(breakerReporter); ok {
		stats["circuit_breaker"] = r.BreakerStats()
	}
	if s.local != nil {
		stats["tagger_degraded"] = s.local.Degraded()
	}
	return stats
}
