package provider

import (
	"context"
	"fmt"

	"atscore/internal/ats"
	"atscore/internal/errors"
	"atscore/internal/types"
)

// FallbackProvider serves local scores whenever the remote provider fails
type FallbackProvider struct {
	remote ScoreProvider
	local  *LocalProvider
	logger *errors.Logger
}

var _ ScoreProvider = (*FallbackProvider)(nil)

// NewFallbackProvider pairs a remote provider with the local scorer
func NewFallbackProvider(remote ScoreProvider, local *LocalProvider, logger *errors.Logger) *FallbackProvider {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &FallbackProvider{remote: remote, local: local, logger: logger}
}

func (f *FallbackProvider) Name() string { return f.remote.Name() }

// Score returns the remote result, or a local result stamped with the reason
// the remote one is missing.
func (f *FallbackProvider) Score(ctx context.Context, resumeText, jobDescription string) (*types.ScoreResult, error) {
	result, err := f.remote.Score(ctx, resumeText, jobDescription)
	if err == nil {
		return result, nil
	}

	f.logger.LogError(err, "Remote scorer failed, using local scorer", "provider", f.remote.Name())

	local, localErr := f.local.Score(ctx, resumeText, jobDescription)
	if localErr != nil {
		return nil, localErr
	}
	local.Source = fmt.Sprintf("%s (%s unavailable)", ats.LocalSource, f.remote.Name())
	local.FallbackReason = err.Error()
	return local, nil
}

// BreakerStats forwards the remote provider's breaker state
func (f *FallbackProvider) BreakerStats() map[string]any {
	if r, ok := f.remote.(breakerReporter); ok {
		return r.BreakerStats()
	}
	return map[string]any{"enabled": false}
}
