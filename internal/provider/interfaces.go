package provider

import (
	"context"

	"atscore/internal/types"
)

// ScoreProvider scores a resume, optionally against a job description.
// An empty jobDescription means none was supplied.
type ScoreProvider interface {
	Name() string
	Score(ctx context.Context, resumeText, jobDescription string) (*types.ScoreResult, error)
}

// breakerReporter is implemented by providers guarded by a circuit breaker
type breakerReporter interface {
	BreakerStats() map[string]any
}
