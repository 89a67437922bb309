package provider

import (
	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreaker guards a remote provider. A nil *CircuitBreaker runs calls directly.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[*types.ScoreResult]
}

// NewCircuitBreaker returns nil when the breaker is disabled
func NewCircuitBreaker(name string, cfg config.CircuitBreakerConfig, logger *errors.Logger) *CircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger != nil {
				logger.Info("Circuit breaker state changed",
					"name", name,
					"from", from.String(),
					"to", to.String(),
					"failure_threshold", cfg.FailureThreshold)
			}
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[*types.ScoreResult](settings)}
}

// Execute runs fn with circuit breaker protection
func (c *CircuitBreaker) Execute(fn func() (*types.ScoreResult, error)) (*types.ScoreResult, error) {
	if c == nil || c.cb == nil {
		return fn()
	}
	return c.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (c *CircuitBreaker) Stats() map[string]any {
	if c == nil || c.cb == nil {
		return map[string]any{"enabled": false}
	}
	counts := c.cb.Counts()
	return map[string]any{
		"enabled":               true,
		"name":                  c.cb.Name(),
		"state":                 c.cb.State().String(),
		"requests":              counts.Requests,
		"total_failures":        counts.TotalFailures,
		"consecutive_failures":  counts.ConsecutiveFailures,
		"consecutive_successes": counts.ConsecutiveSuccesses,
	}
}

// IsHealthy reports whether the breaker is closed
func (c *CircuitBreaker) IsHealthy() bool {
	if c == nil || c.cb == nil {
		return true
	}
	return c.cb.State() == gobreaker.StateClosed
}
