package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/observability"
	"atscore/internal/provider"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Server serves the scoring API
type Server struct {
	cfg     *config.Config
	version string

	service  *provider.Service
	obs      *observability.Manager
	logger   *errors.Logger
	validate *validator.Validate

	// out receives the startup banner
	out io.Writer

	mu          sync.RWMutex
	apiKeys     map[string]bool
	rateLimit   config.RateLimitConfig
	rateLimiter *RateLimiter
}

// New builds the observability manager and scoring service described by cfg
// and returns a Server around them.
func New(ctx context.Context, cfg *config.Config, version string, logger *errors.Logger) (*Server, error) {
	obs, err := observability.New(cfg.Observability, version)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	svc, err := provider.NewServiceFromConfig(ctx, cfg, obs, logger)
	if err != nil {
		return nil, err
	}
	return NewWithService(cfg, version, svc, obs, logger), nil
}

// NewWithService returns a Server using an existing service. obs may be nil.
func NewWithService(cfg *config.Config, version string, svc *provider.Service, obs *observability.Manager, logger *errors.Logger) *Server {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	s := &Server{
		cfg:      cfg,
		version:  version,
		service:  svc,
		obs:      obs,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		out:      os.Stdout,
	}
	s.applyAccessConfig(cfg.Server)
	return s
}

// applyAccessConfig swaps in the API keys and rate limits from sc. It is safe
// to call while requests are being served.
func (s *Server) applyAccessConfig(sc config.ServerConfig) {
	// Convert API keys slice to map for O(1) lookup
	apiKeys := make(map[string]bool, len(sc.APIKeys))
	for _, key := range sc.APIKeys {
		if key != "" {
			apiKeys[key] = true
		}
	}

	var limiter *RateLimiter
	if sc.RateLimit.Enabled {
		limiter = NewRateLimiter(sc.RateLimit.RequestsPerMin, sc.RateLimit.BurstCapacity, s.logger)
	}

	s.mu.Lock()
	old := s.rateLimiter
	s.apiKeys = apiKeys
	s.rateLimit = sc.RateLimit
	s.rateLimiter = limiter
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

// reload applies a changed config file. Keys held in Vault are not in the
// file, so they are kept when Vault is enabled.
func (s *Server) reload(cfg *config.Config) {
	next := cfg.Server
	if s.cfg.Vault.Enabled {
		s.mu.RLock()
		next.APIKeys = make([]string, 0, len(s.apiKeys))
		for key := range s.apiKeys {
			next.APIKeys = append(next.APIKeys, key)
		}
		s.mu.RUnlock()
	}
	s.applyAccessConfig(next)
	s.logger.Info("Server access settings reloaded",
		"api_keys", len(next.APIKeys),
		"rate_limit_enabled", next.RateLimit.Enabled,
		"requests_per_min", next.RateLimit.RequestsPerMin)
}

func (s *Server) access() (map[string]bool, config.RateLimitConfig, *RateLimiter) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKeys, s.rateLimit, s.rateLimiter
}

func (s *Server) maxRequestSize() int64 {
	return s.cfg.App.MaxFileSize
}
