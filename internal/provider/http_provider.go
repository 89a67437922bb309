package provider

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"atscore/internal/ats"
	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

const maxResponseBytes = 1 << 20

// remoteResponseSchema is the payload every commercial scorer must return.
// Only score is mandatory; breakdown keys are free-form numbers.
const remoteResponseSchema = `{
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": "number"},
    "breakdown": {
      "type": "object",
      "additionalProperties": {"type": ["number", "string"]}
    },
    "recommendations": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

var remoteSchema = mustSchema(remoteResponseSchema)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid remote response schema: %v", err))
	}
	return schema
}

type remoteRequest struct {
	Resume         string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}

type remoteResponse struct {
	Score           float64        `mapstructure:"score"`
	Breakdown       map[string]any `mapstructure:"breakdown"`
	Recommendations []string       `mapstructure:"recommendations"`
}

// HTTPProvider calls a commercial ATS scoring API over HTTP
type HTTPProvider struct {
	name       string
	endpoint   string
	apiKey     string
	authHeader string
	authScheme string
	client     *http.Client
	breaker    *CircuitBreaker
	logger     *errors.Logger
}

var _ ScoreProvider = (*HTTPProvider)(nil)

// NewHTTPProvider builds a provider from configuration. The API key must be
// supplied by configuration or Vault.
func NewHTTPProvider(cfg config.HTTPProviderConfig, logger *errors.Logger) (*HTTPProvider, error) {
	if cfg.Endpoint == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "remote HTTP endpoint is not configured", nil)
	}
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			fmt.Sprintf("no API key configured for %s", cfg.Name), nil)
	}

	if logger == nil {
		logger = errors.NewNopLogger()
	}
	name := cfg.Name
	if name == "" {
		name = "Remote ATS"
	}
	header := cfg.AuthHeader
	if header == "" {
		header = "Authorization"
	}

	return &HTTPProvider{
		name:       name,
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		authHeader: header,
		authScheme: cfg.AuthScheme,
		client:     &http.Client{Timeout: cfg.Timeout},
		breaker:    NewCircuitBreaker(name, cfg.CircuitBreaker, logger),
		logger:     logger,
	}, nil
}

func (h *HTTPProvider) Name() string { return h.name }

// Score posts the resume and maps the response onto a ScoreResult. The
// remote total is clamped and kept as reported, so unlike the local and
// Gemini scorers it need not equal the sum of the clamped breakdown.
func (h *HTTPProvider) Score(ctx context.Context, resumeText, jobDescription string) (*types.ScoreResult, error) {
	return h.breaker.Execute(func() (*types.ScoreResult, error) {
		return h.call(ctx, resumeText, jobDescription)
	})
}

// BreakerStats reports circuit breaker state
func (h *HTTPProvider) BreakerStats() map[string]any {
	return h.breaker.Stats()
}

func (h *HTTPProvider) call(ctx context.Context, resumeText, jobDescription string) (*types.ScoreResult, error) {
	body, err := json.Marshal(remoteRequest{Resume: resumeText, JobDescription: jobDescription})
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to encode remote request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid remote endpoint", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(h.authHeader, h.authValue())

	resp, err := h.client.Do(req)
	if err != nil {
		var netErr net.Error
		if stderrors.As(err, &netErr) && netErr.Timeout() {
			return nil, errors.NewNetworkError(errors.ErrCodeProviderTimeout,
				fmt.Sprintf("%s timed out", h.name), err)
		}
		return nil, errors.NewNetworkError(errors.ErrCodeProviderFailed,
			fmt.Sprintf("%s request failed", h.name), err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeProviderFailed,
			fmt.Sprintf("failed to read %s response", h.name), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewProviderError(errors.ErrCodeProviderFailed,
			fmt.Sprintf("%s returned HTTP %d", h.name, resp.StatusCode), nil).
			WithContext("status", resp.StatusCode)
	}

	result, err := h.parse(payload)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("Remote score received", "provider", h.name, "score", result.TotalScore)
	return result, nil
}

func (h *HTTPProvider) authValue() string {
	if h.authScheme == "" {
		return h.apiKey
	}
	return h.authScheme + " " + h.apiKey
}

// parse validates payload against the response schema and decodes it
func (h *HTTPProvider) parse(payload []byte) (*types.ScoreResult, error) {
	validation, err := remoteSchema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeMalformedPayload,
			fmt.Sprintf("%s returned invalid JSON", h.name), err)
	}
	if !validation.Valid() {
		problems := make([]string, 0, len(validation.Errors()))
		for _, e := range validation.Errors() {
			problems = append(problems, e.String())
		}
		return nil, errors.NewProviderError(errors.ErrCodeMalformedPayload,
			fmt.Sprintf("%s returned an unexpected payload: %s", h.name, strings.Join(problems, "; ")), nil)
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeMalformedPayload,
			fmt.Sprintf("%s returned invalid JSON", h.name), err)
	}

	var decoded remoteResponse
	if err := mapstructure.WeakDecode(raw, &decoded); err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeMalformedPayload,
			fmt.Sprintf("failed to decode %s response", h.name), err)
	}

	var breakdown types.ScoreBreakdown
	if err := mapstructure.WeakDecode(decoded.Breakdown, &breakdown); err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeMalformedPayload,
			fmt.Sprintf("failed to decode %s breakdown", h.name), err)
	}

	total := ats.Round2(types.Clamp(decoded.Score, 0, types.MaxTotalScore))
	grade := ats.GradeFor(total)
	recs := decoded.Recommendations
	if recs == nil {
		recs = []string{}
	}

	return &types.ScoreResult{
		TotalScore:         total,
		Breakdown:          breakdown.Clamped(),
		Recommendations:    recs,
		Grade:              grade.Letter,
		GradeLabel:         grade.Label(),
		ImprovementsNeeded: len(recs),
		Source:             h.name + " API",
	}, nil
}
