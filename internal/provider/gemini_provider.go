package provider

import (
	"context"
	"crypto/rand"
	"encoding/json"
	stderrors "errors"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"atscore/internal/ats"
	"atscore/internal/config"
	"atscore/internal/errors"
	"atscore/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const geminiSystemPrompt = `You are an applicant tracking system. Score the resume on five rubrics and
return JSON only:
- section_completeness (0-25): contact, experience, education, skills and summary sections
- keyword_optimization (0-25): keyword density and overlap with the job description if one is given
- formatting (0-20): line length, consistent casing, no special characters
- content_quality (0-15): quantified achievements and active voice
- action_words (0-15): strong action verbs such as achieved, led, optimized
List concrete recommendations for every rubric that is not at its maximum.`

// contentGenerator is the part of the genai Models service the provider uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiScore struct {
	SectionCompleteness float64  `json:"section_completeness"`
	KeywordOptimization float64  `json:"keyword_optimization"`
	Formatting          float64  `json:"formatting"`
	ContentQuality      float64  `json:"content_quality"`
	ActionWords         float64  `json:"action_words"`
	Recommendations     []string `json:"recommendations"`
}

// GeminiProvider scores resumes with a Gemini model
type GeminiProvider struct {
	models      contentGenerator
	model       string
	temperature float32
	timeout     time.Duration
	maxRetries  int
	baseDelay   time.Duration
	breaker     *CircuitBreaker
	logger      *errors.Logger
}

var _ ScoreProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini client from configuration
func NewGeminiProvider(ctx context.Context, cfg config.GeminiProviderConfig, logger *errors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "no API key configured for Gemini", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeProviderFailed, "failed to create Gemini client", err)
	}
	return newGeminiProvider(client.Models, cfg, logger), nil
}

func newGeminiProvider(models contentGenerator, cfg config.GeminiProviderConfig, logger *errors.Logger) *GeminiProvider {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &GeminiProvider{
		models:      models,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		maxRetries:  max(cfg.MaxRetries, 0),
		baseDelay:   time.Second,
		breaker:     NewCircuitBreaker("Gemini-"+cfg.Model, cfg.CircuitBreaker, logger),
		logger:      logger,
	}
}

func (g *GeminiProvider) Name() string { return "Gemini" }

// BreakerStats reports circuit breaker state
func (g *GeminiProvider) BreakerStats() map[string]any {
	return g.breaker.Stats()
}

// Score asks the model for a rubric breakdown. The total is recomputed from
// the clamped breakdown so it always equals the sum of the sub-scores.
func (g *GeminiProvider) Score(ctx context.Context, resumeText, jobDescription string) (*types.ScoreResult, error) {
	ctx, span := otel.Tracer("atscore.provider.gemini").Start(ctx, "gemini.score")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.model", g.model),
		attribute.Int("input.resume_length", len(resumeText)),
		attribute.Int("input.job_length", len(jobDescription)),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	result, err := g.breaker.Execute(func() (*types.ScoreResult, error) {
		resp, err := g.executeWithRetry(ctx, func() (*genai.GenerateContentResponse, error) {
			return g.models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(resumeText, jobDescription)), g.generateConfig())
		})
		if err != nil {
			return nil, errors.NewProviderError(errors.ErrCodeProviderFailed, "Gemini scoring failed", err)
		}
		return parseGeminiResponse(resp.Text())
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	span.SetAttributes(attribute.Bool("success", true), attribute.Float64("ats.score", result.TotalScore))
	return result, nil
}

func buildPrompt(resumeText, jobDescription string) string {
	prompt := "RESUME:\n" + resumeText
	if jobDescription != "" {
		prompt += "\n\nJOB DESCRIPTION:\n" + jobDescription
	}
	return prompt
}

func (g *GeminiProvider) generateConfig() *genai.GenerateContentConfig {
	number := &genai.Schema{Type: genai.TypeNumber}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(geminiSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"section_completeness": number,
				"keyword_optimization": number,
				"formatting":           number,
				"content_quality":      number,
				"action_words":         number,
				"recommendations": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{
				"section_completeness", "keyword_optimization", "formatting",
				"content_quality", "action_words", "recommendations",
			},
		},
	}
	if g.temperature > 0 {
		temperature := g.temperature
		cfg.Temperature = &temperature
	}
	return cfg
}

func parseGeminiResponse(text string) (*types.ScoreResult, error) {
	var out geminiScore
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, errors.NewProviderError(errors.ErrCodeMalformedPayload, "failed to parse Gemini response", err)
	}

	breakdown := types.ScoreBreakdown{
		SectionCompleteness: out.SectionCompleteness,
		KeywordOptimization: out.KeywordOptimization,
		Formatting:          out.Formatting,
		ContentQuality:      out.ContentQuality,
		ActionWords:         out.ActionWords,
	}.Clamped()

	total := ats.Round2(breakdown.Total())
	grade := ats.GradeFor(total)
	recs := out.Recommendations
	if recs == nil {
		recs = []string{}
	}

	return &types.ScoreResult{
		TotalScore:         total,
		Breakdown:          breakdown,
		Recommendations:    recs,
		Grade:              grade.Letter,
		GradeLabel:         grade.Label(),
		ImprovementsNeeded: len(recs),
		Source:             "Gemini API",
	}, nil
}

// executeWithRetry retries fn on transient errors with exponential backoff and jitter
func (g *GeminiProvider) executeWithRetry(ctx context.Context, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying Gemini request",
				"attempt", attempt,
				"max_retries", g.maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(g.backoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			break
		}
	}

	return nil, lastErr
}

func (g *GeminiProvider) backoff(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * g.baseDelay
	jitter := time.Duration(0)
	if limit := int64(float64(base) * 0.1); limit > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(limit)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(base+jitter, 30*time.Second)
}

// isRetryableError reports whether err is a network failure or a transient API status
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}
