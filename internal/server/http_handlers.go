package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"atscore/internal/ats"
	"atscore/internal/errors"
	"atscore/internal/types"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
)

func (s *Server) scoreHandler(w http.ResponseWriter, r *http.Request) {
	var req types.ScoreInput
	if !s.decodeRequest(w, r, &req) {
		return
	}

	result, err := s.service.Score(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "Failed to score resume", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) enhanceHandler(w http.ResponseWriter, r *http.Request) {
	var req types.EnhanceInput
	if !s.decodeRequest(w, r, &req) {
		return
	}

	result, err := s.service.Enhance(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, "Failed to enhance resume", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) improveHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.obs.Tracer("atscore.api").Start(r.Context(), "api.improve")
	defer span.End()

	var req types.ImproveInput
	if !s.decodeRequest(w, r, &req) {
		return
	}

	result, err := s.service.Improve(ctx, req)
	if err != nil {
		span.RecordError(err)
		s.writeServiceError(w, r, "Failed to improve resume", err)
		return
	}

	span.SetAttributes(
		attribute.Float64("score.original", result.Report.OriginalScore),
		attribute.Float64("score.enhanced", result.Report.EnhancedScore),
		attribute.String("improvement.status", string(result.Report.Status)),
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) compareHandler(w http.ResponseWriter, r *http.Request) {
	var req types.CompareInput
	if !s.decodeRequest(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, ats.Compare(req.OriginalScore, req.EnhancedScore))
}

// healthHandler reports service status. A degraded tagger still serves
// requests, so it is reported without failing the check.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.service.Stats()

	response := map[string]any{
		"status":   "healthy",
		"service":  "atscore",
		"version":  s.version,
		"provider": stats["provider"],
	}
	if cb, ok := stats["circuit_breaker"]; ok {
		response["circuit_breaker"] = cb
	}
	if degraded, _ := stats["tagger_degraded"].(bool); degraded {
		response["status"] = "degraded"
		response["tagger"] = "unavailable"
	}

	writeJSON(w, http.StatusOK, response)
}

// statsHandler provides scoring statistics and rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	apiKeys, rl, limiter := s.access()

	response := map[string]any{
		"service": "atscore",
		"version": s.version,
		"scoring": s.service.Stats(),
		"server": map[string]any{
			"max_request_size_bytes": s.maxRequestSize(),
			"auth_enabled":           len(apiKeys) > 0,
		},
		"rate_limit_config": map[string]any{
			"enabled":          rl.Enabled,
			"requests_per_min": rl.RequestsPerMin,
			"burst_capacity":   rl.BurstCapacity,
			"by_ip":            rl.ByIP,
			"by_api_key":       rl.ByAPIKey,
		},
	}

	if limiter != nil {
		response["rate_limiting"] = limiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	writeJSON(w, http.StatusOK, response)
}

// decodeRequest parses and validates a JSON body into v. On failure it writes
// a 400 (or 413) response and returns false.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := parseJSONRequest(r, v); err != nil {
		status := http.StatusBadRequest
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
		}
		writeErrorResponse(w, r, "Invalid request body", err.Error(), status)
		return false
	}

	if err := s.validate.Struct(v); err != nil {
		writeErrorResponse(w, r, errors.ErrCodeInvalidRequest, validationMessage(err), http.StatusBadRequest)
		return false
	}
	return true
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes): %w", maxBytesErr.Limit, err)
		}
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// validationMessage turns validator errors into "field: rule" pairs
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// writeServiceError maps an AppError type to an HTTP status
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	s.logger.LogError(err, message, "endpoint", r.URL.Path, "request_id", requestID(r))

	status := http.StatusInternalServerError
	code := message
	if appErr, ok := errors.AsAppError(err); ok {
		code = appErr.Code
		switch appErr.Type {
		case errors.ErrorTypeValidation:
			status = http.StatusBadRequest
		case errors.ErrorTypeProvider:
			status = http.StatusBadGateway
		case errors.ErrorTypeNetwork:
			status = http.StatusGatewayTimeout
		}
	}
	writeErrorResponse(w, r, code, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already written, so an encode error cannot be reported
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, r *http.Request, errorText, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:     errorText,
		Message:   message,
		RequestID: requestID(r),
	})
}
