package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"atscore/internal/config"
	"atscore/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPProvider(t *testing.T, handler http.HandlerFunc) *HTTPProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewHTTPProvider(config.HTTPProviderConfig{
		Name:       "Acme",
		Endpoint:   srv.URL + "/score",
		APIKey:     "test-key",
		AuthHeader: "Authorization",
		AuthScheme: "Bearer",
		Timeout:    time.Second,
	}, errors.NewNopLogger())
	require.NoError(t, err)
	return p
}

func TestNewHTTPProviderRequiresCredentials(t *testing.T) {
	_, err := NewHTTPProvider(config.HTTPProviderConfig{Name: "Acme"}, nil)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidConfig, appErr.Code)

	_, err = NewHTTPProvider(config.HTTPProviderConfig{Name: "Acme", Endpoint: "https://ats.example.test"}, nil)
	appErr, ok = errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeMissingAPIKey, appErr.Code)
}

func TestHTTPProviderScore(t *testing.T) {
	p := newTestHTTPProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/score", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, sampleResume, req["resume_text"])
		assert.Equal(t, sampleJD, req["job_description"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"score": 83.456,
			"breakdown": {"section_completeness": "25", "formatting": 30, "unknown": 1},
			"recommendations": ["Add metrics"]
		}`))
	})

	result, err := p.Score(context.Background(), sampleResume, sampleJD)
	require.NoError(t, err)
	assert.Equal(t, 83.46, result.TotalScore)
	assert.Equal(t, "A", result.Grade)
	assert.Equal(t, "Acme API", result.Source)
	assert.Equal(t, 25.0, result.Breakdown.SectionCompleteness)
	assert.Equal(t, 20.0, result.Breakdown.Formatting, "sub-scores are clamped to the rubric maximum")
	assert.Equal(t, 45.0, result.Breakdown.Total(), "the remote total is kept rather than recomputed")
	assert.Equal(t, []string{"Add metrics"}, result.Recommendations)
	assert.Equal(t, 1, result.ImprovementsNeeded)
}

func TestHTTPProviderClampsTotal(t *testing.T) {
	p := newTestHTTPProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"score": 140}`))
	})

	result, err := p.Score(context.Background(), sampleResume, "")
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.TotalScore)
	assert.NotNil(t, result.Recommendations)
	assert.Empty(t, result.Recommendations)
}

func TestHTTPProviderErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{name: "server error", status: http.StatusServiceUnavailable, body: `{}`, wantCode: errors.ErrCodeProviderFailed},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"bad key"}`, wantCode: errors.ErrCodeProviderFailed},
		{name: "missing score", status: http.StatusOK, body: `{"breakdown":{}}`, wantCode: errors.ErrCodeMalformedPayload},
		{name: "wrong type", status: http.StatusOK, body: `{"score":"high"}`, wantCode: errors.ErrCodeMalformedPayload},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantCode: errors.ErrCodeMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestHTTPProvider(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := p.Score(context.Background(), sampleResume, "")
			appErr, ok := errors.AsAppError(err)
			require.True(t, ok, "expected AppError, got %v", err)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestHTTPProviderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	p, err := NewHTTPProvider(config.HTTPProviderConfig{
		Name:     "Slow",
		Endpoint: srv.URL,
		APIKey:   "k",
		Timeout:  50 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	_, err = p.Score(context.Background(), sampleResume, "")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeProviderTimeout, appErr.Code)
}

func TestHTTPProviderBareKeyHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "raw-key", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`{"score": 50}`))
	}))
	t.Cleanup(srv.Close)

	p, err := NewHTTPProvider(config.HTTPProviderConfig{
		Endpoint:   srv.URL,
		APIKey:     "raw-key",
		AuthHeader: "X-API-Key",
		Timeout:    time.Second,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Remote ATS", p.Name())

	result, err := p.Score(context.Background(), sampleResume, "")
	require.NoError(t, err)
	assert.Equal(t, "Remote ATS API", result.Source)
	assert.Equal(t, "D", result.Grade)
}
