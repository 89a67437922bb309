package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"atscore/internal/ats"
	"atscore/internal/config"
	"atscore/internal/enhance"
	"atscore/internal/provider"
	"atscore/internal/tagger"
	"atscore/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Jane Doe
jane@example.com | 555-0100

SUMMARY
Backend engineer focused on distributed systems.

EXPERIENCE
Led migration of billing services to Go, reduced latency by 40%.
Responsible for on-call rotation.

EDUCATION
BSc Computer Science

SKILLS
Go, Python, Docker, Kubernetes`

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{MaxFileSize: 1 << 20},
		Server: config.ServerConfig{
			Host: "localhost",
			Port: "0",
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	scorer, err := ats.NewScorer(tagger.NewLexicalTagger())
	require.NoError(t, err)
	svc := provider.NewService(provider.NewLocalProvider(scorer), enhance.New())

	s := NewWithService(cfg, "test", svc, nil, nil)
	s.out = io.Discard
	t.Cleanup(s.Close)
	return s
}

func postJSON(t *testing.T, h http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestScoreHandler(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	rec := postJSON(t, h, "/score", types.ScoreInput{ResumeText: sampleResume}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var result types.ScoreResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, ats.LocalSource, result.Source)
	assert.InDelta(t, result.Breakdown.Total(), result.TotalScore, 0.011)
	assert.NotEmpty(t, result.Grade)
}

func TestEnhanceHandler(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	rec := postJSON(t, h, "/enhance", types.EnhanceInput{ResumeText: sampleResume}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out types.EnhanceOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out.EnhancedText, "Led on-call rotation.")
	require.NotNil(t, out.Baseline)
}

func TestImproveHandler(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	rec := postJSON(t, h, "/improve", types.ImproveInput{ResumeText: sampleResume}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out types.ImproveOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, out.Original.TotalScore, out.Report.OriginalScore)
	assert.Equal(t, out.Enhanced.TotalScore, out.Report.EnhancedScore)
}

func TestCompareHandler(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	rec := postJSON(t, h, "/compare", types.CompareInput{OriginalScore: 70, EnhancedScore: 80}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report types.ImprovementReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, types.StatusImproved, report.Status)
	assert.InDelta(t, 10.0, report.Improvement, 0.001)
}

func TestRequestValidation(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	tests := []struct {
		name        string
		path        string
		body        string
		contentType string
		wantStatus  int
		wantError   string
	}{
		{"missing resume", "/score", `{"job_description":"Go"}`, "application/json", http.StatusBadRequest, "INVALID_REQUEST"},
		{"score out of range", "/compare", `{"original_score":120,"enhanced_score":80}`, "application/json", http.StatusBadRequest, "INVALID_REQUEST"},
		{"malformed json", "/score", `{"resume_text":`, "application/json", http.StatusBadRequest, "Invalid request body"},
		{"unknown field", "/score", `{"resume":"x"}`, "application/json", http.StatusBadRequest, "Invalid request body"},
		{"wrong content type", "/score", `{"resume_text":"x"}`, "text/plain", http.StatusBadRequest, "Invalid request body"},
		{"charset accepted", "/score", `{"resume_text":"x"}`, "application/json; charset=utf-8", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantError != "" {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantError, resp.Error)
				assert.Equal(t, rec.Header().Get("X-Request-ID"), resp.RequestID)
			}
		})
	}
}

func TestRequestSizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.App.MaxFileSize = 64
	h := newTestServer(t, cfg).Handler()

	rec := postJSON(t, h, "/score", types.ScoreInput{ResumeText: strings.Repeat("a", 200)}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/score", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIKeys = []string{"key-one", "key-two"}
	h := newTestServer(t, cfg).Handler()
	body := types.CompareInput{OriginalScore: 50, EnhancedScore: 60}

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"no key", nil, http.StatusUnauthorized},
		{"invalid key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"x-api-key", map[string]string{"X-API-Key": "key-one"}, http.StatusOK},
		{"bearer", map[string]string{"Authorization": "Bearer key-two"}, http.StatusOK},
		{"basic is not bearer", map[string]string{"Authorization": "Basic key-two"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/compare", body, tt.headers)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	t.Run("health is public", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHealthAndStats(t *testing.T) {
	s := newTestServer(t, testConfig())
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, ats.LocalSource, health["provider"])

	postJSON(t, h, "/score", types.ScoreInput{ResumeText: sampleResume}, nil)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	scoring, ok := stats["scoring"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), scoring["scored"])
	assert.Equal(t, map[string]any{"enabled": false}, stats["rate_limiting"])
}

func TestReloadSwapsAPIKeys(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIKeys = []string{"old-key"}
	s := newTestServer(t, cfg)
	h := s.Handler()
	body := types.CompareInput{OriginalScore: 50, EnhancedScore: 60}

	require.Equal(t, http.StatusOK, postJSON(t, h, "/compare", body, map[string]string{"X-API-Key": "old-key"}).Code)

	next := testConfig()
	next.Server.APIKeys = []string{"new-key"}
	s.reload(next)

	assert.Equal(t, http.StatusUnauthorized, postJSON(t, h, "/compare", body, map[string]string{"X-API-Key": "old-key"}).Code)
	assert.Equal(t, http.StatusOK, postJSON(t, h, "/compare", body, map[string]string{"X-API-Key": "new-key"}).Code)
}

func TestReloadKeepsVaultKeys(t *testing.T) {
	cfg := testConfig()
	cfg.Vault.Enabled = true
	cfg.Server.APIKeys = []string{"vault-key"}
	s := newTestServer(t, cfg)

	s.reload(testConfig())

	keys, _, _ := s.access()
	assert.True(t, keys["vault-key"])
}
