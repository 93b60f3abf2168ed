package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AenganZ/pseudo/internal/engine"
	"github.com/AenganZ/pseudo/internal/testutil"
)

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	srv := NewServer(testutil.NewEngine(t), testutil.NewAuditStore(t), opts...)
	return srv.Routes()
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotContains(t, resp, "components")
}

func TestHealth_Detail(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/health?detail=true", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Components["engine"])
	assert.Equal(t, "ok", resp.Components["audit_store"])
}

func TestPseudonymize(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h, "/v1/pseudonymize", map[string]string{
		"text": "김민준님 연락처는 010-1234-5678 입니다",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result engine.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Detection.ContainsPII)
	assert.NotContains(t, result.MaskedText, "김민준")
	assert.NotContains(t, result.MaskedText, "010-1234-5678")
	assert.Equal(t, "김가명", result.SubstitutionMap["김민준"])
	assert.Equal(t, "김민준", result.ReverseMap["김가명"])
}

func TestPseudonymize_BadRequests(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"missing text", "{}"},
		{"empty text", `{"text": ""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/pseudonymize", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "invalid_request", resp["error"])
		})
	}
}

func TestRestore(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h, "/v1/restore", map[string]interface{}{
		"text":        "김가명님 안녕하세요",
		"reverse_map": map[string]string{"김가명": "김민준"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "김민준님 안녕하세요", resp["restored_text"])
}

func TestAuth(t *testing.T) {
	h := newTestHandler(t, WithAPIKey("sekrit"))

	body := map[string]string{"text": "안녕하세요"}

	rec := postJSON(t, h, "/v1/pseudonymize", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, h, "/v1/pseudonymize", body, map[string]string{"X-Pseudo-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, h, "/v1/pseudonymize", body, map[string]string{"X-Pseudo-Key": "sekrit"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h, "/v1/pseudonymize", body, map[string]string{"Authorization": "Bearer sekrit"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_HealthStaysOpen(t *testing.T) {
	h := newTestHandler(t, WithAPIKey("sekrit"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestHandler(t, WithRateLimit(1, 1))

	body := map[string]string{"text": "안녕하세요"}
	first := postJSON(t, h, "/v1/pseudonymize", body, nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := postJSON(t, h, "/v1/pseudonymize", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
}

func TestLogsListAndGet(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h, "/v1/pseudonymize", map[string]string{
		"text": "홍길동님 이메일은 hong@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	listRec := httptest.NewRecorder()
	h.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/v1/logs", nil))
	require.Equal(t, http.StatusOK, listRec.Code)

	var list struct {
		Logs []struct {
			ID          string `json:"id"`
			ContainsPII bool   `json:"contains_pii"`
		} `json:"logs"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.True(t, list.Logs[0].ContainsPII)

	getRec := httptest.NewRecorder()
	h.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/v1/logs/"+list.Logs[0].ID, nil))
	assert.Equal(t, http.StatusOK, getRec.Code)
}

func TestLogsGet_NotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/logs/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/pseudonymize", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Pseudo-Key")
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	h := newTestHandler(t, WithCORSOrigins([]string{"https://allowed.example"}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://allowed.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://allowed.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://other.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
