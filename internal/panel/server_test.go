package panel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-goodhr-automation/internal/engine"
	"go-goodhr-automation/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticQuotas struct {
	state *models.QuotaState
	err   error
}

func (s staticQuotas) QuotaState(context.Context, string) (*models.QuotaState, error) {
	return s.state, s.err
}

func (s staticQuotas) SaveQuotaState(context.Context, string, *models.QuotaState) error {
	return nil
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := New(engine.NewStats(), staticQuotas{}, "13800138000")
	rec := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestSession(t *testing.T) {
	s := New(engine.NewStats(), staticQuotas{}, "13800138000")
	rec := get(t, s, "/api/session")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.False(t, snap.Running)
	assert.Zero(t, snap.Scanned)
}

func TestQuota(t *testing.T) {
	today := models.Date{Year: 2026, Month: time.October, Day: 19}
	state := models.DefaultQuotaState(today)
	state.Versions[models.TierFree].RemainingQuota = 42

	s := New(engine.NewStats(), staticQuotas{state: state}, "13800138000")
	rec := get(t, s, "/api/quota")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "free", body["version"])
	assert.Equal(t, float64(42), body["remainingQuota"])
	assert.Equal(t, "2026-10-19", body["lastResetDate"])
}

func TestQuota_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"missing user", models.ErrUserNotFound, http.StatusNotFound},
		{"malformed", models.ErrMalformed, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(engine.NewStats(), staticQuotas{err: tt.err}, "13800138000")
			rec := get(t, s, "/api/quota")
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}
