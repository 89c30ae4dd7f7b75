package safety

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/safetrail/safetrail/internal/common/errors"
	"github.com/safetrail/safetrail/internal/middleware"
	"github.com/safetrail/safetrail/internal/patterns"
	"github.com/safetrail/safetrail/internal/risk"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.Use(middleware.RequestID())
	NewHandler(svc, zap.NewNop()).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandler_PredictRisk(t *testing.T) {
	router := setupRouter(t, newTestService(t))

	body := `{
		"location": {"latitude": 28.6139, "longitude": 77.2090},
		"tourist_data": {"nationality": "FR", "group_size": 2},
		"historical_alerts": [
			{"tourist_id": 1, "alert_type": "theft", "location": "market", "latitude": 28.61, "longitude": 77.21},
			{"tourist_id": 2, "alert_type": "theft", "location": "market", "latitude": 28.61, "longitude": 77.21},
			{"tourist_id": 3, "alert_type": "panic", "location": "market", "latitude": 28.61, "longitude": 77.21}
		],
		"time_of_day": 2,
		"day_of_week": 5
	}`
	w := doJSON(t, router, http.MethodPost, "/predict/risk", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result risk.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, risk.RiskLevelCritical, result.RiskLevel)
	assert.InDelta(t, 1.0, result.RiskScore, 1e-9)
	assert.Len(t, result.RiskFactors, 3)
	assert.Equal(t, 0.85, result.Confidence)
}

func TestHandler_PredictRisk_MidnightIsNotMissing(t *testing.T) {
	router := setupRouter(t, newTestService(t))

	w := doJSON(t, router, http.MethodPost, "/predict/risk",
		`{"location": {"latitude": 0, "longitude": 0}, "time_of_day": 0}`)
	require.Equal(t, http.StatusOK, w.Code)

	var result risk.Assessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Contains(t, result.RiskFactors, risk.FactorNightHours)
}

func TestHandler_PredictRisk_Validation(t *testing.T) {
	router := setupRouter(t, newTestService(t))

	tests := []struct {
		name string
		body string
	}{
		{"missing location", `{"time_of_day": 3}`},
		{"missing longitude", `{"location": {"latitude": 10}}`},
		{"latitude out of range", `{"location": {"latitude": 95, "longitude": 0}}`},
		{"hour out of range", `{"location": {"latitude": 0, "longitude": 0}, "time_of_day": 24}`},
		{"weekday out of range", `{"location": {"latitude": 0, "longitude": 0}, "day_of_week": 7}`},
		{"alert missing type", `{"location": {"latitude": 0, "longitude": 0}, "historical_alerts": [{"tourist_id": 1, "location": "x", "latitude": 0, "longitude": 0}]}`},
		{"malformed json", `{"location":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/predict/risk", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, apperrors.ErrValidation, resp.Error)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestHandler_PredictRisk_InternalError(t *testing.T) {
	svc := newTestService(t)
	svc.assess = func(risk.Features, int) risk.Assessment { panic("engine exploded") }
	router := setupRouter(t, svc)

	w := doJSON(t, router, http.MethodPost, "/predict/risk",
		`{"location": {"latitude": 0, "longitude": 0}}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ErrInternal, resp.Error)
	assert.Equal(t, "Error predicting risk", resp.Message)
	assert.NotContains(t, w.Body.String(), "engine exploded")
}

func TestHandler_AnalyzePatterns(t *testing.T) {
	router := setupRouter(t, newTestService(t))

	body := `{
		"alerts": [
			{"tourist_id": 1, "alert_type": "panic", "location": "fort", "latitude": 19.07, "longitude": 72.87, "timestamp": "2024-01-06T22:15:00"},
			{"tourist_id": 2, "alert_type": "panic", "location": "fort", "latitude": 19.07, "longitude": 72.87, "timestamp": "2024-01-06T22:45:00"}
		],
		"time_range_days": 7
	}`
	w := doJSON(t, router, http.MethodPost, "/analyze/patterns", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report patterns.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Hotspots, 1)
	assert.Equal(t, 2, report.Hotspots[0].AlertCount)
	assert.Equal(t, []int{22}, report.TimePatterns.PeakHours)
	assert.Equal(t, 2, report.RiskTrends.TotalAlerts)
}

func TestHandler_AnalyzePatterns_EmptyBatch(t *testing.T) {
	router := setupRouter(t, newTestService(t))

	w := doJSON(t, router, http.MethodPost, "/analyze/patterns", `{"alerts": []}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.JSONEq(t, `[]`, string(raw["hotspots"]))
	assert.JSONEq(t, `["`+patterns.InsightNoData+`"]`, string(raw["insights"]))
	assert.JSONEq(t, `{}`, string(raw["time_patterns"]))
	assert.JSONEq(t, `{}`, string(raw["risk_trends"]))
}

func TestHandler_AnalyzePatterns_NoHotspotsKeepsKeys(t *testing.T) {
	router := setupRouter(t, newTestService(t))

	body := `{
		"alerts": [
			{"tourist_id": 1, "alert_type": "theft", "location": "a", "latitude": 10, "longitude": 10, "timestamp": "not a time"},
			{"tourist_id": 2, "alert_type": "theft", "location": "b", "latitude": 20, "longitude": 20, "timestamp": "also not a time"}
		]
	}`
	w := doJSON(t, router, http.MethodPost, "/analyze/patterns", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var raw struct {
		TimePatterns map[string]json.RawMessage `json:"time_patterns"`
		RiskTrends   map[string]json.RawMessage `json:"risk_trends"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	for _, key := range []string{"peak_hours", "peak_days", "hourly_distribution", "daily_distribution"} {
		assert.Contains(t, raw.TimePatterns, key)
	}
	for _, key := range []string{"total_alerts", "alert_types", "trend_direction", "risk_increase_areas"} {
		assert.Contains(t, raw.RiskTrends, key)
	}
	assert.JSONEq(t, `0`, string(raw.RiskTrends["risk_increase_areas"]))
}

func TestHandler_AnalyzePatterns_Validation(t *testing.T) {
	router := setupRouter(t, newTestService(t))

	for name, body := range map[string]string{
		"missing alerts":    `{}`,
		"zero time range":   `{"alerts": [], "time_range_days": 0}`,
		"alert missing lat": `{"alerts": [{"tourist_id": 1, "alert_type": "x", "location": "y", "longitude": 1}]}`,
		"alert missing type": `{"alerts": [{"tourist_id": 1, "location": "y", "latitude": 1, "longitude": 1}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/analyze/patterns", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestHandler_AnalyzePatterns_EmptyStringsAccepted(t *testing.T) {
	router := setupRouter(t, newTestService(t))

	body := `{"alerts": [
		{"tourist_id": 1, "alert_type": "", "location": "", "latitude": 10, "longitude": 10},
		{"tourist_id": 2, "alert_type": "", "location": "", "latitude": 10, "longitude": 10}
	]}`
	w := doJSON(t, router, http.MethodPost, "/analyze/patterns", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report patterns.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	require.Len(t, report.Hotspots, 1)
	assert.Equal(t, []string{""}, report.Hotspots[0].AlertTypes)
}

func TestHandler_TrainModel(t *testing.T) {
	router := setupRouter(t, newTestService(t))

	for name, body := range map[string]string{
		"empty body": "",
		"with body":  `{"dataset": "alerts", "samples": 10}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/train/model", body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var ack TrainAck
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
			assert.Equal(t, "success", ack.Status)
			assert.Equal(t, "Model training initiated", ack.Message)
		})
	}
}

func TestHandler_TrainModel_NegativeSamples(t *testing.T) {
	router := setupRouter(t, newTestService(t))

	w := doJSON(t, router, http.MethodPost, "/train/model", `{"samples": -5}`)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ErrValidation, resp.Error)
	assert.Equal(t, "Invalid request body", resp.Message)
	assert.Contains(t, resp.Details, "samples: must be positive")
}

func TestHandler_StatusAndModelInfo(t *testing.T) {
	router := setupRouter(t, newTestService(t))

	w := doJSON(t, router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, DefaultVersion, status.Version)

	w = doJSON(t, router, http.MethodGet, "/model/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	var info ModelInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, []string{"risk_predictor"}, info.Models)
	assert.Equal(t, "Risk Prediction", info.ModelType)
}
