package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		env, level string
		want       zapcore.Level
	}{
		{"development", "warn", zap.WarnLevel},
		{"production", "ERROR", zap.ErrorLevel},
		{"production", "", zap.InfoLevel},
		{"development", "", zap.DebugLevel},
		{"prod", "bogus", zap.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.env, tt.level))
		})
	}
}

func TestGinMiddleware_LogsStatusLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("request_id", "req-1"); c.Next() })
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
}

func TestTimer(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	StartTimer(log, "predict_risk").With(zap.String("risk_level", "low")).Stop()
	StartTimer(log, "analyze_patterns").StopWithError(errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Operation completed", entries[0].Message)
	assert.Equal(t, "predict_risk", entries[0].ContextMap()["operation"])
	assert.Equal(t, "low", entries[0].ContextMap()["risk_level"])
	assert.Equal(t, "Operation failed", entries[1].Message)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}
