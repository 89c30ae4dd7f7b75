package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/safetrail/safetrail/internal/common/errors"
	"github.com/safetrail/safetrail/internal/health"
	"github.com/safetrail/safetrail/internal/patterns"
	"github.com/safetrail/safetrail/internal/risk"
	"github.com/safetrail/safetrail/internal/safety"
)

// remoteClient calls a running Risk Service over HTTP
type remoteClient struct {
	http *resty.Client
}

func newRemoteClient(baseURL string, timeout time.Duration) *remoteClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "riskctl")
	return &remoteClient{http: client}
}

type predictBody struct {
	Location         safety.Location       `json:"location"`
	TouristData      safety.TouristProfile `json:"tourist_data"`
	HistoricalAlerts []patterns.Alert      `json:"historical_alerts,omitempty"`
	TimeOfDay        *int                  `json:"time_of_day,omitempty"`
	DayOfWeek        *int                  `json:"day_of_week,omitempty"`
}

type analyzeBody struct {
	Alerts        []patterns.Alert `json:"alerts"`
	TimeRangeDays int              `json:"time_range_days,omitempty"`
}

// PredictRisk posts to /predict/risk
func (c *remoteClient) PredictRisk(ctx context.Context, req safety.PredictRequest) (*risk.Assessment, error) {
	var result risk.Assessment
	body := predictBody{
		Location:         req.Location,
		TouristData:      req.Tourist,
		HistoricalAlerts: req.HistoricalAlerts,
		TimeOfDay:        req.Hour,
		DayOfWeek:        req.DayOfWeek,
	}
	if err := c.post(ctx, "/predict/risk", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzePatterns posts to /analyze/patterns
func (c *remoteClient) AnalyzePatterns(ctx context.Context, alerts []patterns.Alert, days int) (*patterns.Report, error) {
	if alerts == nil {
		alerts = []patterns.Alert{}
	}
	var report patterns.Report
	if err := c.post(ctx, "/analyze/patterns", analyzeBody{Alerts: alerts, TimeRangeDays: days}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Health fetches /health. An unhealthy service answers 503 with the same
// body, so the response is returned for any status that carries one.
func (c *remoteClient) Health(ctx context.Context) (*health.HealthResponse, error) {
	var result health.HealthResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Get("/health")
	if err != nil {
		return nil, fmt.Errorf("request to /health failed: %w", err)
	}
	if result.Status == "" {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode(), resp.String())
	}
	return &result, nil
}

func (c *remoteClient) post(ctx context.Context, path string, body, result interface{}) error {
	var apiErr apperrors.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(&apiErr).
		Post(path)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}

	if resp.IsError() {
		if apiErr.Error != "" && apiErr.Details != "" {
			return fmt.Errorf("server returned %d %s: %s: %s", resp.StatusCode(), apiErr.Error, apiErr.Message, apiErr.Details)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("server returned %d %s: %s", resp.StatusCode(), apiErr.Error, apiErr.Message)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
