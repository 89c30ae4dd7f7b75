// Package safety is the request-facing facade of the risk service. It
// validates input, fills in clock defaults and runs the risk engine and the
// pattern analyzer with logging, metrics, tracing and domain events around
// each call.
package safety

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/safetrail/safetrail/internal/common/errors"
	"github.com/safetrail/safetrail/internal/common/events"
	"github.com/safetrail/safetrail/internal/common/logger"
	"github.com/safetrail/safetrail/internal/common/tracing"
	"github.com/safetrail/safetrail/internal/geo"
	"github.com/safetrail/safetrail/internal/metrics"
	"github.com/safetrail/safetrail/internal/middleware"
	"github.com/safetrail/safetrail/internal/patterns"
	"github.com/safetrail/safetrail/internal/risk"
)

// Service metadata
const (
	ServiceName          = "risk-service"
	DefaultVersion       = "1.0.0"
	DefaultTimeRangeDays = 30

	ModelName = "risk_predictor"
	ModelType = "Risk Prediction"

	statusMessage     = "Tourist Safety Risk Service is running"
	trainStatus       = "success"
	trainMessage      = "Model training initiated"
	predictFailureMsg = "Error predicting risk"
	analyzeFailureMsg = "Error analyzing patterns"
)

var modelFeatures = []string{
	"Risk level prediction",
	"Pattern analysis",
	"Hotspot identification",
	"Time-based risk assessment",
}

// Option configures a Service
type Option func(*Service)

// WithClock sets the time source used for default hour and weekday
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithEventBus sets the bus domain events are published to
func WithEventBus(bus events.Bus) Option {
	return func(s *Service) { s.bus = bus }
}

// WithTracerProvider sets the provider spans are created from
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tracing.Tracer(tp) }
}

// WithVersion sets the version reported by Status and ModelInfo
func WithVersion(version string) Option {
	return func(s *Service) { s.version = version }
}

// WithDefaultTimeRangeDays sets the time range used when a caller gives none
func WithDefaultTimeRangeDays(days int) Option {
	return func(s *Service) { s.defaultRangeDays = days }
}

// Service coordinates risk scoring and pattern analysis for callers
type Service struct {
	registry *risk.Registry
	logger   *zap.Logger
	bus      events.Bus
	tracer   trace.Tracer
	now      func() time.Time

	version          string
	defaultRangeDays int

	// swapped in tests to exercise failure handling
	assess  func(risk.Features, int) risk.Assessment
	analyze func([]patterns.Alert) patterns.Report
}

// NewService creates the facade over an immutable risk registry
func NewService(registry *risk.Registry, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		registry:         registry,
		logger:           logger.WithComponent(log, "safety_service"),
		tracer:           tracing.Tracer(nil),
		now:              time.Now,
		version:          DefaultVersion,
		defaultRangeDays: DefaultTimeRangeDays,
	}
	for _, opt := range opts {
		opt(s)
	}

	engine := risk.NewEngine(registry, log)
	analyzer := patterns.NewAnalyzer(log)
	s.assess = engine.Assess
	s.analyze = analyzer.Analyze
	return s
}

// Registry returns the zone registry the service scores against
func (s *Service) Registry() *risk.Registry {
	return s.registry
}

// PredictRisk scores a location. It either fully succeeds or returns an
// *errors.AppError: validation failures for out-of-range input, Internal for
// anything unexpected.
func (s *Service) PredictRisk(ctx context.Context, req PredictRequest) (assessment *risk.Assessment, err error) {
	ctx, span := s.tracer.Start(ctx, "safety.PredictRisk")
	defer span.End()
	timer := logger.StartTimer(s.logger, "predict_risk")

	defer func() {
		if r := recover(); r != nil {
			assessment = nil
			err = apperrors.Internal(predictFailureMsg, fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			s.fail(ctx, span, timer, "predict_risk", err)
		}
	}()

	if err := validateLocation(req.Location); err != nil {
		return nil, err
	}

	now := s.now()
	hour := now.Hour()
	if req.Hour != nil {
		if *req.Hour < 0 || *req.Hour > 23 {
			return nil, apperrors.InvalidTime("hour", *req.Hour)
		}
		hour = *req.Hour
	}
	day := patterns.Weekday(now)
	if req.DayOfWeek != nil {
		if *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
			return nil, apperrors.InvalidTime("day_of_week", *req.DayOfWeek)
		}
		day = *req.DayOfWeek
	}

	features := risk.Features{
		Latitude:         req.Location.Latitude,
		Longitude:        req.Location.Longitude,
		Hour:             hour,
		DayOfWeek:        day,
		RecentAlertCount: len(req.HistoricalAlerts),
	}

	s.logger.Debug("Assessing location",
		touristFields(req.Tourist,
			zap.Float64("latitude", features.Latitude),
			zap.Float64("longitude", features.Longitude),
		)...,
	)

	result := s.assess(features, len(req.HistoricalAlerts))

	span.SetAttributes(
		attribute.String("risk.level", result.RiskLevel.String()),
		attribute.Float64("risk.score", result.RiskScore),
		attribute.Int("risk.hour", hour),
		attribute.Int("risk.recent_alerts", features.RecentAlertCount),
	)
	metrics.RecordRiskAssessment(result.RiskLevel.String(), result.RiskScore)
	timer.With(zap.String("risk_level", result.RiskLevel.String())).Stop()

	s.publish(ctx, events.EventRiskAssessed, map[string]interface{}{
		"risk_level":    result.RiskLevel.String(),
		"risk_score":    result.RiskScore,
		"latitude":      features.Latitude,
		"longitude":     features.Longitude,
		"hour":          hour,
		"day_of_week":   day,
		"recent_alerts": features.RecentAlertCount,
	})

	return &result, nil
}

// AnalyzePatterns analyzes a batch of alerts. timeRangeDays is accepted and
// logged but does not filter the batch; zero or negative selects the default.
func (s *Service) AnalyzePatterns(ctx context.Context, alerts []patterns.Alert, timeRangeDays int) (report *patterns.Report, err error) {
	ctx, span := s.tracer.Start(ctx, "safety.AnalyzePatterns")
	defer span.End()
	timer := logger.StartTimer(s.logger, "analyze_patterns")

	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = apperrors.Internal(analyzeFailureMsg, fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			s.fail(ctx, span, timer, "analyze_patterns", err)
		}
	}()

	if timeRangeDays <= 0 {
		timeRangeDays = s.defaultRangeDays
	}

	result := s.analyze(alerts)

	span.SetAttributes(
		attribute.Int("patterns.alerts", len(alerts)),
		attribute.Int("patterns.hotspots", len(result.Hotspots)),
		attribute.Int("patterns.time_range_days", timeRangeDays),
	)
	metrics.RecordPatternAnalysis(len(alerts), len(result.Hotspots), result.SkippedTimestamps)
	timer.With(
		zap.Int("alerts", len(alerts)),
		zap.Int("hotspots", len(result.Hotspots)),
		zap.Int("skipped_timestamps", result.SkippedTimestamps),
		zap.Int("time_range_days", timeRangeDays),
	).Stop()

	s.publish(ctx, events.EventPatternsAnalyzed, map[string]interface{}{
		"alerts":          len(alerts),
		"hotspots":        len(result.Hotspots),
		"time_range_days": timeRangeDays,
	})

	return &result, nil
}

// TrainModel acknowledges a training request. Scoring is never changed.
func (s *Service) TrainModel(ctx context.Context, req TrainingRequest) TrainAck {
	ctx, span := s.tracer.Start(ctx, "safety.TrainModel")
	defer span.End()

	s.logger.Info("Model training request received",
		zap.String("dataset", req.Dataset),
		zap.Int("samples", req.Samples))
	metrics.RecordTrainRequest()

	s.publish(ctx, events.EventModelTrainRequested, map[string]interface{}{
		"dataset": req.Dataset,
		"samples": req.Samples,
	})

	return TrainAck{
		Status:    trainStatus,
		Message:   trainMessage,
		Timestamp: s.timestamp(),
	}
}

// ModelInfo describes the scoring model
func (s *Service) ModelInfo() ModelInfo {
	return ModelInfo{
		Models:      []string{ModelName},
		ModelType:   ModelType,
		Version:     s.version,
		LastUpdated: s.timestamp(),
		Features:    append([]string(nil), modelFeatures...),
	}
}

// Status returns the service banner
func (s *Service) Status() Status {
	return Status{
		Message:   statusMessage,
		Version:   s.version,
		Status:    "healthy",
		Timestamp: s.timestamp(),
	}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func validateLocation(loc Location) error {
	if !geo.ValidCoordinate(loc.Latitude, loc.Longitude) {
		return apperrors.InvalidLocation(loc.Latitude, loc.Longitude)
	}
	return nil
}

// fail records a failed operation. Internal errors are logged with their
// cause; validation errors only at debug.
func (s *Service) fail(ctx context.Context, span trace.Span, timer *logger.Timer, operation string, err error) {
	code := string(apperrors.ErrInternal)
	if appErr, ok := apperrors.As(err); ok {
		code = string(appErr.Code)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, code)
	metrics.RecordOperationError(operation, code)

	if apperrors.GetStatusCode(err) >= 500 {
		timer.With(zap.String("trace_id", tracing.TraceID(ctx))).StopWithError(err)
		s.publish(ctx, events.EventOperationFailed, map[string]interface{}{
			"operation": operation,
			"code":      code,
		})
		return
	}
	logger.WithTraceContext(s.logger, ctx).Debug("Rejected invalid input",
		zap.String("operation", operation), zap.Error(err))
}

// publish delivers an event synchronously. Subscriber errors are logged and
// never fail the operation.
func (s *Service) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.bus == nil {
		return
	}
	event := events.NewEvent(eventType, ServiceName, payload).WithTraceID(tracing.TraceID(ctx))
	if requestID := middleware.GetRequestIDFromContext(ctx); requestID != "" {
		event = event.WithRequestID(requestID)
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("Event subscriber failed", zap.String("event", eventType), zap.Error(err))
	}
}

func touristFields(t TouristProfile, fields ...zap.Field) []zap.Field {
	if t.TouristID != nil {
		fields = append(fields, zap.Int("tourist_id", *t.TouristID))
	}
	if t.Nationality != "" {
		fields = append(fields, zap.String("nationality", t.Nationality))
	}
	if t.GroupSize > 0 {
		fields = append(fields, zap.Int("group_size", t.GroupSize))
	}
	return fields
}
