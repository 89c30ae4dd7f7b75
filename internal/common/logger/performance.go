package logger

import (
	"time"

	"go.uber.org/zap"
)

// SlowOperationThreshold is the duration above which a timed operation is
// logged at warn level.
const SlowOperationThreshold = time.Second

// Timer measures a single operation and logs its duration when stopped
type Timer struct {
	logger    *zap.Logger
	operation string
	startTime time.Time
	fields    []zap.Field
}

// StartTimer starts a new performance timer
func StartTimer(logger *zap.Logger, operation string, fields ...zap.Field) *Timer {
	return &Timer{
		logger:    logger.With(zap.String("log_type", "performance")),
		operation: operation,
		startTime: time.Now(),
		fields:    fields,
	}
}

// With adds fields that are logged when the timer stops
func (t *Timer) With(fields ...zap.Field) *Timer {
	t.fields = append(t.fields, fields...)
	return t
}

// Stop stops the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.startTime)
	fields := t.baseFields(duration)

	if duration > SlowOperationThreshold {
		t.logger.Warn("Slow operation", fields...)
	} else {
		t.logger.Debug("Operation completed", fields...)
	}

	return duration
}

// StopWithError stops the timer and logs the duration with error
func (t *Timer) StopWithError(err error) time.Duration {
	duration := time.Since(t.startTime)
	t.logger.Error("Operation failed", append(t.baseFields(duration), zap.Error(err))...)
	return duration
}

func (t *Timer) baseFields(duration time.Duration) []zap.Field {
	fields := make([]zap.Field, 0, len(t.fields)+3)
	fields = append(fields, t.fields...)
	return append(fields,
		zap.String("operation", t.operation),
		zap.Duration("duration", duration),
		zap.Int64("duration_ms", duration.Milliseconds()),
	)
}
