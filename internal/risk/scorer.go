// Package risk provides location and time based safety risk scoring for
// tourists, together with the human-readable explanation of each score.
package risk

import (
	"math"

	"go.uber.org/zap"
)

// RiskLevel represents the classification of risk
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// String returns the string representation of RiskLevel
func (r RiskLevel) String() string {
	return string(r)
}

// Scoring constants. Thresholds are fixed and not configurable.
const (
	BaseRisk       = 0.2
	NightTimeRisk  = 0.3
	DayTimeRisk    = 0.1
	AlertRiskStep  = 0.1
	MaxAlertRisk   = 0.3
	LocationWeight = 0.5

	LowRiskThreshold    = 0.3 // below: low
	MediumRiskThreshold = 0.6 // below: medium
	HighRiskThreshold   = 0.8 // below: high, otherwise critical

	// DefaultConfidence is reported with every assessment. It is a fixed
	// placeholder until a real confidence estimate exists.
	DefaultConfidence = 0.85
)

// Features is the per-request input to scoring. DayOfWeek uses Monday=0.
type Features struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Hour             int     `json:"hour"`
	DayOfWeek        int     `json:"day_of_week"`
	RecentAlertCount int     `json:"recent_alerts"`
}

// Assessment contains the risk assessment result
type Assessment struct {
	RiskLevel       RiskLevel `json:"risk_level"`
	RiskScore       float64   `json:"risk_score"`
	RiskFactors     []string  `json:"risk_factors"`
	Recommendations []string  `json:"recommendations"`
	Confidence      float64   `json:"confidence"`
}

// Scorer computes bounded risk scores from Features.
type Scorer struct {
	registry *Registry
	logger   *zap.Logger
}

// NewScorer creates a scorer over the given registry.
func NewScorer(registry *Registry, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		registry: registry,
		logger:   logger.With(zap.String("component", "risk_scorer")),
	}
}

// Score returns base + location + time + alert risk, capped at 1.0.
func (s *Scorer) Score(f Features) float64 {
	location := s.LocationRisk(f.Latitude, f.Longitude)
	timeRisk := s.TimeRisk(f.Hour)
	alert := AlertRisk(f.RecentAlertCount)

	total := math.Min(BaseRisk+location+timeRisk+alert, 1.0)

	s.logger.Debug("Risk score calculated",
		zap.Float64("location_risk", location),
		zap.Float64("time_risk", timeRisk),
		zap.Float64("alert_risk", alert),
		zap.Float64("score", total),
	)

	return total
}

// LocationRisk returns half of the strongest zone contribution at the point.
func (s *Scorer) LocationRisk(lat, lng float64) float64 {
	return s.registry.MaxZoneRisk(lat, lng) * LocationWeight
}

// TimeRisk is a step function over the configured night hours.
func (s *Scorer) TimeRisk(hour int) float64 {
	if s.registry.IsNightHour(hour) {
		return NightTimeRisk
	}
	return DayTimeRisk
}

// AlertRisk grows by 0.1 per recent alert and is capped at 0.3.
func AlertRisk(recentAlerts int) float64 {
	if recentAlerts <= 0 {
		return 0
	}
	return math.Min(float64(recentAlerts)*AlertRiskStep, MaxAlertRisk)
}

// ClassifyRiskLevel converts a numeric score to a risk level category
func ClassifyRiskLevel(score float64) RiskLevel {
	switch {
	case score < LowRiskThreshold:
		return RiskLevelLow
	case score < MediumRiskThreshold:
		return RiskLevelMedium
	case score < HighRiskThreshold:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}

// Engine pairs a Scorer with an Explainer built over the same registry so
// the numeric score and its explanation never disagree on zone membership.
type Engine struct {
	scorer    *Scorer
	explainer *Explainer
}

// NewEngine builds a scorer and explainer sharing one registry.
func NewEngine(registry *Registry, logger *zap.Logger) *Engine {
	return &Engine{
		scorer:    NewScorer(registry, logger),
		explainer: NewExplainer(registry),
	}
}

// Assess scores the features and explains the result. alertHistoryCount is
// the number of historical alerts supplied with the request.
func (e *Engine) Assess(f Features, alertHistoryCount int) Assessment {
	score := e.scorer.Score(f)
	factors, recommendations := e.explainer.Explain(f, alertHistoryCount)

	return Assessment{
		RiskLevel:       ClassifyRiskLevel(score),
		RiskScore:       score,
		RiskFactors:     factors,
		Recommendations: recommendations,
		Confidence:      DefaultConfidence,
	}
}

// Scorer returns the engine's scorer.
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}
