package safety

import (
	"github.com/safetrail/safetrail/internal/patterns"
)

// Location is the point being assessed. Timestamp is informational only.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// TouristProfile describes the traveller. It is accepted and logged at debug
// level but no field currently affects scoring.
type TouristProfile struct {
	TouristID   *int   `json:"tourist_id,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	GroupSize   int    `json:"group_size,omitempty"`
}

// PredictRequest is the input to PredictRisk. Nil Hour or DayOfWeek are
// filled from the service clock; an explicit zero is honored.
type PredictRequest struct {
	Location         Location
	Tourist          TouristProfile
	HistoricalAlerts []patterns.Alert
	Hour             *int
	DayOfWeek        *int // Monday=0
}

// TrainingRequest describes a retraining request. Training is acknowledged
// only; none of these fields change scoring. A non-zero Samples must be
// positive.
type TrainingRequest struct {
	Dataset string `json:"dataset,omitempty"`
	Samples int    `json:"samples,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// TrainAck acknowledges a training request
type TrainAck struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ModelInfo describes the scoring model in use
type ModelInfo struct {
	Models      []string `json:"models"`
	ModelType   string   `json:"model_type"`
	Version     string   `json:"version"`
	LastUpdated string   `json:"last_updated"`
	Features    []string `json:"features"`
}

// Status is the service banner served at the root route
type Status struct {
	Message   string `json:"message"`
	Version   string `json:"version"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
