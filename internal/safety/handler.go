package safety

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/safetrail/safetrail/internal/common/errors"
	"github.com/safetrail/safetrail/internal/common/validation"
	"github.com/safetrail/safetrail/internal/patterns"
)

const invalidBodyMsg = "Invalid request body"

// Handler exposes the Service over HTTP
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new safety HTTP handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service: service,
		logger:  logger.With(zap.String("component", "safety_handler")),
	}
}

// RegisterRoutes registers the safety routes
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.handleStatus)
	r.POST("/predict/risk", h.handlePredictRisk)
	r.POST("/analyze/patterns", h.handleAnalyzePatterns)
	r.POST("/train/model", h.handleTrainModel)
	r.GET("/model/info", h.handleModelInfo)
}

// Request DTOs. Pointers distinguish absent fields from explicit zeros, so
// required only rejects missing keys and an empty alert_type is accepted.

type locationDTO struct {
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180"`
	Timestamp string   `json:"timestamp"`
}

type alertDTO struct {
	TouristID   *int     `json:"tourist_id" binding:"required"`
	AlertType   *string  `json:"alert_type" binding:"required"`
	Location    *string  `json:"location" binding:"required"`
	Latitude    *float64 `json:"latitude" binding:"required"`
	Longitude   *float64 `json:"longitude" binding:"required"`
	Description string   `json:"description"`
	Timestamp   string   `json:"timestamp"`
}

func (a alertDTO) toAlert() patterns.Alert {
	return patterns.Alert{
		TouristID:   *a.TouristID,
		AlertType:   *a.AlertType,
		Location:    *a.Location,
		Latitude:    *a.Latitude,
		Longitude:   *a.Longitude,
		Description: a.Description,
		Timestamp:   a.Timestamp,
	}
}

func toAlerts(dtos []alertDTO) []patterns.Alert {
	alerts := make([]patterns.Alert, 0, len(dtos))
	for _, d := range dtos {
		alerts = append(alerts, d.toAlert())
	}
	return alerts
}

type predictRiskRequest struct {
	Location         *locationDTO   `json:"location" binding:"required"`
	TouristData      TouristProfile `json:"tourist_data"`
	HistoricalAlerts []alertDTO     `json:"historical_alerts" binding:"omitempty,dive"`
	TimeOfDay        *int           `json:"time_of_day" binding:"omitempty,min=0,max=23"`
	DayOfWeek        *int           `json:"day_of_week" binding:"omitempty,min=0,max=6"`
}

type analyzePatternsRequest struct {
	Alerts        []alertDTO `json:"alerts" binding:"required,dive"`
	TimeRangeDays *int       `json:"time_range_days" binding:"omitempty,min=1"`
}

func (h *Handler) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status())
}

func (h *Handler) handlePredictRisk(c *gin.Context) {
	var req predictRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.HandleError(c, apperrors.ValidationError(invalidBodyMsg).WithDetails(err.Error()))
		return
	}

	assessment, err := h.service.PredictRisk(c.Request.Context(), PredictRequest{
		Location: Location{
			Latitude:  *req.Location.Latitude,
			Longitude: *req.Location.Longitude,
			Timestamp: req.Location.Timestamp,
		},
		Tourist:          req.TouristData,
		HistoricalAlerts: toAlerts(req.HistoricalAlerts),
		Hour:             req.TimeOfDay,
		DayOfWeek:        req.DayOfWeek,
	})
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

func (h *Handler) handleAnalyzePatterns(c *gin.Context) {
	var req analyzePatternsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.HandleError(c, apperrors.ValidationError(invalidBodyMsg).WithDetails(err.Error()))
		return
	}

	days := 0
	if req.TimeRangeDays != nil {
		days = *req.TimeRangeDays
	}

	report, err := h.service.AnalyzePatterns(c.Request.Context(), toAlerts(req.Alerts), days)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *Handler) handleTrainModel(c *gin.Context) {
	var req TrainingRequest
	// an empty body is a valid training request
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apperrors.HandleError(c, apperrors.ValidationError(invalidBodyMsg).WithDetails(err.Error()))
		return
	}
	if req.Samples != 0 {
		if err := validation.ValidatePositive("samples", req.Samples); err != nil {
			apperrors.HandleError(c, apperrors.ValidationError(invalidBodyMsg).WithDetails(err.Error()))
			return
		}
	}

	c.JSON(http.StatusOK, h.service.TrainModel(c.Request.Context(), req))
}

func (h *Handler) handleModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.ModelInfo())
}
