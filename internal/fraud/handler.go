package fraud

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/richxcame/trust-safety/internal/gps"
	"github.com/richxcame/trust-safety/pkg/common"
	"github.com/richxcame/trust-safety/pkg/models"
	"github.com/richxcame/trust-safety/pkg/validation"
)

// AlertService defines the service operations the HTTP handler depends on
type AlertService interface {
	AnalyzeAccount(ctx context.Context, accountID string) (*models.Alert, error)
	AnalyzeRide(ctx context.Context, rideID string, points []gps.Point, device *gps.DeviceInfo, driverID, riderID string) (*models.Alert, error)
	GetAlert(ctx context.Context, alertID string) (*models.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*models.Alert, int64, error)
	AcknowledgeAlert(ctx context.Context, alertID, reviewedBy, notes string) (*models.Alert, error)
	ResolveAlert(ctx context.Context, alertID, reviewedBy, notes string) (*models.Alert, error)
	GetStatistics(ctx context.Context, period string) (*models.Statistics, error)
}

// Handler handles HTTP requests for fraud detection
type Handler struct {
	service AlertService
}

// NewHandler creates a new fraud handler
func NewHandler(service AlertService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the fraud API under the given router group
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	fraud := api.Group("/fraud")
	{
		fraud.POST("/analyze/account", h.AnalyzeAccount)
		fraud.POST("/analyze/gps", h.AnalyzeGPS)
		fraud.GET("/alerts", h.ListAlerts)
		fraud.GET("/alerts/:id", h.GetAlert)
		fraud.POST("/alerts/:id/acknowledge", h.AcknowledgeAlert)
		fraud.POST("/alerts/:id/resolve", h.ResolveAlert)
		fraud.GET("/stats", h.GetStatistics)
	}
}

// AnalyzeAccountRequest is the body for POST /fraud/analyze/account
type AnalyzeAccountRequest struct {
	AccountID string `json:"account_id" binding:"required"`
}

// AnalyzeGPSRequest is the body for POST /fraud/analyze/gps
type AnalyzeGPSRequest struct {
	RideID   string          `json:"ride_id" binding:"required"`
	DriverID string          `json:"driver_id"`
	RiderID  string          `json:"rider_id"`
	Points   []gps.Point     `json:"points" binding:"required,min=2"`
	Device   *gps.DeviceInfo `json:"device"`
}

// ReviewRequest is the body for alert acknowledge/resolve transitions
type ReviewRequest struct {
	ReviewedBy string `json:"reviewed_by" binding:"required"`
	Notes      string `json:"notes"`
}

// AnalysisResponse wraps one analysis outcome. Alert is null when the
// analysis ran and found nothing alertable.
type AnalysisResponse struct {
	Alert *models.Alert `json:"alert"`
}

// AnalyzeAccount runs the multi-account similarity engine for one account
// POST /api/v1/fraud/analyze/account
func (h *Handler) AnalyzeAccount(c *gin.Context) {
	var req AnalyzeAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErrorResponse(c, err)
		return
	}

	alert, err := h.service.AnalyzeAccount(c.Request.Context(), req.AccountID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.SuccessResponse(c, AnalysisResponse{Alert: alert})
}

// AnalyzeGPS runs the GPS trajectory analyzer for one ride
// POST /api/v1/fraud/analyze/gps
func (h *Handler) AnalyzeGPS(c *gin.Context) {
	var req AnalyzeGPSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErrorResponse(c, err)
		return
	}

	alert, err := h.service.AnalyzeRide(c.Request.Context(), req.RideID, req.Points, req.Device, req.DriverID, req.RiderID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.SuccessResponse(c, AnalysisResponse{Alert: alert})
}

// ListAlerts lists alerts matching the query filters, newest first
// GET /api/v1/fraud/alerts
func (h *Handler) ListAlerts(c *gin.Context) {
	filter := AlertFilter{
		Status:    models.Status(c.Query("status")),
		AlertType: models.AlertType(c.Query("type")),
		Severity:  models.Severity(c.Query("severity")),
		SubjectID: c.Query("subject_id"),
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	alerts, total, err := h.service.ListAlerts(c.Request.Context(), filter, limit, offset)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.SuccessResponse(c, gin.H{
		"alerts": alerts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetAlert retrieves a single alert by ID
// GET /api/v1/fraud/alerts/:id
func (h *Handler) GetAlert(c *gin.Context) {
	alert, err := h.service.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.SuccessResponse(c, alert)
}

// AcknowledgeAlert transitions an active alert to acknowledged
// POST /api/v1/fraud/alerts/:id/acknowledge
func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErrorResponse(c, err)
		return
	}

	alert, err := h.service.AcknowledgeAlert(c.Request.Context(), c.Param("id"), req.ReviewedBy, req.Notes)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.SuccessResponse(c, alert)
}

// ResolveAlert transitions an active or acknowledged alert to resolved
// POST /api/v1/fraud/alerts/:id/resolve
func (h *Handler) ResolveAlert(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindErrorResponse(c, err)
		return
	}

	alert, err := h.service.ResolveAlert(c.Request.Context(), c.Param("id"), req.ReviewedBy, req.Notes)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.SuccessResponse(c, alert)
}

// GetStatistics aggregates alert counts over a reporting period
// GET /api/v1/fraud/stats?period=24h|7d|30d
func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.service.GetStatistics(c.Request.Context(), c.Query("period"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.SuccessResponse(c, stats)
}

func bindErrorResponse(c *gin.Context, err error) {
	if errs, ok := err.(validator.ValidationErrors); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   validation.NewValidationError(errs).Error(),
		})
		return
	}
	common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
}
