package subscription

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/movaride/driver-lifecycle/pkg/common"
)

// Handler handles HTTP requests for driver subscriptions
type Handler struct {
	service *Service
}

// NewHandler creates a new subscription handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterTrial starts a trial subscription for a driver
// POST /api/v1/subscriptions/trial
func (h *Handler) RegisterTrial(c *gin.Context) {
	var req RegisterTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.service.RegisterTrial(c.Request.Context(), &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to register trial")
		return
	}

	common.CreatedResponse(c, sub)
}

// GetStanding returns a driver's subscription and access decision
// GET /api/v1/subscriptions/:driver_id/standing
func (h *Handler) GetStanding(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver id")
		return
	}

	sub, decision, err := h.service.GetStanding(c.Request.Context(), driverID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to evaluate standing")
		return
	}

	common.SuccessResponse(c, gin.H{
		"subscription": sub,
		"access":       decision,
		"payment":      h.service.CheckPaymentStatus(sub),
	})
}

// RecordPayment records a received subscription payment
// POST /api/v1/subscriptions/:driver_id/payments
func (h *Handler) RecordPayment(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver id")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.service.RecordPayment(c.Request.Context(), driverID, req.AmountMinor)
	if err != nil {
		common.HandleServiceError(c, err, "failed to record payment")
		return
	}

	common.SuccessResponse(c, sub)
}

// TripCompleted reports a completed trip for trial and referral tracking
// POST /api/v1/subscriptions/:driver_id/trips
func (h *Handler) TripCompleted(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver id")
		return
	}

	var req TripCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.TripCompleted(c.Request.Context(), driverID); err != nil {
		common.HandleServiceError(c, err, "failed to record trip")
		return
	}

	common.SuccessResponse(c, gin.H{"recorded": true})
}

// RunPaymentSweep triggers the payment reminder sweep (scheduler endpoint)
// POST /api/v1/internal/subscriptions/sweep
func (h *Handler) RunPaymentSweep(c *gin.Context) {
	result, err := h.service.RunPaymentSweep(c.Request.Context())
	if err != nil {
		common.HandleServiceError(c, err, "sweep failed")
		return
	}

	common.SuccessResponse(c, result)
}
