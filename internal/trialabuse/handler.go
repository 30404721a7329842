package trialabuse

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/movaride/driver-lifecycle/pkg/common"
)

// Handler handles HTTP requests for trial eligibility
type Handler struct {
	service *Service
}

// NewHandler creates a new trial abuse handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CheckEligibility runs the trial eligibility gate for a signup attempt
// POST /api/v1/trial/eligibility
func (h *Handler) CheckEligibility(c *gin.Context) {
	var req CheckEligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	// Fall back to the connection address when the client omits one.
	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}

	result, err := h.service.CheckEligibility(c.Request.Context(), &req)
	if err != nil {
		common.HandleServiceError(c, err, "eligibility check failed")
		return
	}

	common.SuccessResponse(c, result)
}

// Blacklist adds a phone number to the trial blacklist
// POST /api/v1/admin/trial/blacklist
func (h *Handler) Blacklist(c *gin.Context) {
	var req AddToBlacklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.service.Blacklist(c.Request.Context(), &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to add blacklist entry")
		return
	}

	common.CreatedResponse(c, entry)
}

// AbuseStats returns trial abuse statistics for the admin dashboard
// GET /api/v1/admin/trial/abuse-stats
func (h *Handler) AbuseStats(c *gin.Context) {
	windowDays, _ := strconv.Atoi(c.DefaultQuery("window_days", "30"))

	stats, err := h.service.GetAbuseStats(c.Request.Context(), windowDays)
	if err != nil {
		common.HandleServiceError(c, err, "failed to load abuse stats")
		return
	}

	common.SuccessResponse(c, stats)
}
