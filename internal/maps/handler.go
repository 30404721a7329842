package maps

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/movaride/driver-lifecycle/pkg/common"
)

// Handler handles HTTP requests for map features
type Handler struct {
	service   *Service
	standings StandingSource
}

// NewHandler creates a new maps handler
func NewHandler(service *Service, standings StandingSource) *Handler {
	return &Handler{service: service, standings: standings}
}

// CalculateDistance computes distance and fare between two points
// POST /api/v1/drivers/:driver_id/maps/distance
func (h *Handler) CalculateDistance(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver id")
		return
	}

	var req DistanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	standing, err := h.standings.DriverStanding(c.Request.Context(), driverID.String())
	if err != nil {
		common.HandleServiceError(c, err, "failed to resolve driver standing")
		return
	}
	req.SubscriptionStatus = standing.SubscriptionStatus
	req.TrialExpired = standing.TrialExpired

	result, err := h.service.CalculateDistanceAndFare(c.Request.Context(), driverID.String(), &req)
	if err != nil {
		common.HandleServiceError(c, err, "distance calculation failed")
		return
	}

	common.SuccessResponse(c, result)
}

// NavigationUpdate returns a throttled turn-by-turn update
// POST /api/v1/drivers/:driver_id/maps/navigation
func (h *Handler) NavigationUpdate(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver id")
		return
	}

	var req NavigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	standing, err := h.standings.DriverStanding(c.Request.Context(), driverID.String())
	if err != nil {
		common.HandleServiceError(c, err, "failed to resolve driver standing")
		return
	}

	decision := CanUseMap(AccessInput{
		SubscriptionStatus: standing.SubscriptionStatus,
		TrialExpired:       standing.TrialExpired,
		IsOnline:           req.IsOnline,
		HasActiveRide:      req.HasActiveRide,
		RequestType:        RequestNavigation,
	})
	if !decision.Allowed {
		mapDenials.WithLabelValues(decision.Reason).Inc()
		common.HandleServiceError(c, common.NewAccessDeniedError(decision.Message), "navigation denied")
		return
	}

	update, err := h.service.GetNavigationUpdate(c.Request.Context(), driverID.String(), &req)
	if err != nil {
		common.HandleServiceError(c, err, "navigation update failed")
		return
	}

	common.SuccessResponse(c, update)
}

// GetUsage returns the driver's current map usage counters
// GET /api/v1/drivers/:driver_id/maps/usage
func (h *Handler) GetUsage(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver id")
		return
	}

	standing, err := h.standings.DriverStanding(c.Request.Context(), driverID.String())
	if err != nil {
		common.HandleServiceError(c, err, "failed to resolve driver standing")
		return
	}

	usage, err := h.service.GetUsage(c.Request.Context(), driverID.String(), standing.SubscriptionStatus == StatusTrial)
	if err != nil {
		common.HandleServiceError(c, err, "usage lookup failed")
		return
	}

	common.SuccessResponse(c, usage)
}
