package reports

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/movaride/driver-lifecycle/pkg/common"
)

// Handler handles HTTP requests for driver safety reports
type Handler struct {
	service *Service
}

// NewHandler creates a new reports handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SubmitReport files a safety report against a driver
// POST /api/v1/drivers/:driver_id/reports
func (h *Handler) SubmitReport(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver id")
		return
	}

	var req SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.SubmitReport(c.Request.Context(), driverID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to submit report")
		return
	}

	common.CreatedResponse(c, resp)
}

// GetDriverScore returns a driver's rolling safety score
// GET /api/v1/drivers/:driver_id/score
func (h *Handler) GetDriverScore(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver id")
		return
	}

	view, err := h.service.GetDriverScore(c.Request.Context(), driverID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to load score")
		return
	}

	common.SuccessResponse(c, view)
}

// ListDriverReports lists reports filed against a driver
// GET /api/v1/drivers/:driver_id/reports
func (h *Handler) ListDriverReports(c *gin.Context) {
	driverID, err := uuid.Parse(c.Param("driver_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid driver id")
		return
	}

	limit, offset := paginationParams(c)
	reports, err := h.service.ListReportsForDriver(c.Request.Context(), driverID, limit, offset)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list reports")
		return
	}

	common.SuccessResponse(c, reports)
}

// ListPendingReports lists reports awaiting admin review
// GET /api/v1/admin/reports/pending
func (h *Handler) ListPendingReports(c *gin.Context) {
	limit, offset := paginationParams(c)
	reports, err := h.service.ListPendingReports(c.Request.Context(), limit, offset)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list reports")
		return
	}

	common.SuccessResponse(c, reports)
}

// ReviewReport applies an admin decision to a report
// PUT /api/v1/admin/reports/:report_id/review
func (h *Handler) ReviewReport(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("report_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid report id")
		return
	}

	var req ReviewReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.service.ReviewReport(c.Request.Context(), reportID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to review report")
		return
	}

	common.SuccessResponse(c, report)
}

func paginationParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
