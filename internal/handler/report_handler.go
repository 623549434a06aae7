package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openvolunteer/vms-api/internal/dto"
	"github.com/openvolunteer/vms-api/internal/models"
	"github.com/openvolunteer/vms-api/internal/service"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
	"github.com/openvolunteer/vms-api/pkg/response"
)

// ReportHandler exposes hour-report endpoints: on-the-fly summaries,
// exports, and the persisted report lifecycle.
type ReportHandler struct {
	service *service.ReportService
	metrics *service.MetricsService
}

// NewReportHandler constructs handler.
func NewReportHandler(svc *service.ReportService, metrics *service.MetricsService) *ReportHandler {
	return &ReportHandler{service: svc, metrics: metrics}
}

func reportQuery(c *gin.Context) (dto.ReportFilter, dto.ReportScope, string) {
	filter := dto.ReportFilter{
		FirstName:    c.Query("first_name"),
		LastName:     c.Query("last_name"),
		Organization: c.Query("organization"),
		EventName:    c.Query("event_name"),
		JobName:      c.Query("job_name"),
		StartDate:    queryDate(c, "start_date"),
		EndDate:      queryDate(c, "end_date"),
	}
	volunteerID := c.Query("volunteer_id")
	scope := dto.ScopeAllVolunteers
	if volunteerID != "" {
		scope = dto.ScopeSingleVolunteer
	}
	return filter, scope, volunteerID
}

func reportStatus(raw string) (*models.ReportStatus, error) {
	if raw == "" {
		return nil, nil
	}
	var status models.ReportStatus
	switch raw {
	case "pending":
		status = models.ReportPending
	case "approved":
		status = models.ReportApproved
	case "rejected":
		status = models.ReportRejected
	default:
		return nil, appErrors.Validation(map[string]string{"status": "unknown report status"})
	}
	return &status, nil
}

// Generate godoc
// @Summary Generate an hour summary over logged signups
// @Tags Reports
// @Produce json
// @Param first_name query string false "Volunteer first name filter"
// @Param last_name query string false "Volunteer last name filter"
// @Param organization query string false "Organization name filter"
// @Param event_name query string false "Event name filter"
// @Param job_name query string false "Job name filter"
// @Param start_date query string false "Shift date from (YYYY-MM-DD)"
// @Param end_date query string false "Shift date to (YYYY-MM-DD)"
// @Param volunteer_id query string false "Limit to one volunteer"
// @Success 200 {object} response.Envelope
// @Router /reports/summary [get]
func (h *ReportHandler) Generate(c *gin.Context) {
	filter, scope, volunteerID := reportQuery(c)
	summary, err := h.service.Generate(c.Request.Context(), filter, scope, volunteerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ExportCSV godoc
// @Summary Download an hour summary as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} file
// @Router /reports/summary/csv [get]
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	filter, scope, volunteerID := reportQuery(c)
	payload, err := h.service.ExportCSV(c.Request.Context(), filter, scope, volunteerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("volunteer-hours-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv", payload)
}

// ExportPDF godoc
// @Summary Download an hour summary as PDF
// @Tags Reports
// @Produce application/pdf
// @Success 200 {file} file
// @Router /reports/summary/pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	filter, scope, volunteerID := reportQuery(c)
	payload, err := h.service.ExportPDF(c.Request.Context(), filter, scope, volunteerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("volunteer-hours-%s.pdf", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", payload)
}

// Submit godoc
// @Summary Submit a pending report over logged signups
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.SubmitReportRequest true "Report payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /reports [post]
func (h *ReportHandler) Submit(c *gin.Context) {
	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims != nil && !claims.CanActFor(req.VolunteerID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	report, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordReportSubmitted()
	response.Created(c, report)
}

// List godoc
// @Summary List submitted reports
// @Tags Reports
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} response.Envelope
// @Router /reports [get]
func (h *ReportHandler) List(c *gin.Context) {
	status, err := reportStatus(c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	reports, err := h.service.List(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// ListForVolunteer godoc
// @Summary List a volunteer's own reports
// @Tags Reports
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Success 200 {object} response.Envelope
// @Router /volunteers/{volunteer_id}/reports [get]
func (h *ReportHandler) ListForVolunteer(c *gin.Context) {
	reports, err := h.service.ListForVolunteer(c.Request.Context(), c.Param("volunteer_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Get godoc
// @Summary Get one report with its member rows
// @Tags Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// SetStatus godoc
// @Summary Approve or reject a pending report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param payload body object true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /reports/{id}/status [patch]
func (h *ReportHandler) SetStatus(c *gin.Context) {
	var payload struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}
	status, err := reportStatus(payload.Status)
	if err != nil || status == nil {
		response.Error(c, appErrors.Validation(map[string]string{"status": "status must be approved or rejected"}))
		return
	}
	report, err := h.service.SetStatus(c.Request.Context(), c.Param("id"), *status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
