package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openvolunteer/vms-api/internal/models"
	"github.com/openvolunteer/vms-api/internal/service"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
	"github.com/openvolunteer/vms-api/pkg/response"
	"github.com/openvolunteer/vms-api/pkg/timeutil"
)

// JobHandler exposes job catalog endpoints.
type JobHandler struct {
	service *service.JobService
	shifts  *service.ShiftService
}

// NewJobHandler constructs handler.
func NewJobHandler(svc *service.JobService, shifts *service.ShiftService) *JobHandler {
	return &JobHandler{service: svc, shifts: shifts}
}

// List godoc
// @Summary List jobs
// @Tags Jobs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /jobs [get]
func (h *JobHandler) List(c *gin.Context) {
	jobs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}

// Search godoc
// @Summary Search jobs
// @Tags Jobs
// @Produce json
// @Param name query string false "Name filter"
// @Param event_id query string false "Event ID filter"
// @Param event_name query string false "Event name filter"
// @Param start_date query string false "Overlap window start (YYYY-MM-DD)"
// @Param end_date query string false "Overlap window end (YYYY-MM-DD)"
// @Param city query string false "Event city filter"
// @Param state query string false "Event state filter"
// @Param country query string false "Event country filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /jobs/search [get]
func (h *JobHandler) Search(c *gin.Context) {
	filter := models.JobFilter{
		Name:      c.Query("name"),
		EventID:   c.Query("event_id"),
		EventName: c.Query("event_name"),
		StartDate: queryDate(c, "start_date"),
		EndDate:   queryDate(c, "end_date"),
		City:      c.Query("city"),
		State:     c.Query("state"),
		Country:   c.Query("country"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
	}
	jobs, pagination, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, pagination)
}

// Get godoc
// @Summary Get one job
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /jobs/{id} [get]
func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Create godoc
// @Summary Create a job inside an event
// @Tags Jobs
// @Accept json
// @Produce json
// @Param payload body service.JobRequest true "Job payload"
// @Success 201 {object} response.Envelope
// @Router /jobs [post]
func (h *JobHandler) Create(c *gin.Context) {
	var req service.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}
	job, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// CheckEdit godoc
// @Summary Check whether new job dates keep existing shifts
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Param start_date query string true "Proposed start (YYYY-MM-DD)"
// @Param end_date query string true "Proposed end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /jobs/{id}/check-edit [get]
func (h *JobHandler) CheckEdit(c *gin.Context) {
	start, err := timeutil.ParseDate(c.Query("start_date"))
	if err != nil {
		response.Error(c, appErrors.Validation(map[string]string{"start_date": "start date must be YYYY-MM-DD"}))
		return
	}
	end, err := timeutil.ParseDate(c.Query("end_date"))
	if err != nil {
		response.Error(c, appErrors.Validation(map[string]string{"end_date": "end date must be YYYY-MM-DD"}))
		return
	}
	check, err := h.service.CheckEdit(c.Request.Context(), c.Param("id"), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}

// Update godoc
// @Summary Update a job
// @Tags Jobs
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param payload body service.JobRequest true "Job payload"
// @Success 200 {object} response.Envelope
// @Router /jobs/{id} [put]
func (h *JobHandler) Update(c *gin.Context) {
	var req service.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid job payload"))
		return
	}
	job, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Delete godoc
// @Summary Delete a job without shifts
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 204
// @Router /jobs/{id} [delete]
func (h *JobHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListShifts godoc
// @Summary List the job's shifts
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /jobs/{id}/shifts [get]
func (h *JobHandler) ListShifts(c *gin.Context) {
	shifts, err := h.shifts.ListByJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shifts, nil)
}

// ListOpenShifts godoc
// @Summary List the job's shifts that still accept signups
// @Tags Jobs
// @Produce json
// @Param id path string true "Job ID"
// @Param volunteer_id query string false "Exclude shifts this volunteer already holds"
// @Success 200 {object} response.Envelope
// @Router /jobs/{id}/shifts/open [get]
func (h *JobHandler) ListOpenShifts(c *gin.Context) {
	shifts, err := h.shifts.ListOpenByJob(c.Request.Context(), c.Param("id"), c.Query("volunteer_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shifts, nil)
}
