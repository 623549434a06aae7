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

// EventHandler exposes event catalog endpoints.
type EventHandler struct {
	service *service.EventService
	jobs    *service.JobService
}

// NewEventHandler constructs handler.
func NewEventHandler(svc *service.EventService, jobs *service.JobService) *EventHandler {
	return &EventHandler{service: svc, jobs: jobs}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Search godoc
// @Summary Search events
// @Tags Events
// @Produce json
// @Param name query string false "Name filter"
// @Param start_date query string false "Overlap window start (YYYY-MM-DD)"
// @Param end_date query string false "Overlap window end (YYYY-MM-DD)"
// @Param city query string false "City filter"
// @Param state query string false "State filter"
// @Param country query string false "Country filter"
// @Param job_name query string false "Job name filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events/search [get]
func (h *EventHandler) Search(c *gin.Context) {
	filter := models.EventFilter{
		Name:      c.Query("name"),
		StartDate: queryDate(c, "start_date"),
		EndDate:   queryDate(c, "end_date"),
		City:      c.Query("city"),
		State:     c.Query("state"),
		Country:   c.Query("country"),
		JobName:   c.Query("job_name"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
	}
	events, pagination, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, pagination)
}

// Get godoc
// @Summary Get one event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Create godoc
// @Summary Create an event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.EventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// CheckEdit godoc
// @Summary Check whether new event dates keep existing jobs
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Param start_date query string true "Proposed start (YYYY-MM-DD)"
// @Param end_date query string true "Proposed end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/check-edit [get]
func (h *EventHandler) CheckEdit(c *gin.Context) {
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
// @Summary Update an event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.EventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Delete godoc
// @Summary Delete an event without jobs
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListJobs godoc
// @Summary List the event's jobs
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/jobs [get]
func (h *EventHandler) ListJobs(c *gin.Context) {
	jobs, err := h.jobs.ListByEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, jobs, nil)
}
