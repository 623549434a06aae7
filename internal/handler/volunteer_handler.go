package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openvolunteer/vms-api/internal/models"
	"github.com/openvolunteer/vms-api/internal/service"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
	"github.com/openvolunteer/vms-api/pkg/response"
)

// VolunteerHandler exposes volunteer profile endpoints.
type VolunteerHandler struct {
	service *service.VolunteerService
	hours   *service.HoursService
}

// NewVolunteerHandler constructs handler.
func NewVolunteerHandler(svc *service.VolunteerService, hours *service.HoursService) *VolunteerHandler {
	return &VolunteerHandler{service: svc, hours: hours}
}

// Search godoc
// @Summary Search volunteers
// @Tags Volunteers
// @Produce json
// @Param first_name query string false "First name filter"
// @Param last_name query string false "Last name filter"
// @Param city query string false "City filter"
// @Param state query string false "State filter"
// @Param country query string false "Country filter"
// @Param organization query string false "Organization name filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /volunteers [get]
func (h *VolunteerHandler) Search(c *gin.Context) {
	filter := models.VolunteerFilter{
		FirstName:    c.Query("first_name"),
		LastName:     c.Query("last_name"),
		City:         c.Query("city"),
		State:        c.Query("state"),
		Country:      c.Query("country"),
		Organization: c.Query("organization"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 20),
	}
	volunteers, pagination, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, volunteers, pagination)
}

// Get godoc
// @Summary Get one volunteer
// @Tags Volunteers
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Success 200 {object} response.Envelope
// @Router /volunteers/{volunteer_id} [get]
func (h *VolunteerHandler) Get(c *gin.Context) {
	volunteer, err := h.service.Get(c.Request.Context(), c.Param("volunteer_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, volunteer, nil)
}

// Create godoc
// @Summary Create a volunteer profile
// @Tags Volunteers
// @Accept json
// @Produce json
// @Param payload body service.VolunteerRequest true "Volunteer payload"
// @Success 201 {object} response.Envelope
// @Router /volunteers [post]
func (h *VolunteerHandler) Create(c *gin.Context) {
	var req service.VolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid volunteer payload"))
		return
	}
	volunteer, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, volunteer)
}

// Update godoc
// @Summary Update a volunteer profile
// @Tags Volunteers
// @Accept json
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Param payload body service.VolunteerRequest true "Volunteer payload"
// @Success 200 {object} response.Envelope
// @Router /volunteers/{volunteer_id} [put]
func (h *VolunteerHandler) Update(c *gin.Context) {
	var req service.VolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid volunteer payload"))
		return
	}
	volunteer, err := h.service.Update(c.Request.Context(), c.Param("volunteer_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, volunteer, nil)
}

// Delete godoc
// @Summary Delete a volunteer without signups
// @Tags Volunteers
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Success 204
// @Router /volunteers/{volunteer_id} [delete]
func (h *VolunteerHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("volunteer_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TotalHours godoc
// @Summary Total logged hours for a volunteer
// @Tags Volunteers
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Success 200 {object} response.Envelope
// @Router /volunteers/{volunteer_id}/hours/total [get]
func (h *VolunteerHandler) TotalHours(c *gin.Context) {
	volunteerID := c.Param("volunteer_id")
	if _, err := h.service.Get(c.Request.Context(), volunteerID); err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.hours.TotalForVolunteer(c.Request.Context(), volunteerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"volunteer_id": volunteerID, "total_hours": total}, nil)
}
