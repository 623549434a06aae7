package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openvolunteer/vms-api/internal/service"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
	"github.com/openvolunteer/vms-api/pkg/response"
)

// RegistrationHandler exposes shift signup endpoints.
type RegistrationHandler struct {
	service *service.RegistrationService
	metrics *service.MetricsService
}

// NewRegistrationHandler constructs handler.
func NewRegistrationHandler(svc *service.RegistrationService, metrics *service.MetricsService) *RegistrationHandler {
	return &RegistrationHandler{service: svc, metrics: metrics}
}

// Register godoc
// @Summary Sign a volunteer up for a shift
// @Tags Signups
// @Accept json
// @Produce json
// @Param payload body service.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /signups [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid signup payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims != nil && !claims.CanActFor(req.VolunteerID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	assoc, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordSignup()
	response.Created(c, assoc)
}

// Cancel godoc
// @Summary Cancel a signup, freeing the slot
// @Tags Signups
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Param shift_id path string true "Shift ID"
// @Success 204
// @Router /volunteers/{volunteer_id}/shifts/{shift_id} [delete]
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("volunteer_id"), c.Param("shift_id")); err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordCancellation()
	response.NoContent(c)
}

// Get godoc
// @Summary Get one signup
// @Tags Signups
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Param shift_id path string true "Shift ID"
// @Success 200 {object} response.Envelope
// @Router /volunteers/{volunteer_id}/shifts/{shift_id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	assoc, err := h.service.Get(c.Request.Context(), c.Param("volunteer_id"), c.Param("shift_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assoc, nil)
}

// ListForVolunteer godoc
// @Summary List a volunteer's signups in schedule order
// @Tags Signups
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Param upcoming query bool false "Only shifts from today onward"
// @Success 200 {object} response.Envelope
// @Router /volunteers/{volunteer_id}/shifts [get]
func (h *RegistrationHandler) ListForVolunteer(c *gin.Context) {
	volunteerID := c.Param("volunteer_id")
	if c.Query("upcoming") == "true" {
		assocs, err := h.service.ListUpcomingForVolunteer(c.Request.Context(), volunteerID, time.Now().UTC())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, assocs, nil)
		return
	}
	assocs, err := h.service.ListForVolunteer(c.Request.Context(), volunteerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assocs, nil)
}
