package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openvolunteer/vms-api/internal/service"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
	"github.com/openvolunteer/vms-api/pkg/response"
)

// HoursHandler exposes logged-hours endpoints on signups.
type HoursHandler struct {
	service *service.HoursService
}

// NewHoursHandler constructs handler.
func NewHoursHandler(svc *service.HoursService) *HoursHandler {
	return &HoursHandler{service: svc}
}

// Log godoc
// @Summary Log hours on a signup
// @Tags Hours
// @Accept json
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Param shift_id path string true "Shift ID"
// @Param payload body service.LogHoursRequest true "Hours payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /volunteers/{volunteer_id}/shifts/{shift_id}/hours [post]
func (h *HoursHandler) Log(c *gin.Context) {
	var req service.LogHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hours payload"))
		return
	}
	assoc, err := h.service.Log(c.Request.Context(), c.Param("volunteer_id"), c.Param("shift_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assoc)
}

// Update godoc
// @Summary Rewrite logged hours
// @Tags Hours
// @Accept json
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Param shift_id path string true "Shift ID"
// @Param payload body service.LogHoursRequest true "Hours payload"
// @Success 200 {object} response.Envelope
// @Router /volunteers/{volunteer_id}/shifts/{shift_id}/hours [put]
func (h *HoursHandler) Update(c *gin.Context) {
	var req service.LogHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hours payload"))
		return
	}
	assoc, err := h.service.Update(c.Request.Context(), c.Param("volunteer_id"), c.Param("shift_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assoc, nil)
}

// Clear godoc
// @Summary Remove logged hours from a signup
// @Tags Hours
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Param shift_id path string true "Shift ID"
// @Success 204
// @Router /volunteers/{volunteer_id}/shifts/{shift_id}/hours [delete]
func (h *HoursHandler) Clear(c *gin.Context) {
	if err := h.service.Clear(c.Request.Context(), c.Param("volunteer_id"), c.Param("shift_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListUnlogged godoc
// @Summary List the volunteer's signups still waiting for hours
// @Tags Hours
// @Produce json
// @Param volunteer_id path string true "Volunteer ID"
// @Success 200 {object} response.Envelope
// @Router /volunteers/{volunteer_id}/hours/unlogged [get]
func (h *HoursHandler) ListUnlogged(c *gin.Context) {
	assocs, err := h.service.ListUnlogged(c.Request.Context(), c.Param("volunteer_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assocs, nil)
}
