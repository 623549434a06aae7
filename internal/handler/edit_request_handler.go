package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openvolunteer/vms-api/internal/service"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
	"github.com/openvolunteer/vms-api/pkg/response"
)

// EditRequestHandler exposes the hours-correction workflow endpoints.
type EditRequestHandler struct {
	service *service.EditRequestService
}

// NewEditRequestHandler constructs handler.
func NewEditRequestHandler(svc *service.EditRequestService) *EditRequestHandler {
	return &EditRequestHandler{service: svc}
}

// Request godoc
// @Summary File an hours correction for a signup
// @Tags EditRequests
// @Accept json
// @Produce json
// @Param id path string true "Signup ID"
// @Param payload body service.LogHoursRequest true "Proposed times"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /signups/{id}/edit-requests [post]
func (h *EditRequestHandler) Request(c *gin.Context) {
	var req service.LogHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hours payload"))
		return
	}
	request, err := h.service.Request(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// ListPending godoc
// @Summary List pending edit requests, oldest first
// @Tags EditRequests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /edit-requests [get]
func (h *EditRequestHandler) ListPending(c *gin.Context) {
	requests, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get one edit request with review context
// @Tags EditRequests
// @Produce json
// @Param id path string true "Edit request ID"
// @Success 200 {object} response.Envelope
// @Router /edit-requests/{id} [get]
func (h *EditRequestHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Approve godoc
// @Summary Approve an edit request, applying the proposed times
// @Tags EditRequests
// @Produce json
// @Param id path string true "Edit request ID"
// @Success 200 {object} response.Envelope
// @Router /edit-requests/{id}/approve [post]
func (h *EditRequestHandler) Approve(c *gin.Context) {
	request, err := h.service.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Reject godoc
// @Summary Reject an edit request, keeping the original times
// @Tags EditRequests
// @Produce json
// @Param id path string true "Edit request ID"
// @Success 200 {object} response.Envelope
// @Router /edit-requests/{id}/reject [post]
func (h *EditRequestHandler) Reject(c *gin.Context) {
	request, err := h.service.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
