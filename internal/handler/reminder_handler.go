package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openvolunteer/vms-api/internal/service"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
	"github.com/openvolunteer/vms-api/pkg/response"
	"github.com/openvolunteer/vms-api/pkg/timeutil"
)

// ReminderHandler exposes a manual trigger for the reminder pass.
type ReminderHandler struct {
	service *service.ReminderService
}

// NewReminderHandler constructs handler.
func NewReminderHandler(svc *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{service: svc}
}

// Run godoc
// @Summary Run one reminder pass
// @Description Dispatches due reminders for the given date (today by default). Safe to repeat.
// @Tags Reminders
// @Produce json
// @Param date query string false "Pass date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /reminders/run [post]
func (h *ReminderHandler) Run(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := timeutil.ParseDate(raw)
		if err != nil {
			response.Error(c, appErrors.Validation(map[string]string{"date": "date must be YYYY-MM-DD"}))
			return
		}
		date = parsed
	}
	result, err := h.service.Run(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
