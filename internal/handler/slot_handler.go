package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/classbook/classbook-api/internal/service"
	"github.com/classbook/classbook-api/pkg/response"
)

// SlotHandler serves the public slot listing.
type SlotHandler struct {
	slots *service.SlotService
}

// NewSlotHandler constructs a new SlotHandler.
func NewSlotHandler(slots *service.SlotService) *SlotHandler {
	return &SlotHandler{slots: slots}
}

// List godoc
// @Summary List bookable slots for a teacher and day
// @Tags Slots
// @Produce json
// @Param teacher query string true "Teacher slug"
// @Param date query string true "Calendar date (YYYY-MM-DD) on the student's clock"
// @Param tz query string true "Student IANA timezone"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /slots [get]
func (h *SlotHandler) List(c *gin.Context) {
	listing, err := h.slots.List(c.Request.Context(),
		strings.TrimSpace(c.Query("teacher")),
		strings.TrimSpace(c.Query("date")),
		strings.TrimSpace(c.Query("tz")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, listing)
}
