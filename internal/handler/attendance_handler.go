package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-labs/campus-ops-api/internal/service"
	appErrors "github.com/brightpath-labs/campus-ops-api/pkg/errors"
	"github.com/brightpath-labs/campus-ops-api/pkg/response"
)

// AttendanceHandler exposes the attendance ledger endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Clock godoc
// @Summary Record a clock-in/clock-out pair for a student
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.RecordClockRequest true "Clock payload"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/attendance/clock [post]
func (h *AttendanceHandler) Clock(c *gin.Context) {
	var req service.RecordClockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	event, err := h.attendance.RecordClockPair(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Hours godoc
// @Summary Read a student's cumulative hours and category summary
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance/hours [get]
func (h *AttendanceHandler) Hours(c *gin.Context) {
	hours, err := h.attendance.GetCumulativeHours(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, hours, nil)
}

// Events godoc
// @Summary List recent clock events for a student
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Param limit query int false "Max events"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance/events [get]
func (h *AttendanceHandler) Events(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	events, err := h.attendance.ListClockEvents(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}
