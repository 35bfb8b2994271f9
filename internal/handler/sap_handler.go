package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
	"github.com/brightpath-labs/campus-ops-api/internal/service"
	"github.com/brightpath-labs/campus-ops-api/pkg/response"
)

// SAPHandler exposes the compliance evaluation endpoints.
type SAPHandler struct {
	sap     *service.SAPService
	trigger *service.TriggerService
	exports *service.ExportService
}

// NewSAPHandler constructs SAPHandler.
func NewSAPHandler(sap *service.SAPService, trigger *service.TriggerService, exports *service.ExportService) *SAPHandler {
	return &SAPHandler{sap: sap, trigger: trigger, exports: exports}
}

// Evaluate godoc
// @Summary Force a SAP evaluation for a student
// @Tags SAP
// @Produce json
// @Param id path string true "Student ID"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/sap/evaluations [post]
func (h *SAPHandler) Evaluate(c *gin.Context) {
	evaluation, err := h.trigger.ForceEvaluate(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, evaluation)
}

// History godoc
// @Summary List SAP evaluations for a student, newest first
// @Tags SAP
// @Produce json
// @Param id path string true "Student ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/sap/evaluations [get]
func (h *SAPHandler) History(c *gin.Context) {
	filter := models.SAPEvaluationFilter{StudentID: c.Param("id")}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	evaluations, pagination, err := h.sap.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluations, pagination)
}

// Due godoc
// @Summary Report whether a SAP evaluation is due for a student
// @Tags SAP
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/sap/due [get]
func (h *SAPHandler) Due(c *gin.Context) {
	due, err := h.sap.IsEvaluationDue(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"due": due}, nil)
}

// RunBatch godoc
// @Summary Evaluate every active student whose checkpoint interval elapsed
// @Tags SAP
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sap/run [post]
func (h *SAPHandler) RunBatch(c *gin.Context) {
	result, err := h.trigger.RunDueEvaluations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export a student's SAP evaluation history
// @Tags SAP
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /students/{id}/sap/evaluations/export [get]
func (h *SAPHandler) Export(c *gin.Context) {
	file, err := h.exports.ExportHistory(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
