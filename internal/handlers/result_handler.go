package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/services"
	"github.com/SAP-F-2025/cbt-service/internal/utils"
)

type ResultHandler struct {
	BaseHandler
	service services.ResultService
}

func NewResultHandler(service services.ResultService, logger utils.Logger) *ResultHandler {
	return &ResultHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListResults lists submitted attempts, newest first
// @Summary List results
// @Tags results
// @Produce json
// @Param exam_id query int false "Exam"
// @Param student_id query int false "Student (internal ID)"
// @Param class_level query string false "Class level"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /admin/results [get]
func (h *ResultHandler) ListResults(c *gin.Context) {
	page, size, limit, offset := h.parsePage(c)
	filters := repositories.ResultFilters{
		ExamID:     optionalUintQuery(c, "exam_id"),
		StudentID:  optionalUintQuery(c, "student_id"),
		ClassLevel: optionalStringQuery(c, "class_level"),
		Limit:      limit,
		Offset:     offset,
	}

	items, total, err := h.service.ListResults(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaginatedResponse(items, total, page, size))
}

// GetResult returns one attempt with its full answer review
// @Summary Get result
// @Tags results
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.AdminResultDetail
// @Failure 404 {object} ErrorResponse
// @Router /admin/results/{id} [get]
func (h *ResultHandler) GetResult(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	detail, err := h.service.GetResult(c.Request.Context(), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
