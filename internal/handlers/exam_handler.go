package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/services"
	"github.com/SAP-F-2025/cbt-service/internal/utils"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
	questions   *QuestionHandler
}

// NewExamHandler reuses the question handler for imports into an exam.
func NewExamHandler(examService services.ExamService, questions *QuestionHandler, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
		questions:   questions,
	}
}

// CreateExam
// @Summary Create exam
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body models.ExamCreateRequest true "Exam"
// @Success 201 {object} models.Exam
// @Failure 400 {object} ErrorResponse
// @Router /admin/exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	h.LogRequest(c, "Creating exam")

	var req models.ExamCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exam)
}

// GetExam
// @Summary Get exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} models.Exam
// @Failure 404 {object} ErrorResponse
// @Router /admin/exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// ListExams
// @Summary List exams
// @Tags exams
// @Produce json
// @Param class_level query string false "Class level"
// @Param published query bool false "Published flag"
// @Param session_term_id query int false "Session term"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /admin/exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	page, size, limit, offset := h.parsePage(c)
	filters := repositories.ExamFilters{
		ClassLevel:    optionalStringQuery(c, "class_level"),
		SessionTermID: optionalUintQuery(c, "session_term_id"),
		Limit:         limit,
		Offset:        offset,
		SortBy:        c.Query("sort_by"),
		SortOrder:     c.Query("sort_order"),
	}
	if published, err := strconv.ParseBool(c.Query("published")); err == nil {
		filters.Published = &published
	}

	exams, total, err := h.examService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaginatedResponse(exams, total, page, size))
}

// UpdateExam applies a partial update
// @Summary Update exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param exam body models.ExamUpdateRequest true "Fields to change"
// @Success 200 {object} models.Exam
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/exams/{id} [put]
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Updating exam", "exam_id", id)

	var req models.ExamUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// SetPublished publishes or withdraws an exam
// @Summary Publish or unpublish exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param body body models.PublishRequest true "Published flag"
// @Success 200 {object} models.Exam
// @Router /admin/exams/{id}/publish [patch]
func (h *ExamHandler) SetPublished(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.PublishRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.Published == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "VALIDATION_FAILED", Message: "published is required"})
		return
	}
	h.LogRequest(c, "Setting exam published flag", "exam_id", id, "published", *req.Published)

	exam, err := h.examService.SetPublished(c.Request.Context(), id, *req.Published)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

// AddQuestion appends a bank question to the end of the exam
// @Summary Add question to exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param body body models.AddExamQuestionRequest true "Question"
// @Success 201 {object} models.ExamQuestion
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/exams/{id}/questions [post]
func (h *ExamHandler) AddQuestion(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	var req models.AddExamQuestionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.QuestionID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "VALIDATION_FAILED", Message: "question_id is required"})
		return
	}
	h.LogRequest(c, "Adding question to exam", "exam_id", examID, "question_id", req.QuestionID)

	entry, err := h.examService.AddQuestion(c.Request.Context(), examID, req.QuestionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// RemoveQuestion
// @Summary Remove question from exam
// @Tags exams
// @Param id path uint true "Exam ID"
// @Param question_id path uint true "Question ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /admin/exams/{id}/questions/{question_id} [delete]
func (h *ExamHandler) RemoveQuestion(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}
	h.LogRequest(c, "Removing question from exam", "exam_id", examID, "question_id", questionID)

	if err := h.examService.RemoveQuestion(c.Request.Context(), examID, questionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListQuestions returns the exam's questions in order, with answer keys.
// @Router /admin/exams/{id}/questions [get]
func (h *ExamHandler) ListQuestions(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	entries, err := h.examService.ListQuestions(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ImportQuestions imports a file and attaches every committed row to the exam.
// @Router /admin/exams/{id}/questions/import [post]
func (h *ExamHandler) ImportQuestions(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}
	h.questions.runImport(c, &examID)
}
