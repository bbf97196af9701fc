package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/services"
	"github.com/SAP-F-2025/cbt-service/internal/utils"
)

// maxUploadBytes bounds question import files.
const maxUploadBytes = 10 << 20

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	importService   services.ImportService
}

func NewQuestionHandler(questionService services.QuestionService, importService services.ImportService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		importService:   importService,
	}
}

// CreateQuestion adds a question to the bank
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param question body models.QuestionCreateRequest true "Question"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Router /admin/questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var req models.QuestionCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// GetQuestion
// @Summary Get question
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} models.Question
// @Failure 404 {object} ErrorResponse
// @Router /admin/questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// ListQuestions lists the bank with optional filters
// @Summary List questions
// @Tags questions
// @Produce json
// @Param subject query string false "Subject"
// @Param class_level query string false "Class level"
// @Param term query int false "Term"
// @Param topic query string false "Topic"
// @Param q query string false "Search text"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /admin/questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	page, size, limit, offset := h.parsePage(c)
	filters := repositories.QuestionFilters{
		Subject:    optionalStringQuery(c, "subject"),
		ClassLevel: optionalStringQuery(c, "class_level"),
		Topic:      optionalStringQuery(c, "topic"),
		Search:     c.Query("q"),
		Limit:      limit,
		Offset:     offset,
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	if term, err := strconv.Atoi(c.Query("term")); err == nil {
		filters.Term = &term
	}

	questions, total, err := h.questionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaginatedResponse(questions, total, page, size))
}

// UpdateQuestion replaces a question that no attempt has answered yet
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Question ID"
// @Param question body models.QuestionUpdateRequest true "Question"
// @Success 200 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Updating question", "question_id", id)

	var req models.QuestionUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// ImportQuestions loads a .csv or .xlsx file into the bank
// @Summary Import questions
// @Tags questions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 201 {object} models.ImportResult
// @Success 207 {object} models.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /admin/questions/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	h.runImport(c, nil)
}

// ImportTemplate
// @Summary Download an empty import file
// @Tags questions
// @Param format query string false "csv or xlsx (default: csv)"
// @Router /admin/questions/import/template [get]
func (h *QuestionHandler) ImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", services.FormatCSV)

	data, contentType, err := h.importService.Template(format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="questions-template.%s"`, format))
	c.Data(http.StatusOK, contentType, data)
}

// runImport reads the "file" form field and imports it, attaching the rows
// to examID when set.
func (h *QuestionHandler) runImport(c *gin.Context, examID *uint) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PAYLOAD",
			Message: "A file field is required",
			Details: err.Error(),
		})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Code: "FILE_TOO_LARGE", Message: "Import file is too large"})
		return
	}

	f, err := header.Open()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Importing questions", "filename", header.Filename, "bytes", len(data))
	result, err := h.importService.ImportQuestions(c.Request.Context(), examID, header.Filename, data)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}
