package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/repositories"
	"github.com/SAP-F-2025/cbt-service/internal/services"
	"github.com/SAP-F-2025/cbt-service/internal/utils"
)

// StudentHandler manages the student register for admins.
type StudentHandler struct {
	BaseHandler
	service services.StudentService
}

func NewStudentHandler(service services.StudentService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateStudent
// @Summary Register student
// @Tags students
// @Accept json
// @Produce json
// @Param student body models.StudentCreateRequest true "Student"
// @Success 201 {object} models.Student
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Student ID already registered"
// @Router /admin/students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	var req models.StudentCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.LogRequest(c, "Registering student", "student_id", req.StudentID)

	student, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

// GetStudent
// @Router /admin/students/{id} [get]
func (h *StudentHandler) GetStudent(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	student, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}

// ListStudents
// @Summary List students
// @Tags students
// @Produce json
// @Param class_level query string false "Class level"
// @Param q query string false "Search by name or student ID"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} models.PaginatedResponse
// @Router /admin/students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	page, size, limit, offset := h.parsePage(c)
	filters := repositories.StudentFilters{
		ClassLevel: optionalStringQuery(c, "class_level"),
		Search:     c.Query("q"),
		Limit:      limit,
		Offset:     offset,
	}

	students, total, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPaginatedResponse(students, total, page, size))
}

// Me returns the logged-in student's own record.
// @Summary Current student
// @Tags student
// @Produce json
// @Success 200 {object} models.Student
// @Router /students/me [get]
func (h *StudentHandler) Me(c *gin.Context) {
	student, err := h.service.GetByStudentID(c.Request.Context(), currentStudentID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, student)
}
