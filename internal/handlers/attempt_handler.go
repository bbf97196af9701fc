package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/services"
	"github.com/SAP-F-2025/cbt-service/internal/utils"
)

// AttemptHandler serves the student exam surface. Every route sits behind
// AuthMiddleware.RequireStudent.
type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	resultService  services.ResultService
}

func NewAttemptHandler(attemptService services.AttemptService, resultService services.ResultService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		resultService:  resultService,
	}
}

// ListAvailableExams lists the published exams of the student's class
// @Summary List available exams
// @Tags student
// @Produce json
// @Success 200 {array} models.StudentExamSummary
// @Failure 401 {object} ErrorResponse
// @Router /students/me/exams [get]
func (h *AttemptHandler) ListAvailableExams(c *gin.Context) {
	exams, err := h.attemptService.ListAvailableExams(c.Request.Context(), currentStudentID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exams)
}

// StartAttempt starts a new attempt and returns the exam paper
// @Summary Start exam attempt
// @Description Starts a new attempt. The paper carries no answer key.
// @Tags student
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 201 {object} models.ExamPaper
// @Failure 403 {object} ErrorResponse "Exam has not started yet"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "No attempts remaining"
// @Failure 422 {object} ErrorResponse "Exam has no questions"
// @Router /students/me/exams/{id}/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}
	studentID := currentStudentID(c)
	h.LogRequest(c, "Starting exam attempt", "exam_id", examID, "student_id", studentID)

	paper, err := h.attemptService.Start(c.Request.Context(), studentID, examID, c.ClientIP())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, paper)
}

// ResumeAttempt re-renders the paper of an in-progress attempt
// @Summary Resume exam attempt
// @Tags student
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.ExamPaper
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already submitted"
// @Failure 410 {object} ErrorResponse "Deadline passed"
// @Router /students/me/attempts/{id} [get]
func (h *AttemptHandler) ResumeAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}
	h.LogRequest(c, "Resuming exam attempt", "attempt_id", attemptID)

	paper, err := h.attemptService.Resume(c.Request.Context(), currentStudentID(c), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paper)
}

// SubmitAttempt scores and closes an attempt
// @Summary Submit exam attempt
// @Tags student
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param answers body models.SubmitAttemptRequest true "Answers"
// @Success 200 {object} models.SubmitResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already submitted"
// @Failure 410 {object} ErrorResponse "Deadline passed"
// @Router /students/me/attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req models.SubmitAttemptRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.LogRequest(c, "Submitting exam attempt", "attempt_id", attemptID, "answers", len(req.Answers), "auto", req.AutoSubmitted)

	result, err := h.attemptService.Submit(c.Request.Context(), currentStudentID(c), attemptID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListExamResults lists the student's submitted attempts at one exam
// @Summary My results for an exam
// @Tags student
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} models.StudentExamResults
// @Router /students/me/exams/{id}/results [get]
func (h *AttemptHandler) ListExamResults(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	results, err := h.resultService.ListStudentResults(c.Request.Context(), currentStudentID(c), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetAttemptResult
// @Summary My result for one attempt
// @Description The answer review is included only when the exam shows results immediately.
// @Tags student
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} models.StudentAttemptResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Attempt still in progress"
// @Router /students/me/attempts/{id}/result [get]
func (h *AttemptHandler) GetAttemptResult(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	result, err := h.resultService.GetStudentResult(c.Request.Context(), currentStudentID(c), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
