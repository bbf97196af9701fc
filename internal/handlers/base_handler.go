package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/cbt-service/internal/services"
	"github.com/SAP-F-2025/cbt-service/internal/utils"
	"github.com/SAP-F-2025/cbt-service/internal/validator"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs with the request-scoped logger when one is attached.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

// parseIDParam returns 0 after writing a 400 when the param is not a
// positive integer.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_ID",
			Message: "Invalid " + name,
		})
		return 0
	}
	return uint(id)
}

// parsePage reads page and size query params and returns them together with
// the matching limit and offset.
func (h *BaseHandler) parsePage(c *gin.Context) (page, size, limit, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, size, (page - 1) * size
}

func (h *BaseHandler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PAYLOAD",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

func optionalUintQuery(c *gin.Context, key string) *uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil || v == 0 {
		return nil
	}
	u := uint(v)
	return &u
}

func optionalStringQuery(c *gin.Context, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_FAILED",
			Message: "Validation failed",
			Details: ve,
		})
		return
	}

	var partial *services.ImportPartialFailure
	if errors.As(err, &partial) {
		c.JSON(http.StatusMultiStatus, partial.Result)
		return
	}

	status, code, message := http.StatusInternalServerError, "INTERNAL_ERROR", err.Error()
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, services.ErrExamNotVisible):
		// Indistinguishable from a missing exam.
		status, code, message = http.StatusNotFound, "NOT_FOUND", services.ErrExamNotFound.Error()
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, services.ErrExamNotYetScheduled):
		status, code = http.StatusForbidden, "NOT_YET_SCHEDULED"
	case errors.Is(err, services.ErrAttemptsExhausted):
		status, code = http.StatusConflict, "ATTEMPTS_EXHAUSTED"
	case errors.Is(err, services.ErrAttemptAlreadySubmitted):
		status, code = http.StatusConflict, "ALREADY_SUBMITTED"
	case errors.Is(err, services.ErrConflict):
		status, code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, services.ErrDeadlineExceeded):
		status, code = http.StatusGone, "DEADLINE_EXCEEDED"
	case errors.Is(err, services.ErrMalformedExam):
		status, code = http.StatusUnprocessableEntity, "MALFORMED_EXAM"
	case errors.Is(err, services.ErrValidationFailed):
		status, code = http.StatusBadRequest, "VALIDATION_FAILED"
	}

	if status == http.StatusInternalServerError {
		utils.GetLogger(c, h.logger).Error("request failed", "error", err)
		c.JSON(status, ErrorResponse{Code: code, Message: "Internal server error"})
		return
	}
	c.JSON(status, ErrorResponse{Code: code, Message: message})
}
