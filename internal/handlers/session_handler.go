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

// SessionHandler covers session terms and the audit trail.
type SessionHandler struct {
	BaseHandler
	sessionService services.SessionTermService
	auditService   services.AuditService
}

func NewSessionHandler(sessionService services.SessionTermService, auditService services.AuditService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		auditService:   auditService,
	}
}

// CreateSessionTerm
// @Summary Create session term
// @Tags sessions
// @Accept json
// @Produce json
// @Param term body models.SessionTermCreateRequest true "Session and term"
// @Success 201 {object} models.SessionTerm
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/sessions [post]
func (h *SessionHandler) CreateSessionTerm(c *gin.Context) {
	var req models.SessionTermCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.LogRequest(c, "Creating session term", "session", req.Session, "term", req.Term)

	st, err := h.sessionService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// @Router /admin/sessions [get]
func (h *SessionHandler) ListSessionTerms(c *gin.Context) {
	terms, err := h.sessionService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, terms)
}

// DeleteSessionTerm fails with 409 while exams still reference the term.
// @Router /admin/sessions/{id} [delete]
func (h *SessionHandler) DeleteSessionTerm(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	h.LogRequest(c, "Deleting session term", "session_term_id", id)

	if err := h.sessionService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAuditLogs
// @Summary List audit entries, newest first
// @Tags audit
// @Produce json
// @Param actor_type query string false "ADMIN, STUDENT or SYSTEM"
// @Param action query string false "Event type, e.g. attempt.submitted"
// @Param limit query int false "Maximum entries (default: 100)"
// @Success 200 {array} models.AuditLog
// @Router /admin/audit-logs [get]
func (h *SessionHandler) ListAuditLogs(c *gin.Context) {
	filters := repositories.AuditLogFilters{Action: optionalStringQuery(c, "action")}
	if v := c.Query("actor_type"); v != "" {
		at := models.ActorType(v)
		filters.ActorType = &at
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		filters.Limit = limit
	}

	logs, err := h.auditService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
