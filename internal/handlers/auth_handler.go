package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/services"
	"github.com/SAP-F-2025/cbt-service/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
	}
}

// StudentLogin opens a student exam session
// @Summary Student login
// @Description Exchanges a student ID for a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param login body models.StudentLoginRequest true "Student ID"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/student/login [post]
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req models.StudentLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.LogRequest(c, "Student login", "student_id", req.StudentID)

	resp, err := h.authService.StudentLogin(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdminLogin
// @Summary Admin login
// @Tags auth
// @Accept json
// @Produce json
// @Param login body models.AdminLoginRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req models.AdminLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.LogRequest(c, "Admin login", "email", req.Email)

	resp, err := h.authService.AdminLogin(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated admin.
// @Router /admin/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentPrincipal(c))
}
