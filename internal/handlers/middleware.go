package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/models"
	"github.com/SAP-F-2025/cbt-service/internal/services"
	"github.com/SAP-F-2025/cbt-service/internal/utils"
)

// Context keys set by the auth middlewares.
const (
	ctxStudentID  = "student_id"
	ctxClassLevel = "class_level"
	ctxPrincipal  = "principal"
)

// SetupMiddleware sets up common middleware for the Gin router
func SetupMiddleware(router *gin.Engine, logger utils.Logger) {
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware())
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(SecurityMiddleware())
}

// SecurityMiddleware adds security headers
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// RequestIDMiddleware reuses X-Request-ID when the caller sends one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Disposition")
		c.Header("Access-Control-Max-Age", "43200")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AuthMiddleware verifies bearer tokens for the student and admin surfaces.
type AuthMiddleware struct {
	auth services.AuthService
}

func NewAuthMiddleware(auth services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) RequireStudent() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}
		claims, err := m.auth.VerifyStudentToken(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired student session")
			return
		}

		c.Set(ctxStudentID, claims.StudentID)
		c.Set(ctxClassLevel, claims.ClassLevel)
		actor := events.Actor{Type: models.ActorStudent, ID: claims.StudentID, IP: c.ClientIP()}
		c.Request = c.Request.WithContext(events.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RequireAdmin accepts local admin tokens and Casdoor tokens.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}
		principal, err := m.auth.VerifyAdminToken(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, "invalid or expired admin session")
			return
		}

		c.Set(ctxPrincipal, principal)
		actor := events.Actor{Type: models.ActorAdmin, ID: principal.ID, IP: c.ClientIP()}
		c.Request = c.Request.WithContext(events.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		abortUnauthorized(c, "authorization header missing")
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		abortUnauthorized(c, "invalid authorization header format")
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Code: "UNAUTHORIZED", Message: msg})
}

// currentStudentID is only valid behind RequireStudent.
func currentStudentID(c *gin.Context) string {
	return c.GetString(ctxStudentID)
}

func currentPrincipal(c *gin.Context) *models.Principal {
	if v, ok := c.Get(ctxPrincipal); ok {
		if p, ok := v.(*models.Principal); ok {
			return p
		}
	}
	return nil
}
