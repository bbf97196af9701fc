package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/cbt-service/internal/services"
	"github.com/SAP-F-2025/cbt-service/internal/utils"
)

type HandlerManager struct {
	authHandler     *AuthHandler
	questionHandler *QuestionHandler
	examHandler     *ExamHandler
	attemptHandler  *AttemptHandler
	resultHandler   *ResultHandler
	studentHandler  *StudentHandler
	sessionHandler  *SessionHandler
	authMiddleware  *AuthMiddleware
	health          func(ctx context.Context) error
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	questionHandler := NewQuestionHandler(serviceManager.Question(), serviceManager.Import(), logger)

	return &HandlerManager{
		authHandler:     NewAuthHandler(serviceManager.Auth(), logger),
		questionHandler: questionHandler,
		examHandler:     NewExamHandler(serviceManager.Exam(), questionHandler, logger),
		attemptHandler:  NewAttemptHandler(serviceManager.Attempt(), serviceManager.Result(), logger),
		resultHandler:   NewResultHandler(serviceManager.Result(), logger),
		studentHandler:  NewStudentHandler(serviceManager.Student(), logger),
		sessionHandler:  NewSessionHandler(serviceManager.SessionTerm(), serviceManager.Audit(), logger),
		authMiddleware:  NewAuthMiddleware(serviceManager.Auth()),
		health:          serviceManager.HealthCheck,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		if err := hm.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "cbt-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "cbt-service",
		})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/student/login", hm.authHandler.StudentLogin)
		auth.POST("/admin/login", hm.authHandler.AdminLogin)
	}

	// Student exam surface
	student := v1.Group("/students/me")
	student.Use(hm.authMiddleware.RequireStudent())
	{
		student.GET("", hm.studentHandler.Me)
		student.GET("/exams", hm.attemptHandler.ListAvailableExams)
		student.POST("/exams/:id/start", hm.attemptHandler.StartAttempt)
		student.GET("/exams/:id/results", hm.attemptHandler.ListExamResults)
		student.GET("/attempts/:id", hm.attemptHandler.ResumeAttempt)
		student.POST("/attempts/:id/submit", hm.attemptHandler.SubmitAttempt)
		student.GET("/attempts/:id/result", hm.attemptHandler.GetAttemptResult)
	}

	admin := v1.Group("/admin")
	admin.Use(hm.authMiddleware.RequireAdmin())
	{
		admin.GET("/me", hm.authHandler.Me)

		questions := admin.Group("/questions")
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.POST("/import", hm.questionHandler.ImportQuestions)
			questions.GET("/import/template", hm.questionHandler.ImportTemplate)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
		}

		exams := admin.Group("/exams")
		{
			exams.POST("", hm.examHandler.CreateExam)
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.PUT("/:id", hm.examHandler.UpdateExam)
			exams.PATCH("/:id/publish", hm.examHandler.SetPublished)
			exams.GET("/:id/questions", hm.examHandler.ListQuestions)
			exams.POST("/:id/questions", hm.examHandler.AddQuestion)
			exams.POST("/:id/questions/import", hm.examHandler.ImportQuestions)
			exams.DELETE("/:id/questions/:question_id", hm.examHandler.RemoveQuestion)
		}

		students := admin.Group("/students")
		{
			students.POST("", hm.studentHandler.CreateStudent)
			students.GET("", hm.studentHandler.ListStudents)
			students.GET("/:id", hm.studentHandler.GetStudent)
		}

		results := admin.Group("/results")
		{
			results.GET("", hm.resultHandler.ListResults)
			results.GET("/:id", hm.resultHandler.GetResult)
		}

		sessionTerms := admin.Group("/sessions")
		{
			sessionTerms.POST("", hm.sessionHandler.CreateSessionTerm)
			sessionTerms.GET("", hm.sessionHandler.ListSessionTerms)
			sessionTerms.DELETE("/:id", hm.sessionHandler.DeleteSessionTerm)
		}

		admin.GET("/audit-logs", hm.sessionHandler.ListAuditLogs)
	}
}
