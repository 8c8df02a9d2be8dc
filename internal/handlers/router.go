package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-prep-service/internal/services"
	"github.com/SAP-F-2025/exam-prep-service/internal/utils"
)

// HealthChecker reports whether the service's backing stores are reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HandlerManager struct {
	testHandler    *TestHandler
	examHandler    *ExamHandler
	userHandler    *UserHandler
	authMiddleware gin.HandlerFunc
	health         HealthChecker
}

// NewHandlerManager wires handlers to services. auth must set "user_id" on
// the gin context; see CasdoorAuthMiddleware.AuthMiddleware.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	auth gin.HandlerFunc,
	health HealthChecker,
) *HandlerManager {
	return &HandlerManager{
		testHandler: NewTestHandler(
			serviceManager.Test(),
			serviceManager.Attempt(),
			serviceManager.Results(),
			serviceManager.Export(),
			logger,
		),
		examHandler:    NewExamHandler(serviceManager.Test(), logger),
		userHandler:    NewUserHandler(serviceManager.User(), logger),
		authMiddleware: auth,
		health:         health,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware)
	{
		exams := v1.Group("/exams")
		{
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/search", hm.examHandler.SearchExams)
			exams.GET("/:examId", hm.examHandler.GetExam)
		}

		tests := v1.Group("/tests")
		{
			tests.GET("/:testId", hm.testHandler.GetTest)
			tests.POST("/:testId/start", hm.testHandler.StartTest)

			// :testId is the attempt id below
			tests.PUT("/:testId/progress", hm.testHandler.SaveProgress)
			tests.POST("/:testId/submit", hm.testHandler.SubmitTest)
			tests.GET("/:testId/results", hm.testHandler.GetResults)
			tests.GET("/:testId/results/export", hm.testHandler.ExportResults)
		}

		me := v1.Group("/users/me")
		{
			me.GET("/test-history", hm.userHandler.GetTestHistory)
			me.GET("/performance", hm.userHandler.GetPerformance)
			me.GET("/achievements", hm.userHandler.GetAchievements)
			me.GET("/stats", hm.userHandler.GetStats)
			me.GET("/upcoming-tests", hm.userHandler.GetUpcomingTests)
		}
	}

	// Health check endpoint
	router.GET("/health", hm.healthCheck)
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":    "healthy",
		"service":   "exam-prep-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if hm.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := hm.health.HealthCheck(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["error"] = err.Error()
		}
	}

	c.JSON(status, body)
}
