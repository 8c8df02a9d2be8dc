package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-prep-service/internal/services"
	"github.com/SAP-F-2025/exam-prep-service/internal/utils"
)

// UserHandler serves the caller's own history and aggregates
type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// GetTestHistory returns completed attempts, newest first
// @Summary Get test history
// @Tags users
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 10, max: 100)"
// @Param sort query string false "asc or desc (default: desc)"
// @Success 200 {object} services.TestHistoryResponse
// @Failure 400 {object} ErrorResponse
// @Router /users/me/test-history [get]
func (h *UserHandler) GetTestHistory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var query services.HistoryQuery
	if !h.bindQuery(c, &query) {
		return
	}

	h.LogRequest(c, "Getting test history", "page", query.Page, "limit", query.Limit)

	history, err := h.userService.GetTestHistory(c.Request.Context(), userID, &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

// GetPerformance returns overall, per-exam and monthly performance
// @Summary Get performance
// @Tags users
// @Produce json
// @Success 200 {object} services.PerformanceResponse
// @Router /users/me/performance [get]
func (h *UserHandler) GetPerformance(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting performance")

	perf, err := h.userService.GetPerformance(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, perf)
}

// GetAchievements lists unlocked achievements
// @Summary Get achievements
// @Tags users
// @Produce json
// @Success 200 {array} models.Achievement
// @Router /users/me/achievements [get]
func (h *UserHandler) GetAchievements(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting achievements")

	achievements, err := h.userService.GetAchievements(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, achievements)
}

// GetStats returns tests taken, running average and last test
// @Summary Get user stats
// @Tags users
// @Produce json
// @Success 200 {object} models.UserStats
// @Router /users/me/stats [get]
func (h *UserHandler) GetStats(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	stats, err := h.userService.GetStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetUpcomingTests suggests active full-length tests
// @Summary Upcoming tests
// @Tags users
// @Produce json
// @Success 200 {array} models.Test
// @Router /users/me/upcoming-tests [get]
func (h *UserHandler) GetUpcomingTests(c *gin.Context) {
	if _, ok := h.userID(c); !ok {
		return
	}

	h.LogRequest(c, "Getting upcoming tests")

	tests, err := h.userService.GetUpcomingTests(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tests)
}
