package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-prep-service/internal/services"
	"github.com/SAP-F-2025/exam-prep-service/internal/utils"
)

type ExamHandler struct {
	BaseHandler
	testService services.TestService
}

func NewExamHandler(testService services.TestService, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		testService: testService,
	}
}

// ListExams lists active exams, newest first
// @Summary List exams
// @Tags exams
// @Produce json
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 12, max 100)"
// @Success 200 {object} services.ExamListResponse
// @Failure 400 {object} ErrorResponse
// @Router /exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	var query services.ExamQuery
	if !h.bindQuery(c, &query) {
		return
	}

	h.LogRequest(c, "Listing exams", "page", query.Page, "limit", query.Limit)

	exams, err := h.testService.ListExams(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exams)
}

// SearchExams matches active exams by name or description
// @Summary Search exams
// @Tags exams
// @Produce json
// @Param q query string true "Search term"
// @Param page query int false "Page (default 1)"
// @Param limit query int false "Page size (default 12, max 100)"
// @Success 200 {object} services.ExamListResponse
// @Failure 400 {object} ErrorResponse
// @Router /exams/search [get]
func (h *ExamHandler) SearchExams(c *gin.Context) {
	var query services.ExamSearchQuery
	if !h.bindQuery(c, &query) {
		return
	}

	h.LogRequest(c, "Searching exams", "q", query.Q)

	exams, err := h.testService.SearchExams(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exams)
}

// GetExam returns an exam with its active tests
// @Summary Get exam
// @Tags exams
// @Produce json
// @Param examId path uint true "Exam ID"
// @Success 200 {object} services.ExamDetail
// @Failure 404 {object} ErrorResponse
// @Router /exams/{examId} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID := h.parseIDParam(c, "examId")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Getting exam", "exam_id", examID)

	exam, err := h.testService.GetExam(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}
