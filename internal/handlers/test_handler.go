package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-prep-service/internal/services"
	"github.com/SAP-F-2025/exam-prep-service/internal/utils"
)

// TestHandler serves test definitions and the attempt lifecycle.
//
// The progress, submit and results routes share the /tests/:testId prefix
// with the catalog routes, but there the path segment carries the attempt id.
type TestHandler struct {
	BaseHandler
	testService    services.TestService
	attemptService services.AttemptService
	resultsService services.ResultsService
	exportService  services.ExportService
}

func NewTestHandler(
	testService services.TestService,
	attemptService services.AttemptService,
	resultsService services.ResultsService,
	exportService services.ExportService,
	logger utils.Logger,
) *TestHandler {
	return &TestHandler{
		BaseHandler:    NewBaseHandler(logger),
		testService:    testService,
		attemptService: attemptService,
		resultsService: resultsService,
		exportService:  exportService,
	}
}

// GetTest returns a test without answers
// @Summary Get test
// @Tags tests
// @Produce json
// @Param testId path uint true "Test ID"
// @Success 200 {object} services.TestView
// @Failure 404 {object} ErrorResponse
// @Router /tests/{testId} [get]
func (h *TestHandler) GetTest(c *gin.Context) {
	testID := h.parseIDParam(c, "testId")
	if testID == 0 {
		return
	}

	h.LogRequest(c, "Getting test", "test_id", testID)

	test, err := h.testService.GetTest(c.Request.Context(), testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// StartTest starts a new attempt or resumes the caller's in-progress one
// @Summary Start test
// @Tags tests
// @Produce json
// @Param testId path uint true "Test ID"
// @Success 200 {object} services.StartAttemptResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{testId}/start [post]
func (h *TestHandler) StartTest(c *gin.Context) {
	testID := h.parseIDParam(c, "testId")
	if testID == 0 {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting test", "test_id", testID)

	resp, err := h.attemptService.Start(c.Request.Context(), testID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SaveProgress checkpoints an in-progress attempt
// @Summary Save test progress
// @Tags tests
// @Accept json
// @Produce json
// @Param testId path uint true "Attempt ID"
// @Param progress body services.SaveProgressRequest true "Progress"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{testId}/progress [put]
func (h *TestHandler) SaveProgress(c *gin.Context) {
	attemptID := h.parseIDParam(c, "testId")
	if attemptID == 0 {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	// Every field is optional, so an empty body is an empty checkpoint
	var req services.SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Saving test progress", "attempt_id", attemptID)

	if err := h.attemptService.SaveProgress(c.Request.Context(), attemptID, userID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Progress saved successfully"})
}

// SubmitTest scores and finalizes an attempt
// @Summary Submit test
// @Tags tests
// @Accept json
// @Produce json
// @Param testId path uint true "Attempt ID"
// @Param submission body services.SubmitAttemptRequest true "Responses"
// @Success 200 {object} services.SubmissionResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{testId}/submit [post]
func (h *TestHandler) SubmitTest(c *gin.Context) {
	attemptID := h.parseIDParam(c, "testId")
	if attemptID == 0 {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req services.SubmitAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Submitting test", "attempt_id", attemptID)

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetResults returns the scored breakdown of a completed attempt
// @Summary Get test results
// @Tags tests
// @Produce json
// @Param testId path uint true "Attempt ID"
// @Success 200 {object} services.TestResultsResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{testId}/results [get]
func (h *TestHandler) GetResults(c *gin.Context) {
	attemptID := h.parseIDParam(c, "testId")
	if attemptID == 0 {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Getting test results", "attempt_id", attemptID)

	results, err := h.resultsService.GetResults(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ExportResults downloads the results as a spreadsheet
// @Summary Export test results
// @Tags tests
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param testId path uint true "Attempt ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /tests/{testId}/results/export [get]
func (h *TestHandler) ExportResults(c *gin.Context) {
	attemptID := h.parseIDParam(c, "testId")
	if attemptID == 0 {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting test results", "attempt_id", attemptID)

	file, err := h.exportService.ExportResults(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
