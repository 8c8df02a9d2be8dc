package services

import (
	"context"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type SaveProgressRequest = validator.SaveProgressRequest
type SubmitAttemptRequest = validator.SubmitAttemptRequest
type ResponseInput = validator.ResponseInput
type HistoryQuery = validator.HistoryQuery
type ExamQuery = validator.ExamQuery
type ExamSearchQuery = validator.ExamSearchQuery

// ===== CATALOG DTOs =====

// TestView is a test definition without answers or explanations
type TestView struct {
	ID             uint                `json:"id"`
	ExamID         uint                `json:"exam_id"`
	Title          string              `json:"title"`
	Description    *string             `json:"description"`
	Category       models.TestCategory `json:"category"`
	Duration       int                 `json:"duration"`
	TotalQuestions int                 `json:"total_questions"`
	IsFree         bool                `json:"is_free"`
	Price          float64             `json:"price"`
	Questions      []QuestionView      `json:"questions"`
}

type QuestionView struct {
	ID         uint              `json:"id"`
	Question   string            `json:"question"`
	Options    []string          `json:"options"`
	Subject    models.Subject    `json:"subject"`
	Difficulty models.Difficulty `json:"difficulty"`
	Marks      int               `json:"marks"`
}

type ExamListResponse struct {
	Exams       []*models.Exam `json:"exams"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalExams  int64          `json:"totalExams"`
}

// ExamSummary counts the exam's active tests and their questions
type ExamSummary struct {
	TotalTests     int                         `json:"totalTests"`
	CategoryCounts map[models.TestCategory]int `json:"categoryCounts"`
	FreeTests      int                         `json:"freeTests"`
	PaidTests      int                         `json:"paidTests"`
	SubjectCounts  map[models.Subject]int      `json:"subjectCounts"`
}

type ExamDetail struct {
	*models.Exam
	Tests   []*models.Test `json:"tests"`
	Summary ExamSummary    `json:"summary"`
}

// ===== ATTEMPT DTOs =====

type StartAttemptResponse struct {
	AttemptID uint   `json:"attemptId"`
	Message   string `json:"message"`
	Resumed   bool   `json:"resumed"`
}

type SubmissionResult struct {
	Message        string  `json:"message"`
	Score          float64 `json:"score"`
	CorrectAnswers int     `json:"correctAnswers"`
	TotalQuestions int     `json:"totalQuestions"`
}

// ===== RESULTS DTOs =====

type DetailedResult struct {
	QuestionID     uint              `json:"questionId"`
	Question       string            `json:"question"`
	Options        []string          `json:"options"`
	SelectedOption *int              `json:"selectedOption"`
	CorrectAnswer  int               `json:"correctAnswer"`
	IsCorrect      bool              `json:"isCorrect"`
	Explanation    *string           `json:"explanation"`
	Subject        models.Subject    `json:"subject"`
	Difficulty     models.Difficulty `json:"difficulty"`
	TimeSpent      int               `json:"timeSpent"`
}

type SubjectPerformance struct {
	Subject    models.Subject `json:"subject"`
	Correct    int            `json:"correct"`
	Total      int            `json:"total"`
	Percentage string         `json:"percentage"`
}

type DifficultyPerformance struct {
	Difficulty models.Difficulty `json:"difficulty"`
	Correct    int               `json:"correct"`
	Total      int               `json:"total"`
	Percentage string            `json:"percentage"`
}

type TestResultsResponse struct {
	TestAttempt           *models.TestAttempt     `json:"testAttempt"`
	DetailedResults       []DetailedResult        `json:"detailedResults"`
	SubjectPerformance    []SubjectPerformance    `json:"subjectPerformance"`
	DifficultyPerformance []DifficultyPerformance `json:"difficultyPerformance"`
}

// ===== USER DTOs =====

type TestHistoryResponse struct {
	TestAttempts []*models.TestAttempt `json:"testAttempts"`
	CurrentPage  int                   `json:"currentPage"`
	TotalPages   int                   `json:"totalPages"`
	TotalTests   int64                 `json:"totalTests"`
}

type PerformanceOverview struct {
	TestsTaken       int    `json:"testsTaken"`
	AvgScore         string `json:"avgScore"`
	Accuracy         string `json:"accuracy"`
	TotalQuestions   int    `json:"totalQuestions"`
	CorrectAnswers   int    `json:"correctAnswers"`
	IncorrectAnswers int    `json:"incorrectAnswers"`
}

// ExamPerformance groups completed attempts by exam
type ExamPerformance struct {
	ExamID     uint   `json:"examId"`
	Subject    string `json:"subject"`
	Correct    int    `json:"correct"`
	Total      int    `json:"total"`
	Percentage string `json:"percentage"`
	Attempts   int    `json:"attempts"`
}

type MonthlyImprovement struct {
	Month string `json:"month"`
	Score string `json:"score"`
	Tests int    `json:"tests"`
}

type PerformanceResponse struct {
	Overall     PerformanceOverview  `json:"overall"`
	Subjects    []ExamPerformance    `json:"subjects"`
	Improvement []MonthlyImprovement `json:"improvement"`
}

// ExportFile is a generated download
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ===== SERVICE INTERFACES =====

// TestService serves the read-only catalog
type TestService interface {
	GetTest(ctx context.Context, testID uint) (*TestView, error)
	ListExams(ctx context.Context, query *ExamQuery) (*ExamListResponse, error)
	SearchExams(ctx context.Context, query *ExamSearchQuery) (*ExamListResponse, error)
	GetExam(ctx context.Context, examID uint) (*ExamDetail, error)
}

// AttemptService drives an attempt from start to submission
type AttemptService interface {
	Start(ctx context.Context, testID uint, userID string) (*StartAttemptResponse, error)
	SaveProgress(ctx context.Context, attemptID uint, userID string, req *SaveProgressRequest) error
	Submit(ctx context.Context, attemptID uint, userID string, req *SubmitAttemptRequest) (*SubmissionResult, error)
}

type AchievementService interface {
	// Evaluate unlocks every rule the completed attempt satisfies and
	// returns the achievements created by this call.
	Evaluate(ctx context.Context, attempt *models.TestAttempt, test *models.Test) ([]*models.Achievement, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Achievement, error)
}

type ResultsService interface {
	GetResults(ctx context.Context, attemptID uint, userID string) (*TestResultsResponse, error)
}

type UserService interface {
	GetTestHistory(ctx context.Context, userID string, query *HistoryQuery) (*TestHistoryResponse, error)
	GetPerformance(ctx context.Context, userID string) (*PerformanceResponse, error)
	GetAchievements(ctx context.Context, userID string) ([]*models.Achievement, error)
	GetStats(ctx context.Context, userID string) (*models.UserStats, error)
	GetUpcomingTests(ctx context.Context) ([]*models.Test, error)
}

type ExportService interface {
	ExportResults(ctx context.Context, attemptID uint, userID string) (*ExportFile, error)
}

// ServiceManager owns service construction and lifecycle
type ServiceManager interface {
	Test() TestService
	Attempt() AttemptService
	Achievement() AchievementService
	Results() ResultsService
	User() UserService
	Export() ExportService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
