package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
	"github.com/SAP-F-2025/exam-prep-service/internal/validator"
)

const defaultExamLimit = 12

type testService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewTestService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) TestService {
	return &testService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// GetTest returns an active test without answers or explanations
func (s *testService) GetTest(ctx context.Context, testID uint) (*TestView, error) {
	test, err := s.repo.Test().GetByID(ctx, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if !test.IsActive {
		return nil, ErrTestNotFound
	}

	return NewTestView(test), nil
}

func (s *testService) ListExams(ctx context.Context, query *ExamQuery) (*ExamListResponse, error) {
	if query == nil {
		query = &ExamQuery{}
	}
	if err := s.validator.Validate(query); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	return s.listExams(ctx, *query, "")
}

func (s *testService) SearchExams(ctx context.Context, query *ExamSearchQuery) (*ExamListResponse, error) {
	if query == nil {
		query = &ExamSearchQuery{}
	}
	query.Q = strings.TrimSpace(query.Q)
	if err := s.validator.Validate(query); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	return s.listExams(ctx, query.ExamQuery, query.Q)
}

func (s *testService) listExams(ctx context.Context, query ExamQuery, search string) (*ExamListResponse, error) {
	page, limit, offset := pageBounds(query.Page, query.Limit, defaultExamLimit)

	exams, total, err := s.repo.Exam().ListActive(ctx, repositories.ExamFilters{
		Search: search,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	if exams == nil {
		exams = []*models.Exam{}
	}

	return &ExamListResponse{
		Exams:       exams,
		CurrentPage: page,
		TotalPages:  totalPages(total, limit),
		TotalExams:  total,
	}, nil
}

func (s *testService) GetExam(ctx context.Context, examID uint) (*ExamDetail, error) {
	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if !exam.IsActive {
		return nil, ErrExamNotFound
	}

	tests, err := s.repo.Test().ListByExam(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	subjects, err := s.repo.Test().CountQuestionsBySubject(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to count subjects: %w", err)
	}

	return &ExamDetail{Exam: exam, Tests: tests, Summary: summarizeExam(tests, subjects)}, nil
}

func summarizeExam(tests []*models.Test, subjects []repositories.SubjectCount) ExamSummary {
	summary := ExamSummary{
		TotalTests: len(tests),
		CategoryCounts: map[models.TestCategory]int{
			models.CategorySetWise:     0,
			models.CategorySubjectWise: 0,
			models.CategoryTopicWise:   0,
		},
		SubjectCounts: make(map[models.Subject]int, len(subjects)),
	}

	for _, t := range tests {
		if _, ok := summary.CategoryCounts[t.Category]; ok {
			summary.CategoryCounts[t.Category]++
		}
		if t.IsFree {
			summary.FreeTests++
		}
	}
	summary.PaidTests = summary.TotalTests - summary.FreeTests

	for _, sc := range subjects {
		summary.SubjectCounts[sc.Subject] += sc.Count
	}
	return summary
}

// NewTestView strips correct answers and explanations from test
func NewTestView(test *models.Test) *TestView {
	questions := make([]QuestionView, len(test.Questions))
	for i, q := range test.Questions {
		questions[i] = QuestionView{
			ID:         q.ID,
			Question:   q.Text,
			Options:    q.Options,
			Subject:    q.Subject,
			Difficulty: q.Difficulty,
			Marks:      q.Marks,
		}
	}

	return &TestView{
		ID:             test.ID,
		ExamID:         test.ExamID,
		Title:          test.Title,
		Description:    test.Description,
		Category:       test.Category,
		Duration:       test.Duration,
		TotalQuestions: len(test.Questions),
		IsFree:         test.IsFree,
		Price:          test.Price,
		Questions:      questions,
	}
}
