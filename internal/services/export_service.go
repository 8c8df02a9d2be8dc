package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	sheetSummary    = "Summary"
	sheetQuestions  = "Questions"
	sheetSubjects   = "Subjects"
	sheetDifficulty = "Difficulty"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportResults renders the caller's results as an xlsx workbook. Access
// rules are the same as for GetResults.
func (s *exportService) ExportResults(ctx context.Context, attemptID uint, userID string) (*ExportFile, error) {
	attempt, test, err := loadCompletedAttempt(ctx, s.repo, attemptID, userID)
	if err != nil {
		return nil, err
	}

	data, err := WriteResultsWorkbook(test.Title, BuildResults(attempt, test))
	if err != nil {
		return nil, fmt.Errorf("failed to export results: %w", err)
	}

	s.logger.Info("Results exported",
		"attempt_id", attemptID,
		"user_id", userID,
		"bytes", len(data))

	return &ExportFile{
		Filename:    fmt.Sprintf("test-%d-attempt-%d-results.xlsx", attempt.TestID, attempt.ID),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

// WriteResultsWorkbook builds the four-sheet results workbook
func WriteResultsWorkbook(title string, results *TestResultsResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetQuestions, sheetSubjects, sheetDifficulty} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	attempt := results.TestAttempt
	summary := [][]interface{}{
		{"Test", title},
		{"Score", formatScore(attempt.Score)},
		{"Correct Answers", attempt.CorrectAnswers},
		{"Incorrect Answers", attempt.IncorrectAnswers},
		{"Total Questions", attempt.TotalQuestions},
		{"Time Spent (s)", attempt.TimeSpent},
		{"Started At", attempt.StartTime.UTC().Format("2006-01-02 15:04:05")},
	}
	if attempt.EndTime != nil {
		summary = append(summary, []interface{}{"Submitted At", attempt.EndTime.UTC().Format("2006-01-02 15:04:05")})
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return nil, err
	}

	questions := [][]interface{}{
		{"#", "Question", "Selected Option", "Correct Answer", "Correct", "Subject", "Difficulty", "Time Spent (s)"},
	}
	for i, r := range results.DetailedResults {
		selected := interface{}("")
		if r.SelectedOption != nil {
			selected = *r.SelectedOption
		}
		questions = append(questions, []interface{}{
			i + 1, r.Question, selected, r.CorrectAnswer, r.IsCorrect, string(r.Subject), string(r.Difficulty), r.TimeSpent,
		})
	}
	if err := writeRows(f, sheetQuestions, questions); err != nil {
		return nil, err
	}

	subjects := [][]interface{}{{"Subject", "Correct", "Total", "Percentage"}}
	for _, p := range results.SubjectPerformance {
		subjects = append(subjects, []interface{}{string(p.Subject), p.Correct, p.Total, p.Percentage})
	}
	if err := writeRows(f, sheetSubjects, subjects); err != nil {
		return nil, err
	}

	difficulty := [][]interface{}{{"Difficulty", "Correct", "Total", "Percentage"}}
	for _, p := range results.DifficultyPerformance {
		difficulty = append(difficulty, []interface{}{string(p.Difficulty), p.Correct, p.Total, p.Percentage})
	}
	if err := writeRows(f, sheetDifficulty, difficulty); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
