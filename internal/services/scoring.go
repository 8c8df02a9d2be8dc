package services

import "github.com/SAP-F-2025/exam-prep-service/internal/models"

// ScoreResult is the outcome of scoring one submission
type ScoreResult struct {
	Responses      []models.Response
	CorrectAnswers int
	Incorrect      int
	TotalQuestions int
	Score          float64
}

// ScoreResponses marks each response against the test's questions.
//
// The score is the share of correct answers out of totalQuestions, the
// count frozen when the attempt started. Question marks do not weight the
// score. A response naming a question the test does not contain, or with no
// selected option, is incorrect. correct never exceeds totalQuestions.
func ScoreResponses(questions []models.Question, responses []models.Response, totalQuestions int) ScoreResult {
	correctByID := make(map[uint]int, len(questions))
	for _, q := range questions {
		correctByID[q.ID] = q.CorrectAnswer
	}

	scored := make([]models.Response, len(responses))
	correct := 0
	for i, r := range responses {
		answer, known := correctByID[r.QuestionID]
		r.IsCorrect = known && r.SelectedOption != nil && *r.SelectedOption == answer
		if r.IsCorrect {
			correct++
		}
		scored[i] = r
	}

	correct = min(correct, max(totalQuestions, 0))

	var score float64
	if totalQuestions > 0 {
		score = float64(correct) / float64(totalQuestions) * 100
	}

	return ScoreResult{
		Responses:      scored,
		CorrectAnswers: correct,
		Incorrect:      totalQuestions - correct,
		TotalQuestions: totalQuestions,
		Score:          score,
	}
}
