package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
	"github.com/SAP-F-2025/exam-prep-service/internal/repositories"
)

// fakeStore is an in-memory repositories.Repository. Transactions snapshot
// attempts and stats and restore them when fn fails.
type fakeStore struct {
	mu sync.Mutex

	exams        map[uint]*models.Exam
	tests        map[uint]*models.Test
	attempts     map[uint]*models.TestAttempt
	achievements []*models.Achievement
	stats        map[string]*models.UserStats

	nextAttemptID     uint
	nextAchievementID uint

	// failures injected by tests
	achievementErr error
	statsSaveErr   error

	inTx               bool
	statsInvalidations []statsInvalidation
}

// statsInvalidation records a cache drop and whether a transaction was open
type statsInvalidation struct {
	userID string
	inTx   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		exams:    make(map[uint]*models.Exam),
		tests:    make(map[uint]*models.Test),
		attempts: make(map[uint]*models.TestAttempt),
		stats:    make(map[string]*models.UserStats),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *fakeStore) Exam() repositories.ExamRepository               { return fakeExams{f} }
func (f *fakeStore) Test() repositories.TestRepository               { return fakeTests{f} }
func (f *fakeStore) Attempt() repositories.AttemptRepository         { return fakeAttempts{f} }
func (f *fakeStore) Achievement() repositories.AchievementRepository { return fakeAchievements{f} }
func (f *fakeStore) UserStats() repositories.UserStatsRepository     { return fakeStats{f} }
func (f *fakeStore) User() repositories.UserRepository               { return nil }
func (f *fakeStore) Ping(context.Context) error                      { return nil }
func (f *fakeStore) Close() error                                    { return nil }

func (f *fakeStore) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	f.mu.Lock()
	attempts := make(map[uint]models.TestAttempt, len(f.attempts))
	for id, a := range f.attempts {
		attempts[id] = *a
	}
	stats := make(map[string]models.UserStats, len(f.stats))
	for id, s := range f.stats {
		stats[id] = *s
	}
	f.inTx = true
	f.mu.Unlock()

	err := fn(f)

	f.mu.Lock()
	f.inTx = false
	f.mu.Unlock()

	if err != nil {
		f.mu.Lock()
		f.attempts = make(map[uint]*models.TestAttempt, len(attempts))
		for id, a := range attempts {
			a := a
			f.attempts[id] = &a
		}
		f.stats = make(map[string]*models.UserStats, len(stats))
		for id, s := range stats {
			s := s
			f.stats[id] = &s
		}
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) addTest(test *models.Test) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tests[test.ID] = test
}

func (f *fakeStore) attempt(id uint) models.TestAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneAttempt(f.attempts[id])
}

func (f *fakeStore) userStats(userID string) models.UserStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stats[userID]; ok {
		return *s
	}
	return models.UserStats{UserID: userID}
}

func (f *fakeStore) achievementTitles(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var titles []string
	for _, a := range f.achievements {
		if a.UserID == userID {
			titles = append(titles, a.Title)
		}
	}
	return titles
}

func cloneAttempt(a *models.TestAttempt) models.TestAttempt {
	if a == nil {
		return models.TestAttempt{}
	}
	c := *a
	c.Responses = append([]models.Response(nil), a.Responses...)
	if a.EndTime != nil {
		end := *a.EndTime
		c.EndTime = &end
	}
	return c
}

// ===== exams =====

type fakeExams struct{ f *fakeStore }

func (r fakeExams) GetByID(_ context.Context, id uint) (*models.Exam, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if e, ok := r.f.exams[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, repositories.ErrNotFound
}

func (r fakeExams) ListActive(_ context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Exam
	search := strings.ToLower(filters.Search)
	for _, e := range r.f.exams {
		if !e.IsActive {
			continue
		}
		if search != "" && !examMatches(e, search) {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })

	total := int64(len(out))
	return paginate(out, filters.Limit, filters.Offset), total, nil
}

func examMatches(e *models.Exam, search string) bool {
	if strings.Contains(strings.ToLower(e.Name), search) {
		return true
	}
	return e.Description != nil && strings.Contains(strings.ToLower(*e.Description), search)
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// ===== tests =====

type fakeTests struct{ f *fakeStore }

func (r fakeTests) GetByID(_ context.Context, id uint) (*models.Test, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if t, ok := r.f.tests[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, repositories.ErrNotFound
}

func (r fakeTests) ListByExam(_ context.Context, examID uint) ([]*models.Test, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Test
	for _, t := range r.f.tests {
		if t.ExamID == examID && t.IsActive {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeTests) ListActiveByCategory(_ context.Context, category models.TestCategory, limit int) ([]*models.Test, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Test
	for _, t := range r.f.tests {
		if t.IsActive && t.Category == category {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return paginate(out, limit, 0), nil
}

func (r fakeTests) CountQuestionsBySubject(_ context.Context, examID uint) ([]repositories.SubjectCount, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	counts := make(map[models.Subject]int)
	for _, t := range r.f.tests {
		if t.ExamID != examID || !t.IsActive {
			continue
		}
		for _, q := range t.Questions {
			counts[q.Subject]++
		}
	}
	out := make([]repositories.SubjectCount, 0, len(counts))
	for subject, n := range counts {
		out = append(out, repositories.SubjectCount{Subject: subject, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

// ===== attempts =====

type fakeAttempts struct{ f *fakeStore }

func (r fakeAttempts) GetByID(_ context.Context, id uint) (*models.TestAttempt, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if a, ok := r.f.attempts[id]; ok {
		c := cloneAttempt(a)
		return &c, nil
	}
	return nil, repositories.ErrNotFound
}

func (r fakeAttempts) GetActive(_ context.Context, userID string, testID uint) (*models.TestAttempt, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return r.activeLocked(userID, testID)
}

func (r fakeAttempts) activeLocked(userID string, testID uint) (*models.TestAttempt, error) {
	for _, a := range r.f.attempts {
		if a.UserID == userID && a.TestID == testID && !a.IsCompleted {
			c := cloneAttempt(a)
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r fakeAttempts) GetActiveForUser(_ context.Context, id uint, userID string) (*models.TestAttempt, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	a, ok := r.f.attempts[id]
	if !ok || a.UserID != userID || a.IsCompleted {
		return nil, repositories.ErrNotFound
	}
	c := cloneAttempt(a)
	return &c, nil
}

func (r fakeAttempts) FindOrCreateActive(_ context.Context, attempt *models.TestAttempt) (*models.TestAttempt, bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if existing, err := r.activeLocked(attempt.UserID, attempt.TestID); err == nil {
		return existing, false, nil
	}
	r.f.nextAttemptID++
	attempt.ID = r.f.nextAttemptID
	attempt.CreatedAt = attempt.StartTime
	stored := cloneAttempt(attempt)
	r.f.attempts[attempt.ID] = &stored
	return attempt, true, nil
}

func (r fakeAttempts) UpdateProgress(_ context.Context, id uint, userID string, update repositories.ProgressUpdate) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	a, ok := r.f.attempts[id]
	if !ok || a.UserID != userID || a.IsCompleted {
		return repositories.ErrNotFound
	}
	if update.Responses != nil {
		a.Responses = append([]models.Response(nil), update.Responses...)
	}
	if update.TimeSpent != nil {
		a.TimeSpent = *update.TimeSpent
	}
	return nil
}

func (r fakeAttempts) Complete(_ context.Context, attempt *models.TestAttempt) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	a, ok := r.f.attempts[attempt.ID]
	if !ok || a.UserID != attempt.UserID || a.IsCompleted {
		return repositories.ErrNotFound
	}
	stored := cloneAttempt(attempt)
	stored.IsCompleted = true
	r.f.attempts[attempt.ID] = &stored
	return nil
}

func (r fakeAttempts) ListCompletedByUser(_ context.Context, userID string, filters repositories.AttemptFilters) ([]*models.TestAttempt, int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var all []*models.TestAttempt
	for _, a := range r.f.attempts {
		if a.UserID == userID && a.IsCompleted && attemptMatches(a, filters) {
			c := cloneAttempt(a)
			if e, ok := r.f.exams[c.ExamID]; ok {
				exam := *e
				c.Exam = &exam
			}
			all = append(all, &c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if filters.SortOrder == "asc" {
			return all[i].ID < all[j].ID
		}
		return all[i].ID > all[j].ID
	})

	total := int64(len(all))
	return paginate(all, filters.Limit, filters.Offset), total, nil
}

func attemptMatches(a *models.TestAttempt, filters repositories.AttemptFilters) bool {
	switch {
	case filters.ExamID != nil && a.ExamID != *filters.ExamID:
		return false
	case filters.TestID != nil && a.TestID != *filters.TestID:
		return false
	case filters.DateFrom != nil && a.CreatedAt.Before(*filters.DateFrom):
		return false
	case filters.DateTo != nil && !a.CreatedAt.Before(*filters.DateTo):
		return false
	}
	return true
}

func (r fakeAttempts) CountCompletedWithMinScore(_ context.Context, userID string, minScore float64) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.achievementErr != nil {
		return 0, r.f.achievementErr
	}
	var n int64
	for _, a := range r.f.attempts {
		if a.UserID == userID && a.IsCompleted && a.Score >= minScore {
			n++
		}
	}
	return n, nil
}

func (r fakeAttempts) MonthlyAverages(_ context.Context, userID string, since time.Time) ([]repositories.MonthlyScore, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, a := range r.f.attempts {
		if a.UserID != userID || !a.IsCompleted || a.CreatedAt.Before(since) {
			continue
		}
		month := a.CreatedAt.Format("2006-01")
		sums[month] += a.Score
		counts[month]++
	}
	out := make([]repositories.MonthlyScore, 0, len(counts))
	for month, n := range counts {
		out = append(out, repositories.MonthlyScore{Month: month, AvgScore: sums[month] / float64(n), Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// ===== achievements =====

type fakeAchievements struct{ f *fakeStore }

func (r fakeAchievements) CreateIfAbsent(_ context.Context, achievement *models.Achievement) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, a := range r.f.achievements {
		if a.UserID == achievement.UserID && a.Title == achievement.Title {
			return false, nil
		}
	}
	r.f.nextAchievementID++
	achievement.ID = r.f.nextAchievementID
	c := *achievement
	r.f.achievements = append(r.f.achievements, &c)
	return true, nil
}

func (r fakeAchievements) ExistsByTitle(_ context.Context, userID, title string) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.achievementErr != nil {
		return false, r.f.achievementErr
	}
	for _, a := range r.f.achievements {
		if a.UserID == userID && a.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (r fakeAchievements) ListByUser(_ context.Context, userID string) ([]*models.Achievement, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.Achievement
	for _, a := range r.f.achievements {
		if a.UserID == userID {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

// ===== stats =====

type fakeStats struct{ f *fakeStore }

func (r fakeStats) GetByUserID(_ context.Context, userID string) (*models.UserStats, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if s, ok := r.f.stats[userID]; ok {
		c := *s
		return &c, nil
	}
	return nil, repositories.ErrNotFound
}

func (r fakeStats) GetForUpdate(_ context.Context, userID string) (*models.UserStats, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	s, ok := r.f.stats[userID]
	if !ok {
		s = &models.UserStats{UserID: userID}
		r.f.stats[userID] = s
	}
	c := *s
	return &c, nil
}

func (r fakeStats) Save(_ context.Context, stats *models.UserStats) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.statsSaveErr != nil {
		return r.f.statsSaveErr
	}
	c := *stats
	r.f.stats[stats.UserID] = &c
	return nil
}

func (r fakeStats) InvalidateCache(_ context.Context, userID string) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.statsInvalidations = append(r.f.statsInvalidations, statsInvalidation{userID: userID, inTx: r.f.inTx})
}

var errInjected = errors.New("injected failure")

// fixture helpers

func intPtr(v int) *int { return &v }

// sampleTest has 4 questions with correct answers [1, 0, 2, 3]
func sampleTest(id uint, duration int) *models.Test {
	subjects := []models.Subject{models.SubjectQuant, models.SubjectEnglish, models.SubjectQuant, models.SubjectReasoning}
	difficulties := []models.Difficulty{models.DifficultyEasy, models.DifficultyEasy, models.DifficultyHard, models.DifficultyMedium}
	answers := []int{1, 0, 2, 3}

	questions := make([]models.Question, len(answers))
	for i, answer := range answers {
		questions[i] = models.Question{
			ID:            id*100 + uint(i) + 1,
			TestID:        id,
			Position:      i,
			Text:          "question",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: answer,
			Subject:       subjects[i],
			Difficulty:    difficulties[i],
			Marks:         i + 1,
		}
	}

	return &models.Test{
		ID:             id,
		ExamID:         1,
		Title:          "Sample Test",
		Duration:       duration,
		TotalQuestions: len(questions),
		IsActive:       true,
		Questions:      questions,
	}
}

// answers builds submission input selecting options in question order
func answers(test *models.Test, selected ...int) []ResponseInput {
	out := make([]ResponseInput, len(selected))
	for i, s := range selected {
		out[i] = ResponseInput{QuestionID: test.Questions[i].ID, SelectedOption: intPtr(s)}
	}
	return out
}

// fakeClock returns a settable time source
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
