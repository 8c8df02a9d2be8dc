package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventSource  = "exam-prep-service"
	EventVersion = "1.0"
)

type EventType string

const (
	AttemptStarted      EventType = "attempt.started"
	AttemptSubmitted    EventType = "attempt.submitted"
	AchievementUnlocked EventType = "achievement.unlocked"
)

// Event is the envelope written to the broker
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	UserID    string      `json:"user_id"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, userID string, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Data:      data,
	}
}

type AttemptStartedData struct {
	AttemptID uint `json:"attempt_id"`
	TestID    uint `json:"test_id"`
	ExamID    uint `json:"exam_id"`
}

type AttemptSubmittedData struct {
	AttemptID      uint    `json:"attempt_id"`
	TestID         uint    `json:"test_id"`
	ExamID         uint    `json:"exam_id"`
	Score          float64 `json:"score"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
	TimeSpent      int     `json:"time_spent"`
}

type AchievementUnlockedData struct {
	AchievementID uint      `json:"achievement_id"`
	Title         string    `json:"title"`
	Icon          string    `json:"icon"`
	AttemptID     uint      `json:"attempt_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}
