package models

import (
	"time"
)

type UserRole string
type Role = UserRole

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// User is owned by Casdoor; this service only reads it.
type User struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`

	AvatarURL     *string `json:"avatar_url"`
	EmailVerified bool    `json:"email_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserStats holds the aggregates updated on every successful submission.
type UserStats struct {
	UserID     string  `json:"user_id" gorm:"primaryKey;size:255"`
	TestsTaken int     `json:"tests_taken" gorm:"not null;default:0"`
	AvgScore   float64 `json:"avg_score" gorm:"not null;default:0"`
	LastTest   string  `json:"last_test" gorm:"size:200"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserStats) TableName() string {
	return "user_stats"
}

// RecordSubmission applies the incremental running mean using the
// pre-increment count.
func (s *UserStats) RecordSubmission(score float64, testTitle string) {
	s.TestsTaken++
	s.AvgScore = (s.AvgScore*float64(s.TestsTaken-1) + score) / float64(s.TestsTaken)
	s.LastTest = testTitle
}
