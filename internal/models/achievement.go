package models

import "time"

const (
	AchievementPerfectScore        = "Perfect Score"
	AchievementSpeedMaster         = "Speed Master"
	AchievementConsistentPerformer = "Consistent Performer"
)

// Achievement is unique per (user, title).
type Achievement struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_achievements_user_title,priority:1"`
	Title       string    `json:"title" gorm:"not null;size:100;uniqueIndex:idx_achievements_user_title,priority:2"`
	Description string    `json:"description" gorm:"type:text"`
	Icon        string    `json:"icon" gorm:"size:16"`
	Unlocked    bool      `json:"unlocked" gorm:"default:true"`
	UnlockedAt  time.Time `json:"unlocked_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}
