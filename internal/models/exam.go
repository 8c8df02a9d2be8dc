package models

import "time"

type Exam struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Name        string  `json:"name" gorm:"not null;size:200;index"`
	Description *string `json:"description" gorm:"type:text"`
	IconURL     *string `json:"icon_url" gorm:"size:500"`
	IsActive    bool    `json:"is_active" gorm:"default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Tests []Test `json:"tests,omitempty" gorm:"foreignKey:ExamID"`
}

func (Exam) TableName() string {
	return "exams"
}
