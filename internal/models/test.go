package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type Subject string

const (
	SubjectQuant     Subject = "Quant"
	SubjectEnglish   Subject = "English"
	SubjectReasoning Subject = "Reasoning"
	SubjectGK        Subject = "GK"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

type TestCategory string

const (
	CategorySetWise     TestCategory = "Set Wise"
	CategorySubjectWise TestCategory = "Subject Wise"
	CategoryTopicWise   TestCategory = "Topic Wise"
)

// Test is the definition a user attempts. Duration is in seconds.
type Test struct {
	ID             uint         `json:"id" gorm:"primaryKey"`
	ExamID         uint         `json:"exam_id" gorm:"not null;index"`
	Title          string       `json:"title" gorm:"not null;size:200"`
	Description    *string      `json:"description" gorm:"type:text"`
	Category       TestCategory `json:"category" gorm:"size:50;default:'Set Wise'"`
	Duration       int          `json:"duration" gorm:"not null"`
	TotalQuestions int          `json:"total_questions"`
	IsFree         bool         `json:"is_free" gorm:"default:true"`
	Price          float64      `json:"price" gorm:"default:0"`
	IsActive       bool         `json:"is_active" gorm:"default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Exam      *Exam      `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	Questions []Question `json:"questions" gorm:"foreignKey:TestID"`
}

func (Test) TableName() string {
	return "tests"
}

// Question belongs to exactly one test; Position keeps the authored order.
type Question struct {
	ID            uint                        `json:"id" gorm:"primaryKey"`
	TestID        uint                        `json:"test_id" gorm:"not null;index:idx_test_questions_order,priority:1"`
	Position      int                         `json:"position" gorm:"not null;default:0;index:idx_test_questions_order,priority:2"`
	Text          string                      `json:"question" gorm:"type:text;not null"`
	Options       datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb"`
	CorrectAnswer int                         `json:"correct_answer" gorm:"not null"`
	Explanation   *string                     `json:"explanation" gorm:"type:text"`
	Subject       Subject                     `json:"subject" gorm:"size:20;not null;index"`
	Difficulty    Difficulty                  `json:"difficulty" gorm:"size:10;default:'Medium'"`
	Marks         int                         `json:"marks" gorm:"default:1"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "test_questions"
}

// Validate checks that the correct answer points at an existing option.
func (q *Question) Validate() error {
	if len(q.Options) == 0 {
		return fmt.Errorf("question %d has no options", q.ID)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("question %d correct answer %d out of range [0,%d)", q.ID, q.CorrectAnswer, len(q.Options))
	}
	return nil
}

// QuestionIndex maps question ids to their definitions.
func (t *Test) QuestionIndex() map[uint]*Question {
	index := make(map[uint]*Question, len(t.Questions))
	for i := range t.Questions {
		index[t.Questions[i].ID] = &t.Questions[i]
	}
	return index
}
