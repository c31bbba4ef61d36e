package model

import (
	"time"
)

type ExperienceStatus string
type JobType string
type DifficultyLevel string

const (
	StatusPending  ExperienceStatus = "PENDING"
	StatusApproved ExperienceStatus = "APPROVED"
	StatusRejected ExperienceStatus = "REJECTED"

	JobTypeFullTime   JobType = "FULL_TIME"
	JobTypeInternship JobType = "INTERNSHIP"
	JobTypeContract   JobType = "CONTRACT"

	DifficultyEasy   DifficultyLevel = "EASY"
	DifficultyMedium DifficultyLevel = "MEDIUM"
	DifficultyHard   DifficultyLevel = "HARD"
)

type Experience struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Title           string           `json:"title"`
	Slug            string           `json:"slug"`
	CompanyName     string           `json:"company_name"`
	PackageCTC      *string          `json:"package_ctc,omitempty"`
	Role            *string          `json:"role,omitempty"`
	JobType         *JobType         `json:"job_type,omitempty"`
	DifficultyLevel *DifficultyLevel `json:"difficulty_level,omitempty"`
	RoundsCount     int              `json:"rounds_count"`
	Status          ExperienceStatus `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Rounds          []Round          `json:"rounds,omitempty"`
	AuthorName      *string          `json:"author_name,omitempty"` // For display
}

type Round struct {
	ID                 string              `json:"id"`
	ExperienceID       string              `json:"experience_id"`
	RoundOrder         int                 `json:"round_order"`
	RoundName          *string             `json:"round_name,omitempty"`
	Description        *string             `json:"description,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	CodingProblems     []CodingProblem     `json:"coding_problems"`
	TechnicalQuestions []TechnicalQuestion `json:"technical_questions"`
}

type CodingProblem struct {
	ID              string    `json:"id"`
	RoundID         string    `json:"round_id"`
	Title           *string   `json:"title,omitempty"`
	Link            *string   `json:"link,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Constraints     *string   `json:"constraints,omitempty"`
	SampleTestcases *string   `json:"sample_testcases,omitempty"` // Opaque serialized blob
	CreatedAt       time.Time `json:"created_at"`
}

type TechnicalQuestion struct {
	ID           string    `json:"id"`
	RoundID      string    `json:"round_id"`
	QuestionText string    `json:"question_text"`
	AnswerText   *string   `json:"answer_text,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
