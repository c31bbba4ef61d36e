package model

import "time"

// Upvote existence is the only state; counts are derived by aggregation.
type Upvote struct {
	UserID       string    `json:"user_id"`
	ExperienceID string    `json:"experience_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type Comment struct {
	ID           string    `json:"id"`
	ExperienceID string    `json:"experience_id"`
	UserID       string    `json:"user_id"`
	CommentText  string    `json:"comment_text"`
	CreatedAt    time.Time `json:"created_at"`
	AuthorName   *string   `json:"author_name,omitempty"` // For display
}
