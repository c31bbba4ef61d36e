package service

import (
	"context"

	"intervue/internal/common"
	"intervue/internal/domain/model"
	"intervue/internal/domain/repository"

	"github.com/google/uuid"
)

type EngagementService struct {
	engRepo repository.EngagementRepository
	expRepo repository.ExperienceRepository
}

func NewEngagementService(engRepo repository.EngagementRepository, expRepo repository.ExperienceRepository) *EngagementService {
	return &EngagementService{engRepo: engRepo, expRepo: expRepo}
}

// ToggleUpvote flips the (user, experience) upvote. There is no lock around
// the read-then-write; a racing duplicate insert is rejected by the
// composite primary key and surfaces as a conflict.
func (s *EngagementService) ToggleUpvote(ctx context.Context, actor model.Actor, experienceID string) (bool, error) {
	if _, err := s.expRepo.FindExperienceByID(ctx, experienceID); err != nil {
		return false, err
	}

	exists, err := s.engRepo.HasUpvote(ctx, actor.ID, experienceID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := s.engRepo.DeleteUpvote(ctx, actor.ID, experienceID); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := s.engRepo.CreateUpvote(ctx, actor.ID, experienceID); err != nil {
		return false, err
	}
	return true, nil
}

// UpvoteCount is always derived by aggregation, never cached.
func (s *EngagementService) UpvoteCount(ctx context.Context, experienceID string) (int, error) {
	return s.engRepo.CountUpvotes(ctx, experienceID)
}

func (s *EngagementService) IsUpvoted(ctx context.Context, actor model.Actor, experienceID string) (bool, error) {
	return s.engRepo.HasUpvote(ctx, actor.ID, experienceID)
}

func (s *EngagementService) AddComment(ctx context.Context, actor model.Actor, experienceID, text string) (*model.Comment, error) {
	if text == "" {
		return nil, common.Errorf("comment_text is required: %w", common.ErrValidation)
	}
	if _, err := s.expRepo.FindExperienceByID(ctx, experienceID); err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ID:           uuid.NewString(),
		ExperienceID: experienceID,
		UserID:       actor.ID,
		CommentText:  text,
	}
	if err := s.engRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return s.engRepo.FindCommentByID(ctx, comment.ID)
}

// ListComments returns the experience's comments newest-first.
func (s *EngagementService) ListComments(ctx context.Context, experienceID string) ([]model.Comment, error) {
	return s.engRepo.ListCommentsByExperienceID(ctx, experienceID)
}

// DeleteComment removes a single comment; only its author may do so.
func (s *EngagementService) DeleteComment(ctx context.Context, actor model.Actor, commentID string) error {
	comment, err := s.engRepo.FindCommentByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actor.ID {
		return common.ErrForbidden
	}
	return s.engRepo.DeleteComment(ctx, commentID)
}
