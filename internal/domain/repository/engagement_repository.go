package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"intervue/internal/common"
	"intervue/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type EngagementRepository interface {
	HasUpvote(ctx context.Context, userID, experienceID string) (bool, error)
	CreateUpvote(ctx context.Context, userID, experienceID string) error
	DeleteUpvote(ctx context.Context, userID, experienceID string) error
	CountUpvotes(ctx context.Context, experienceID string) (int, error)

	CreateComment(ctx context.Context, comment *model.Comment) error
	FindCommentByID(ctx context.Context, id string) (*model.Comment, error)
	ListCommentsByExperienceID(ctx context.Context, experienceID string) ([]model.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

type pgEngagementRepository struct {
	db *sql.DB
}

func NewPgEngagementRepository(db *sql.DB) EngagementRepository {
	return &pgEngagementRepository{db: db}
}

func (r *pgEngagementRepository) HasUpvote(ctx context.Context, userID, experienceID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM experience_upvotes WHERE user_id = $1 AND experience_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, userID, experienceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgEngagementRepository.HasUpvote: %w", err)
	}
	return exists, nil
}

func (r *pgEngagementRepository) CreateUpvote(ctx context.Context, userID, experienceID string) error {
	query := `INSERT INTO experience_upvotes (user_id, experience_id) VALUES ($1, $2)`
	_, err := r.db.ExecContext(ctx, query, userID, experienceID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// A racing toggle already inserted; the composite PK is the only
			// race-safety mechanism here.
			return fmt.Errorf("upvote already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgEngagementRepository.CreateUpvote: %w", err)
	}
	return nil
}

func (r *pgEngagementRepository) DeleteUpvote(ctx context.Context, userID, experienceID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM experience_upvotes WHERE user_id = $1 AND experience_id = $2`, userID, experienceID)
	if err != nil {
		return fmt.Errorf("pgEngagementRepository.DeleteUpvote: %w", err)
	}
	return nil
}

func (r *pgEngagementRepository) CountUpvotes(ctx context.Context, experienceID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM experience_upvotes WHERE experience_id = $1`
	if err := r.db.QueryRowContext(ctx, query, experienceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgEngagementRepository.CountUpvotes: %w", err)
	}
	return count, nil
}

func (r *pgEngagementRepository) CreateComment(ctx context.Context, c *model.Comment) error {
	query := `INSERT INTO comments (id, experience_id, user_id, comment_text) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.ExperienceID, c.UserID, c.CommentText)
	if err != nil {
		return fmt.Errorf("pgEngagementRepository.CreateComment: %w", err)
	}
	return nil
}

func (r *pgEngagementRepository) FindCommentByID(ctx context.Context, id string) (*model.Comment, error) {
	query := `SELECT id, experience_id, user_id, comment_text, created_at FROM comments WHERE id = $1`
	c := &model.Comment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.ExperienceID, &c.UserID, &c.CommentText, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgEngagementRepository.FindCommentByID: %w", err)
	}
	return c, nil
}

func (r *pgEngagementRepository) ListCommentsByExperienceID(ctx context.Context, experienceID string) ([]model.Comment, error) {
	query := `SELECT c.id, c.experience_id, c.user_id, c.comment_text, c.created_at, u.name AS author_name
	          FROM comments c
	          LEFT JOIN users u ON c.user_id = u.id
	          WHERE c.experience_id = $1 ORDER BY c.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, experienceID)
	if err != nil {
		return nil, fmt.Errorf("pgEngagementRepository.ListCommentsByExperienceID query: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.ExperienceID, &c.UserID, &c.CommentText, &c.CreatedAt, &c.AuthorName); err != nil {
			return nil, fmt.Errorf("pgEngagementRepository.ListCommentsByExperienceID scan: %w", err)
		}
		comments = append(comments, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgEngagementRepository.ListCommentsByExperienceID rows.Err: %w", err)
	}
	return comments, nil
}

func (r *pgEngagementRepository) DeleteComment(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgEngagementRepository.DeleteComment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
