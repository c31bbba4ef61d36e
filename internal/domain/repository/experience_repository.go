package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"intervue/internal/common"
	"intervue/internal/domain/model"
)

type ExperienceRepository interface {
	CreateExperience(ctx context.Context, q Queryer, exp *model.Experience) error
	UpdateExperience(ctx context.Context, q Queryer, exp *model.Experience) error
	DeleteExperience(ctx context.Context, q Queryer, id string) error
	FindExperienceByID(ctx context.Context, id string) (*model.Experience, error)
	ListExperiences(ctx context.Context, status model.ExperienceStatus, limit, offset int) ([]model.Experience, int, error)
	ListExperiencesByUser(ctx context.Context, userID string) ([]model.Experience, error)
	UpdateExperienceStatus(ctx context.Context, q Queryer, id string, status model.ExperienceStatus) error
	AdjustRoundsCount(ctx context.Context, q Queryer, experienceID string, delta int) error

	CreateRound(ctx context.Context, q Queryer, round *model.Round) error
	UpdateRound(ctx context.Context, q Queryer, round *model.Round) error
	DeleteRound(ctx context.Context, q Queryer, id string) error
	DeleteRoundsByExperienceID(ctx context.Context, q Queryer, experienceID string) error
	FindRoundByID(ctx context.Context, id string) (*model.Round, error)
	GetRoundsByExperienceID(ctx context.Context, experienceID string) ([]model.Round, error)

	CreateCodingProblem(ctx context.Context, q Queryer, p *model.CodingProblem) error
	GetCodingProblemsByRoundID(ctx context.Context, roundID string) ([]model.CodingProblem, error)

	CreateTechnicalQuestion(ctx context.Context, q Queryer, tq *model.TechnicalQuestion) error
	GetTechnicalQuestionsByRoundID(ctx context.Context, roundID string) ([]model.TechnicalQuestion, error)
}

type pgExperienceRepository struct {
	db *sql.DB
}

func NewPgExperienceRepository(db *sql.DB) ExperienceRepository {
	return &pgExperienceRepository{db: db}
}

func (r *pgExperienceRepository) q(q Queryer) Queryer {
	if q != nil {
		return q
	}
	return r.db
}

func (r *pgExperienceRepository) CreateExperience(ctx context.Context, q Queryer, e *model.Experience) error {
	query := `INSERT INTO experiences (id, user_id, title, slug, company_name, package_ctc, role, job_type, difficulty_level, rounds_count, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q(q).ExecContext(ctx, query,
		e.ID, e.UserID, e.Title, e.Slug, e.CompanyName, e.PackageCTC, e.Role, e.JobType, e.DifficultyLevel, e.RoundsCount, e.Status)
	if err != nil {
		return fmt.Errorf("pgExperienceRepository.CreateExperience: %w", err)
	}
	return nil
}

func (r *pgExperienceRepository) UpdateExperience(ctx context.Context, q Queryer, e *model.Experience) error {
	query := `UPDATE experiences SET
	            title = $1, slug = $2, company_name = $3, package_ctc = $4, role = $5,
	            job_type = $6, difficulty_level = $7, rounds_count = $8, status = $9,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $10`
	res, err := r.q(q).ExecContext(ctx, query,
		e.Title, e.Slug, e.CompanyName, e.PackageCTC, e.Role, e.JobType, e.DifficultyLevel, e.RoundsCount, e.Status, e.ID)
	if err != nil {
		return fmt.Errorf("pgExperienceRepository.UpdateExperience: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgExperienceRepository) DeleteExperience(ctx context.Context, q Queryer, id string) error {
	res, err := r.q(q).ExecContext(ctx, `DELETE FROM experiences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgExperienceRepository.DeleteExperience: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgExperienceRepository) FindExperienceByID(ctx context.Context, id string) (*model.Experience, error) {
	query := `SELECT e.id, e.user_id, e.title, e.slug, e.company_name, e.package_ctc, e.role,
	                 e.job_type, e.difficulty_level, e.rounds_count, e.status, e.created_at, e.updated_at,
	                 u.name AS author_name
	          FROM experiences e
	          LEFT JOIN users u ON e.user_id = u.id
	          WHERE e.id = $1`
	e := &model.Experience{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.UserID, &e.Title, &e.Slug, &e.CompanyName, &e.PackageCTC, &e.Role,
		&e.JobType, &e.DifficultyLevel, &e.RoundsCount, &e.Status, &e.CreatedAt, &e.UpdatedAt,
		&e.AuthorName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgExperienceRepository.FindExperienceByID: %w", err)
	}
	return e, nil
}

func (r *pgExperienceRepository) ListExperiences(ctx context.Context, status model.ExperienceStatus, limit, offset int) ([]model.Experience, int, error) {
	var (
		total int
		args  []interface{}
		where string
	)
	if status != "" {
		where = ` WHERE e.status = $1`
		args = append(args, status)
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM experiences e`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgExperienceRepository.ListExperiences count: %w", err)
	}

	query := `SELECT e.id, e.user_id, e.title, e.slug, e.company_name, e.package_ctc, e.role,
	                 e.job_type, e.difficulty_level, e.rounds_count, e.status, e.created_at, e.updated_at,
	                 u.name AS author_name
	          FROM experiences e
	          LEFT JOIN users u ON e.user_id = u.id` + where +
		fmt.Sprintf(` ORDER BY e.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgExperienceRepository.ListExperiences query: %w", err)
	}
	defer rows.Close()

	experiences := []model.Experience{}
	for rows.Next() {
		var e model.Experience
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Title, &e.Slug, &e.CompanyName, &e.PackageCTC, &e.Role,
			&e.JobType, &e.DifficultyLevel, &e.RoundsCount, &e.Status, &e.CreatedAt, &e.UpdatedAt,
			&e.AuthorName,
		); err != nil {
			return nil, 0, fmt.Errorf("pgExperienceRepository.ListExperiences scan: %w", err)
		}
		experiences = append(experiences, e)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgExperienceRepository.ListExperiences rows.Err: %w", err)
	}
	return experiences, total, nil
}

func (r *pgExperienceRepository) ListExperiencesByUser(ctx context.Context, userID string) ([]model.Experience, error) {
	query := `SELECT id, user_id, title, slug, company_name, package_ctc, role,
	                 job_type, difficulty_level, rounds_count, status, created_at, updated_at
	          FROM experiences WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgExperienceRepository.ListExperiencesByUser query: %w", err)
	}
	defer rows.Close()

	experiences := []model.Experience{}
	for rows.Next() {
		var e model.Experience
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Title, &e.Slug, &e.CompanyName, &e.PackageCTC, &e.Role,
			&e.JobType, &e.DifficultyLevel, &e.RoundsCount, &e.Status, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgExperienceRepository.ListExperiencesByUser scan: %w", err)
		}
		experiences = append(experiences, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgExperienceRepository.ListExperiencesByUser rows.Err: %w", err)
	}
	return experiences, nil
}

func (r *pgExperienceRepository) UpdateExperienceStatus(ctx context.Context, q Queryer, id string, status model.ExperienceStatus) error {
	query := `UPDATE experiences SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	res, err := r.q(q).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("pgExperienceRepository.UpdateExperienceStatus: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgExperienceRepository) AdjustRoundsCount(ctx context.Context, q Queryer, experienceID string, delta int) error {
	query := `UPDATE experiences SET rounds_count = GREATEST(0, rounds_count + $1), updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	_, err := r.q(q).ExecContext(ctx, query, delta, experienceID)
	if err != nil {
		return fmt.Errorf("pgExperienceRepository.AdjustRoundsCount: %w", err)
	}
	return nil
}

func (r *pgExperienceRepository) CreateRound(ctx context.Context, q Queryer, round *model.Round) error {
	query := `INSERT INTO rounds (id, experience_id, round_order, round_name, description)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q(q).ExecContext(ctx, query, round.ID, round.ExperienceID, round.RoundOrder, round.RoundName, round.Description)
	if err != nil {
		return fmt.Errorf("pgExperienceRepository.CreateRound: %w", err)
	}
	return nil
}

func (r *pgExperienceRepository) UpdateRound(ctx context.Context, q Queryer, round *model.Round) error {
	query := `UPDATE rounds SET round_order = $1, round_name = $2, description = $3 WHERE id = $4`
	res, err := r.q(q).ExecContext(ctx, query, round.RoundOrder, round.RoundName, round.Description, round.ID)
	if err != nil {
		return fmt.Errorf("pgExperienceRepository.UpdateRound: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgExperienceRepository) DeleteRound(ctx context.Context, q Queryer, id string) error {
	res, err := r.q(q).ExecContext(ctx, `DELETE FROM rounds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgExperienceRepository.DeleteRound: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgExperienceRepository) DeleteRoundsByExperienceID(ctx context.Context, q Queryer, experienceID string) error {
	// Cascades to coding_problems and technical_questions.
	_, err := r.q(q).ExecContext(ctx, `DELETE FROM rounds WHERE experience_id = $1`, experienceID)
	if err != nil {
		return fmt.Errorf("pgExperienceRepository.DeleteRoundsByExperienceID: %w", err)
	}
	return nil
}

func (r *pgExperienceRepository) FindRoundByID(ctx context.Context, id string) (*model.Round, error) {
	query := `SELECT id, experience_id, round_order, round_name, description, created_at
	          FROM rounds WHERE id = $1`
	round := &model.Round{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&round.ID, &round.ExperienceID, &round.RoundOrder, &round.RoundName, &round.Description, &round.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgExperienceRepository.FindRoundByID: %w", err)
	}
	return round, nil
}

func (r *pgExperienceRepository) GetRoundsByExperienceID(ctx context.Context, experienceID string) ([]model.Round, error) {
	// Stable ascending order: round_order is caller-supplied and may repeat,
	// so ties fall back to insertion time.
	query := `SELECT id, experience_id, round_order, round_name, description, created_at
	          FROM rounds WHERE experience_id = $1 ORDER BY round_order ASC, created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, experienceID)
	if err != nil {
		return nil, fmt.Errorf("pgExperienceRepository.GetRoundsByExperienceID query: %w", err)
	}
	defer rows.Close()

	var rounds []model.Round
	for rows.Next() {
		var round model.Round
		if err := rows.Scan(&round.ID, &round.ExperienceID, &round.RoundOrder, &round.RoundName, &round.Description, &round.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgExperienceRepository.GetRoundsByExperienceID scan: %w", err)
		}
		rounds = append(rounds, round)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgExperienceRepository.GetRoundsByExperienceID rows.Err: %w", err)
	}
	return rounds, nil
}

func (r *pgExperienceRepository) CreateCodingProblem(ctx context.Context, q Queryer, p *model.CodingProblem) error {
	query := `INSERT INTO coding_problems (id, round_id, title, link, description, constraints_text, sample_testcases)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q(q).ExecContext(ctx, query, p.ID, p.RoundID, p.Title, p.Link, p.Description, p.Constraints, p.SampleTestcases)
	if err != nil {
		return fmt.Errorf("pgExperienceRepository.CreateCodingProblem: %w", err)
	}
	return nil
}

func (r *pgExperienceRepository) GetCodingProblemsByRoundID(ctx context.Context, roundID string) ([]model.CodingProblem, error) {
	query := `SELECT id, round_id, title, link, description, constraints_text, sample_testcases, created_at
	          FROM coding_problems WHERE round_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("pgExperienceRepository.GetCodingProblemsByRoundID query: %w", err)
	}
	defer rows.Close()

	problems := []model.CodingProblem{}
	for rows.Next() {
		var p model.CodingProblem
		if err := rows.Scan(&p.ID, &p.RoundID, &p.Title, &p.Link, &p.Description, &p.Constraints, &p.SampleTestcases, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgExperienceRepository.GetCodingProblemsByRoundID scan: %w", err)
		}
		problems = append(problems, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgExperienceRepository.GetCodingProblemsByRoundID rows.Err: %w", err)
	}
	return problems, nil
}

func (r *pgExperienceRepository) CreateTechnicalQuestion(ctx context.Context, q Queryer, tq *model.TechnicalQuestion) error {
	query := `INSERT INTO technical_questions (id, round_id, question_text, answer_text)
	          VALUES ($1, $2, $3, $4)`
	_, err := r.q(q).ExecContext(ctx, query, tq.ID, tq.RoundID, tq.QuestionText, tq.AnswerText)
	if err != nil {
		return fmt.Errorf("pgExperienceRepository.CreateTechnicalQuestion: %w", err)
	}
	return nil
}

func (r *pgExperienceRepository) GetTechnicalQuestionsByRoundID(ctx context.Context, roundID string) ([]model.TechnicalQuestion, error) {
	query := `SELECT id, round_id, question_text, answer_text, created_at
	          FROM technical_questions WHERE round_id = $1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("pgExperienceRepository.GetTechnicalQuestionsByRoundID query: %w", err)
	}
	defer rows.Close()

	questions := []model.TechnicalQuestion{}
	for rows.Next() {
		var tq model.TechnicalQuestion
		if err := rows.Scan(&tq.ID, &tq.RoundID, &tq.QuestionText, &tq.AnswerText, &tq.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgExperienceRepository.GetTechnicalQuestionsByRoundID scan: %w", err)
		}
		questions = append(questions, tq)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgExperienceRepository.GetTechnicalQuestionsByRoundID rows.Err: %w", err)
	}
	return questions, nil
}
