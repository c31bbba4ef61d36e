package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intervue/internal/common"
	"intervue/internal/domain/model"
	"intervue/internal/domain/repository"
	"intervue/internal/platform/cache"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const approvedListCachePrefix = "experiences:approved:"

type ExperienceService struct {
	expRepo  repository.ExperienceRepository
	txRunner repository.TxRunner
	cache    cache.Store // nil disables caching
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewExperienceService(
	expRepo repository.ExperienceRepository,
	txRunner repository.TxRunner,
	listCache cache.Store,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *ExperienceService {
	return &ExperienceService{
		expRepo:  expRepo,
		txRunner: txRunner,
		cache:    listCache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

type CodingProblemInput struct {
	Title           *string `json:"title"`
	Link            *string `json:"link"`
	Description     *string `json:"description"`
	Constraints     *string `json:"constraints"`
	SampleTestcases *string `json:"sample_testcases"`
}

type TechnicalQuestionInput struct {
	QuestionText string  `json:"question_text"`
	AnswerText   *string `json:"answer_text"`
}

type RoundInput struct {
	RoundOrder         int                      `json:"round_order"`
	RoundName          *string                  `json:"round_name"`
	Description        *string                  `json:"description"`
	CodingProblems     []CodingProblemInput     `json:"coding_problems"`
	TechnicalQuestions []TechnicalQuestionInput `json:"technical_questions"`
}

// ExperienceInput is the aggregate input tree. Direct structured submission
// and the extraction pipeline both converge on this shape and on
// validateInput before anything is written.
type ExperienceInput struct {
	Title           string                 `json:"title"`
	CompanyName     string                 `json:"company_name"`
	PackageCTC      *string                `json:"package_ctc"`
	Role            *string                `json:"role"`
	JobType         *model.JobType         `json:"job_type"`
	DifficultyLevel *model.DifficultyLevel `json:"difficulty_level"`
	Rounds          []RoundInput           `json:"rounds"`
}

func validateInput(input ExperienceInput) error {
	if input.Title == "" || input.CompanyName == "" {
		return common.Errorf("title and company_name are required: %w", common.ErrValidation)
	}
	return nil
}

// ListPage is the paginated public listing payload; it is also what gets
// cached verbatim.
type ListPage struct {
	Items  []model.Experience `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// Create persists the full aggregate tree atomically with status PENDING and
// returns the re-fetched aggregate.
func (s *ExperienceService) Create(ctx context.Context, actor model.Actor, input ExperienceInput) (*model.Experience, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	exp := &model.Experience{
		ID:              uuid.NewString(),
		UserID:          actor.ID,
		Title:           input.Title,
		Slug:            slug.Make(input.CompanyName + " " + input.Title),
		CompanyName:     input.CompanyName,
		PackageCTC:      input.PackageCTC,
		Role:            input.Role,
		JobType:         input.JobType,
		DifficultyLevel: input.DifficultyLevel,
		RoundsCount:     len(input.Rounds),
		Status:          model.StatusPending,
	}

	err := s.txRunner.InTx(ctx, func(q repository.Queryer) error {
		if err := s.expRepo.CreateExperience(ctx, q, exp); err != nil {
			return err
		}
		return s.insertRounds(ctx, q, exp.ID, input.Rounds)
	})
	if err != nil {
		return nil, err
	}

	return s.fetchFull(ctx, exp.ID)
}

// Replace is a full-tree replace, not a merge: inside one transaction it
// updates the top-level fields, destroys all existing rounds (cascading to
// problems and questions) and re-inserts the supplied tree. A reader sees
// either the fully-old or fully-new aggregate.
func (s *ExperienceService) Replace(ctx context.Context, actor model.Actor, experienceID string, input ExperienceInput) (*model.Experience, error) {
	existing, err := s.expRepo.FindExperienceByID(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	if !CanWrite(actor, existing) {
		return nil, common.ErrForbidden
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	updated := &model.Experience{
		ID:              existing.ID,
		UserID:          existing.UserID,
		Title:           input.Title,
		Slug:            slug.Make(input.CompanyName + " " + input.Title),
		CompanyName:     input.CompanyName,
		PackageCTC:      input.PackageCTC,
		Role:            input.Role,
		JobType:         input.JobType,
		DifficultyLevel: input.DifficultyLevel,
		RoundsCount:     len(input.Rounds),
		Status:          existing.Status,
	}

	err = s.txRunner.InTx(ctx, func(q repository.Queryer) error {
		if err := s.expRepo.UpdateExperience(ctx, q, updated); err != nil {
			return err
		}
		if err := s.expRepo.DeleteRoundsByExperienceID(ctx, q, experienceID); err != nil {
			return err
		}
		return s.insertRounds(ctx, q, experienceID, input.Rounds)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	return s.fetchFull(ctx, experienceID)
}

func (s *ExperienceService) insertRounds(ctx context.Context, q repository.Queryer, experienceID string, rounds []RoundInput) error {
	for _, rIn := range rounds {
		round := &model.Round{
			ID:           uuid.NewString(),
			ExperienceID: experienceID,
			RoundOrder:   rIn.RoundOrder,
			RoundName:    rIn.RoundName,
			Description:  rIn.Description,
		}
		if err := s.expRepo.CreateRound(ctx, q, round); err != nil {
			return err
		}
		for _, pIn := range rIn.CodingProblems {
			problem := &model.CodingProblem{
				ID:              uuid.NewString(),
				RoundID:         round.ID,
				Title:           pIn.Title,
				Link:            pIn.Link,
				Description:     pIn.Description,
				Constraints:     pIn.Constraints,
				SampleTestcases: pIn.SampleTestcases,
			}
			if err := s.expRepo.CreateCodingProblem(ctx, q, problem); err != nil {
				return err
			}
		}
		for _, qIn := range rIn.TechnicalQuestions {
			question := &model.TechnicalQuestion{
				ID:           uuid.NewString(),
				RoundID:      round.ID,
				QuestionText: qIn.QuestionText,
				AnswerText:   qIn.AnswerText,
			}
			if err := s.expRepo.CreateTechnicalQuestion(ctx, q, question); err != nil {
				return err
			}
		}
	}
	return nil
}

// fetchFull returns the experience with all descendants attached, rounds
// ascending by round_order.
func (s *ExperienceService) fetchFull(ctx context.Context, experienceID string) (*model.Experience, error) {
	exp, err := s.expRepo.FindExperienceByID(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	rounds, err := s.expRepo.GetRoundsByExperienceID(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	for i := range rounds {
		problems, err := s.expRepo.GetCodingProblemsByRoundID(ctx, rounds[i].ID)
		if err != nil {
			return nil, err
		}
		questions, err := s.expRepo.GetTechnicalQuestionsByRoundID(ctx, rounds[i].ID)
		if err != nil {
			return nil, err
		}
		rounds[i].CodingProblems = problems
		rounds[i].TechnicalQuestions = questions
	}
	exp.Rounds = rounds
	return exp, nil
}

// Get applies the visibility gate: owners see their own record regardless of
// status, everyone else only sees APPROVED content.
func (s *ExperienceService) Get(ctx context.Context, viewer *model.Actor, experienceID string) (*model.Experience, error) {
	exp, err := s.fetchFull(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	if !CanRead(viewer, exp) {
		return nil, common.Errorf("this experience is not available for viewing: %w", common.ErrForbidden)
	}
	return exp, nil
}

// ListApproved is the public listing; the approved filter is applied in the
// storage query, never by per-row filtering.
func (s *ExperienceService) ListApproved(ctx context.Context, limit, offset int) (*ListPage, error) {
	cacheKey := fmt.Sprintf("%s%d:%d", approvedListCachePrefix, limit, offset)
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, cacheKey); ok {
			var page ListPage
			if err := json.Unmarshal([]byte(raw), &page); err == nil {
				return &page, nil
			}
			s.logger.Warn("discarding undecodable approved-list cache entry", zap.String("key", cacheKey))
		}
	}

	items, total, err := s.expRepo.ListExperiences(ctx, model.StatusApproved, limit, offset)
	if err != nil {
		return nil, err
	}
	page := &ListPage{Items: items, Total: total, Limit: limit, Offset: offset}

	if s.cache != nil {
		if raw, err := json.Marshal(page); err == nil {
			s.cache.Set(ctx, cacheKey, string(raw), s.cacheTTL)
		}
	}
	return page, nil
}

func (s *ExperienceService) ListMine(ctx context.Context, actor model.Actor) ([]model.Experience, error) {
	return s.expRepo.ListExperiencesByUser(ctx, actor.ID)
}

func (s *ExperienceService) Delete(ctx context.Context, actor model.Actor, experienceID string) error {
	existing, err := s.expRepo.FindExperienceByID(ctx, experienceID)
	if err != nil {
		return err
	}
	if !CanWrite(actor, existing) {
		return common.ErrForbidden
	}
	if err := s.expRepo.DeleteExperience(ctx, nil, experienceID); err != nil {
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

// loadOwnedRound resolves a round and checks the caller owns its experience.
func (s *ExperienceService) loadOwnedRound(ctx context.Context, actor model.Actor, roundID string) (*model.Round, error) {
	round, err := s.expRepo.FindRoundByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	exp, err := s.expRepo.FindExperienceByID(ctx, round.ExperienceID)
	if err != nil {
		return nil, err
	}
	if !CanWrite(actor, exp) {
		return nil, common.ErrForbidden
	}
	return round, nil
}

// AddRound appends one round (with any nested problems/questions) and bumps
// rounds_count atomically with the insert.
func (s *ExperienceService) AddRound(ctx context.Context, actor model.Actor, experienceID string, input RoundInput) (*model.Round, error) {
	existing, err := s.expRepo.FindExperienceByID(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	if !CanWrite(actor, existing) {
		return nil, common.ErrForbidden
	}

	roundID := uuid.NewString()
	err = s.txRunner.InTx(ctx, func(q repository.Queryer) error {
		round := &model.Round{
			ID:           roundID,
			ExperienceID: experienceID,
			RoundOrder:   input.RoundOrder,
			RoundName:    input.RoundName,
			Description:  input.Description,
		}
		if err := s.expRepo.CreateRound(ctx, q, round); err != nil {
			return err
		}
		for _, pIn := range input.CodingProblems {
			problem := &model.CodingProblem{
				ID: uuid.NewString(), RoundID: roundID,
				Title: pIn.Title, Link: pIn.Link, Description: pIn.Description,
				Constraints: pIn.Constraints, SampleTestcases: pIn.SampleTestcases,
			}
			if err := s.expRepo.CreateCodingProblem(ctx, q, problem); err != nil {
				return err
			}
		}
		for _, qIn := range input.TechnicalQuestions {
			question := &model.TechnicalQuestion{
				ID: uuid.NewString(), RoundID: roundID,
				QuestionText: qIn.QuestionText, AnswerText: qIn.AnswerText,
			}
			if err := s.expRepo.CreateTechnicalQuestion(ctx, q, question); err != nil {
				return err
			}
		}
		return s.expRepo.AdjustRoundsCount(ctx, q, experienceID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateListCache(ctx)
	return s.fetchRound(ctx, roundID)
}

func (s *ExperienceService) fetchRound(ctx context.Context, roundID string) (*model.Round, error) {
	round, err := s.expRepo.FindRoundByID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	problems, err := s.expRepo.GetCodingProblemsByRoundID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	questions, err := s.expRepo.GetTechnicalQuestionsByRoundID(ctx, roundID)
	if err != nil {
		return nil, err
	}
	round.CodingProblems = problems
	round.TechnicalQuestions = questions
	return round, nil
}

func (s *ExperienceService) UpdateRound(ctx context.Context, actor model.Actor, roundID string, input RoundInput) (*model.Round, error) {
	round, err := s.loadOwnedRound(ctx, actor, roundID)
	if err != nil {
		return nil, err
	}
	round.RoundOrder = input.RoundOrder
	round.RoundName = input.RoundName
	round.Description = input.Description
	if err := s.expRepo.UpdateRound(ctx, nil, round); err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	return s.fetchRound(ctx, roundID)
}

// DeleteRound removes the round (cascading to its problems and questions)
// and decrements rounds_count in the same transaction.
func (s *ExperienceService) DeleteRound(ctx context.Context, actor model.Actor, roundID string) error {
	round, err := s.loadOwnedRound(ctx, actor, roundID)
	if err != nil {
		return err
	}
	err = s.txRunner.InTx(ctx, func(q repository.Queryer) error {
		if err := s.expRepo.DeleteRound(ctx, q, roundID); err != nil {
			return err
		}
		return s.expRepo.AdjustRoundsCount(ctx, q, round.ExperienceID, -1)
	})
	if err != nil {
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

func (s *ExperienceService) AddProblem(ctx context.Context, actor model.Actor, roundID string, input CodingProblemInput) (*model.CodingProblem, error) {
	if _, err := s.loadOwnedRound(ctx, actor, roundID); err != nil {
		return nil, err
	}
	problem := &model.CodingProblem{
		ID: uuid.NewString(), RoundID: roundID,
		Title: input.Title, Link: input.Link, Description: input.Description,
		Constraints: input.Constraints, SampleTestcases: input.SampleTestcases,
	}
	if err := s.expRepo.CreateCodingProblem(ctx, nil, problem); err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	return problem, nil
}

func (s *ExperienceService) AddQuestion(ctx context.Context, actor model.Actor, roundID string, input TechnicalQuestionInput) (*model.TechnicalQuestion, error) {
	if input.QuestionText == "" {
		return nil, common.Errorf("question_text is required: %w", common.ErrValidation)
	}
	if _, err := s.loadOwnedRound(ctx, actor, roundID); err != nil {
		return nil, err
	}
	question := &model.TechnicalQuestion{
		ID: uuid.NewString(), RoundID: roundID,
		QuestionText: input.QuestionText, AnswerText: input.AnswerText,
	}
	if err := s.expRepo.CreateTechnicalQuestion(ctx, nil, question); err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	return question, nil
}

// SetStatus is the moderation transition. Any prior status may be
// overwritten; only APPROVED and REJECTED are accepted.
func (s *ExperienceService) SetStatus(ctx context.Context, actor model.Actor, experienceID string, status model.ExperienceStatus) (*model.Experience, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	if status != model.StatusApproved && status != model.StatusRejected {
		return nil, common.Errorf("invalid status %q: %w", status, common.ErrValidation)
	}
	if err := s.expRepo.UpdateExperienceStatus(ctx, nil, experienceID, status); err != nil {
		return nil, err
	}
	s.invalidateListCache(ctx)
	return s.fetchFull(ctx, experienceID)
}

// ListPending is the admin moderation queue; it bypasses the visibility gate.
func (s *ExperienceService) ListPending(ctx context.Context, actor model.Actor) ([]model.Experience, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	items, _, err := s.expRepo.ListExperiences(ctx, model.StatusPending, adminListLimit, 0)
	return items, err
}

const adminListLimit = 500

// ListAll is the unrestricted admin listing across all statuses.
func (s *ExperienceService) ListAll(ctx context.Context, actor model.Actor, limit, offset int) (*ListPage, error) {
	if !actor.IsAdmin() {
		return nil, common.ErrForbidden
	}
	items, total, err := s.expRepo.ListExperiences(ctx, "", limit, offset)
	if err != nil {
		return nil, err
	}
	return &ListPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// DeleteAny is the admin delete; it bypasses ownership.
func (s *ExperienceService) DeleteAny(ctx context.Context, actor model.Actor, experienceID string) error {
	if !actor.IsAdmin() {
		return common.ErrForbidden
	}
	if err := s.expRepo.DeleteExperience(ctx, nil, experienceID); err != nil {
		return err
	}
	s.invalidateListCache(ctx)
	return nil
}

func (s *ExperienceService) invalidateListCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.DeleteByPrefix(ctx, approvedListCachePrefix)
}

