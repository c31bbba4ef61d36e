package service

import (
	"context"
	"sort"
	"time"

	"intervue/internal/common"
	"intervue/internal/domain/model"
	"intervue/internal/domain/repository"

	"go.uber.org/zap"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. It keeps
// aggregate rows in plain maps and implements the same cascade and conflict
// behavior the schema enforces.
type fakeStore struct {
	experiences map[string]*model.Experience
	rounds      map[string]*model.Round
	problems    map[string]*model.CodingProblem
	questions   map[string]*model.TechnicalQuestion
	upvotes     map[string]time.Time // userID + "|" + experienceID
	comments    map[string]*model.Comment
	users       map[string]*model.User

	seq int // insertion order, stands in for created_at ordering

	listCalls int

	// failOnRound makes the Nth CreateRound call (1-based) fail.
	failOnRound int
	roundCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		experiences: make(map[string]*model.Experience),
		rounds:      make(map[string]*model.Round),
		problems:    make(map[string]*model.CodingProblem),
		questions:   make(map[string]*model.TechnicalQuestion),
		upvotes:     make(map[string]time.Time),
		comments:    make(map[string]*model.Comment),
		users:       make(map[string]*model.User),
	}
}

func (s *fakeStore) nextTime() time.Time {
	s.seq++
	return time.Unix(int64(s.seq), 0)
}

type storeSnapshot struct {
	experiences map[string]model.Experience
	rounds      map[string]model.Round
	problems    map[string]model.CodingProblem
	questions   map[string]model.TechnicalQuestion
	seq         int
}

func (s *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		experiences: make(map[string]model.Experience, len(s.experiences)),
		rounds:      make(map[string]model.Round, len(s.rounds)),
		problems:    make(map[string]model.CodingProblem, len(s.problems)),
		questions:   make(map[string]model.TechnicalQuestion, len(s.questions)),
		seq:         s.seq,
	}
	for id, e := range s.experiences {
		snap.experiences[id] = *e
	}
	for id, r := range s.rounds {
		snap.rounds[id] = *r
	}
	for id, p := range s.problems {
		snap.problems[id] = *p
	}
	for id, q := range s.questions {
		snap.questions[id] = *q
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.experiences = make(map[string]*model.Experience, len(snap.experiences))
	s.rounds = make(map[string]*model.Round, len(snap.rounds))
	s.problems = make(map[string]*model.CodingProblem, len(snap.problems))
	s.questions = make(map[string]*model.TechnicalQuestion, len(snap.questions))
	for id, e := range snap.experiences {
		e := e
		s.experiences[id] = &e
	}
	for id, r := range snap.rounds {
		r := r
		s.rounds[id] = &r
	}
	for id, p := range snap.problems {
		p := p
		s.problems[id] = &p
	}
	for id, q := range snap.questions {
		q := q
		s.questions[id] = &q
	}
	s.seq = snap.seq
}

// fakeTxRunner restores the store to its pre-transaction state when fn fails,
// mirroring a rollback.
type fakeTxRunner struct {
	store *fakeStore
}

func (r *fakeTxRunner) InTx(ctx context.Context, fn func(q repository.Queryer) error) error {
	snap := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// --- ExperienceRepository ---

func (s *fakeStore) CreateExperience(ctx context.Context, q repository.Queryer, e *model.Experience) error {
	cp := *e
	cp.CreatedAt = s.nextTime()
	cp.UpdatedAt = cp.CreatedAt
	s.experiences[e.ID] = &cp
	return nil
}

func (s *fakeStore) UpdateExperience(ctx context.Context, q repository.Queryer, e *model.Experience) error {
	existing, ok := s.experiences[e.ID]
	if !ok {
		return common.ErrNotFound
	}
	cp := *e
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = s.nextTime()
	s.experiences[e.ID] = &cp
	return nil
}

func (s *fakeStore) DeleteExperience(ctx context.Context, q repository.Queryer, id string) error {
	if _, ok := s.experiences[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.experiences, id)
	for rid, r := range s.rounds {
		if r.ExperienceID == id {
			s.deleteRoundCascade(rid)
		}
	}
	for key := range s.upvotes {
		if upvoteExperienceID(key) == id {
			delete(s.upvotes, key)
		}
	}
	for cid, c := range s.comments {
		if c.ExperienceID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *fakeStore) FindExperienceByID(ctx context.Context, id string) (*model.Experience, error) {
	e, ok := s.experiences[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) ListExperiences(ctx context.Context, status model.ExperienceStatus, limit, offset int) ([]model.Experience, int, error) {
	s.listCalls++
	var all []model.Experience
	for _, e := range s.experiences {
		if status != "" && e.Status != status {
			continue
		}
		all = append(all, *e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= len(all) {
		return []model.Experience{}, total, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (s *fakeStore) ListExperiencesByUser(ctx context.Context, userID string) ([]model.Experience, error) {
	var out []model.Experience
	for _, e := range s.experiences {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) UpdateExperienceStatus(ctx context.Context, q repository.Queryer, id string, status model.ExperienceStatus) error {
	e, ok := s.experiences[id]
	if !ok {
		return common.ErrNotFound
	}
	e.Status = status
	e.UpdatedAt = s.nextTime()
	return nil
}

func (s *fakeStore) AdjustRoundsCount(ctx context.Context, q repository.Queryer, experienceID string, delta int) error {
	e, ok := s.experiences[experienceID]
	if !ok {
		return common.ErrNotFound
	}
	e.RoundsCount += delta
	if e.RoundsCount < 0 {
		e.RoundsCount = 0
	}
	return nil
}

func (s *fakeStore) CreateRound(ctx context.Context, q repository.Queryer, r *model.Round) error {
	s.roundCalls++
	if s.failOnRound > 0 && s.roundCalls == s.failOnRound {
		return common.ErrInternalServer
	}
	cp := *r
	cp.CreatedAt = s.nextTime()
	s.rounds[r.ID] = &cp
	return nil
}

func (s *fakeStore) UpdateRound(ctx context.Context, q repository.Queryer, r *model.Round) error {
	existing, ok := s.rounds[r.ID]
	if !ok {
		return common.ErrNotFound
	}
	cp := *r
	cp.CreatedAt = existing.CreatedAt
	s.rounds[r.ID] = &cp
	return nil
}

func (s *fakeStore) deleteRoundCascade(id string) {
	delete(s.rounds, id)
	for pid, p := range s.problems {
		if p.RoundID == id {
			delete(s.problems, pid)
		}
	}
	for qid, tq := range s.questions {
		if tq.RoundID == id {
			delete(s.questions, qid)
		}
	}
}

func (s *fakeStore) DeleteRound(ctx context.Context, q repository.Queryer, id string) error {
	if _, ok := s.rounds[id]; !ok {
		return common.ErrNotFound
	}
	s.deleteRoundCascade(id)
	return nil
}

func (s *fakeStore) DeleteRoundsByExperienceID(ctx context.Context, q repository.Queryer, experienceID string) error {
	for rid, r := range s.rounds {
		if r.ExperienceID == experienceID {
			s.deleteRoundCascade(rid)
		}
	}
	return nil
}

func (s *fakeStore) FindRoundByID(ctx context.Context, id string) (*model.Round, error) {
	r, ok := s.rounds[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) GetRoundsByExperienceID(ctx context.Context, experienceID string) ([]model.Round, error) {
	var out []model.Round
	for _, r := range s.rounds {
		if r.ExperienceID == experienceID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoundOrder != out[j].RoundOrder {
			return out[i].RoundOrder < out[j].RoundOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *fakeStore) CreateCodingProblem(ctx context.Context, q repository.Queryer, p *model.CodingProblem) error {
	if _, ok := s.rounds[p.RoundID]; !ok {
		return common.ErrNotFound
	}
	cp := *p
	cp.CreatedAt = s.nextTime()
	s.problems[p.ID] = &cp
	return nil
}

func (s *fakeStore) GetCodingProblemsByRoundID(ctx context.Context, roundID string) ([]model.CodingProblem, error) {
	var out []model.CodingProblem
	for _, p := range s.problems {
		if p.RoundID == roundID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) CreateTechnicalQuestion(ctx context.Context, q repository.Queryer, tq *model.TechnicalQuestion) error {
	if _, ok := s.rounds[tq.RoundID]; !ok {
		return common.ErrNotFound
	}
	cp := *tq
	cp.CreatedAt = s.nextTime()
	s.questions[tq.ID] = &cp
	return nil
}

func (s *fakeStore) GetTechnicalQuestionsByRoundID(ctx context.Context, roundID string) ([]model.TechnicalQuestion, error) {
	var out []model.TechnicalQuestion
	for _, tq := range s.questions {
		if tq.RoundID == roundID {
			out = append(out, *tq)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- EngagementRepository ---

func upvoteKey(userID, experienceID string) string { return userID + "|" + experienceID }

func upvoteExperienceID(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '|' {
			return key[i+1:]
		}
	}
	return ""
}

func (s *fakeStore) HasUpvote(ctx context.Context, userID, experienceID string) (bool, error) {
	_, ok := s.upvotes[upvoteKey(userID, experienceID)]
	return ok, nil
}

func (s *fakeStore) CreateUpvote(ctx context.Context, userID, experienceID string) error {
	key := upvoteKey(userID, experienceID)
	if _, ok := s.upvotes[key]; ok {
		return common.ErrConflict
	}
	s.upvotes[key] = s.nextTime()
	return nil
}

func (s *fakeStore) DeleteUpvote(ctx context.Context, userID, experienceID string) error {
	key := upvoteKey(userID, experienceID)
	if _, ok := s.upvotes[key]; !ok {
		return common.ErrNotFound
	}
	delete(s.upvotes, key)
	return nil
}

func (s *fakeStore) CountUpvotes(ctx context.Context, experienceID string) (int, error) {
	count := 0
	for key := range s.upvotes {
		if upvoteExperienceID(key) == experienceID {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) CreateComment(ctx context.Context, comment *model.Comment) error {
	cp := *comment
	cp.CreatedAt = s.nextTime()
	if u, ok := s.users[comment.UserID]; ok {
		name := u.Name
		cp.AuthorName = &name
	}
	s.comments[comment.ID] = &cp
	return nil
}

func (s *fakeStore) FindCommentByID(ctx context.Context, id string) (*model.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) ListCommentsByExperienceID(ctx context.Context, experienceID string) ([]model.Comment, error) {
	var out []model.Comment
	for _, c := range s.comments {
		if c.ExperienceID == experienceID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) DeleteComment(ctx context.Context, id string) error {
	if _, ok := s.comments[id]; !ok {
		return common.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

// --- UserRepository ---

func (s *fakeStore) Create(ctx context.Context, user *model.User) error {
	for _, u := range s.users {
		if u.Email == user.Email {
			return common.ErrConflict
		}
	}
	cp := *user
	cp.CreatedAt = s.nextTime()
	cp.UpdatedAt = cp.CreatedAt
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *fakeStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// --- cache fake ---

type fakeCache struct {
	entries map[string]string
	sets    int
	deletes int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	c.sets++
	c.entries[key] = value
}

func (c *fakeCache) DeleteByPrefix(ctx context.Context, prefix string) {
	c.deletes++
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
}

// --- completion fake ---

type fakeCompletion struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompletion) Complete(ctx context.Context, system, user string) (string, error) {
	f.prompts = append(f.prompts, user)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestExperienceService(store *fakeStore, listCache *fakeCache) *ExperienceService {
	if listCache == nil {
		return NewExperienceService(store, &fakeTxRunner{store: store}, nil, time.Minute, zap.NewNop())
	}
	return NewExperienceService(store, &fakeTxRunner{store: store}, listCache, time.Minute, zap.NewNop())
}

func strPtr(s string) *string { return &s }
