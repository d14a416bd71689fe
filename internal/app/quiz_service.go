package app

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(sessionID string) *Session
	Get(sessionID string) (*Session, bool)
	DeleteIfUnwatched(sessionID string)
}

// OperationGuard admits one pending fetch or build per key.
type OperationGuard interface {
	TryAcquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// QuizServiceOptions configures quiz generation for every session.
type QuizServiceOptions struct {
	QuestionCount  int
	ShuffleChoices bool
	HasAPIKey      bool
	// Periods and Categories are used when Start is called without filters.
	Periods    []domain.Period
	Categories []domain.CategoryKind
	// NewRand returns the randomness source for one quiz. Defaults to a
	// time-seeded source.
	NewRand func() *rand.Rand
}

// QuizService contains the quiz use cases.
type QuizService struct {
	sessions SessionRepository
	guard    OperationGuard
	builder  *DatasetBuilder
	opts     QuizServiceOptions
}

func NewQuizService(store SessionRepository, guard OperationGuard, builder *DatasetBuilder, opts QuizServiceOptions) *QuizService {
	if opts.QuestionCount <= 0 {
		opts.QuestionCount = DefaultQuestionCount
	}
	if opts.NewRand == nil {
		opts.NewRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return &QuizService{sessions: store, guard: guard, builder: builder, opts: opts}
}

// Open returns the session, creating an idle one if needed.
func (s *QuizService) Open(sessionID string) *Session {
	return s.sessions.GetOrCreate(sessionID)
}

// Fetch parses the raw user list and builds the dataset for it. It blocks
// until every slice has been attempted; the session is ready afterwards even
// if some slices came back empty.
func (s *QuizService) Fetch(ctx context.Context, sessionID, rawUsers string) (SessionView, error) {
	session := s.sessions.GetOrCreate(sessionID)

	key := "fetch:" + sessionID
	ok, err := s.guard.TryAcquire(ctx, key)
	if err != nil {
		return session.View(), fmt.Errorf("acquire fetch guard: %w", err)
	}
	if !ok {
		return session.View(), domain.ErrSessionBusy
	}
	defer func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
			log.Printf("release fetch guard %s: %v", sessionID, err)
		}
	}()

	subjects := domain.ParseSubjects(rawUsers)
	if err := session.BeginFetch(subjects, s.opts.HasAPIKey); err != nil {
		return session.View(), err
	}

	ds := s.builder.Build(ctx, subjects, nil, nil)
	if err := session.CompleteFetch(ds); err != nil {
		return session.View(), err
	}
	return session.View(), nil
}

// Start generates a new quiz from the fetched dataset. Empty filters fall
// back to the configured ones, and from there to everything.
func (s *QuizService) Start(_ context.Context, sessionID string, periods []domain.Period, categories []domain.CategoryKind) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrSessionNotFound
	}
	if len(periods) == 0 {
		periods = s.opts.Periods
	}
	if len(categories) == 0 {
		categories = s.opts.Categories
	}
	err := session.Start(QuizOptions{
		Periods:        periods,
		Categories:     categories,
		Count:          s.opts.QuestionCount,
		ShuffleChoices: s.opts.ShuffleChoices,
	}, s.opts.NewRand())
	return session.View(), err
}

// Answer submits a choice by subject name.
func (s *QuizService) Answer(_ context.Context, sessionID, choice string) (domain.AnswerResult, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrSessionNotFound
	}
	return session.Answer(choice)
}

// AnswerKey submits a choice by hotkey.
func (s *QuizService) AnswerKey(_ context.Context, sessionID, key string) (domain.AnswerResult, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrSessionNotFound
	}
	return session.AnswerKey(key)
}

// Advance moves to the next question.
func (s *QuizService) Advance(_ context.Context, sessionID string) (SessionView, error) {
	return s.apply(sessionID, (*Session).Advance)
}

// Replay returns a finished quiz to ready without refetching.
func (s *QuizService) Replay(_ context.Context, sessionID string) (SessionView, error) {
	return s.apply(sessionID, (*Session).Replay)
}

// Refetch drops the dataset so a new user list can be entered.
func (s *QuizService) Refetch(_ context.Context, sessionID string) (SessionView, error) {
	return s.apply(sessionID, (*Session).Refetch)
}

// View snapshots a session.
func (s *QuizService) View(_ context.Context, sessionID string) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrSessionNotFound
	}
	return session.View(), nil
}

// Subscribe streams snapshots of a session.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan SessionView, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Close drops the session once nobody watches it.
func (s *QuizService) Close(_ context.Context, sessionID string) {
	s.sessions.DeleteIfUnwatched(sessionID)
}

func (s *QuizService) apply(sessionID string, fn func(*Session) error) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrSessionNotFound
	}
	err := fn(session)
	return session.View(), err
}
