package app

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/sebspolo/scrobble-guessr/internal/domain"
)

// State is a quiz session lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StatePlaying State = "playing"
	StateDone    State = "done"
)

// Session is the in-memory state of one player's quiz: the fetched dataset
// plus the progress through the generated questions.
type Session struct {
	id  string
	now func() time.Time

	mu        sync.Mutex
	state     State
	subjects  []string
	dataset   domain.Dataset
	questions []domain.Question
	index     int
	score     int
	answer    *domain.AnswerResult
	lastErr   string
	updatedAt time.Time

	subscribers map[chan SessionView]struct{}
}

// SessionView is a read-only snapshot of a Session.
type SessionView struct {
	ID         string               `json:"id"`
	State      State                `json:"state"`
	Subjects   []string             `json:"subjects"`
	Slices     int                  `json:"slices"`
	Number     int                  `json:"number,omitempty"`
	Total      int                  `json:"total,omitempty"`
	Question   *domain.Question     `json:"question,omitempty"`
	Score      int                  `json:"score"`
	LastAnswer *domain.AnswerResult `json:"lastAnswer,omitempty"`
	Error      string               `json:"error,omitempty"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// NewSession creates an idle session.
func NewSession(id string) *Session {
	return NewSessionWithClock(id, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, now func() time.Time) *Session {
	return &Session{
		id:          id,
		now:         now,
		state:       StateIdle,
		updatedAt:   now(),
		subscribers: make(map[chan SessionView]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BeginFetch moves idle -> loading. It needs at least one subject and a
// configured API key; otherwise the session stays idle with the error.
func (s *Session) BeginFetch(subjects []string, hasAPIKey bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle:
	case StateLoading:
		return domain.ErrSessionBusy
	default:
		return domain.ErrInvalidTransition
	}
	if len(subjects) == 0 {
		return s.failLocked(domain.Invalidf("enter at least one Last.fm username"))
	}
	if !hasAPIKey {
		return s.failLocked(domain.Invalidf("missing Last.fm API key; set LASTFM_API_KEY or lastfm.api_key"))
	}

	s.subjects = append([]string(nil), subjects...)
	s.dataset = nil
	s.lastErr = ""
	s.setStateLocked(StateLoading)
	return nil
}

// CompleteFetch moves loading -> ready with the aggregated dataset, even
// when some slices are empty.
func (s *Session) CompleteFetch(ds domain.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoading {
		return domain.ErrInvalidTransition
	}
	s.dataset = ds
	s.setStateLocked(StateReady)
	return nil
}

// AbortFetch moves loading -> idle, recording why.
func (s *Session) AbortFetch(cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoading {
		return
	}
	if cause != nil {
		s.lastErr = cause.Error()
	}
	s.setStateLocked(StateIdle)
}

// Start moves ready -> playing with freshly generated questions. When no
// enabled slice has data the session stays ready and ErrNoEligibleData is
// returned.
func (s *Session) Start(opts QuizOptions, rnd *rand.Rand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return domain.ErrInvalidTransition
	}
	questions, err := GenerateQuestions(s.dataset, s.subjects, opts, rnd)
	if err != nil {
		return s.failLocked(err)
	}

	s.questions = questions
	s.index = 0
	s.score = 0
	s.answer = nil
	s.lastErr = ""
	s.setStateLocked(StatePlaying)
	return nil
}

// Answer records the first answer to the current question. Later answers to
// the same question change nothing and return the first result.
func (s *Session) Answer(choice string) (domain.AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return domain.AnswerResult{}, domain.ErrInvalidTransition
	}
	if s.answer != nil {
		return *s.answer, nil
	}

	q := s.questions[s.index]
	known := false
	for _, c := range q.Choices {
		if c == choice {
			known = true
			break
		}
	}
	if !known {
		return domain.AnswerResult{}, domain.Invalidf("%q is not one of the choices", choice)
	}

	result := domain.AnswerResult{
		Choice:         choice,
		Correct:        choice == q.CorrectSubject,
		CorrectSubject: q.CorrectSubject,
	}
	if result.Correct {
		s.score++
	}
	s.answer = &result
	s.touchLocked()
	return result, nil
}

// AnswerKey answers with the choice bound to a hotkey ("1".."9", "0").
func (s *Session) AnswerKey(key string) (domain.AnswerResult, error) {
	s.mu.Lock()
	if s.state != StatePlaying {
		s.mu.Unlock()
		return domain.AnswerResult{}, domain.ErrInvalidTransition
	}
	choice, ok := s.questions[s.index].ChoiceForKey(key)
	s.mu.Unlock()
	if !ok {
		return domain.AnswerResult{}, domain.Invalidf("no choice for key %q", key)
	}
	return s.Answer(choice)
}

// Advance moves to the next question, or to done after the last one. The
// current question must have been answered.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return domain.ErrInvalidTransition
	}
	if s.answer == nil {
		return domain.ErrNotAnswered
	}
	s.answer = nil
	if s.index+1 >= len(s.questions) {
		s.index = len(s.questions)
		s.setStateLocked(StateDone)
		return nil
	}
	s.index++
	s.touchLocked()
	return nil
}

// Replay moves done -> ready, keeping the dataset so no refetch is needed.
func (s *Session) Replay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDone {
		return domain.ErrInvalidTransition
	}
	s.questions = nil
	s.index = 0
	s.score = 0
	s.answer = nil
	s.setStateLocked(StateReady)
	return nil
}

// Refetch drops the dataset and returns to idle so new users can be entered.
func (s *Session) Refetch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady && s.state != StateDone {
		return domain.ErrInvalidTransition
	}
	s.dataset = nil
	s.questions = nil
	s.index = 0
	s.score = 0
	s.answer = nil
	s.lastErr = ""
	s.setStateLocked(StateIdle)
	return nil
}

// View snapshots the session.
func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Subscribe returns a channel receiving a snapshot after every change,
// starting with the current one. The returned func unsubscribes.
func (s *Session) Subscribe() (<-chan SessionView, func()) {
	ch := make(chan SessionView, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.viewLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// HasSubscribers reports whether anyone still watches the session.
func (s *Session) HasSubscribers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers) > 0
}

func (s *Session) viewLocked() SessionView {
	view := SessionView{
		ID:        s.id,
		State:     s.state,
		Subjects:  append([]string(nil), s.subjects...),
		Score:     s.score,
		Error:     s.lastErr,
		UpdatedAt: s.updatedAt,
		Total:     len(s.questions),
	}
	for _, byPeriod := range s.dataset {
		for _, byKind := range byPeriod {
			for _, records := range byKind {
				if len(records) > 0 {
					view.Slices++
				}
			}
		}
	}
	if s.state == StatePlaying {
		q := s.questions[s.index]
		q.Choices = append([]string(nil), q.Choices...)
		view.Question = &q
		view.Number = s.index + 1
	}
	if s.answer != nil {
		a := *s.answer
		view.LastAnswer = &a
	}
	return view
}

// failLocked records err for the view without changing state.
func (s *Session) failLocked(err error) error {
	s.lastErr = err.Error()
	if errors.Is(err, domain.ErrNoEligibleData) {
		s.lastErr = "no data available for the selected filters; try enabling more periods or categories"
	}
	s.touchLocked()
	return err
}

func (s *Session) setStateLocked(state State) {
	s.state = state
	s.touchLocked()
}

func (s *Session) touchLocked() {
	s.updatedAt = s.now()
	s.broadcastLocked()
}

func (s *Session) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	view := s.viewLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// slow reader: replace the oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}
