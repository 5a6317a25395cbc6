// Package quiz sequences question presentation and answer collection for one quiz run.
package quiz

import (
	"errors"
	"math"
	"sync"
	"time"

	"crypto-persona-backend/internal/model"
	"crypto-persona-backend/internal/scoring"
	"crypto-persona-backend/internal/transport"
)

// DefaultLockDelay is how long input stays locked after an answer is chosen.
const DefaultLockDelay = 400 * time.Millisecond

var ErrNoQuestions = errors.New("quiz: no questions")

type State string

const (
	StateAnswering     State = "answering"
	StateTransitioning State = "transitioning"
	StateCompleted     State = "completed"
)

// Result is what a completed session hands to the report route.
type Result struct {
	Answers model.Answers         `json:"answers"`
	Scores  model.DimensionScores `json:"scores"`
	Code    model.PersonalityCode `json:"code"`
	Route   string                `json:"route"`
}

// Snapshot is a point-in-time view of a session, suitable for rendering.
type Snapshot struct {
	State      State          `json:"state"`
	Index      int            `json:"index"`
	Total      int            `json:"total"`
	Question   model.Question `json:"question"`
	Answer     *int           `json:"answer,omitempty"`
	Progress   int            `json:"progress"`
	CanForward bool           `json:"can_forward"`
	CanBack    bool           `json:"can_back"`
	Result     *Result        `json:"result,omitempty"`
}

type Option func(*Session)

// WithLockDelay sets the input-lock interval. Zero advances without waiting.
func WithLockDelay(d time.Duration) Option {
	return func(s *Session) {
		if d < 0 {
			d = 0
		}
		s.lockDelay = d
	}
}

// WithOnChange registers a hook called after every state change, in order. Hooks run
// outside the session lock but must not call back into the session synchronously.
func WithOnChange(fn func(Snapshot)) Option {
	return func(s *Session) { s.onChange = fn }
}

// WithOnComplete registers a hook called exactly once when the session completes.
func WithOnComplete(fn func(Result)) Option {
	return func(s *Session) { s.onComplete = fn }
}

// Session is the quiz state machine:
//
//	Answering(i) --answer--> Transitioning --delay--> Answering(i+1) | Completed
//	Answering(i) --forward (answered)--> Answering(i+1) | Completed
//	Answering(i) --back (i > 0)--> Answering(i-1)
//
// Anything else is a no-op.
type Session struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	questions []model.Question
	answers   model.Answers
	index     int
	state     State
	result    *Result
	timer     *time.Timer
	closed    bool
	done      chan struct{}

	lockDelay  time.Duration
	onChange   func(Snapshot)
	onComplete func(Result)
}

// NewSession starts a session at the first question with no answers.
func NewSession(questions []model.Question, opts ...Option) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	s := &Session{
		questions: append([]model.Question(nil), questions...),
		answers:   model.Answers{},
		state:     StateAnswering,
		done:      make(chan struct{}),
		lockDelay: DefaultLockDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Answer records value for the current question and locks input until the session
// moves on. It reports whether the input was taken.
func (s *Session) Answer(value int) bool {
	if !model.OnScale(value) {
		return false
	}

	s.mu.Lock()
	if s.closed || s.state != StateAnswering {
		s.mu.Unlock()
		return false
	}
	s.answers[s.questions[s.index].ID] = value
	s.state = StateTransitioning

	if s.lockDelay == 0 {
		completed := s.advanceLocked()
		s.notifyAndUnlock(completed)
		return true
	}
	s.timer = time.AfterFunc(s.lockDelay, s.release)
	s.notifyAndUnlock(false)
	return true
}

func (s *Session) release() {
	s.mu.Lock()
	if s.closed || s.state != StateTransitioning {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	completed := s.advanceLocked()
	s.notifyAndUnlock(completed)
}

// Forward moves past the current question if it has an answer.
func (s *Session) Forward() bool {
	s.mu.Lock()
	if s.closed || s.state != StateAnswering {
		s.mu.Unlock()
		return false
	}
	if _, ok := s.answers[s.questions[s.index].ID]; !ok {
		s.mu.Unlock()
		return false
	}
	completed := s.advanceLocked()
	s.notifyAndUnlock(completed)
	return true
}

// Back returns to the previous question. Recorded answers are kept.
func (s *Session) Back() bool {
	s.mu.Lock()
	if s.closed || s.state != StateAnswering || s.index == 0 {
		s.mu.Unlock()
		return false
	}
	s.index--
	s.notifyAndUnlock(false)
	return true
}

// Close abandons the session and stops any pending transition.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Done is closed when the session completes.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Result returns the result of a completed session.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// advanceLocked moves to the next question, or completes after the last one. The last
// answer has already been written when this runs.
func (s *Session) advanceLocked() bool {
	if s.index < len(s.questions)-1 {
		s.index++
		s.state = StateAnswering
		return false
	}

	answers := make(model.Answers, len(s.answers))
	for id, v := range s.answers {
		answers[id] = v
	}
	scores, code := scoring.Evaluate(answers, s.questions)
	s.result = &Result{
		Answers: answers,
		Scores:  scores,
		Code:    code,
		Route:   transport.Encode(code, scores),
	}
	s.state = StateCompleted
	close(s.done)
	return true
}

// notifyAndUnlock releases the state lock and runs the hooks in the order the changes
// happened.
func (s *Session) notifyAndUnlock(completed bool) {
	snap := s.snapshotLocked()
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	if s.onChange != nil {
		s.onChange(snap)
	}
	if completed && s.onComplete != nil && snap.Result != nil {
		s.onComplete(*snap.Result)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	q := s.questions[s.index]
	snap := Snapshot{
		State:    s.state,
		Index:    s.index,
		Total:    len(s.questions),
		Question: q,
		Progress: int(math.Round(float64(s.index) / float64(len(s.questions)) * 100)),
		CanBack:  s.state == StateAnswering && s.index > 0,
	}
	if v, ok := s.answers[q.ID]; ok {
		answer := v
		snap.Answer = &answer
		snap.CanForward = s.state == StateAnswering
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
		snap.Progress = 100
	}
	return snap
}
