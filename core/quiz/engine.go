package quiz

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// Engine states. The only transition available from every state is Close.
//
//	Idle -> Loading -> InProgress -> Submitting -> Completed
//	         |                          |
//	         +--------> Idle <----------+ (creation failure / close)
type State int

const (
	StateIdle State = iota
	StateLoading
	StateInProgress
	StateSubmitting
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateInProgress:
		return "in-progress"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

var (
	nowFunc      = time.Now    // mockable
	tickInterval = time.Second // mockable

	// errors
	ErrAttemptInProgress = errors.New("an attempt is already in progress")
	ErrNoAttempt         = errors.New("no attempt in progress")
	ErrUnknownQuestion   = errors.New("question is not part of this attempt")
	ErrClosed            = errors.New("attempt closed")
)

// Engine drives a timed, question-by-question quiz attempt against the
// scoring service. One Engine handles one attempt at a time; Close resets it
// for reuse. Remote calls run outside the lock and are validated against the
// attempt epoch on completion, so responses for an abandoned attempt are
// discarded.
type Engine struct {
	svc Service
	log core.Logger

	mu        sync.Mutex
	state     State
	attempt   *Attempt
	answers   map[string]Answer
	current   int
	remaining int // countdown seconds; meaningful while timed + InProgress
	result    *Result
	epoch     uint64 // bumped on Start/Close; stale responses carry an old epoch
	stopTick  chan struct{}
	onChange  func(State)
}

func NewEngine(svc Service, log core.Logger) *Engine {
	return &Engine{svc: svc, log: log}
}

// OnChange registers a hook invoked (outside the lock) after every state
// transition. UI binding only; must not block.
func (e *Engine) OnChange(fn func(State)) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// Start creates a preview attempt for the given quiz and moves the engine to
// InProgress. When the service returns an empty answer snapshot the full
// question list is fetched and placeholder entries are synthesized so
// navigation and scoring always operate on a uniform shape.
func (e *Engine) Start(ctx context.Context, quizID string) error {
	e.mu.Lock()
	if e.state != StateIdle {
		e.mu.Unlock()
		return ErrAttemptInProgress
	}
	e.state = StateLoading
	e.epoch++
	epoch := e.epoch
	e.mu.Unlock()
	e.notify(StateLoading)

	att, err := e.svc.CreateAttempt(ctx, quizID)
	if err != nil {
		e.abortLoad(epoch)
		return errors.Wrap(err, "creating attempt")
	}

	// Reconciliation shim: the server does not always materialize
	// per-question placeholders up front.
	if len(att.Answers) == 0 {
		qz, err := e.svc.GetQuiz(ctx, quizID)
		if err != nil {
			e.abortLoad(epoch)
			return errors.Wrap(err, "fetching quiz questions")
		}
		if len(att.Questions) == 0 {
			att.Questions = qz.Questions
		}
		if att.Quiz.ID == "" {
			att.Quiz = qz
		}
	}
	answers := make(map[string]Answer, len(att.Questions))
	for _, q := range att.Questions {
		answers[q.ID] = Answer{QuestionID: q.ID}
	}
	for _, a := range att.Answers {
		if _, ok := answers[a.QuestionID]; ok {
			answers[a.QuestionID] = a
		}
	}
	if att.StartedAt.IsZero() {
		att.StartedAt = nowFunc()
	}

	e.mu.Lock()
	if e.epoch != epoch || e.state != StateLoading {
		// closed while loading
		e.mu.Unlock()
		return ErrClosed
	}
	e.attempt = &att
	e.answers = answers
	e.current = 0
	e.result = nil
	e.state = StateInProgress
	if att.Quiz.TimeLimit > 0 {
		e.remaining = att.Quiz.TimeLimit
		e.stopTick = make(chan struct{})
		go e.runCountdown(e.stopTick, epoch)
	}
	e.mu.Unlock()
	e.notify(StateInProgress)
	return nil
}

// SubmitAnswer records the learner's choice for one question. Re-answering a
// question overwrites its prior entry; when two submissions for the same
// question race, the later-completing response wins. On failure nothing is
// recorded and the learner may retry.
func (e *Engine) SubmitAnswer(ctx context.Context, questionID, answerID string) error {
	e.mu.Lock()
	if e.state != StateInProgress {
		e.mu.Unlock()
		return ErrNoAttempt
	}
	if _, ok := e.answers[questionID]; !ok {
		e.mu.Unlock()
		return ErrUnknownQuestion
	}
	attID := e.attempt.ID
	epoch := e.epoch
	e.mu.Unlock()

	ans, err := e.svc.SubmitAnswer(ctx, attID, questionID, answerID)
	if err != nil {
		return errors.Wrap(err, "submitting answer")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch || e.state != StateInProgress {
		return ErrClosed // attempt gone; response is harmless
	}
	ans.QuestionID = questionID
	e.answers[questionID] = ans
	return nil
}

// Goto moves to the question at index i. Out-of-bounds requests are clamped,
// not wrapped. Local and side-effect free.
func (e *Engine) Goto(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateInProgress && e.state != StateSubmitting {
		return
	}
	if n := len(e.attempt.Questions); i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	e.current = i
}

func (e *Engine) Next() { e.Goto(e.Current() + 1) }
func (e *Engine) Prev() { e.Goto(e.Current() - 1) }

// Submit sends the whole attempt for scoring. Single-flight: once the engine
// left InProgress (a racing auto-submit or an earlier manual submit), the
// call is a no-op returning ErrNoAttempt. A scoring-service failure degrades
// to the local fallback scorer instead of failing the attempt.
func (e *Engine) Submit(ctx context.Context) (Result, error) {
	e.mu.Lock()
	if e.state != StateInProgress {
		e.mu.Unlock()
		return Result{}, ErrNoAttempt
	}
	e.state = StateSubmitting
	e.stopCountdownLocked()
	att := e.attempt
	attID := att.ID
	epoch := e.epoch
	answers := make(map[string]Answer, len(e.answers))
	for k, v := range e.answers {
		answers[k] = v
	}
	e.mu.Unlock()
	e.notify(StateSubmitting)

	res, err := e.svc.SubmitAttempt(ctx, attID)
	if err != nil {
		if e.log != nil {
			e.log.Warn("attempt submission failed; falling back to local scoring", err)
		}
		res = scoreLocal(att, answers, nowFunc())
	}

	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		return Result{}, ErrClosed
	}
	e.result = &res
	e.state = StateCompleted
	e.mu.Unlock()
	e.notify(StateCompleted)
	return res, nil
}

// Close returns the engine to Idle, discarding attempt, answers, timer and
// result unconditionally. Available from every state.
func (e *Engine) Close() {
	e.mu.Lock()
	e.epoch++
	e.stopCountdownLocked()
	e.state = StateIdle
	e.attempt = nil
	e.answers = nil
	e.result = nil
	e.current = 0
	e.remaining = 0
	e.mu.Unlock()
	e.notify(StateIdle)
}

// State reports the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Attempt returns a snapshot of the active attempt.
func (e *Engine) Attempt() (Attempt, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.attempt == nil {
		return Attempt{}, false
	}
	return *e.attempt, true
}

// Current is the index of the displayed question.
func (e *Engine) Current() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// CurrentQuestion returns the displayed question.
func (e *Engine) CurrentQuestion() (Question, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.attempt == nil || e.current >= len(e.attempt.Questions) {
		return Question{}, false
	}
	return e.attempt.Questions[e.current], true
}

// Answer returns the recorded entry for a question.
func (e *Engine) Answer(questionID string) (Answer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ans, ok := e.answers[questionID]
	return ans, ok
}

// Answers returns a copy of the per-question answer entries.
func (e *Engine) Answers() map[string]Answer {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]Answer, len(e.answers))
	for k, v := range e.answers {
		out[k] = v
	}
	return out
}

// Remaining reports the countdown seconds left; 0 for untimed quizzes.
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

// Result returns the terminal result once the engine is Completed.
func (e *Engine) Result() (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.result == nil {
		return Result{}, false
	}
	return *e.result, true
}

// abortLoad unwinds Loading back to Idle after a failed creation, unless the
// attempt was closed (and possibly restarted) in the meantime.
func (e *Engine) abortLoad(epoch uint64) {
	e.mu.Lock()
	if e.epoch != epoch || e.state != StateLoading {
		e.mu.Unlock()
		return
	}
	e.state = StateIdle
	e.mu.Unlock()
	e.notify(StateIdle)
}

// runCountdown decrements the remaining seconds once per tick and triggers
// auto-submit exactly once when it reaches zero. It exits as soon as the
// attempt it was started for is no longer the active one.
func (e *Engine) runCountdown(stop chan struct{}, epoch uint64) {
	t := time.NewTicker(tickInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			e.mu.Lock()
			if e.epoch != epoch || e.state != StateInProgress {
				e.mu.Unlock()
				return
			}
			e.remaining--
			rem := e.remaining
			e.mu.Unlock()
			if rem <= 0 {
				// Submit is single-flight: if a manual submit won the race in
				// this same tick, this call is a no-op.
				if _, err := e.Submit(context.Background()); err != nil && err != ErrNoAttempt {
					if e.log != nil {
						e.log.Error("auto-submit failed", err)
					}
				}
				return
			}
		}
	}
}

// stopCountdownLocked tears the countdown down; e.mu must be held.
func (e *Engine) stopCountdownLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}

func (e *Engine) notify(st State) {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}
