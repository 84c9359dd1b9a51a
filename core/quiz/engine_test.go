package quiz

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService is an in-test scoring service with controllable failures and
// completion-order gates.
type fakeService struct {
	quiz Quiz
	key  map[string]string // questionID -> correct answerID

	populateSnapshot bool // return questions + placeholders from CreateAttempt
	startedAt        time.Time

	createErr, quizErr, answerErr, submitErr error

	submitResult Result

	answerHook func(questionID, answerID string) // runs before an answer completes
	submitHook func()                            // runs before a submission completes

	createCalls, quizCalls, answerCalls, submitCalls int32
}

var _ Service = (*fakeService)(nil)

func newFakeService() *fakeService {
	return &fakeService{
		quiz: Quiz{
			ID:           "qz-1",
			Title:        "Go Basics",
			PassingScore: 40,
			Questions: []Question{
				{ID: "q1", Points: 2, Answers: []AnswerOption{{ID: "q1a"}, {ID: "q1b"}}},
				{ID: "q2", Points: 3, Answers: []AnswerOption{{ID: "q2a"}, {ID: "q2b"}}},
				{ID: "q3", Points: 5, Answers: []AnswerOption{{ID: "q3a"}, {ID: "q3b"}}},
			},
		},
		key:       map[string]string{"q1": "q1a", "q2": "q2a", "q3": "q3a"},
		startedAt: time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeService) CreateAttempt(_ context.Context, quizID string) (Attempt, error) {
	atomic.AddInt32(&f.createCalls, 1)
	if f.createErr != nil {
		return Attempt{}, f.createErr
	}
	meta := f.quiz
	meta.Questions = nil
	att := Attempt{ID: "att-1", Quiz: meta, StartedAt: f.startedAt}
	if f.populateSnapshot {
		att.Questions = f.quiz.Questions
		for _, q := range f.quiz.Questions {
			att.Answers = append(att.Answers, Answer{QuestionID: q.ID})
		}
	}
	return att, nil
}

func (f *fakeService) GetQuiz(_ context.Context, quizID string) (Quiz, error) {
	atomic.AddInt32(&f.quizCalls, 1)
	if f.quizErr != nil {
		return Quiz{}, f.quizErr
	}
	return f.quiz, nil
}

func (f *fakeService) SubmitAnswer(_ context.Context, attemptID, questionID, answerID string) (Answer, error) {
	atomic.AddInt32(&f.answerCalls, 1)
	if f.answerHook != nil {
		f.answerHook(questionID, answerID)
	}
	if f.answerErr != nil {
		return Answer{}, f.answerErr
	}
	ans := Answer{
		QuestionID:       questionID,
		SelectedAnswerID: answerID,
		IsCorrect:        f.key[questionID] == answerID,
	}
	if ans.IsCorrect {
		for _, q := range f.quiz.Questions {
			if q.ID == questionID {
				ans.PointsEarned = q.Points
			}
		}
	}
	return ans, nil
}

func (f *fakeService) SubmitAttempt(_ context.Context, attemptID string) (Result, error) {
	atomic.AddInt32(&f.submitCalls, 1)
	if f.submitHook != nil {
		f.submitHook()
	}
	if f.submitErr != nil {
		return Result{}, f.submitErr
	}
	res := f.submitResult
	res.AttemptID = attemptID
	return res, nil
}

func startEngine(t *testing.T, f *fakeService) *Engine {
	t.Helper()
	eng := NewEngine(f, nil)
	if err := eng.Start(context.Background(), f.quiz.ID); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	require.Equal(t, StateInProgress, eng.State())
	return eng
}

func waitState(t *testing.T, eng *Engine, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if eng.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("engine never reached %v (stuck at %v)", want, eng.State())
}

func TestEngineStartSynthesizesPlaceholders(t *testing.T) {
	f := newFakeService() // empty snapshot: no questions, no answers
	eng := startEngine(t, f)
	defer eng.Close()

	assert.EqualValues(t, 1, f.quizCalls, "empty snapshot must trigger a quiz fetch")

	att, ok := eng.Attempt()
	require.True(t, ok)
	assert.Len(t, att.Questions, 3)
	assert.Equal(t, f.startedAt, att.StartedAt)

	answers := eng.Answers()
	require.Len(t, answers, 3, "placeholder set must match the fetched question count")
	for _, q := range att.Questions {
		ans, ok := answers[q.ID]
		require.True(t, ok, "missing placeholder for %s", q.ID)
		assert.False(t, ans.Answered())
	}
}

func TestEngineStartKeepsServerSnapshot(t *testing.T) {
	f := newFakeService()
	f.populateSnapshot = true
	eng := startEngine(t, f)
	defer eng.Close()

	assert.EqualValues(t, 0, f.quizCalls, "populated snapshot must not refetch the quiz")
	assert.Len(t, eng.Answers(), 3)
}

func TestEngineStartFailures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("creation failure aborts to idle", func(t *testing.T) {
		f := newFakeService()
		f.createErr = boom
		eng := NewEngine(f, nil)

		err := eng.Start(context.Background(), f.quiz.ID)
		assert.Equal(t, boom, errors.Cause(err))
		assert.Equal(t, StateIdle, eng.State())
	})

	t.Run("quiz fetch failure aborts to idle", func(t *testing.T) {
		f := newFakeService()
		f.quizErr = boom
		eng := NewEngine(f, nil)

		err := eng.Start(context.Background(), f.quiz.ID)
		assert.Equal(t, boom, errors.Cause(err))
		assert.Equal(t, StateIdle, eng.State())
	})

	t.Run("start while active is rejected", func(t *testing.T) {
		f := newFakeService()
		eng := startEngine(t, f)
		defer eng.Close()

		assert.Equal(t, ErrAttemptInProgress, eng.Start(context.Background(), f.quiz.ID))
	})
}

func TestEngineSubmitAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("records and overwrites", func(t *testing.T) {
		f := newFakeService()
		eng := startEngine(t, f)
		defer eng.Close()

		require.NoError(t, eng.SubmitAnswer(ctx, "q1", "q1b")) // wrong
		ans, _ := eng.Answer("q1")
		assert.Equal(t, "q1b", ans.SelectedAnswerID)
		assert.False(t, ans.IsCorrect)

		require.NoError(t, eng.SubmitAnswer(ctx, "q1", "q1a")) // re-answer
		ans, _ = eng.Answer("q1")
		assert.Equal(t, "q1a", ans.SelectedAnswerID)
		assert.True(t, ans.IsCorrect)
		assert.Equal(t, 2, ans.PointsEarned)

		assert.Len(t, eng.Answers(), 3, "re-answering must not grow the answer set")
	})

	t.Run("failure leaves nothing recorded", func(t *testing.T) {
		f := newFakeService()
		eng := startEngine(t, f)
		defer eng.Close()

		f.answerErr = errors.New("timeout")
		assert.Error(t, eng.SubmitAnswer(ctx, "q1", "q1a"))
		ans, _ := eng.Answer("q1")
		assert.False(t, ans.Answered())

		// the learner retries the same question
		f.answerErr = nil
		require.NoError(t, eng.SubmitAnswer(ctx, "q1", "q1a"))
		ans, _ = eng.Answer("q1")
		assert.True(t, ans.Answered())
	})

	t.Run("unknown question", func(t *testing.T) {
		f := newFakeService()
		eng := startEngine(t, f)
		defer eng.Close()

		assert.Equal(t, ErrUnknownQuestion, eng.SubmitAnswer(ctx, "nope", "q1a"))
	})

	t.Run("no attempt", func(t *testing.T) {
		eng := NewEngine(newFakeService(), nil)
		assert.Equal(t, ErrNoAttempt, eng.SubmitAnswer(ctx, "q1", "q1a"))
	})
}

// Two racing submissions for the same question: the later-COMPLETING response
// wins, regardless of issuance order.
func TestEngineAnswerRaceLastCompletionWins(t *testing.T) {
	f := newFakeService()

	firstInFlight := make(chan struct{})
	release := make(chan struct{})
	f.answerHook = func(_, answerID string) {
		if answerID == "q1a" { // issued first, completes last
			close(firstInFlight)
			<-release
		}
	}

	eng := startEngine(t, f)
	defer eng.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = eng.SubmitAnswer(ctx, "q1", "q1a")
	}()
	<-firstInFlight

	// issued second, completes first
	require.NoError(t, eng.SubmitAnswer(ctx, "q1", "q1b"))
	close(release)
	wg.Wait()

	ans, _ := eng.Answer("q1")
	assert.Equal(t, "q1a", ans.SelectedAnswerID, "later-completing submission must win")
}

func TestEngineNavigationClamps(t *testing.T) {
	f := newFakeService()
	eng := startEngine(t, f)
	defer eng.Close()

	assert.Equal(t, 0, eng.Current())
	eng.Next()
	assert.Equal(t, 1, eng.Current())
	eng.Goto(99)
	assert.Equal(t, 2, eng.Current(), "out of bounds is clamped, not wrapped")
	eng.Next()
	assert.Equal(t, 2, eng.Current())
	eng.Goto(-5)
	assert.Equal(t, 0, eng.Current())
	eng.Prev()
	assert.Equal(t, 0, eng.Current())
}

func TestEngineSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("remote result is terminal", func(t *testing.T) {
		f := newFakeService()
		f.submitResult = Result{Score: 10, Percentage: 100, CorrectAnswers: 3, TotalQuestions: 3, IsPassed: true}
		eng := startEngine(t, f)
		defer eng.Close()

		res, err := eng.Submit(ctx)
		require.NoError(t, err)
		assert.False(t, res.Local)
		assert.True(t, res.IsPassed)
		assert.Equal(t, StateCompleted, eng.State())

		got, ok := eng.Result()
		require.True(t, ok)
		assert.Equal(t, res, got)

		// terminal: no further submissions are meaningful
		assert.Equal(t, ErrNoAttempt, eng.SubmitAnswer(ctx, "q1", "q1a"))
		_, err = eng.Submit(ctx)
		assert.Equal(t, ErrNoAttempt, err)
	})

	t.Run("remote failure falls back to local scoring", func(t *testing.T) {
		f := newFakeService()
		f.submitErr = errors.New("scoring service down")
		eng := startEngine(t, f)
		defer eng.Close()

		require.NoError(t, eng.SubmitAnswer(ctx, "q1", "q1a")) // +2
		require.NoError(t, eng.SubmitAnswer(ctx, "q2", "q2a")) // +3

		res, err := eng.Submit(ctx)
		require.NoError(t, err, "fallback must not fail the attempt")
		assert.True(t, res.Local, "fallback provenance must be distinguishable")
		assert.Equal(t, 5, res.Score)
		assert.Equal(t, float64(50), res.Percentage)
		assert.True(t, res.IsPassed)
		assert.Equal(t, 1, res.UnansweredQuestions)
		assert.Equal(t, StateCompleted, eng.State())
	})

	t.Run("single flight", func(t *testing.T) {
		f := newFakeService()
		blocked := make(chan struct{})
		f.submitHook = func() { <-blocked }
		eng := startEngine(t, f)
		defer eng.Close()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.Submit(ctx)
			assert.NoError(t, err)
		}()
		waitState(t, eng, StateSubmitting)

		_, err := eng.Submit(ctx)
		assert.Equal(t, ErrNoAttempt, err, "second submit during Submitting must be a no-op")

		close(blocked)
		wg.Wait()
		assert.EqualValues(t, 1, f.submitCalls, "the engine submits at most once")
	})
}

func TestEngineCountdown(t *testing.T) {
	restore := tickInterval
	tickInterval = 2 * time.Millisecond
	defer func() { tickInterval = restore }()

	t.Run("auto-submit on expiry with nothing answered", func(t *testing.T) {
		f := newFakeService()
		f.quiz.TimeLimit = 3                // "seconds", i.e. 3 ticks
		f.submitErr = errors.New("offline") // route through the local scorer
		eng := startEngine(t, f)
		defer eng.Close()

		waitState(t, eng, StateCompleted)

		res, ok := eng.Result()
		require.True(t, ok)
		assert.Equal(t, 0, res.Score)
		assert.Equal(t, res.TotalQuestions, res.UnansweredQuestions)
		assert.False(t, res.IsPassed)

		time.Sleep(20 * time.Millisecond) // a leaked timer would re-submit
		assert.EqualValues(t, 1, f.submitCalls, "auto-submit must fire exactly once")
	})

	t.Run("manual submit beats the countdown", func(t *testing.T) {
		f := newFakeService()
		f.quiz.TimeLimit = 3600
		eng := startEngine(t, f)
		defer eng.Close()

		assert.Greater(t, eng.Remaining(), 0)
		_, err := eng.Submit(context.Background())
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)
		assert.EqualValues(t, 1, f.submitCalls, "countdown must be torn down on manual submit")
	})

	t.Run("close cancels the countdown", func(t *testing.T) {
		f := newFakeService()
		f.quiz.TimeLimit = 2
		eng := startEngine(t, f)

		eng.Close()
		assert.Equal(t, StateIdle, eng.State())

		time.Sleep(20 * time.Millisecond)
		assert.EqualValues(t, 0, f.submitCalls, "closed attempt must never submit")
	})
}

func TestEngineClose(t *testing.T) {
	ctx := context.Background()

	t.Run("discards everything from any state", func(t *testing.T) {
		f := newFakeService()
		eng := startEngine(t, f)
		require.NoError(t, eng.SubmitAnswer(ctx, "q1", "q1a"))

		eng.Close()
		assert.Equal(t, StateIdle, eng.State())
		assert.Empty(t, eng.Answers())
		_, ok := eng.Attempt()
		assert.False(t, ok)
		_, ok = eng.Result()
		assert.False(t, ok)

		// close is idempotent and legal from Idle too
		eng.Close()
		assert.Equal(t, StateIdle, eng.State())
	})

	t.Run("late answer response for a closed attempt is ignored", func(t *testing.T) {
		f := newFakeService()
		inFlight := make(chan struct{})
		release := make(chan struct{})
		f.answerHook = func(string, string) {
			close(inFlight)
			<-release
		}
		eng := startEngine(t, f)

		errc := make(chan error, 1)
		go func() { errc <- eng.SubmitAnswer(ctx, "q1", "q1a") }()
		<-inFlight

		eng.Close()
		f.answerHook = nil

		// a new preview starts; the old response must not leak into it
		require.NoError(t, eng.Start(ctx, f.quiz.ID))
		defer eng.Close()

		close(release)
		assert.Equal(t, ErrClosed, <-errc)
		ans, _ := eng.Answer("q1")
		assert.False(t, ans.Answered(), "stale response must not mutate the new attempt")
	})
}

func TestEngineOnChange(t *testing.T) {
	f := newFakeService()
	eng := NewEngine(f, nil)

	var mu sync.Mutex
	var states []State
	eng.OnChange(func(st State) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	})

	ctx := context.Background()
	require.NoError(t, eng.Start(ctx, f.quiz.ID))
	_, err := eng.Submit(ctx)
	require.NoError(t, err)
	eng.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateLoading, StateInProgress, StateSubmitting, StateCompleted, StateIdle}, states)
}
