package sandbox

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/quiz"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrAttemptNotFound = errors.New("attempt not found")
	ErrBadQuestion     = errors.New("question is not part of this quiz")
)

type (
	// account is a seeded demo user.
	account struct {
		Username string
		Password string
		Scope    string // space-separated roles
	}

	// bankQuiz couples the public quiz snapshot with its answer key.
	bankQuiz struct {
		Quiz quiz.Quiz
		Key  map[string]string // questionID -> correct answerID
	}

	attempt struct {
		ID        string
		QuizID    string
		Subject   string
		StartedAt time.Time
		Answers   map[string]quiz.Answer
		Completed bool
	}

	// Bank is the sandbox's in-memory store of users, quizzes and attempts.
	Bank struct {
		mu       sync.Mutex
		accounts map[string]account
		quizzes  map[string]bankQuiz
		attempts map[string]*attempt
	}
)

func NewBank() *Bank {
	return &Bank{
		accounts: make(map[string]account),
		quizzes:  make(map[string]bankQuiz),
		attempts: make(map[string]*attempt),
	}
}

func (b *Bank) AddAccount(username, password, scope string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[username] = account{Username: username, Password: password, Scope: scope}
}

// AddQuiz registers a quiz; key maps each question id to its correct answer id.
func (b *Bank) AddQuiz(qz quiz.Quiz, key map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quizzes[qz.ID] = bankQuiz{Quiz: qz, Key: key}
}

// Authenticate checks seeded credentials and returns the account's scope.
func (b *Bank) Authenticate(username, password string) (scope string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[username]
	if !ok || acc.Password != password {
		return "", false
	}
	return acc.Scope, true
}

// GetQuiz returns the public snapshot of a quiz (no answer key).
func (b *Bank) GetQuiz(id string) (quiz.Quiz, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bq, ok := b.quizzes[id]
	if !ok {
		return quiz.Quiz{}, ErrQuizNotFound
	}
	return bq.Quiz, nil
}

// CreateAttempt starts a preview attempt. The returned snapshot deliberately
// carries no questions and no answer placeholders: clients are expected to
// reconcile against GetQuiz.
func (b *Bank) CreateAttempt(quizID, subject string) (quiz.Attempt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bq, ok := b.quizzes[quizID]
	if !ok {
		return quiz.Attempt{}, ErrQuizNotFound
	}
	att := &attempt{
		ID:        uuid.New().String(),
		QuizID:    quizID,
		Subject:   subject,
		StartedAt: time.Now().UTC(),
		Answers:   make(map[string]quiz.Answer),
	}
	b.attempts[att.ID] = att

	meta := bq.Quiz
	meta.Questions = nil
	return quiz.Attempt{
		ID:        att.ID,
		Quiz:      meta,
		StartedAt: att.StartedAt,
	}, nil
}

// GradeAnswer grades one answer and records it on the attempt, overwriting any
// prior entry for the same question.
func (b *Bank) GradeAnswer(attemptID, questionID, answerID string) (quiz.Answer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	att, ok := b.attempts[attemptID]
	if !ok || att.Completed {
		return quiz.Answer{}, ErrAttemptNotFound
	}
	bq := b.quizzes[att.QuizID]

	var question *quiz.Question
	for i := range bq.Quiz.Questions {
		if bq.Quiz.Questions[i].ID == questionID {
			question = &bq.Quiz.Questions[i]
			break
		}
	}
	if question == nil {
		return quiz.Answer{}, ErrBadQuestion
	}

	ans := quiz.Answer{
		QuestionID:       questionID,
		SelectedAnswerID: answerID,
		IsCorrect:        bq.Key[questionID] == answerID,
	}
	if ans.IsCorrect {
		ans.PointsEarned = question.Points
	}
	att.Answers[questionID] = ans
	return ans, nil
}

// Score computes the terminal result of an attempt and marks it completed.
func (b *Bank) Score(attemptID string) (quiz.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	att, ok := b.attempts[attemptID]
	if !ok {
		return quiz.Result{}, ErrAttemptNotFound
	}
	bq := b.quizzes[att.QuizID]

	res := quiz.Result{
		AttemptID:      att.ID,
		TotalQuestions: len(bq.Quiz.Questions),
		StartedAt:      att.StartedAt,
		CompletedAt:    time.Now().UTC(),
	}
	var totalPossible int
	for _, q := range bq.Quiz.Questions {
		totalPossible += q.Points
		if ans, ok := att.Answers[q.ID]; ok {
			if ans.IsCorrect {
				res.CorrectAnswers++
				res.Score += ans.PointsEarned
			} else {
				res.IncorrectAnswers++
			}
		}
	}
	res.UnansweredQuestions = res.TotalQuestions - res.CorrectAnswers - res.IncorrectAnswers
	if totalPossible > 0 {
		res.Percentage = float64(res.Score) / float64(totalPossible) * 100
	}
	res.IsPassed = res.Percentage >= bq.Quiz.PassingScore
	att.Completed = true
	return res, nil
}

// Seed populates the bank with the demo accounts and quizzes used by the
// sandbox app and the test suites.
func (b *Bank) Seed() {
	b.AddAccount("admin", "darasa123", "ADMIN INSTRUCTOR STUDENT")
	b.AddAccount("teacher", "darasa123", "INSTRUCTOR")
	b.AddAccount("student", "darasa123", "STUDENT")

	b.AddQuiz(quiz.Quiz{
		ID:           "go-basics",
		Title:        "Go Basics",
		PassingScore: 40,
		Questions: []quiz.Question{
			{ID: "q1", Text: "Keyword that declares a function?", Points: 2, Answers: []quiz.AnswerOption{
				{ID: "q1a", Text: "def"}, {ID: "q1b", Text: "func"}, {ID: "q1c", Text: "fn"},
			}},
			{ID: "q2", Text: "Zero value of a pointer?", Points: 3, Answers: []quiz.AnswerOption{
				{ID: "q2a", Text: "0"}, {ID: "q2b", Text: "undefined"}, {ID: "q2c", Text: "nil"},
			}},
			{ID: "q3", Text: "Builtin that grows a slice?", Points: 5, Answers: []quiz.AnswerOption{
				{ID: "q3a", Text: "append"}, {ID: "q3b", Text: "push"}, {ID: "q3c", Text: "extend"},
			}},
		},
	}, map[string]string{"q1": "q1b", "q2": "q2c", "q3": "q3a"})

	b.AddQuiz(quiz.Quiz{
		ID:           "timed-demo",
		Title:        "Timed Demo",
		PassingScore: 50,
		TimeLimit:    300,
		Questions: []quiz.Question{
			{ID: "t1", Text: "2 + 2 = ?", Points: 1, Answers: []quiz.AnswerOption{
				{ID: "t1a", Text: "3"}, {ID: "t1b", Text: "4"},
			}},
			{ID: "t2", Text: "10 / 2 = ?", Points: 1, Answers: []quiz.AnswerOption{
				{ID: "t2a", Text: "5"}, {ID: "t2b", Text: "2"},
			}},
		},
	}, map[string]string{"t1": "t1b", "t2": "t2a"})
}
