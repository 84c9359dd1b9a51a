package quiz

import (
	"context"
	"time"
)

type (
	// AnswerOption is one selectable choice of a question.
	AnswerOption struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	}

	Question struct {
		ID      string         `json:"id"`
		Text    string         `json:"text"`
		Points  int            `json:"points"`
		Answers []AnswerOption `json:"answers"`
	}

	Quiz struct {
		ID           string     `json:"id"`
		Title        string     `json:"title"`
		PassingScore float64    `json:"passingScore"` // percentage required to pass
		TimeLimit    int        `json:"timeLimit"`    // seconds; 0 = untimed
		Questions    []Question `json:"questions,omitempty"`
	}

	// Answer is the learner's current response to one question. A placeholder
	// entry (no selection yet) has an empty SelectedAnswerID.
	Answer struct {
		QuestionID       string `json:"questionId"`
		SelectedAnswerID string `json:"selectedAnswerId,omitempty"`
		IsCorrect        bool   `json:"isCorrect"`
		PointsEarned     int    `json:"pointsEarned"`
	}

	// Attempt is one run through a quiz, as issued by the scoring service.
	// The answer snapshot may come back empty; the engine reconciles it
	// against the question list before use.
	Attempt struct {
		ID        string     `json:"id"`
		Quiz      Quiz       `json:"quiz"`
		Questions []Question `json:"questions"`
		Answers   []Answer   `json:"answers"`
		StartedAt time.Time  `json:"startedAt"`
	}

	Result struct {
		AttemptID           string    `json:"attemptId"`
		Score               int       `json:"score"`
		Percentage          float64   `json:"percentage"`
		CorrectAnswers      int       `json:"correctAnswers"`
		IncorrectAnswers    int       `json:"incorrectAnswers"`
		UnansweredQuestions int       `json:"unansweredQuestions"`
		TotalQuestions      int       `json:"totalQuestions"`
		IsPassed            bool      `json:"isPassed"`
		StartedAt           time.Time `json:"startedAt"`
		CompletedAt         time.Time `json:"completedAt"`

		// Local marks a result computed by the fallback scorer instead of the
		// scoring service; it was not validated server-side.
		Local bool `json:"-"`
	}

	// Service is the remote scoring collaborator.
	Service interface {
		CreateAttempt(ctx context.Context, quizID string) (Attempt, error)
		GetQuiz(ctx context.Context, quizID string) (Quiz, error)
		SubmitAnswer(ctx context.Context, attemptID, questionID, answerID string) (Answer, error)
		SubmitAttempt(ctx context.Context, attemptID string) (Result, error)
	}
)

// Answered reports whether the entry carries an actual selection, as opposed
// to a synthesized placeholder.
func (a Answer) Answered() bool { return a.SelectedAnswerID != "" }
