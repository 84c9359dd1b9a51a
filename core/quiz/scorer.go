package quiz

import "time"

// scoreLocal computes a terminal result from only the answers the engine
// holds. Used when the scoring service is unreachable at final submission;
// the result carries Local=true since it was not validated server-side.
func scoreLocal(att *Attempt, answers map[string]Answer, completedAt time.Time) Result {
	res := Result{
		AttemptID:      att.ID,
		TotalQuestions: len(att.Questions),
		StartedAt:      att.StartedAt,
		CompletedAt:    completedAt,
		Local:          true,
	}

	var totalPossible, recorded int
	for _, q := range att.Questions {
		totalPossible += q.Points
		ans, ok := answers[q.ID]
		if !ok || !ans.Answered() {
			continue
		}
		recorded++
		if ans.IsCorrect {
			res.CorrectAnswers++
			res.Score += ans.PointsEarned
		}
	}
	res.IncorrectAnswers = recorded - res.CorrectAnswers
	res.UnansweredQuestions = res.TotalQuestions - recorded
	if totalPossible > 0 {
		res.Percentage = float64(res.Score) / float64(totalPossible) * 100
	}
	res.IsPassed = res.Percentage >= att.Quiz.PassingScore
	return res
}
