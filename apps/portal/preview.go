package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/darasa/core/nav"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/session"
)

// preview runs an interactive quiz preview. Preview is instructor-facing;
// students are routed back to their own portal.
func (cli *commandLine) preview(quizID string) error {
	if d := cli.guard.Check(session.RoleAdmin, session.RoleInstructor); !d.Allow {
		if d.Redirect == nav.LoginPath {
			return errNotLoggedIn
		}
		return errPermissionDenied
	}

	ctx := context.Background()
	if err := cli.engine.Start(ctx, quizID); err != nil {
		return err
	}
	defer cli.engine.Close()

	att, _ := cli.engine.Attempt()
	fmt.Fprintf(cli.out, "Previewing %q - %d questions, pass at %.0f%%\n",
		att.Quiz.Title, len(att.Questions), att.Quiz.PassingScore)
	fmt.Fprintln(cli.out, "Commands: 1..N answer, n(ext), p(rev), s(ubmit), q(uit)")

	sc := bufio.NewScanner(cli.in)
	for cli.engine.State() == quiz.StateInProgress {
		cli.printQuestion()
		if !sc.Scan() {
			break
		}
		// the countdown may have auto-submitted while we waited for input
		if cli.engine.State() != quiz.StateInProgress {
			break
		}

		switch cmd := strings.TrimSpace(sc.Text()); cmd {
		case "n":
			cli.engine.Next()
		case "p":
			cli.engine.Prev()
		case "s":
			if _, err := cli.engine.Submit(ctx); err != nil && err != quiz.ErrNoAttempt {
				return err
			}
		case "q":
			fmt.Fprintln(cli.out, "Preview closed.")
			return nil
		default:
			if i, err := strconv.Atoi(cmd); err == nil {
				cli.answer(ctx, i)
			} else {
				fmt.Fprintf(cli.out, "unknown command %q\n", cmd)
			}
		}
	}

	if res, ok := cli.engine.Result(); ok {
		cli.printResult(res)
	}
	return nil
}

func (cli *commandLine) printQuestion() {
	q, ok := cli.engine.CurrentQuestion()
	if !ok {
		return
	}
	att, _ := cli.engine.Attempt()
	if rem := cli.engine.Remaining(); rem > 0 {
		fmt.Fprintf(cli.out, "\n[%d:%02d left]", rem/60, rem%60)
	}
	fmt.Fprintf(cli.out, "\nQ%d/%d (%d pts): %s\n", cli.engine.Current()+1, len(att.Questions), q.Points, q.Text)
	ans, _ := cli.engine.Answer(q.ID)
	for i, opt := range q.Answers {
		marker := " "
		if opt.ID == ans.SelectedAnswerID {
			marker = ">"
		}
		fmt.Fprintf(cli.out, " %s %d) %s\n", marker, i+1, opt.Text)
	}
	fmt.Fprint(cli.out, "> ")
}

func (cli *commandLine) answer(ctx context.Context, choice int) {
	q, ok := cli.engine.CurrentQuestion()
	if !ok || choice < 1 || choice > len(q.Answers) {
		fmt.Fprintln(cli.out, "no such option")
		return
	}
	if err := cli.engine.SubmitAnswer(ctx, q.ID, q.Answers[choice-1].ID); err != nil {
		// recoverable: the choice was not recorded, try again
		fmt.Fprintf(cli.out, "answer not recorded (%s); try again\n", err)
		return
	}
	cli.engine.Next()
}

func (cli *commandLine) printResult(res quiz.Result) {
	verdict := "FAILED"
	if res.IsPassed {
		verdict = "PASSED"
	}
	origin := "scored by server"
	if res.Local {
		origin = "scored locally (offline fallback)"
	}
	fmt.Fprintf(cli.out, "\n%s - %d pts (%.1f%%), %d correct / %d incorrect / %d unanswered [%s]\n",
		verdict, res.Score, res.Percentage, res.CorrectAnswers, res.IncorrectAnswers, res.UnansweredQuestions, origin)
}
