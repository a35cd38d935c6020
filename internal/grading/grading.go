// Package grading scores answer sheets against an exam's answer key and
// re-grades stored submissions when the key changes.
package grading

import (
	"github.com/pavelanni/gabarito/internal/model"
)

// Grade scores sub against key. It never fails.
func Grade(key model.AnswerKey, sub model.Submission) model.ScoreResult {
	return Score(key.Marks, sub.Answers)
}

// Score compares answers against marks position by position. Void marks
// count toward neither correct nor gradable; blank answers and positions past
// the end of answers are incorrect. When no position is gradable the result
// has a nil Score and ReasonNoScorableQuestions.
func Score(marks model.KeyMarks, answers model.Answers) model.ScoreResult {
	var res model.ScoreResult
	for i, mark := range marks {
		want, ok := mark.Choice()
		if !ok {
			continue
		}
		res.Gradable++
		if i >= len(answers) {
			continue
		}
		if got, answered := answers[i].Choice(); answered && got == want {
			res.Correct++
		}
	}

	if res.Gradable == 0 {
		res.Reason = model.ReasonNoScorableQuestions
		return res
	}
	score := float64(res.Correct) / float64(res.Gradable)
	res.Score = &score
	return res
}
