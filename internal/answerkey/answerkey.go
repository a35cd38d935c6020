// Package answerkey manages the answer key (gabarito) of an exam and triggers
// re-grading when a committed key changes.
package answerkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/gabarito/internal/grading"
	"github.com/pavelanni/gabarito/internal/model"
)

// Change is the outcome of a key mutation. Regrade is nil when no re-grade
// was needed.
type Change struct {
	Key     model.AnswerKey        `json:"key"`
	Regrade *grading.RegradeReport `json:"regrade,omitempty"`
}

// Manager owns answer keys.
type Manager struct {
	store  grading.Storage
	engine *grading.Engine
	now    func() time.Time
}

// New creates a Manager that re-grades through engine.
func New(s grading.Storage, engine *grading.Engine) *Manager {
	return &Manager{store: s, engine: engine, now: time.Now}
}

// Key returns the answer key of an exam.
func (m *Manager) Key(ctx context.Context, examID int64) (model.AnswerKey, error) {
	return m.store.GetAnswerKey(ctx, examID)
}

// CreateKey creates the key of an exam with questionCount void marks and sets
// the exam's question count to match.
func (m *Manager) CreateKey(ctx context.Context, examID int64, questionCount int) (model.AnswerKey, error) {
	if err := checkQuestionCount(questionCount); err != nil {
		return model.AnswerKey{}, err
	}

	var key model.AnswerKey
	err := grading.Atomically(ctx, m.store, func(s grading.Storage) error {
		exam, err := s.GetExam(ctx, examID)
		if err != nil {
			return err
		}
		_, err = s.GetAnswerKey(ctx, examID)
		if err == nil {
			return &model.ConflictError{
				Entity: "answer key",
				Detail: fmt.Sprintf("exam %d already has an answer key", examID),
			}
		}
		var nf *model.NotFoundError
		if !errors.As(err, &nf) {
			return err
		}

		key = model.AnswerKey{
			ExamID:    examID,
			Marks:     model.VoidMarks(questionCount),
			UpdatedAt: m.now(),
		}
		if err := s.SaveAnswerKey(ctx, &key); err != nil {
			return err
		}
		if exam.QuestionCount != questionCount {
			exam.QuestionCount = questionCount
			return s.SaveExam(ctx, &exam)
		}
		return nil
	})
	if err != nil {
		return model.AnswerKey{}, err
	}
	slog.Info("created answer key", "exam_id", examID, "key_id", key.ID, "questions", questionCount)
	return key, nil
}

// SetMark sets the mark at position. mark is one of A..E or N. When the exam
// or any of its submissions has already been graded every submission is
// re-graded.
func (m *Manager) SetMark(ctx context.Context, keyID int64, position int, mark string) (Change, error) {
	parsed, err := model.ParseKeyMark(mark)
	if err != nil {
		return Change{}, err
	}
	return m.mutate(ctx, keyID, false, func(marks model.KeyMarks) (model.KeyMarks, error) {
		if position < 0 || position >= len(marks) {
			return nil, &model.RangeError{Field: "position", Value: position, Min: 0, Max: len(marks)}
		}
		marks[position] = parsed
		return marks, nil
	})
}

// SetMarks replaces the whole key. marks must have one entry per question.
func (m *Manager) SetMarks(ctx context.Context, keyID int64, marks model.KeyMarks) (Change, error) {
	return m.mutate(ctx, keyID, false, func(cur model.KeyMarks) (model.KeyMarks, error) {
		if len(marks) != len(cur) {
			return nil, &model.RangeError{Field: "marks", Value: len(marks), Min: len(cur), Max: len(cur) + 1}
		}
		return append(model.KeyMarks(nil), marks...), nil
	})
}

// Resize truncates the key or pads it with void marks, updates the exam's
// question count and re-grades every submission. Stored answers past the new
// length are kept.
func (m *Manager) Resize(ctx context.Context, keyID int64, questionCount int) (Change, error) {
	if err := checkQuestionCount(questionCount); err != nil {
		return Change{}, err
	}
	return m.mutate(ctx, keyID, true, func(cur model.KeyMarks) (model.KeyMarks, error) {
		if questionCount <= len(cur) {
			return cur[:questionCount], nil
		}
		return append(cur, model.VoidMarks(questionCount-len(cur))...), nil
	})
}

// mutate applies edit to a copy of the key's marks, saves the key and the
// exam's question count, and re-grades when forced, when the exam is graded,
// or when a submission holds a result computed against an earlier key.
func (m *Manager) mutate(ctx context.Context, keyID int64, forceRegrade bool, edit func(model.KeyMarks) (model.KeyMarks, error)) (Change, error) {
	var change Change
	err := grading.Atomically(ctx, m.store, func(s grading.Storage) error {
		key, err := s.GetAnswerKeyByID(ctx, keyID)
		if err != nil {
			return err
		}
		exam, err := s.GetExam(ctx, key.ExamID)
		if err != nil {
			return err
		}

		marks, err := edit(append(model.KeyMarks(nil), key.Marks...))
		if err != nil {
			return err
		}
		key.Marks = marks
		key.UpdatedAt = m.now()
		if err := s.SaveAnswerKey(ctx, &key); err != nil {
			return err
		}
		if exam.QuestionCount != len(marks) {
			exam.QuestionCount = len(marks)
			if err := s.SaveExam(ctx, &exam); err != nil {
				return err
			}
		}
		change.Key = key

		if !forceRegrade && !exam.Graded {
			stale, err := hasGradedSubmissions(ctx, s, exam.ID)
			if err != nil || !stale {
				return err
			}
		}
		report, err := m.engine.Regrade(ctx, s, exam.ID)
		if err != nil {
			return err
		}
		change.Regrade = &report
		return nil
	})
	if err != nil {
		return Change{}, err
	}
	slog.Info("updated answer key", "exam_id", change.Key.ExamID, "key_id", keyID,
		"marks", change.Key.Marks.String(), "regraded", change.Regrade != nil)
	return change, nil
}

// hasGradedSubmissions reports whether any submission of the exam has been
// graded. A key with only void marks grades sheets without scoring them, so
// the exam can be ungraded while its submissions carry results.
func hasGradedSubmissions(ctx context.Context, s grading.Storage, examID int64) (bool, error) {
	subs, err := s.ListSubmissions(ctx, examID)
	if err != nil {
		return false, err
	}
	for _, sub := range subs {
		if sub.GradedAt != nil {
			return true, nil
		}
	}
	return false, nil
}

func checkQuestionCount(n int) error {
	if n < 1 || n > model.MaxQuestions {
		return &model.RangeError{Field: "question count", Value: n, Min: 1, Max: model.MaxQuestions + 1}
	}
	return nil
}
