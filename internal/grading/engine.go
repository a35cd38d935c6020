package grading

import (
	"context"
	"log/slog"
	"time"

	"github.com/pavelanni/gabarito/internal/model"
)

// Storage is the persistence the engine and the answer key manager read from
// and write to. Implementations report missing rows with *model.NotFoundError;
// the engine returns storage errors unchanged.
type Storage interface {
	GetExam(ctx context.Context, id int64) (model.Exam, error)
	SaveExam(ctx context.Context, exam *model.Exam) error
	GetAnswerKey(ctx context.Context, examID int64) (model.AnswerKey, error)
	GetAnswerKeyByID(ctx context.Context, keyID int64) (model.AnswerKey, error)
	SaveAnswerKey(ctx context.Context, key *model.AnswerKey) error
	GetSubmission(ctx context.Context, id int64) (model.Submission, error)
	ListSubmissions(ctx context.Context, examID int64) ([]model.Submission, error)
	// SaveSubmissions writes every submission of batch or none of them.
	SaveSubmissions(ctx context.Context, batch []model.Submission) error
}

// Transactor is implemented by storage that can run fn as one unit of work.
// fn receives a Storage bound to the transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(Storage) error) error
}

// Atomically runs fn inside a transaction when s supports it.
func Atomically(ctx context.Context, s Storage, fn func(Storage) error) error {
	if tx, ok := s.(Transactor); ok {
		return tx.InTx(ctx, fn)
	}
	return fn(s)
}

// RegradeReport summarizes a full re-grade of an exam.
type RegradeReport struct {
	ExamID      int64              `json:"exam_id"`
	Graded      bool               `json:"graded"`
	Submissions []model.Submission `json:"submissions"`
}

// Engine persists grading results.
type Engine struct {
	store Storage
	now   func() time.Time
}

// NewEngine creates an Engine on top of s.
func NewEngine(s Storage) *Engine {
	return &Engine{store: s, now: time.Now}
}

// GradeSubmission grades one stored submission against its exam's key and
// saves the result. Other submissions of the exam are not touched.
func (e *Engine) GradeSubmission(ctx context.Context, submissionID int64) (model.Submission, error) {
	var graded model.Submission
	err := Atomically(ctx, e.store, func(s Storage) error {
		var err error
		graded, err = e.GradeIn(ctx, s, submissionID)
		return err
	})
	if err != nil {
		return model.Submission{}, err
	}
	return graded, nil
}

// GradeIn is GradeSubmission against an explicit storage, so callers already
// inside a transaction can include the grading in it.
func (e *Engine) GradeIn(ctx context.Context, s Storage, submissionID int64) (model.Submission, error) {
	sub, err := s.GetSubmission(ctx, submissionID)
	if err != nil {
		return model.Submission{}, err
	}
	exam, err := s.GetExam(ctx, sub.ExamID)
	if err != nil {
		return model.Submission{}, err
	}
	key, err := s.GetAnswerKey(ctx, sub.ExamID)
	if err != nil {
		return model.Submission{}, err
	}

	res := Grade(key, sub)
	sub.ApplyResult(res, e.now())
	if err := s.SaveSubmissions(ctx, []model.Submission{sub}); err != nil {
		return model.Submission{}, err
	}
	if err := markGraded(ctx, s, &exam, res.Score != nil); err != nil {
		return model.Submission{}, err
	}
	slog.Debug("graded submission", "submission_id", sub.ID, "exam_id", sub.ExamID,
		"correct", sub.Correct, "gradable", sub.Gradable)
	return sub, nil
}

// RegradeExam recomputes every submission of an exam against its current
// key and commits the new scores together.
func (e *Engine) RegradeExam(ctx context.Context, examID int64) (RegradeReport, error) {
	var report RegradeReport
	err := Atomically(ctx, e.store, func(s Storage) error {
		var err error
		report, err = e.Regrade(ctx, s, examID)
		return err
	})
	return report, err
}

// Regrade is RegradeExam against an explicit storage, so callers already
// inside a transaction can include the re-grade in it.
func (e *Engine) Regrade(ctx context.Context, s Storage, examID int64) (RegradeReport, error) {
	exam, err := s.GetExam(ctx, examID)
	if err != nil {
		return RegradeReport{}, err
	}
	key, err := s.GetAnswerKey(ctx, examID)
	if err != nil {
		return RegradeReport{}, err
	}
	if len(key.Marks) != exam.QuestionCount {
		slog.Warn("answer key length differs from question count",
			"exam_id", examID, "marks", len(key.Marks), "question_count", exam.QuestionCount)
	}
	subs, err := s.ListSubmissions(ctx, examID)
	if err != nil {
		return RegradeReport{}, err
	}

	now := e.now()
	staged := make([]model.Submission, len(subs))
	scored := false
	for i, sub := range subs {
		res := Grade(key, sub)
		sub.ApplyResult(res, now)
		staged[i] = sub
		scored = scored || res.Score != nil
	}

	if len(staged) > 0 {
		if err := s.SaveSubmissions(ctx, staged); err != nil {
			return RegradeReport{}, err
		}
	}
	if err := markGraded(ctx, s, &exam, scored); err != nil {
		return RegradeReport{}, err
	}

	slog.Info("regraded exam", "exam_id", examID, "submissions", len(staged), "graded", exam.Graded)
	return RegradeReport{ExamID: examID, Graded: exam.Graded, Submissions: staged}, nil
}

// markGraded flips the exam's graded flag the first time a score exists.
func markGraded(ctx context.Context, s Storage, exam *model.Exam, scored bool) error {
	if !scored || exam.Graded {
		return nil
	}
	exam.Graded = true
	return s.SaveExam(ctx, exam)
}
