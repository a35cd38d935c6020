package store

import (
	"context"
	"log/slog"

	"github.com/pavelanni/gabarito/internal/model"
)

const examColumns = `id, class_id, title, date, question_count, graded, created_at`

// CreateExam inserts an exam for an existing class and sets its ID.
func (s *Store) CreateExam(ctx context.Context, e *model.Exam) error {
	return s.withTx(ctx, func(tx *Store) error {
		if _, err := tx.GetClass(ctx, e.ClassID); err != nil {
			return err
		}
		e.CreatedAt = now()
		id, err := tx.insert(ctx,
			`INSERT INTO exams (class_id, title, date, question_count, graded, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.ClassID, e.Title, e.Date, e.QuestionCount, e.Graded, e.CreatedAt,
		)
		if err != nil {
			return classify("exam", err)
		}
		e.ID = id
		slog.Info("created exam", "id", id, "class_id", e.ClassID, "title", e.Title)
		return nil
	})
}

// GetExam returns an exam by ID.
func (s *Store) GetExam(ctx context.Context, id int64) (model.Exam, error) {
	var e model.Exam
	if err := s.get(ctx, &e, `SELECT `+examColumns+` FROM exams WHERE id = ?`, id); err != nil {
		return e, getErr("exam", id, err)
	}
	return e, nil
}

// ListExams returns exams newest first. classID 0 lists every class.
func (s *Store) ListExams(ctx context.Context, classID int64) ([]model.Exam, error) {
	query := `SELECT ` + examColumns + ` FROM exams`
	var args []any
	if classID != 0 {
		query += ` WHERE class_id = ?`
		args = append(args, classID)
	}
	query += ` ORDER BY date DESC, id DESC`

	exams := []model.Exam{}
	if err := s.selectAll(ctx, &exams, query, args...); err != nil {
		return nil, storageErr("list exams", err)
	}
	return exams, nil
}

// SaveExam inserts e when it has no ID and updates it otherwise.
func (s *Store) SaveExam(ctx context.Context, e *model.Exam) error {
	if e.ID == 0 {
		return s.CreateExam(ctx, e)
	}
	return s.execOne(ctx, "exam", e.ID,
		`UPDATE exams SET title = ?, date = ?, question_count = ?, graded = ? WHERE id = ?`,
		e.Title, e.Date, e.QuestionCount, e.Graded, e.ID)
}

// DeleteExam removes an exam together with its answer key and submissions.
func (s *Store) DeleteExam(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *Store) error {
		if _, err := tx.GetExam(ctx, id); err != nil {
			return err
		}
		res, err := tx.exec(ctx, `DELETE FROM submissions WHERE exam_id = ?`, id)
		if err != nil {
			return storageErr("delete submissions", err)
		}
		subs, _ := res.RowsAffected()
		if _, err := tx.exec(ctx, `DELETE FROM answer_keys WHERE exam_id = ?`, id); err != nil {
			return storageErr("delete answer key", err)
		}
		if err := tx.execOne(ctx, "exam", id, `DELETE FROM exams WHERE id = ?`, id); err != nil {
			return err
		}
		slog.Info("deleted exam", "id", id, "submissions", subs)
		return nil
	})
}
