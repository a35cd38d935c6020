package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/gabarito/internal/model"
)

const submissionColumns = `id, exam_id, student_id, answers, score, correct, gradable, reason,
	graded_at, created_at, updated_at`

// CreateSubmission stores a new answer sheet. The exam and the student must
// exist, the student must belong to the exam's class, and the pair must not
// have a submission yet.
func (s *Store) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	return s.withTx(ctx, func(tx *Store) error {
		exam, err := tx.GetExam(ctx, sub.ExamID)
		if err != nil {
			return err
		}
		st, err := tx.GetStudent(ctx, sub.StudentID)
		if err != nil {
			return err
		}
		if st.ClassID != exam.ClassID {
			return &model.ConflictError{
				Entity: "submission",
				Detail: fmt.Sprintf("student %d is not in class %d", st.ID, exam.ClassID),
			}
		}
		n, err := tx.count(ctx,
			`SELECT COUNT(*) FROM submissions WHERE exam_id = ? AND student_id = ?`, sub.ExamID, sub.StudentID)
		if err != nil {
			return storageErr("count submissions", err)
		}
		if n > 0 {
			return &model.ConflictError{
				Entity: "submission",
				Detail: fmt.Sprintf("student %d already has a submission for exam %d", sub.StudentID, sub.ExamID),
			}
		}
		return tx.insertSubmission(ctx, sub)
	})
}

func (s *Store) insertSubmission(ctx context.Context, sub *model.Submission) error {
	ts := now()
	sub.CreatedAt, sub.UpdatedAt = ts, ts
	id, err := s.insert(ctx,
		`INSERT INTO submissions (exam_id, student_id, answers, score, correct, gradable, reason,
			graded_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ExamID, sub.StudentID, sub.Answers, sub.Score, sub.Correct, sub.Gradable, sub.Reason,
		sub.GradedAt, sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return classify("submission", err)
	}
	sub.ID = id
	slog.Info("created submission", "id", id, "exam_id", sub.ExamID, "student_id", sub.StudentID)
	return nil
}

// GetSubmission returns a submission by ID.
func (s *Store) GetSubmission(ctx context.Context, id int64) (model.Submission, error) {
	var sub model.Submission
	if err := s.get(ctx, &sub, `SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id); err != nil {
		return sub, getErr("submission", id, err)
	}
	return sub, nil
}

// ListSubmissions returns the submissions of an exam ordered by ID.
func (s *Store) ListSubmissions(ctx context.Context, examID int64) ([]model.Submission, error) {
	subs := []model.Submission{}
	err := s.selectAll(ctx, &subs,
		`SELECT `+submissionColumns+` FROM submissions WHERE exam_id = ? ORDER BY id`, examID)
	if err != nil {
		return nil, storageErr("list submissions", err)
	}
	return subs, nil
}

// UpdateSubmissionAnswers replaces the answers of a submission. The stored
// score is left as is until the submission is graded again.
func (s *Store) UpdateSubmissionAnswers(ctx context.Context, id int64, answers model.Answers) error {
	return s.execOne(ctx, "submission", id,
		`UPDATE submissions SET answers = ?, updated_at = ? WHERE id = ?`, answers, now(), id)
}

// SaveSubmissions writes answers and scores of every submission in batch in
// one transaction. Submissions without an ID are inserted.
func (s *Store) SaveSubmissions(ctx context.Context, batch []model.Submission) error {
	return s.withTx(ctx, func(tx *Store) error {
		for i := range batch {
			sub := &batch[i]
			if sub.ID == 0 {
				if err := tx.insertSubmission(ctx, sub); err != nil {
					return err
				}
				continue
			}
			sub.UpdatedAt = now()
			err := tx.execOne(ctx, "submission", sub.ID,
				`UPDATE submissions SET answers = ?, score = ?, correct = ?, gradable = ?, reason = ?,
					graded_at = ?, updated_at = ?
				 WHERE id = ?`,
				sub.Answers, sub.Score, sub.Correct, sub.Gradable, sub.Reason,
				sub.GradedAt, sub.UpdatedAt, sub.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteSubmission removes a submission.
func (s *Store) DeleteSubmission(ctx context.Context, id int64) error {
	if err := s.execOne(ctx, "submission", id, `DELETE FROM submissions WHERE id = ?`, id); err != nil {
		return err
	}
	slog.Info("deleted submission", "id", id)
	return nil
}
