package store

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/pavelanni/gabarito/internal/model"
)

// ExportExam builds the result sheet of an exam: its key and every
// student's stored answers and score.
func (s *Store) ExportExam(ctx context.Context, examID int64) (model.ExamExport, error) {
	exam, err := s.GetExam(ctx, examID)
	if err != nil {
		return model.ExamExport{}, err
	}
	class, err := s.GetClass(ctx, exam.ClassID)
	if err != nil {
		return model.ExamExport{}, fmt.Errorf("get class %d: %w", exam.ClassID, err)
	}

	export := model.ExamExport{
		ExamID:       exam.ID,
		Class:        class.Name,
		Title:        exam.Title,
		Date:         exam.Date,
		NumQuestions: exam.QuestionCount,
		Graded:       exam.Graded,
		ExportedAt:   now(),
		Results:      []model.StudentResult{},
	}

	key, err := s.GetAnswerKey(ctx, examID)
	var nf *model.NotFoundError
	switch {
	case err == nil:
		export.Key = key.Marks
	case !errors.As(err, &nf):
		return model.ExamExport{}, err
	}

	err = s.selectAll(ctx, &export.Results,
		`SELECT st.id AS student_id, st.name AS student_name, st.enrollment,
			sub.answers, sub.score, sub.correct, sub.gradable, sub.reason, sub.graded_at
		 FROM submissions sub
		 JOIN students st ON st.id = sub.student_id
		 WHERE sub.exam_id = ?
		 ORDER BY sub.id`, examID)
	if err != nil {
		return model.ExamExport{}, storageErr("list results", err)
	}

	return export, nil
}
