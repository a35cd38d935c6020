package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/gabarito/internal/model"
)

const studentColumns = `id, class_id, name, enrollment, created_at`

// CreateStudent inserts a student into an existing class and sets its ID.
func (s *Store) CreateStudent(ctx context.Context, st *model.Student) error {
	return s.withTx(ctx, func(tx *Store) error {
		if _, err := tx.GetClass(ctx, st.ClassID); err != nil {
			return err
		}
		st.CreatedAt = now()
		id, err := tx.insert(ctx,
			`INSERT INTO students (class_id, name, enrollment, created_at) VALUES (?, ?, ?, ?)`,
			st.ClassID, st.Name, st.Enrollment, st.CreatedAt,
		)
		if err != nil {
			return classify("student", err)
		}
		st.ID = id
		slog.Info("created student", "id", id, "class_id", st.ClassID, "enrollment", st.Enrollment)
		return nil
	})
}

// GetStudent returns a student by ID.
func (s *Store) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	var st model.Student
	if err := s.get(ctx, &st, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id); err != nil {
		return st, getErr("student", id, err)
	}
	return st, nil
}

// GetStudentByEnrollment returns a student by enrollment code.
func (s *Store) GetStudentByEnrollment(ctx context.Context, enrollment string) (model.Student, error) {
	var st model.Student
	if err := s.get(ctx, &st, `SELECT `+studentColumns+` FROM students WHERE enrollment = ?`, enrollment); err != nil {
		return st, getErr("student", enrollment, err)
	}
	return st, nil
}

// ListStudents returns students ordered by name. classID 0 lists every class.
func (s *Store) ListStudents(ctx context.Context, classID int64) ([]model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students`
	var args []any
	if classID != 0 {
		query += ` WHERE class_id = ?`
		args = append(args, classID)
	}
	query += ` ORDER BY name, id`

	students := []model.Student{}
	if err := s.selectAll(ctx, &students, query, args...); err != nil {
		return nil, storageErr("list students", err)
	}
	return students, nil
}

// UpdateStudent updates a student's class, name and enrollment. A student
// with submissions cannot change class.
func (s *Store) UpdateStudent(ctx context.Context, st model.Student) error {
	return s.withTx(ctx, func(tx *Store) error {
		cur, err := tx.GetStudent(ctx, st.ID)
		if err != nil {
			return err
		}
		if _, err := tx.GetClass(ctx, st.ClassID); err != nil {
			return err
		}
		if cur.ClassID != st.ClassID {
			n, err := tx.count(ctx, `SELECT COUNT(*) FROM submissions WHERE student_id = ?`, st.ID)
			if err != nil {
				return storageErr("count submissions", err)
			}
			if n > 0 {
				return &model.ConflictError{
					Entity: "student",
					Detail: fmt.Sprintf("student %d has %d submissions in class %d", st.ID, n, cur.ClassID),
				}
			}
		}
		return tx.execOne(ctx, "student", st.ID,
			`UPDATE students SET class_id = ?, name = ?, enrollment = ? WHERE id = ?`,
			st.ClassID, st.Name, st.Enrollment, st.ID)
	})
}

// DeleteStudent removes a student that has no submissions.
func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *Store) error {
		if _, err := tx.GetStudent(ctx, id); err != nil {
			return err
		}
		n, err := tx.count(ctx, `SELECT COUNT(*) FROM submissions WHERE student_id = ?`, id)
		if err != nil {
			return storageErr("count submissions", err)
		}
		if n > 0 {
			return &model.ConflictError{
				Entity: "student",
				Detail: fmt.Sprintf("student %d still has %d submissions", id, n),
			}
		}
		if err := tx.execOne(ctx, "student", id, `DELETE FROM students WHERE id = ?`, id); err != nil {
			return err
		}
		slog.Info("deleted student", "id", id)
		return nil
	})
}
