// Package roster loads classes, students, exams, answer keys and answer
// sheets from a JSON document into the store.
package roster

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/pavelanni/gabarito/internal/answerkey"
	"github.com/pavelanni/gabarito/internal/model"
	"github.com/pavelanni/gabarito/internal/store"
	"github.com/pavelanni/gabarito/internal/submission"
	"github.com/pavelanni/gabarito/internal/validate"
)

// Summary counts what an import created or changed.
type Summary struct {
	Skipped            bool `json:"skipped"`
	ClassesCreated     int  `json:"classes_created"`
	StudentsCreated    int  `json:"students_created"`
	ExamsCreated       int  `json:"exams_created"`
	KeysWritten        int  `json:"keys_written"`
	SubmissionsCreated int  `json:"submissions_created"`
	SubmissionsUpdated int  `json:"submissions_updated"`
}

// Importer writes roster documents. Importing the same document twice leaves
// the store unchanged: classes match by name and year, students by enrollment,
// exams by title and date within their class.
type Importer struct {
	store       *store.Store
	keys        *answerkey.Manager
	submissions *submission.Service
}

// New creates an Importer.
func New(s *store.Store, keys *answerkey.Manager, subs *submission.Service) *Importer {
	return &Importer{store: s, keys: keys, submissions: subs}
}

// ImportFile imports the roster at path unless the same content was already
// imported from that path.
func (im *Importer) ImportFile(ctx context.Context, path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("read %s: %w", path, err)
	}

	hash := sha256sum(data)
	storedHash, err := im.store.GetImportedFileHash(ctx, path)
	if err != nil {
		return Summary{}, fmt.Errorf("check import status for %s: %w", path, err)
	}
	if storedHash == hash {
		slog.Info("roster file unchanged, skipping", "path", path)
		return Summary{Skipped: true}, nil
	}

	var doc model.RosterImport
	if err := json.Unmarshal(data, &doc); err != nil {
		return Summary{}, fmt.Errorf("parse %s: %w", path, err)
	}

	sum, err := im.Import(ctx, doc)
	if err != nil {
		return sum, fmt.Errorf("import %s: %w", path, err)
	}
	if err := im.store.SetImportedFileHash(ctx, path, hash); err != nil {
		return sum, fmt.Errorf("record import for %s: %w", path, err)
	}
	slog.Info("imported roster", "path", path,
		"classes", sum.ClassesCreated, "students", sum.StudentsCreated, "exams", sum.ExamsCreated,
		"submissions", sum.SubmissionsCreated+sum.SubmissionsUpdated)
	return sum, nil
}

// Import validates doc and writes it to the store.
func (im *Importer) Import(ctx context.Context, doc model.RosterImport) (Summary, error) {
	var sum Summary
	if err := validate.Struct(doc); err != nil {
		return sum, err
	}
	for _, ci := range doc.Classes {
		if err := im.importClass(ctx, ci, &sum); err != nil {
			return sum, fmt.Errorf("class %q: %w", ci.Name, err)
		}
	}
	return sum, nil
}

func (im *Importer) importClass(ctx context.Context, ci model.ClassImport, sum *Summary) error {
	class, created, err := im.findOrCreateClass(ctx, ci)
	if err != nil {
		return err
	}
	if created {
		sum.ClassesCreated++
	}

	enrolled := make(map[string]int64, len(ci.Students))
	for _, si := range ci.Students {
		st, created, err := im.findOrCreateStudent(ctx, class.ID, si)
		if err != nil {
			return fmt.Errorf("student %q: %w", si.Enrollment, err)
		}
		if created {
			sum.StudentsCreated++
		}
		enrolled[st.Enrollment] = st.ID
	}

	for _, ei := range ci.Exams {
		if err := im.importExam(ctx, class.ID, ei, enrolled, sum); err != nil {
			return fmt.Errorf("exam %q: %w", ei.Title, err)
		}
	}
	return nil
}

func (im *Importer) findOrCreateClass(ctx context.Context, ci model.ClassImport) (model.Class, bool, error) {
	classes, err := im.store.ListClasses(ctx)
	if err != nil {
		return model.Class{}, false, err
	}
	for _, c := range classes {
		if c.Name == ci.Name && c.Year == ci.Year {
			return c, false, nil
		}
	}
	c := model.Class{Name: ci.Name, Year: ci.Year}
	if err := im.store.CreateClass(ctx, &c); err != nil {
		return model.Class{}, false, err
	}
	return c, true, nil
}

func (im *Importer) findOrCreateStudent(ctx context.Context, classID int64, si model.StudentImport) (model.Student, bool, error) {
	st, err := im.store.GetStudentByEnrollment(ctx, si.Enrollment)
	if err == nil {
		if st.ClassID != classID {
			return model.Student{}, false, &model.ConflictError{
				Entity: "student",
				Detail: fmt.Sprintf("enrollment %s belongs to class %d", si.Enrollment, st.ClassID),
			}
		}
		return st, false, nil
	}
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		return model.Student{}, false, err
	}
	st = model.Student{ClassID: classID, Name: si.Name, Enrollment: si.Enrollment}
	if err := im.store.CreateStudent(ctx, &st); err != nil {
		return model.Student{}, false, err
	}
	return st, true, nil
}

func (im *Importer) importExam(ctx context.Context, classID int64, ei model.ExamImport, enrolled map[string]int64, sum *Summary) error {
	marks, err := model.ParseKeyMarks(ei.Key)
	if err != nil {
		return err
	}

	exam, created, err := im.findOrCreateExam(ctx, classID, ei, len(marks))
	if err != nil {
		return err
	}
	if created {
		sum.ExamsCreated++
	}

	written, err := im.writeKey(ctx, exam.ID, marks)
	if err != nil {
		return err
	}
	if written {
		sum.KeysWritten++
	}

	subs, err := im.store.ListSubmissions(ctx, exam.ID)
	if err != nil {
		return err
	}
	byStudent := make(map[int64]model.Submission, len(subs))
	for _, sub := range subs {
		byStudent[sub.StudentID] = sub
	}

	// Sheets are stored in enrollment order so IDs repeat across imports.
	for _, enrollment := range slices.Sorted(maps.Keys(ei.Answers)) {
		compact := ei.Answers[enrollment]
		studentID, ok := enrolled[enrollment]
		if !ok {
			return &model.NotFoundError{Entity: "student in class", ID: enrollment}
		}
		answers := model.ParseAnswers(compact)
		existing, ok := byStudent[studentID]
		switch {
		case !ok:
			if _, err := im.submissions.Create(ctx, exam.ID, studentID, answers); err != nil {
				return fmt.Errorf("submission for %s: %w", enrollment, err)
			}
			sum.SubmissionsCreated++
		case existing.Answers.String() != answers.String():
			if _, err := im.submissions.Update(ctx, existing.ID, answers); err != nil {
				return fmt.Errorf("submission for %s: %w", enrollment, err)
			}
			sum.SubmissionsUpdated++
		}
	}
	return nil
}

func (im *Importer) findOrCreateExam(ctx context.Context, classID int64, ei model.ExamImport, questions int) (model.Exam, bool, error) {
	exams, err := im.store.ListExams(ctx, classID)
	if err != nil {
		return model.Exam{}, false, err
	}
	for _, e := range exams {
		if e.Title == ei.Title && e.Date == ei.Date {
			return e, false, nil
		}
	}
	e := model.Exam{ClassID: classID, Title: ei.Title, Date: ei.Date, QuestionCount: questions}
	if err := im.store.CreateExam(ctx, &e); err != nil {
		return model.Exam{}, false, err
	}
	return e, true, nil
}

// writeKey makes the exam's key equal to marks, creating or resizing it as
// needed. It reports whether anything changed.
func (im *Importer) writeKey(ctx context.Context, examID int64, marks model.KeyMarks) (bool, error) {
	key, err := im.keys.Key(ctx, examID)
	var nf *model.NotFoundError
	switch {
	case errors.As(err, &nf):
		key, err = im.keys.CreateKey(ctx, examID, len(marks))
		if err != nil {
			return false, err
		}
	case err != nil:
		return false, err
	case key.Marks.String() == marks.String():
		return false, nil
	}

	if len(key.Marks) != len(marks) {
		if _, err := im.keys.Resize(ctx, key.ID, len(marks)); err != nil {
			return false, err
		}
	}
	if _, err := im.keys.SetMarks(ctx, key.ID, marks); err != nil {
		return false, err
	}
	return true, nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
