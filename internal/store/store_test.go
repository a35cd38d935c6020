package store

import (
	"context"
	"errors"
	"testing"

	"github.com/pavelanni/gabarito/internal/grading"
	"github.com/pavelanni/gabarito/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestClass(t *testing.T, s *Store, name string) model.Class {
	t.Helper()
	c := model.Class{Name: name, Year: 2024}
	if err := s.CreateClass(context.Background(), &c); err != nil {
		t.Fatalf("insertTestClass: %v", err)
	}
	return c
}

func insertTestStudent(t *testing.T, s *Store, classID int64, name, enrollment string) model.Student {
	t.Helper()
	st := model.Student{ClassID: classID, Name: name, Enrollment: enrollment}
	if err := s.CreateStudent(context.Background(), &st); err != nil {
		t.Fatalf("insertTestStudent: %v", err)
	}
	return st
}

func insertTestExam(t *testing.T, s *Store, classID int64, questions int) model.Exam {
	t.Helper()
	e := model.Exam{ClassID: classID, Title: "Prova", Date: "2024-05-10", QuestionCount: questions}
	if err := s.CreateExam(context.Background(), &e); err != nil {
		t.Fatalf("insertTestExam: %v", err)
	}
	return e
}

func insertTestSubmission(t *testing.T, s *Store, examID, studentID int64, answers string) model.Submission {
	t.Helper()
	sub := model.Submission{ExamID: examID, StudentID: studentID, Answers: model.ParseAnswers(answers)}
	if err := s.CreateSubmission(context.Background(), &sub); err != nil {
		t.Fatalf("insertTestSubmission: %v", err)
	}
	return sub
}

func isNotFound(err error) bool {
	var nf *model.NotFoundError
	return errors.As(err, &nf)
}

func isConflict(err error) bool {
	var ce *model.ConflictError
	return errors.As(err, &ce)
}

func TestClassCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	list, err := s.ListClasses(ctx)
	if err != nil {
		t.Fatalf("ListClasses: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}

	c := insertTestClass(t, s, "3A")
	got, err := s.GetClass(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetClass: %v", err)
	}
	if got.Name != "3A" || got.Year != 2024 {
		t.Errorf("unexpected class %+v", got)
	}

	got.Name = "3B"
	if err := s.UpdateClass(ctx, got); err != nil {
		t.Fatalf("UpdateClass: %v", err)
	}
	got, _ = s.GetClass(ctx, c.ID)
	if got.Name != "3B" {
		t.Errorf("expected name 3B, got %q", got.Name)
	}

	if _, err := s.GetClass(ctx, 9999); !isNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
	if err := s.UpdateClass(ctx, model.Class{ID: 9999, Name: "x"}); !isNotFound(err) {
		t.Errorf("expected NotFoundError on update, got %v", err)
	}

	if err := s.DeleteClass(ctx, c.ID); err != nil {
		t.Fatalf("DeleteClass: %v", err)
	}
	if _, err := s.GetClass(ctx, c.ID); !isNotFound(err) {
		t.Errorf("expected class to be gone, got %v", err)
	}
}

func TestDeleteClassWithStudents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestClass(t, s, "3A")
	st := insertTestStudent(t, s, c.ID, "Ana", "2024001")

	if err := s.DeleteClass(ctx, c.ID); !isConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	if err := s.DeleteStudent(ctx, st.ID); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}
	if err := s.DeleteClass(ctx, c.ID); err != nil {
		t.Fatalf("DeleteClass after removing students: %v", err)
	}
}

func TestStudentConstraints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestClass(t, s, "3A")
	insertTestStudent(t, s, c.ID, "Ana", "2024001")

	dup := model.Student{ClassID: c.ID, Name: "Outra Ana", Enrollment: "2024001"}
	if err := s.CreateStudent(ctx, &dup); !isConflict(err) {
		t.Errorf("expected ConflictError for duplicate enrollment, got %v", err)
	}

	orphan := model.Student{ClassID: 9999, Name: "Bruno", Enrollment: "2024002"}
	if err := s.CreateStudent(ctx, &orphan); !isNotFound(err) {
		t.Errorf("expected NotFoundError for missing class, got %v", err)
	}

	insertTestStudent(t, s, c.ID, "Bruno", "2024002")
	students, err := s.ListStudents(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListStudents: %v", err)
	}
	if len(students) != 2 || students[0].Name != "Ana" {
		t.Errorf("unexpected students %+v", students)
	}

	byEnrollment, err := s.GetStudentByEnrollment(ctx, "2024002")
	if err != nil {
		t.Fatalf("GetStudentByEnrollment: %v", err)
	}
	if byEnrollment.Name != "Bruno" {
		t.Errorf("expected Bruno, got %q", byEnrollment.Name)
	}
}

func TestDeleteStudentWithSubmission(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestClass(t, s, "3A")
	st := insertTestStudent(t, s, c.ID, "Ana", "2024001")
	e := insertTestExam(t, s, c.ID, 2)
	insertTestSubmission(t, s, e.ID, st.ID, "AB")

	if err := s.DeleteStudent(ctx, st.ID); !isConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestMoveStudentWithSubmission(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := insertTestClass(t, s, "3A")
	b := insertTestClass(t, s, "3B")
	st := insertTestStudent(t, s, a.ID, "Ana", "2024001")
	free := insertTestStudent(t, s, a.ID, "Bia", "2024002")
	e := insertTestExam(t, s, a.ID, 2)
	insertTestSubmission(t, s, e.ID, st.ID, "AB")

	moved := st
	moved.ClassID = b.ID
	if err := s.UpdateStudent(ctx, moved); !isConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	got, err := s.GetStudent(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetStudent: %v", err)
	}
	if got.ClassID != a.ID {
		t.Errorf("expected class %d, got %d", a.ID, got.ClassID)
	}

	renamed := st
	renamed.Name = "Ana Maria"
	if err := s.UpdateStudent(ctx, renamed); err != nil {
		t.Fatalf("rename with submissions: %v", err)
	}

	free.ClassID = b.ID
	if err := s.UpdateStudent(ctx, free); err != nil {
		t.Fatalf("move without submissions: %v", err)
	}
}

func TestAnswerKeyUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestClass(t, s, "3A")
	e := insertTestExam(t, s, c.ID, 3)

	key := model.AnswerKey{ExamID: e.ID, Marks: model.VoidMarks(3)}
	if err := s.SaveAnswerKey(ctx, &key); err != nil {
		t.Fatalf("SaveAnswerKey: %v", err)
	}
	if key.ID == 0 {
		t.Fatal("expected key ID to be set")
	}

	second := model.AnswerKey{ExamID: e.ID, Marks: model.VoidMarks(3)}
	if err := s.SaveAnswerKey(ctx, &second); !isConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	key.Marks[1] = model.KeyChoice(model.ChoiceC)
	if err := s.SaveAnswerKey(ctx, &key); err != nil {
		t.Fatalf("SaveAnswerKey update: %v", err)
	}
	got, err := s.GetAnswerKey(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetAnswerKey: %v", err)
	}
	if got.Marks.String() != "NCN" {
		t.Errorf("expected marks NCN, got %q", got.Marks.String())
	}
	byID, err := s.GetAnswerKeyByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAnswerKeyByID: %v", err)
	}
	if byID.ExamID != e.ID {
		t.Errorf("expected exam %d, got %d", e.ID, byID.ExamID)
	}

	if _, err := s.GetAnswerKey(ctx, 9999); !isNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestSubmissionConstraints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestClass(t, s, "3A")
	other := insertTestClass(t, s, "3B")
	ana := insertTestStudent(t, s, c.ID, "Ana", "2024001")
	bia := insertTestStudent(t, s, other.ID, "Bia", "2024002")
	e := insertTestExam(t, s, c.ID, 3)

	sub := insertTestSubmission(t, s, e.ID, ana.ID, "A-C")
	got, err := s.GetSubmission(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if got.Answers.String() != "A-C" {
		t.Errorf("expected answers A-C, got %q", got.Answers.String())
	}
	if got.Score != nil || got.GradedAt != nil {
		t.Errorf("expected ungraded submission, got %+v", got)
	}

	tests := []struct {
		name  string
		sub   model.Submission
		check func(error) bool
	}{
		{"duplicate pair", model.Submission{ExamID: e.ID, StudentID: ana.ID}, isConflict},
		{"student from other class", model.Submission{ExamID: e.ID, StudentID: bia.ID}, isConflict},
		{"missing exam", model.Submission{ExamID: 9999, StudentID: ana.ID}, isNotFound},
		{"missing student", model.Submission{ExamID: e.ID, StudentID: 9999}, isNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := tt.sub
			if err := s.CreateSubmission(ctx, &sub); !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}

	if err := s.UpdateSubmissionAnswers(ctx, sub.ID, model.ParseAnswers("ABCDE")); err != nil {
		t.Fatalf("UpdateSubmissionAnswers: %v", err)
	}
	got, _ = s.GetSubmission(ctx, sub.ID)
	if got.Answers.String() != "ABCDE" {
		t.Errorf("expected answers ABCDE, got %q", got.Answers.String())
	}
}

func TestSaveSubmissionsStoresScores(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestClass(t, s, "3A")
	st := insertTestStudent(t, s, c.ID, "Ana", "2024001")
	e := insertTestExam(t, s, c.ID, 2)
	sub := insertTestSubmission(t, s, e.ID, st.ID, "AB")

	score := 0.5
	sub.ApplyResult(model.ScoreResult{Score: &score, Correct: 1, Gradable: 2}, now())
	if err := s.SaveSubmissions(ctx, []model.Submission{sub}); err != nil {
		t.Fatalf("SaveSubmissions: %v", err)
	}

	got, err := s.GetSubmission(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubmission: %v", err)
	}
	if got.Score == nil || *got.Score != 0.5 {
		t.Errorf("expected score 0.5, got %v", got.Score)
	}
	if got.Correct != 1 || got.Gradable != 2 {
		t.Errorf("unexpected counts %d/%d", got.Correct, got.Gradable)
	}
	if got.GradedAt == nil {
		t.Error("expected graded_at to be set")
	}

	// Ungradable results store NULL and the reason.
	sub = got
	sub.ApplyResult(model.ScoreResult{Reason: model.ReasonNoScorableQuestions}, now())
	if err := s.SaveSubmissions(ctx, []model.Submission{sub}); err != nil {
		t.Fatalf("SaveSubmissions: %v", err)
	}
	got, _ = s.GetSubmission(ctx, sub.ID)
	if got.Score != nil {
		t.Errorf("expected NULL score, got %v", *got.Score)
	}
	if got.Reason != model.ReasonNoScorableQuestions {
		t.Errorf("expected reason, got %q", got.Reason)
	}
}

func TestSaveSubmissionsIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestClass(t, s, "3A")
	st := insertTestStudent(t, s, c.ID, "Ana", "2024001")
	e := insertTestExam(t, s, c.ID, 2)
	sub := insertTestSubmission(t, s, e.ID, st.ID, "AB")

	score := 1.0
	sub.ApplyResult(model.ScoreResult{Score: &score, Correct: 2, Gradable: 2}, now())
	missing := model.Submission{ID: 9999, ExamID: e.ID, StudentID: st.ID}

	err := s.SaveSubmissions(ctx, []model.Submission{sub, missing})
	if !isNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	got, _ := s.GetSubmission(ctx, sub.ID)
	if got.Score != nil {
		t.Error("first submission should have been rolled back")
	}
}

func TestDeleteExamCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestClass(t, s, "3A")
	st := insertTestStudent(t, s, c.ID, "Ana", "2024001")
	e := insertTestExam(t, s, c.ID, 2)
	key := model.AnswerKey{ExamID: e.ID, Marks: model.VoidMarks(2)}
	if err := s.SaveAnswerKey(ctx, &key); err != nil {
		t.Fatalf("SaveAnswerKey: %v", err)
	}
	sub := insertTestSubmission(t, s, e.ID, st.ID, "AB")

	if err := s.DeleteExam(ctx, e.ID); err != nil {
		t.Fatalf("DeleteExam: %v", err)
	}
	if _, err := s.GetExam(ctx, e.ID); !isNotFound(err) {
		t.Errorf("exam should be gone, got %v", err)
	}
	if _, err := s.GetAnswerKey(ctx, e.ID); !isNotFound(err) {
		t.Errorf("key should be gone, got %v", err)
	}
	if _, err := s.GetSubmission(ctx, sub.ID); !isNotFound(err) {
		t.Errorf("submission should be gone, got %v", err)
	}

	// With the exam gone the student and class can be removed.
	if err := s.DeleteStudent(ctx, st.ID); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}
	if err := s.DeleteClass(ctx, c.ID); err != nil {
		t.Fatalf("DeleteClass: %v", err)
	}

	if err := s.DeleteExam(ctx, e.ID); !isNotFound(err) {
		t.Errorf("expected NotFoundError deleting twice, got %v", err)
	}
}

func TestListExamsFiltered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := insertTestClass(t, s, "3A")
	b := insertTestClass(t, s, "3B")
	insertTestExam(t, s, a.ID, 5)
	insertTestExam(t, s, a.ID, 5)
	insertTestExam(t, s, b.ID, 5)

	tests := []struct {
		name    string
		classID int64
		want    int
	}{
		{"all", 0, 3},
		{"class a", a.ID, 2},
		{"class b", b.ID, 1},
		{"no match", 9999, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exams, err := s.ListExams(ctx, tt.classID)
			if err != nil {
				t.Fatalf("ListExams: %v", err)
			}
			if len(exams) != tt.want {
				t.Errorf("expected %d exams, got %d", tt.want, len(exams))
			}
		})
	}
}

func TestInTxRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestClass(t, s, "3A")
	e := insertTestExam(t, s, c.ID, 2)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx grading.Storage) error {
		exam, err := tx.GetExam(ctx, e.ID)
		if err != nil {
			return err
		}
		exam.Graded = true
		if err := tx.SaveExam(ctx, &exam); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, _ := s.GetExam(ctx, e.ID)
	if got.Graded {
		t.Error("graded flag should have been rolled back")
	}
}

func TestExportExam(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	c := insertTestClass(t, s, "3A")
	ana := insertTestStudent(t, s, c.ID, "Ana", "2024001")
	bia := insertTestStudent(t, s, c.ID, "Bia", "2024002")
	e := insertTestExam(t, s, c.ID, 2)
	insertTestSubmission(t, s, e.ID, ana.ID, "AB")
	insertTestSubmission(t, s, e.ID, bia.ID, "A")

	export, err := s.ExportExam(ctx, e.ID)
	if err != nil {
		t.Fatalf("ExportExam without key: %v", err)
	}
	if export.Key != nil {
		t.Errorf("expected no key, got %v", export.Key)
	}
	if len(export.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(export.Results))
	}
	if export.Results[0].Name != "Ana" || export.Class != "3A" {
		t.Errorf("unexpected export %+v", export)
	}
	second := export.Results[1]
	if second.StudentID != bia.ID || second.Enrollment != "2024002" || second.Answers.String() != "A" {
		t.Errorf("unexpected result %+v", second)
	}
	if second.Score != nil || second.GradedAt != nil {
		t.Errorf("expected ungraded result, got %+v", second)
	}

	empty := insertTestExam(t, s, c.ID, 1)
	export, err = s.ExportExam(ctx, empty.ID)
	if err != nil {
		t.Fatalf("ExportExam empty: %v", err)
	}
	if export.Results == nil || len(export.Results) != 0 {
		t.Errorf("expected empty results, got %#v", export.Results)
	}

	key := model.AnswerKey{ExamID: e.ID, Marks: model.KeyMarks{model.KeyChoice(model.ChoiceA), model.Void}}
	if err := s.SaveAnswerKey(ctx, &key); err != nil {
		t.Fatalf("SaveAnswerKey: %v", err)
	}
	export, err = s.ExportExam(ctx, e.ID)
	if err != nil {
		t.Fatalf("ExportExam: %v", err)
	}
	if export.Key.String() != "AN" {
		t.Errorf("expected key AN, got %q", export.Key.String())
	}
}

func TestUsersAndSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, model.User{
		Username: "prof", DisplayName: "Prof", PasswordHash: "x", Role: model.UserRoleTeacher, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.CreateUser(ctx, model.User{Username: "prof", PasswordHash: "y"}); !isConflict(err) {
		t.Errorf("expected ConflictError for duplicate username, got %v", err)
	}

	u, err := s.GetUserByUsername(ctx, "prof")
	if err != nil || u == nil {
		t.Fatalf("GetUserByUsername: %v %v", u, err)
	}
	if u.ID != id || !u.Active || u.Role != model.UserRoleTeacher {
		t.Errorf("unexpected user %+v", u)
	}
	if u, _ := s.GetUserByUsername(ctx, "nobody"); u != nil {
		t.Errorf("expected nil user, got %+v", u)
	}

	if err := s.ToggleUserActive(ctx, id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, _ = s.GetUserByID(ctx, id)
	if u.Active {
		t.Error("expected user to be inactive")
	}

	token, err := s.CreateAuthSession(ctx, id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	sess, err := s.GetAuthSession(ctx, token)
	if err != nil || sess == nil {
		t.Fatalf("GetAuthSession: %v %v", sess, err)
	}
	if sess.UserID != id {
		t.Errorf("expected user %d, got %d", id, sess.UserID)
	}
	if err := s.DeleteAuthSession(ctx, token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	if sess, _ := s.GetAuthSession(ctx, token); sess != nil {
		t.Error("expected session to be deleted")
	}

	n, err := s.UserCount(ctx)
	if err != nil || n != 1 {
		t.Errorf("UserCount = %d, %v", n, err)
	}
}

func TestImportedFileHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	h, err := s.GetImportedFileHash(ctx, "roster.json")
	if err != nil || h != "" {
		t.Fatalf("expected empty hash, got %q %v", h, err)
	}
	if err := s.SetImportedFileHash(ctx, "roster.json", "abc"); err != nil {
		t.Fatalf("SetImportedFileHash: %v", err)
	}
	if err := s.SetImportedFileHash(ctx, "roster.json", "def"); err != nil {
		t.Fatalf("SetImportedFileHash overwrite: %v", err)
	}
	h, _ = s.GetImportedFileHash(ctx, "roster.json")
	if h != "def" {
		t.Errorf("expected def, got %q", h)
	}
}
