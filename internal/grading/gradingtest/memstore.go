// Package gradingtest provides an in-memory grading.Storage for tests.
package gradingtest

import (
	"context"
	"sort"

	"github.com/pavelanni/gabarito/internal/model"
)

// MemStore keeps exams, keys and submissions in maps. Values are copied on
// the way in and out so callers cannot alias stored slices.
type MemStore struct {
	Exams       map[int64]model.Exam
	Keys        map[int64]model.AnswerKey // by key ID
	Submissions map[int64]model.Submission

	// FailSaveSubmissions, when set, is returned by SaveSubmissions before
	// anything is written.
	FailSaveSubmissions error

	nextID int64
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		Exams:       map[int64]model.Exam{},
		Keys:        map[int64]model.AnswerKey{},
		Submissions: map[int64]model.Submission{},
	}
}

func (m *MemStore) id() int64 {
	m.nextID++
	return m.nextID
}

// AddExam stores e with a fresh ID and returns it.
func (m *MemStore) AddExam(e model.Exam) model.Exam {
	e.ID = m.id()
	m.Exams[e.ID] = e
	return e
}

// AddSubmission stores sub with a fresh ID and returns it.
func (m *MemStore) AddSubmission(sub model.Submission) model.Submission {
	sub.ID = m.id()
	sub.Answers = append(model.Answers(nil), sub.Answers...)
	m.Submissions[sub.ID] = sub
	return sub
}

func (m *MemStore) GetExam(_ context.Context, id int64) (model.Exam, error) {
	e, ok := m.Exams[id]
	if !ok {
		return model.Exam{}, &model.NotFoundError{Entity: "exam", ID: id}
	}
	return e, nil
}

func (m *MemStore) SaveExam(_ context.Context, e *model.Exam) error {
	if e.ID == 0 {
		e.ID = m.id()
	}
	m.Exams[e.ID] = *e
	return nil
}

func (m *MemStore) GetAnswerKey(_ context.Context, examID int64) (model.AnswerKey, error) {
	for _, k := range m.Keys {
		if k.ExamID == examID {
			return copyKey(k), nil
		}
	}
	return model.AnswerKey{}, &model.NotFoundError{Entity: "answer key for exam", ID: examID}
}

func (m *MemStore) GetAnswerKeyByID(_ context.Context, keyID int64) (model.AnswerKey, error) {
	k, ok := m.Keys[keyID]
	if !ok {
		return model.AnswerKey{}, &model.NotFoundError{Entity: "answer key", ID: keyID}
	}
	return copyKey(k), nil
}

func (m *MemStore) SaveAnswerKey(_ context.Context, k *model.AnswerKey) error {
	if k.ID == 0 {
		k.ID = m.id()
	}
	m.Keys[k.ID] = copyKey(*k)
	return nil
}

func (m *MemStore) GetSubmission(_ context.Context, id int64) (model.Submission, error) {
	sub, ok := m.Submissions[id]
	if !ok {
		return model.Submission{}, &model.NotFoundError{Entity: "submission", ID: id}
	}
	return sub, nil
}

func (m *MemStore) ListSubmissions(_ context.Context, examID int64) ([]model.Submission, error) {
	var subs []model.Submission
	for _, sub := range m.Submissions {
		if sub.ExamID == examID {
			subs = append(subs, sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}

func (m *MemStore) SaveSubmissions(_ context.Context, batch []model.Submission) error {
	if m.FailSaveSubmissions != nil {
		return m.FailSaveSubmissions
	}
	for _, sub := range batch {
		if sub.ID == 0 {
			sub.ID = m.id()
		}
		sub.Answers = append(model.Answers(nil), sub.Answers...)
		m.Submissions[sub.ID] = sub
	}
	return nil
}

func copyKey(k model.AnswerKey) model.AnswerKey {
	k.Marks = append(model.KeyMarks(nil), k.Marks...)
	return k
}
