// Package submission records answer sheets and grades them as soon as their
// exam has an answer key.
package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/pavelanni/gabarito/internal/grading"
	"github.com/pavelanni/gabarito/internal/model"
)

// Store is the persistence the service needs on top of grading.Storage.
type Store interface {
	grading.Storage
	CreateSubmission(ctx context.Context, sub *model.Submission) error
	UpdateSubmissionAnswers(ctx context.Context, id int64, answers model.Answers) error
}

// Service creates and updates submissions.
type Service struct {
	store  Store
	engine *grading.Engine
}

// New creates a Service that grades through engine.
func New(s Store, engine *grading.Engine) *Service {
	return &Service{store: s, engine: engine}
}

// Create stores a new answer sheet and grades it when the exam has a key.
// The sheet is stored only if grading succeeds.
func (s *Service) Create(ctx context.Context, examID, studentID int64, answers model.Answers) (model.Submission, error) {
	var created model.Submission
	err := s.atomically(ctx, func(st Store) error {
		sub := model.Submission{ExamID: examID, StudentID: studentID, Answers: answers}
		if err := st.CreateSubmission(ctx, &sub); err != nil {
			return err
		}
		var err error
		created, err = s.grade(ctx, st, sub)
		return err
	})
	if err != nil {
		return model.Submission{}, err
	}
	return created, nil
}

// Update replaces the answers of a submission and re-grades it when the exam
// has a key. Without a key the previous score is kept. The new answers are
// stored only if grading succeeds.
func (s *Service) Update(ctx context.Context, id int64, answers model.Answers) (model.Submission, error) {
	var updated model.Submission
	err := s.atomically(ctx, func(st Store) error {
		if err := st.UpdateSubmissionAnswers(ctx, id, answers); err != nil {
			return err
		}
		sub, err := st.GetSubmission(ctx, id)
		if err != nil {
			return err
		}
		updated, err = s.grade(ctx, st, sub)
		return err
	})
	if err != nil {
		return model.Submission{}, err
	}
	return updated, nil
}

// atomically runs fn in one transaction of the store when it has them.
func (s *Service) atomically(ctx context.Context, fn func(Store) error) error {
	return grading.Atomically(ctx, s.store, func(tx grading.Storage) error {
		st, ok := tx.(Store)
		if !ok {
			return fmt.Errorf("transaction storage %T cannot store submissions", tx)
		}
		return fn(st)
	})
}

func (s *Service) grade(ctx context.Context, st Store, sub model.Submission) (model.Submission, error) {
	_, err := st.GetAnswerKey(ctx, sub.ExamID)
	var nf *model.NotFoundError
	if errors.As(err, &nf) {
		return sub, nil
	}
	if err != nil {
		return model.Submission{}, err
	}
	return s.engine.GradeIn(ctx, st, sub.ID)
}
