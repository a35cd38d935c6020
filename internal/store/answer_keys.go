package store

import (
	"context"

	"github.com/pavelanni/gabarito/internal/model"
)

const answerKeyColumns = `id, exam_id, marks, updated_at`

// GetAnswerKey returns the answer key of an exam.
func (s *Store) GetAnswerKey(ctx context.Context, examID int64) (model.AnswerKey, error) {
	var k model.AnswerKey
	if err := s.get(ctx, &k, `SELECT `+answerKeyColumns+` FROM answer_keys WHERE exam_id = ?`, examID); err != nil {
		return k, getErr("answer key for exam", examID, err)
	}
	return k, nil
}

// GetAnswerKeyByID returns an answer key by its own ID.
func (s *Store) GetAnswerKeyByID(ctx context.Context, keyID int64) (model.AnswerKey, error) {
	var k model.AnswerKey
	if err := s.get(ctx, &k, `SELECT `+answerKeyColumns+` FROM answer_keys WHERE id = ?`, keyID); err != nil {
		return k, getErr("answer key", keyID, err)
	}
	return k, nil
}

// SaveAnswerKey inserts k when it has no ID and updates its marks otherwise.
// A second key for the same exam is a ConflictError.
func (s *Store) SaveAnswerKey(ctx context.Context, k *model.AnswerKey) error {
	if k.UpdatedAt.IsZero() {
		k.UpdatedAt = now()
	}
	if k.ID != 0 {
		return s.execOne(ctx, "answer key", k.ID,
			`UPDATE answer_keys SET marks = ?, updated_at = ? WHERE id = ?`, k.Marks, k.UpdatedAt, k.ID)
	}
	id, err := s.insert(ctx,
		`INSERT INTO answer_keys (exam_id, marks, updated_at) VALUES (?, ?, ?)`,
		k.ExamID, k.Marks, k.UpdatedAt,
	)
	if err != nil {
		return classify("answer key", err)
	}
	k.ID = id
	return nil
}
