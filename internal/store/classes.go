package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/gabarito/internal/model"
)

const classColumns = `id, name, year, created_at`

// CreateClass inserts a class and sets its ID.
func (s *Store) CreateClass(ctx context.Context, c *model.Class) error {
	c.CreatedAt = now()
	id, err := s.insert(ctx,
		`INSERT INTO classes (name, year, created_at) VALUES (?, ?, ?)`,
		c.Name, c.Year, c.CreatedAt,
	)
	if err != nil {
		return classify("class", err)
	}
	c.ID = id
	slog.Info("created class", "id", id, "name", c.Name)
	return nil
}

// GetClass returns a class by ID.
func (s *Store) GetClass(ctx context.Context, id int64) (model.Class, error) {
	var c model.Class
	if err := s.get(ctx, &c, `SELECT `+classColumns+` FROM classes WHERE id = ?`, id); err != nil {
		return c, getErr("class", id, err)
	}
	return c, nil
}

// ListClasses returns all classes ordered by year and name.
func (s *Store) ListClasses(ctx context.Context) ([]model.Class, error) {
	classes := []model.Class{}
	if err := s.selectAll(ctx, &classes, `SELECT `+classColumns+` FROM classes ORDER BY year DESC, name`); err != nil {
		return nil, storageErr("list classes", err)
	}
	return classes, nil
}

// UpdateClass updates a class's name and year.
func (s *Store) UpdateClass(ctx context.Context, c model.Class) error {
	return s.execOne(ctx, "class", c.ID,
		`UPDATE classes SET name = ?, year = ? WHERE id = ?`, c.Name, c.Year, c.ID)
}

// DeleteClass removes a class. A class with students or exams cannot be
// deleted.
func (s *Store) DeleteClass(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *Store) error {
		if _, err := tx.GetClass(ctx, id); err != nil {
			return err
		}
		students, err := tx.count(ctx, `SELECT COUNT(*) FROM students WHERE class_id = ?`, id)
		if err != nil {
			return storageErr("count students", err)
		}
		exams, err := tx.count(ctx, `SELECT COUNT(*) FROM exams WHERE class_id = ?`, id)
		if err != nil {
			return storageErr("count exams", err)
		}
		if students > 0 || exams > 0 {
			return &model.ConflictError{
				Entity: "class",
				Detail: fmt.Sprintf("class %d still has %d students and %d exams", id, students, exams),
			}
		}
		if err := tx.execOne(ctx, "class", id, `DELETE FROM classes WHERE id = ?`, id); err != nil {
			return err
		}
		slog.Info("deleted class", "id", id)
		return nil
	})
}
