package model

import (
	"context"
	"time"
)

// MaxQuestions bounds the length of an answer sheet.
const MaxQuestions = 200

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleTeacher is a teacher user role.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin is an admin user role.
	UserRoleAdmin UserRole = "admin"
)

// User represents a teacher or administrator account.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

// Class is a group of students that sit the same exams.
type Class struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Year      int       `db:"year" json:"year"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Student belongs to exactly one class.
type Student struct {
	ID         int64     `db:"id" json:"id"`
	ClassID    int64     `db:"class_id" json:"class_id"`
	Name       string    `db:"name" json:"name"`
	Enrollment string    `db:"enrollment" json:"enrollment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Exam is a multiple-choice test given to a class.
type Exam struct {
	ID            int64     `db:"id" json:"id"`
	ClassID       int64     `db:"class_id" json:"class_id"`
	Title         string    `db:"title" json:"title"`
	Date          string    `db:"date" json:"date"` // YYYY-MM-DD
	QuestionCount int       `db:"question_count" json:"question_count"`
	Graded        bool      `db:"graded" json:"graded"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// AnswerKey is the expected mark for every question of an exam.
type AnswerKey struct {
	ID        int64     `db:"id" json:"id"`
	ExamID    int64     `db:"exam_id" json:"exam_id"`
	Marks     KeyMarks  `db:"marks" json:"marks"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Submission is one student's answer sheet for one exam together with the
// result of its last grading.
type Submission struct {
	ID        int64       `db:"id" json:"id"`
	ExamID    int64       `db:"exam_id" json:"exam_id"`
	StudentID int64       `db:"student_id" json:"student_id"`
	Answers   Answers     `db:"answers" json:"answers"`
	Score     *float64    `db:"score" json:"score"`
	Correct   int         `db:"correct" json:"correct"`
	Gradable  int         `db:"gradable" json:"gradable"`
	Reason    ScoreReason `db:"reason" json:"reason,omitempty"`
	GradedAt  *time.Time  `db:"graded_at" json:"graded_at,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// Result returns the stored outcome of the last grading.
func (s Submission) Result() ScoreResult {
	return ScoreResult{Score: s.Score, Gradable: s.Gradable, Correct: s.Correct, Reason: s.Reason}
}

// ApplyResult records r as the submission's current score.
func (s *Submission) ApplyResult(r ScoreResult, at time.Time) {
	s.Score = r.Score
	s.Correct = r.Correct
	s.Gradable = r.Gradable
	s.Reason = r.Reason
	s.GradedAt = &at
}

// ScoreReason explains a result without a score.
type ScoreReason string

// ReasonNoScorableQuestions is reported when every key mark is void.
const ReasonNoScorableQuestions ScoreReason = "no-scorable-questions"

// ScoreResult is the outcome of grading one submission.
type ScoreResult struct {
	Score    *float64    `json:"score"` // correct/gradable in [0,1], nil when ungradable
	Gradable int         `json:"gradable"`
	Correct  int         `json:"correct"`
	Reason   ScoreReason `json:"reason,omitempty"`
}

// ServerConfig holds runtime HTTP parameters set via CLI flags.
type ServerConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/escola")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
}
