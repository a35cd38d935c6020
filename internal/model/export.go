package model

import "time"

// ExamExport is the top-level JSON structure for exam result export.
type ExamExport struct {
	ExamID       int64           `json:"exam_id"`
	Class        string          `json:"class"`
	Title        string          `json:"title"`
	Date         string          `json:"date"`
	NumQuestions int             `json:"num_questions"`
	Key          KeyMarks        `json:"key"`
	Graded       bool            `json:"graded"`
	ExportedAt   time.Time       `json:"exported_at"`
	Results      []StudentResult `json:"results"`
}

// StudentResult holds one student's submission data for export.
type StudentResult struct {
	StudentID  int64       `db:"student_id" json:"student_id"`
	Name       string      `db:"student_name" json:"student_name"`
	Enrollment string      `db:"enrollment" json:"enrollment"`
	Answers    Answers     `db:"answers" json:"answers"`
	Score      *float64    `db:"score" json:"score"`
	Correct    int         `db:"correct" json:"correct"`
	Gradable   int         `db:"gradable" json:"gradable"`
	Reason     ScoreReason `db:"reason" json:"reason,omitempty"`
	GradedAt   *time.Time  `db:"graded_at" json:"graded_at,omitempty"`
}

// RosterImport is the JSON document loaded by the import command.
type RosterImport struct {
	Classes []ClassImport `json:"classes" validate:"dive"`
}

// ClassImport describes one class with its students and exams.
type ClassImport struct {
	Name     string          `json:"name" validate:"notblank,max=120"`
	Year     int             `json:"year" validate:"min=0"`
	Students []StudentImport `json:"students" validate:"dive"`
	Exams    []ExamImport    `json:"exams" validate:"dive"`
}

// StudentImport describes a student inside a ClassImport.
type StudentImport struct {
	Name       string `json:"name" validate:"required,max=120"`
	Enrollment string `json:"enrollment" validate:"required,max=40"`
}

// ExamImport describes an exam with its key and answer sheets. Answers are
// keyed by student enrollment and use the compact form ("AB-C").
type ExamImport struct {
	Title   string            `json:"title" validate:"required,max=200"`
	Date    string            `json:"date" validate:"required,datetime=2006-01-02"`
	Key     string            `json:"key" validate:"required,max=200,marks"`
	Answers map[string]string `json:"answers" validate:"dive,keys,required,endkeys,max=200,answers"`
}
