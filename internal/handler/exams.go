package handler

import (
	"net/http"

	appI18n "github.com/pavelanni/gabarito/internal/i18n"
	"github.com/pavelanni/gabarito/internal/model"
)

type createExamRequest struct {
	ClassID       int64  `json:"class_id" validate:"required,gt=0"`
	Title         string `json:"title" validate:"notblank,max=200"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	QuestionCount int    `json:"question_count" validate:"min=0,max=200"`
}

type updateExamRequest struct {
	Title string `json:"title" validate:"notblank,max=200"`
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
}

// resultsResponse is the exported result sheet with localized summaries.
type resultsResponse struct {
	model.ExamExport
	Summary string `json:"summary"`
	Note    string `json:"note,omitempty"`
}

func (h *Handler) handleListExams(w http.ResponseWriter, r *http.Request) {
	classID, err := classFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	exams, err := h.store.ListExams(r.Context(), classID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exams)
}

func (h *Handler) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var req createExamRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e := model.Exam{ClassID: req.ClassID, Title: req.Title, Date: req.Date, QuestionCount: req.QuestionCount}
	if err := h.store.CreateExam(r.Context(), &e); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) handleGetExam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "examID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.store.GetExam(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) handleUpdateExam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "examID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateExamRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := h.store.GetExam(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e.Title, e.Date = req.Title, req.Date
	if err := h.store.SaveExam(r.Context(), &e); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "examID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteExam(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRegrade(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "examID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.engine.RegradeExam(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "examID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	export, err := h.store.ExportExam(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	graded := 0
	for _, res := range export.Results {
		if res.Score != nil {
			graded++
		}
	}
	resp := resultsResponse{
		ExamExport: export,
		Summary:    appI18n.Tp(r.Context(), "SubmissionsGraded", graded),
	}
	switch {
	case export.Key == nil:
		resp.Note = appI18n.T(r.Context(), "NoAnswerKey")
	case !hasScorable(export.Key):
		resp.Note = appI18n.T(r.Context(), "NoScorableQuestions")
	}
	writeJSON(w, http.StatusOK, resp)
}

func hasScorable(marks model.KeyMarks) bool {
	for _, m := range marks {
		if !m.IsVoid() {
			return true
		}
	}
	return false
}
