package handler

import (
	"net/http"

	"github.com/pavelanni/gabarito/internal/model"
)

// Answers are accepted as a compact string ("AB-C") or as the array a
// submission is returned with.
type createSubmissionRequest struct {
	StudentID int64         `json:"student_id" validate:"required,gt=0"`
	Answers   model.Answers `json:"answers" validate:"max=200"`
}

type updateSubmissionRequest struct {
	Answers model.Answers `json:"answers" validate:"max=200"`
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	examID, err := idParam(r, "examID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.store.GetExam(r.Context(), examID); err != nil {
		writeError(w, r, err)
		return
	}
	subs, err := h.store.ListSubmissions(r.Context(), examID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *Handler) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	examID, err := idParam(r, "examID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req createSubmissionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sub, err := h.submissions.Create(r.Context(), examID, req.StudentID, req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "submissionID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	sub, err := h.store.GetSubmission(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleUpdateSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "submissionID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateSubmissionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sub, err := h.submissions.Update(r.Context(), id, req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleDeleteSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "submissionID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteSubmission(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
