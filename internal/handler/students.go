package handler

import (
	"net/http"

	"github.com/pavelanni/gabarito/internal/model"
)

type studentRequest struct {
	ClassID    int64  `json:"class_id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"notblank,max=120"`
	Enrollment string `json:"enrollment" validate:"notblank,max=40"`
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	classID, err := classFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	students, err := h.store.ListStudents(r.Context(), classID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *Handler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st := model.Student{ClassID: req.ClassID, Name: req.Name, Enrollment: req.Enrollment}
	if err := h.store.CreateStudent(r.Context(), &st); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *Handler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "studentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.store.GetStudent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "studentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req studentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.store.GetStudent(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	st.ClassID, st.Name, st.Enrollment = req.ClassID, req.Name, req.Enrollment
	if err := h.store.UpdateStudent(r.Context(), st); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "studentID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteStudent(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
