package handler

import (
	"net/http"

	"github.com/pavelanni/gabarito/internal/model"
)

type classRequest struct {
	Name string `json:"name" validate:"notblank,max=120"`
	Year int    `json:"year" validate:"min=0,max=9999"`
}

func (h *Handler) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.store.ListClasses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (h *Handler) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req classRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c := model.Class{Name: req.Name, Year: req.Year}
	if err := h.store.CreateClass(r.Context(), &c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGetClass(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "classID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.store.GetClass(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "classID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req classRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.store.GetClass(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c.Name, c.Year = req.Name, req.Year
	if err := h.store.UpdateClass(r.Context(), c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "classID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.DeleteClass(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
