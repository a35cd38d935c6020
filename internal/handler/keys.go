package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/gabarito/internal/answerkey"
	"github.com/pavelanni/gabarito/internal/model"
)

type questionCountRequest struct {
	QuestionCount int `json:"question_count"`
}

// marksRequest takes the marks as a compact string ("ABN") or as the array
// the key is returned with.
type marksRequest struct {
	Marks model.KeyMarks `json:"marks" validate:"min=1,max=200"`
}

type markRequest struct {
	Mark string `json:"mark"`
}

// keyOf resolves the answer key of the exam in the URL.
func (h *Handler) keyOf(r *http.Request) (model.AnswerKey, error) {
	examID, err := idParam(r, "examID")
	if err != nil {
		return model.AnswerKey{}, err
	}
	return h.keys.Key(r.Context(), examID)
}

func (h *Handler) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.keyOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (h *Handler) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	examID, err := idParam(r, "examID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req questionCountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	key, err := h.keys.CreateKey(r.Context(), examID, req.QuestionCount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, key)
}

func (h *Handler) handleSetMarks(w http.ResponseWriter, r *http.Request) {
	var req marksRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.mutateKey(w, r, func(m *answerkey.Manager, keyID int64) (answerkey.Change, error) {
		return m.SetMarks(r.Context(), keyID, req.Marks)
	})
}

func (h *Handler) handleSetMark(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "position")
	position, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, &badRequestError{msg: "invalid position: " + raw})
		return
	}
	var req markRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.mutateKey(w, r, func(m *answerkey.Manager, keyID int64) (answerkey.Change, error) {
		return m.SetMark(r.Context(), keyID, position, req.Mark)
	})
}

func (h *Handler) handleResizeKey(w http.ResponseWriter, r *http.Request) {
	var req questionCountRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.mutateKey(w, r, func(m *answerkey.Manager, keyID int64) (answerkey.Change, error) {
		return m.Resize(r.Context(), keyID, req.QuestionCount)
	})
}

func (h *Handler) mutateKey(w http.ResponseWriter, r *http.Request, fn func(*answerkey.Manager, int64) (answerkey.Change, error)) {
	key, err := h.keyOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	change, err := fn(h.keys, key.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}
