package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/gabarito/internal/answerkey"
	"github.com/pavelanni/gabarito/internal/grading"
	appI18n "github.com/pavelanni/gabarito/internal/i18n"
	"github.com/pavelanni/gabarito/internal/model"
	"github.com/pavelanni/gabarito/internal/store"
	"github.com/pavelanni/gabarito/internal/submission"
	"github.com/pavelanni/gabarito/internal/validate"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store       *store.Store
	engine      *grading.Engine
	keys        *answerkey.Manager
	submissions *submission.Service
	config      model.ServerConfig
}

// New creates a new Handler.
func New(s *store.Store, engine *grading.Engine, keys *answerkey.Manager, subs *submission.Service, cfg model.ServerConfig) (*Handler, error) {
	return &Handler{store: s, engine: engine, keys: keys, submissions: subs, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Use(h.csrfMiddleware)

		r.Get("/me", h.handleMe)

		r.Route("/classes", func(r chi.Router) {
			r.Get("/", h.handleListClasses)
			r.Post("/", h.handleCreateClass)
			r.Get("/{classID}", h.handleGetClass)
			r.Put("/{classID}", h.handleUpdateClass)
			r.Delete("/{classID}", h.handleDeleteClass)
		})

		r.Route("/students", func(r chi.Router) {
			r.Get("/", h.handleListStudents)
			r.Post("/", h.handleCreateStudent)
			r.Get("/{studentID}", h.handleGetStudent)
			r.Put("/{studentID}", h.handleUpdateStudent)
			r.Delete("/{studentID}", h.handleDeleteStudent)
		})

		r.Route("/exams", func(r chi.Router) {
			r.Get("/", h.handleListExams)
			r.Post("/", h.handleCreateExam)
			r.Route("/{examID}", func(r chi.Router) {
				r.Get("/", h.handleGetExam)
				r.Put("/", h.handleUpdateExam)
				r.Delete("/", h.handleDeleteExam)

				r.Get("/key", h.handleGetKey)
				r.Post("/key", h.handleCreateKey)
				r.Put("/key", h.handleSetMarks)
				r.Put("/key/marks/{position}", h.handleSetMark)
				r.Post("/key/resize", h.handleResizeKey)

				r.Post("/regrade", h.handleRegrade)
				r.Get("/results", h.handleResults)

				r.Get("/submissions", h.handleListSubmissions)
				r.Post("/submissions", h.handleCreateSubmission)
			})
		})

		r.Route("/submissions/{submissionID}", func(r chi.Router) {
			r.Get("/", h.handleGetSubmission)
			r.Put("/", h.handleUpdateSubmission)
			r.Delete("/", h.handleDeleteSubmission)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/teachers", h.handleListTeachers)
			r.Post("/teachers", h.handleCreateTeacher)
			r.Post("/teachers/{userID}/toggle", h.handleToggleUserActive)
		})
	})
}

// BasePathMiddleware stores the configured base path in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cookiePath scopes cookies to the base path of the request.
func cookiePath(r *http.Request) string {
	if bp := model.BasePathFromContext(r.Context()); bp != "" {
		return bp + "/"
	}
	return "/"
}

type errorResponse struct {
	Error  string            `json:"error"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeMessage sends an error response whose text is the translation of msgID.
func writeMessage(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	writeJSON(w, status, errorResponse{Error: appI18n.T(r.Context(), msgID)})
}

// writeError maps err onto an HTTP status and a localized message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	var (
		nf  *model.NotFoundError
		ce  *model.ConflictError
		im  *model.InvalidMarkError
		re  *model.RangeError
		bad *badRequestError
	)
	switch {
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error:  appI18n.Td(ctx, "ErrNotFound", map[string]any{"Entity": nf.Entity}),
			Detail: err.Error(),
		})
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, errorResponse{Error: appI18n.T(ctx, "ErrConflict"), Detail: err.Error()})
	case errors.As(err, &im):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  appI18n.Td(ctx, "ErrInvalidMark", map[string]any{"Value": im.Value}),
			Detail: err.Error(),
		})
	case errors.As(err, &re):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  appI18n.Td(ctx, "ErrOutOfRange", map[string]any{"Field": re.Field, "Min": re.Min, "Max": re.Max - 1}),
			Detail: err.Error(),
		})
	case errors.As(err, &bad):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: appI18n.T(ctx, "ErrBadRequest"), Detail: bad.Error()})
	case validate.Fields(err) != nil:
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  appI18n.T(ctx, "ErrValidation"),
			Fields: validate.Fields(err),
		})
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeMessage(w, r, http.StatusInternalServerError, "ErrInternal")
	}
}

// badRequestError reports a malformed request: unreadable JSON or a bad path
// parameter.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var im *model.InvalidMarkError
		if errors.As(err, &im) {
			return err
		}
		return &badRequestError{msg: "invalid JSON: " + err.Error()}
	}
	return validate.Struct(v)
}

// idParam parses a positive integer path parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &badRequestError{msg: "invalid " + name + ": " + raw}
	}
	return id, nil
}

// classFilter reads the optional class_id query parameter; 0 means all.
func classFilter(r *http.Request) (int64, error) {
	raw := r.URL.Query().Get("class_id")
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &badRequestError{msg: "invalid class_id: " + raw}
	}
	return id, nil
}
