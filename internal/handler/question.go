package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gregsypek/devflow/internal/auth"
	"github.com/gregsypek/devflow/internal/service"
)

// QuestionHandler exposes question CRUD and browsing.
type QuestionHandler struct {
	questions *service.QuestionService
}

func NewQuestionHandler(questions *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questions: questions}
}

// HandleCreate posts a new question.
//
// POST /api/questions
func (h *QuestionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.AskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	question, err := h.questions.Ask(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

// HandleGet returns one question and counts the view.
//
// GET /api/questions/{id}
func (h *QuestionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	question, err := h.questions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// HandleList browses questions.
//
// GET /api/questions?sort=newest&search=...&tag=...&author=...&limit=20&offset=0
func (h *QuestionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	questions, err := h.questions.List(r.Context(), service.ListFilter{
		Sort:     q.Get("sort"),
		Search:   q.Get("search"),
		TagID:    q.Get("tag"),
		AuthorID: q.Get("author"),
		Limit:    queryInt(q.Get("limit")),
		Offset:   queryInt(q.Get("offset")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

// HandleUpdate edits a question's title and content.
//
// PUT /api/questions/{id}
func (h *QuestionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.EditInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	question, err := h.questions.Edit(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// HandleDelete removes a question.
//
// DELETE /api/questions/{id}
func (h *QuestionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.questions.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// queryInt parses a numeric query parameter, treating junk as zero so
// the services fall back to their defaults.
func queryInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
