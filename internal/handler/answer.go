package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gregsypek/devflow/internal/auth"
	"github.com/gregsypek/devflow/internal/service"
)

// AnswerHandler exposes answering and answer management.
type AnswerHandler struct {
	answers *service.AnswerService
}

func NewAnswerHandler(answers *service.AnswerService) *AnswerHandler {
	return &AnswerHandler{answers: answers}
}

// HandlePost answers a question.
//
// POST /api/questions/{id}/answers
func (h *AnswerHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.PostAnswerInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	answer, err := h.answers.Post(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, answer)
}

// HandleList returns a question's answers.
//
// GET /api/questions/{id}/answers?sort=highestUpvotes&limit=20&offset=0
func (h *AnswerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	answers, err := h.answers.ListByQuestion(r.Context(),
		chi.URLParam(r, "id"),
		q.Get("sort"),
		queryInt(q.Get("limit")),
		queryInt(q.Get("offset")),
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// HandleDelete removes an answer.
//
// DELETE /api/answers/{id}
func (h *AnswerHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.answers.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
