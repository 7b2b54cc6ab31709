package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gregsypek/devflow/internal/ai"
)

// AIHandler drafts answers with the configured generator. Drafts are
// returned to the client for review; nothing is stored.
type AIHandler struct {
	generator ai.Generator
	logger    *slog.Logger
}

func NewAIHandler(generator ai.Generator, logger *slog.Logger) *AIHandler {
	return &AIHandler{generator: generator, logger: logger}
}

// HandleDraft generates an answer draft for a question.
//
// POST /api/ai/answers
func (h *AIHandler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	var req ai.DraftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.QuestionTitle) == "" || strings.TrimSpace(req.QuestionContent) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "questionTitle and questionContent are required",
		})
		return
	}

	draft, err := h.generator.Draft(r.Context(), req)
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
				Error:   "ai_unavailable",
				Message: "answer drafting is not configured on this server",
			})
			return
		}
		h.logger.Error("answer drafting failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   "ai_error",
			Message: "the drafting service could not produce an answer",
		})
		return
	}

	writeJSON(w, http.StatusOK, draft)
}
