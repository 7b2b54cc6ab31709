package handler

import (
	"net/http"

	"github.com/gregsypek/devflow/internal/auth"
	"github.com/gregsypek/devflow/internal/service"
)

// VoteHandler exposes toggle-style voting.
type VoteHandler struct {
	votes *service.VoteService
}

func NewVoteHandler(votes *service.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// HandleCast casts, removes, or flips a vote.
//
// POST /api/votes
func (h *VoteHandler) HandleCast(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.CastInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	state, err := h.votes.Cast(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleGet returns the caller's current vote on a target.
//
// GET /api/votes?targetType=question&targetId=...
func (h *VoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()

	state, err := h.votes.Get(r.Context(), userID, q.Get("targetType"), q.Get("targetId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
