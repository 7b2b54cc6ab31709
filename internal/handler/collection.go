package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gregsypek/devflow/internal/auth"
	"github.com/gregsypek/devflow/internal/service"
)

// CollectionHandler exposes saved-question bookmarks.
type CollectionHandler struct {
	collections *service.CollectionService
}

func NewCollectionHandler(collections *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

// HandleToggle saves or unsaves a question for the caller.
//
// POST /api/collections/{questionID}
func (h *CollectionHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	saved, err := h.collections.Toggle(r.Context(), userID, chi.URLParam(r, "questionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": saved})
}

// HandleList returns the caller's saved questions.
//
// GET /api/collections?limit=20&offset=0
func (h *CollectionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()

	items, err := h.collections.List(r.Context(), userID, queryInt(q.Get("limit")), queryInt(q.Get("offset")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
