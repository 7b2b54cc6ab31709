package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gregsypek/devflow/internal/model"
	"github.com/gregsypek/devflow/internal/service"
)

// TagHandler exposes the tag directory.
type TagHandler struct {
	tags      *service.TagService
	questions *service.QuestionService
}

func NewTagHandler(tags *service.TagService, questions *service.QuestionService) *TagHandler {
	return &TagHandler{tags: tags, questions: questions}
}

// HandleList browses tags.
//
// GET /api/tags?sort=popular&search=...&limit=20&offset=0
func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tags, err := h.tags.List(r.Context(), service.TagListFilter{
		Sort:   q.Get("sort"),
		Search: q.Get("search"),
		Limit:  queryInt(q.Get("limit")),
		Offset: queryInt(q.Get("offset")),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// tagDetail is the tag page payload: the tag plus its questions.
type tagDetail struct {
	Tag       *model.Tag       `json:"tag"`
	Questions []model.Question `json:"questions"`
}

// HandleGet returns one tag with its questions.
//
// GET /api/tags/{id}?sort=newest&limit=20&offset=0
func (h *TagHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tag, err := h.tags.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	questions, err := h.questions.List(r.Context(), service.ListFilter{
		Sort:   q.Get("sort"),
		TagID:  tag.ID,
		Limit:  queryInt(q.Get("limit")),
		Offset: queryInt(q.Get("offset")),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tagDetail{Tag: tag, Questions: questions})
}
