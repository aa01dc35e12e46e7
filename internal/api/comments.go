package api

import (
	"net/http"

	"github.com/erazemk/findit/internal/board"
	"github.com/erazemk/findit/internal/model"
)

// CommentsHandler handles comment thread endpoints.
type CommentsHandler struct {
	Board *board.Store
}

type createCommentRequest struct {
	Content string `json:"content"`
}

// List handles GET /api/items/{id}/comments.
func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.Board.Get(id); !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	comments, err := h.Board.FetchComments(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to fetch comments")
		return
	}
	jsonResponse(w, http.StatusOK, comments)
}

// Create handles POST /api/items/{id}/comments.
func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft := model.CommentDraft{PostID: r.PathValue("id"), Content: req.Content}
	comment, err := h.Board.AddComment(r.Context(), principal(r.Context()), draft)
	if err != nil {
		boardError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, comment)
}
