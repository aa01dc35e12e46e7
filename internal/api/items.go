package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/findit/internal/board"
	"github.com/erazemk/findit/internal/db"
	"github.com/erazemk/findit/internal/filter"
	"github.com/erazemk/findit/internal/imaging"
	"github.com/erazemk/findit/internal/model"
	"github.com/erazemk/findit/internal/store"
)

// ItemsHandler handles listing endpoints.
type ItemsHandler struct {
	Board *board.Store
	DB    *db.DB
}

type itemResponse struct {
	Item     model.Item      `json:"item"`
	Comments []model.Comment `json:"comments"`
}

// Categories handles GET /api/categories.
func (h *ItemsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, model.Categories)
}

// List handles GET /api/items. Query parameters are filter criteria.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	criteria, err := filter.ParseQuery(r.URL.Query())
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, h.Board.Filter(criteria))
}

// Get handles GET /api/items/{id}. A failed comment fetch yields an empty thread.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.Board.Get(r.PathValue("id"))
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	comments, _ := h.Board.FetchComments(r.Context(), item.ID)
	jsonResponse(w, http.StatusOK, itemResponse{Item: item, Comments: comments})
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft model.ItemDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Board.Create(r.Context(), principal(r.Context()), draft)
	if err != nil {
		boardError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PATCH /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.ItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Empty() {
		jsonError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	item, err := h.Board.Update(r.Context(), principal(r.Context()), r.PathValue("id"), patch)
	if err != nil {
		boardError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Board.Delete(r.Context(), principal(r.Context()), r.PathValue("id")); err != nil {
		boardError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles PUT /api/items/{id}/image. The body is a multipart form
// with an "image" file; the stored photo becomes the item's image_url.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	p := principal(r.Context())
	id := r.PathValue("id")

	item, ok := h.Board.Get(id)
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if !item.OwnedBy(p) {
		boardError(w, board.ErrForbidden)
		return
	}

	url, err := saveImage(w, r, h.DB, p)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, imaging.ErrTooLarge), errors.As(err, &tooLarge):
			jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
		case errors.Is(err, imaging.ErrUnsupported), errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			jsonError(w, http.StatusBadRequest, err.Error())
		default:
			jsonError(w, http.StatusInternalServerError, "failed to save image")
		}
		return
	}

	updated, err := h.Board.Update(r.Context(), p, id, model.ItemPatch{ImageURL: &url})
	if err != nil {
		if imageID, ok := store.ImageID(url); ok {
			if err := store.DeleteImage(r.Context(), h.DB, imageID); err != nil {
				slog.Error("failed to discard image", "image", imageID, "error", err)
			}
		}
		boardError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// saveImage reads the "image" file of a multipart upload, normalizes it and
// stores it, returning the URL it is served under.
func saveImage(w http.ResponseWriter, r *http.Request, database *db.DB, p *model.Principal) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		return "", err
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return "", err
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		return "", err
	}

	imageID, err := store.CreateImage(r.Context(), database, photo.Data, photo.MIME, p.ID)
	if err != nil {
		slog.Error("failed to store image", "user", p.Email, "error", err)
		return "", err
	}

	slog.Info("image uploaded", "user", p.Email, "image", imageID, "width", photo.Width, "height", photo.Height)
	return store.ImageURL(imageID), nil
}
