package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/findit/internal/board"
	"github.com/erazemk/findit/internal/filter"
	"github.com/erazemk/findit/internal/imaging"
	"github.com/erazemk/findit/internal/model"
	"github.com/erazemk/findit/internal/store"
)

// HomePage handles GET /. The query string holds the filter criteria.
func (s *Server) HomePage(w http.ResponseWriter, r *http.Request) {
	data := &struct {
		PageData
		Criteria    filter.Criteria
		Items       []model.Item
		Total       int
		ActiveCount int
		Filtered    bool
	}{PageData: s.page(r, "Lost & Found")}

	criteria, err := filter.ParseQuery(r.URL.Query())
	if err != nil {
		data.Error = "Some filters were not recognized and have been reset."
	}

	data.Criteria = criteria
	data.Items = s.Board.Filter(criteria)
	data.Total = len(s.Board.Items())
	data.ActiveCount = criteria.ActiveCount()
	data.Filtered = !criteria.IsDefault()
	s.Templates.Render(w, "home.html", data)
}

type itemFormPage struct {
	PageData
	Action string
	Item   model.Item
	IsEdit bool
}

// ItemNewPage handles GET /items/new.
func (s *Server) ItemNewPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "item_form.html", &itemFormPage{
		PageData: s.page(r, "Report an item"),
		Action:   "/items",
		Item:     model.Item{ItemType: model.ItemTypeLost, Status: model.ItemStatusActive},
	})
}

// ItemCreateSubmit handles POST /items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	p := CurrentUser(r.Context())
	draft, formErr := draftFromForm(w, r)

	formPage := func(msg string) {
		data := &itemFormPage{
			PageData: s.page(r, "Report an item"),
			Action:   "/items",
			Item:     draft.preview(),
		}
		data.Error = msg
		s.Templates.RenderStatus(w, http.StatusBadRequest, "item_form.html", data)
	}

	if formErr != nil {
		formPage(formErr.Error())
		return
	}

	upload, err := s.saveUpload(r, p)
	if err != nil {
		formPage(uploadMessage(err))
		return
	}
	if upload != "" {
		draft.ImageURL = upload
	}

	item, err := s.Board.Create(r.Context(), p, draft.ItemDraft)
	if err != nil {
		s.discardUpload(r, upload)
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		formPage(fieldMessage(verr))
		return
	}
	if err != nil {
		// Write failures are logged by the board; the visitor lands back on the list.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/items/"+item.ID, http.StatusSeeOther)
}

// ItemDetailPage handles GET /items/{id}.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	item, ok := s.Board.Get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	comments, _ := s.Board.FetchComments(r.Context(), item.ID)

	pd := s.page(r, item.Title)
	s.Templates.Render(w, "item_detail.html", &struct {
		PageData
		Item     model.Item
		Comments []model.Comment
		IsOwner  bool
		CanReply bool
	}{
		PageData: pd,
		Item:     item,
		Comments: comments,
		IsOwner:  item.OwnedBy(pd.User),
		CanReply: pd.User.Valid() && item.Status == model.ItemStatusActive,
	})
}

// ItemEditPage handles GET /items/{id}/edit.
func (s *Server) ItemEditPage(w http.ResponseWriter, r *http.Request) {
	item, ok := s.Board.Get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	pd := s.page(r, "Edit "+item.Title)
	if !item.OwnedBy(pd.User) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	s.Templates.Render(w, "item_form.html", &itemFormPage{
		PageData: pd,
		Action:   "/items/" + item.ID + "/edit",
		Item:     item,
		IsEdit:   true,
	})
}

// ItemUpdateSubmit handles POST /items/{id}/edit.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	p := CurrentUser(r.Context())
	id := r.PathValue("id")
	current, ok := s.Board.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if !current.OwnedBy(p) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	draft, formErr := draftFromForm(w, r)
	formPage := func(msg string) {
		item := draft.preview()
		item.ID = id
		data := &itemFormPage{
			PageData: s.page(r, "Edit "+current.Title),
			Action:   "/items/" + id + "/edit",
			Item:     item,
			IsEdit:   true,
		}
		data.Error = msg
		s.Templates.RenderStatus(w, http.StatusBadRequest, "item_form.html", data)
	}

	if formErr != nil {
		formPage(formErr.Error())
		return
	}

	upload, err := s.saveUpload(r, p)
	if err != nil {
		formPage(uploadMessage(err))
		return
	}
	if upload != "" {
		draft.ImageURL = upload
	}

	d := draft.ItemDraft
	patch := model.ItemPatch{
		Title:            &d.Title,
		Description:      &d.Description,
		LastSeenLocation: &d.LastSeenLocation,
		DateLost:         &d.DateLost,
		ImageURL:         &d.ImageURL,
		ItemType:         &d.ItemType,
		Category:         &d.Category,
	}
	if d.Status != "" {
		patch.Status = &d.Status
	}

	_, err = s.Board.Update(r.Context(), p, id, patch)
	if err != nil {
		s.discardUpload(r, upload)
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		formPage(fieldMessage(verr))
		return
	}
	http.Redirect(w, r, "/items/"+id, http.StatusSeeOther)
}

// ItemStatusSubmit handles POST /items/{id}/status.
func (s *Server) ItemStatusSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status := r.FormValue("status")

	_, err := s.Board.Update(r.Context(), CurrentUser(r.Context()), id, model.ItemPatch{Status: &status})
	if errors.Is(err, board.ErrForbidden) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	http.Redirect(w, r, "/items/"+id, http.StatusSeeOther)
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.Board.Delete(r.Context(), CurrentUser(r.Context()), id)
	switch {
	case errors.Is(err, board.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case err != nil && !errors.Is(err, board.ErrNotFound):
		http.Redirect(w, r, "/items/"+id, http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// CommentSubmit handles POST /items/{id}/comments.
func (s *Server) CommentSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	draft := model.CommentDraft{PostID: id, Content: r.FormValue("content")}

	if _, err := s.Board.AddComment(r.Context(), CurrentUser(r.Context()), draft); errors.Is(err, board.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/items/"+id+"#comments", http.StatusSeeOther)
}

// ImageGet handles GET /images/{id}.
func (s *Server) ImageGet(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetImage(r.Context(), s.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

// formError is a message shown above a re-rendered form.
type formError string

func (e formError) Error() string { return string(e) }

const (
	errUnreadableUpload = formError("The upload could not be read.")
	errBadDate          = formError("Enter the date as YYYY-MM-DD.")
)

// itemForm is the submitted create/edit form.
type itemForm struct {
	model.ItemDraft
	rawDate string
}

// preview returns the submitted values as an item for re-rendering the form.
func (f itemForm) preview() model.Item {
	return model.Item{
		Title:            f.Title,
		Description:      f.Description,
		LastSeenLocation: f.LastSeenLocation,
		DateLost:         f.DateLost,
		ImageURL:         f.ImageURL,
		ItemType:         f.ItemType,
		Category:         f.Category,
		Status:           f.Status,
	}
}

// draftFromForm reads the item form. The form may be multipart when a photo
// is attached.
func draftFromForm(w http.ResponseWriter, r *http.Request) (itemForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
			return itemForm{}, errUnreadableUpload
		}
	}

	f := itemForm{
		ItemDraft: model.ItemDraft{
			Title:            r.FormValue("title"),
			Description:      r.FormValue("description"),
			LastSeenLocation: r.FormValue("last_seen_location"),
			ImageURL:         r.FormValue("image_url"),
			ItemType:         r.FormValue("item_type"),
			Category:         r.FormValue("category"),
			Status:           r.FormValue("status"),
		},
		rawDate: r.FormValue("date_lost"),
	}
	if f.rawDate != "" {
		d, err := model.ParseDate(f.rawDate)
		if err != nil {
			return f, errBadDate
		}
		f.DateLost = d
	}
	return f, nil
}

// saveUpload stores the optional "image" file of a multipart form and
// returns its URL, or "" when no file was attached.
func (s *Server) saveUpload(r *http.Request, p *model.Principal) (string, error) {
	if r.MultipartForm == nil {
		return "", nil
	}
	file, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		return "", err
	}

	imageID, err := store.CreateImage(r.Context(), s.DB, photo.Data, photo.MIME, p.ID)
	if err != nil {
		slog.Error("failed to store image", "user", p.Email, "error", err)
		return "", err
	}
	slog.Info("image uploaded", "user", p.Email, "image", imageID)
	return store.ImageURL(imageID), nil
}

// discardUpload removes a photo stored by saveUpload whose listing write
// failed.
func (s *Server) discardUpload(r *http.Request, url string) {
	id, ok := store.ImageID(url)
	if !ok {
		return
	}
	if err := store.DeleteImage(r.Context(), s.DB, id); err != nil {
		slog.Error("failed to discard image", "image", id, "error", err)
	}
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		return "The photo is larger than 10 MiB."
	case errors.Is(err, imaging.ErrUnsupported):
		return "The photo must be a JPEG, PNG, GIF or WebP image."
	default:
		return "The photo could not be saved."
	}
}

func fieldMessage(verr *model.ValidationError) string {
	labels := map[string]string{
		"title":              "Title",
		"description":        "Description",
		"last_seen_location": "Location",
		"date_lost":          "Date",
		"item_type":          "Type",
		"category":           "Category",
		"status":             "Status",
	}
	label, ok := labels[verr.Field]
	if !ok {
		label = verr.Field
	}
	return label + " " + verr.Reason + "."
}
