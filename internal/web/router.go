package web

import (
	"net/http"

	"github.com/erazemk/findit/internal/board"
	"github.com/erazemk/findit/internal/db"
	webembed "github.com/erazemk/findit/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(database *db.DB, items *board.Store, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        database,
		Board:     items,
		Templates: templates,
		JWTSecret: jwtSecret,
	}

	mux := http.NewServeMux()
	requireSession := func(h http.HandlerFunc) http.Handler { return RequireSession(h) }

	// Static assets and stored photos.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	mux.HandleFunc("GET /images/{id}", s.ImageGet)

	// Public pages.
	mux.HandleFunc("GET /{$}", s.HomePage)
	mux.HandleFunc("GET /items/{id}", s.ItemDetailPage)
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /register", s.RegisterPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Signed-in pages.
	mux.Handle("GET /items/new", requireSession(s.ItemNewPage))
	mux.Handle("POST /items", requireSession(s.ItemCreateSubmit))
	mux.Handle("GET /items/{id}/edit", requireSession(s.ItemEditPage))
	mux.Handle("POST /items/{id}/edit", requireSession(s.ItemUpdateSubmit))
	mux.Handle("POST /items/{id}/status", requireSession(s.ItemStatusSubmit))
	mux.Handle("POST /items/{id}/delete", requireSession(s.ItemDeleteSubmit))
	mux.Handle("POST /items/{id}/comments", requireSession(s.CommentSubmit))

	return SessionMiddleware(jwtSecret, database)(mux), nil
}
