package api

import (
	"net/http"

	"github.com/erazemk/findit/internal/board"
	"github.com/erazemk/findit/internal/db"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(database *db.DB, items *board.Store, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: database, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{Board: items, DB: database}
	commentsHandler := &CommentsHandler{Board: items}

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/categories", itemsHandler.Categories)
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("GET /api/items/{id}/comments", commentsHandler.List)

	// Authenticated.
	mux.Handle("POST /api/auth/logout", RequireAuth(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/auth/me", RequireAuth(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/items", RequireAuth(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("PATCH /api/items/{id}", RequireAuth(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", RequireAuth(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("PUT /api/items/{id}/image", RequireAuth(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("POST /api/items/{id}/comments", RequireAuth(http.HandlerFunc(commentsHandler.Create)))

	return AuthMiddleware(jwtSecret, database)(mux)
}
