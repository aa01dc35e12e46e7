package web

import (
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/findit/internal/auth"
	"github.com/erazemk/findit/internal/model"
	"github.com/erazemk/findit/internal/store"
)

type credentialsPage struct {
	PageData
	Email string
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &credentialsPage{PageData: s.page(r, "Sign in")})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	fail := func(msg string) {
		data := &credentialsPage{PageData: s.page(r, "Sign in"), Email: email}
		data.Error = msg
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", data)
	}

	if email == "" || password == "" {
		fail("Enter your email and password.")
		return
	}

	normalized, err := model.NormalizeEmail(email)
	if err != nil {
		fail("Invalid email or password.")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), s.DB, normalized)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
	}
	if err != nil || user == nil {
		fail("Invalid email or password.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("login failed", "email", normalized, "remote", r.RemoteAddr)
		fail("Invalid email or password.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.Principal())
	if err != nil {
		fail("Could not sign you in. Try again.")
		return
	}

	setAuthCookie(w, token)
	slog.Info("user logged in", "user", user.Email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &credentialsPage{PageData: s.page(r, "Create account")})
}

// RegisterSubmit handles POST /register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	fail := func(msg string) {
		data := &credentialsPage{PageData: s.page(r, "Create account"), Email: email}
		data.Error = msg
		s.Templates.RenderStatus(w, http.StatusBadRequest, "register.html", data)
	}

	normalized, err := model.NormalizeEmail(email)
	if err != nil {
		fail("Enter a valid email address.")
		return
	}
	if password != r.FormValue("confirm") {
		fail("Passwords do not match.")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		fail("Password must be at least 8 characters.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fail("Could not create your account. Try again.")
		return
	}

	user, err := store.CreateUser(r.Context(), s.DB, normalized, string(hash))
	if errors.Is(err, store.ErrEmailTaken) {
		fail("An account with this email already exists.")
		return
	}
	if err != nil {
		slog.Error("failed to register user", "email", normalized, "error", err)
		fail("Could not create your account. Try again.")
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.Principal())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	setAuthCookie(w, token)
	slog.Info("user registered", "user", user.Email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. The session token is revoked.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := GetWebClaims(r.Context()); claims != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Error("failed to revoke token", "user", claims.Email, "error", err)
		} else {
			slog.Info("user logged out", "user", claims.Email)
		}
	}
	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
