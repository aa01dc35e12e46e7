package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated user acting on a request.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Valid reports whether p identifies a signed-in user.
func (p *Principal) Valid() bool {
	return p != nil && p.ID != ""
}

// Principal returns the identity carried by the user's sessions.
func (u *User) Principal() *Principal {
	return &Principal{ID: u.ID, Email: u.Email}
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidatePassword checks password strength requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address and checks its syntax.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", errors.New("invalid email address")
	}
	return email, nil
}
