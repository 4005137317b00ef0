package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// Credentials is the single back-office account checked by the login endpoint.
type Credentials struct {
	Username     string
	PasswordHash string // bcrypt
}

// Enabled reports whether a password hash is configured.
func (c Credentials) Enabled() bool { return c.Username != "" && c.PasswordHash != "" }

// Check compares username and password against the configured account.
func (c Credentials) Check(username, password string) error {
	if !c.Enabled() {
		return ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
