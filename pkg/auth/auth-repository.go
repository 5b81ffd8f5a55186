package auth

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCredentials = errors.New("invalid email or password")
	ErrNoSession      = errors.New("session not found")
)

type SessionRepository interface {
	SignIn(data SignInData) (token string, user User, err error)
	SignOut(token string) error
	GetSessionUser(token string) (User, error)
}

type Repository struct {
	Connection *sql.DB
}

func NewRepository(connection *sql.DB) *Repository {
	return &Repository{connection}
}

// SignIn verifies the given credentials and issues a new opaque session token; multiple
// concurrent sessions per user are allowed.
func (ar *Repository) SignIn(data SignInData) (string, User, error) {

	var user User
	var hash string
	err := ar.Connection.QueryRow(`
		SELECT users.id, coalesce(full_name, ''), email, password
		FROM users LEFT JOIN profiles ON users.id = profiles.user_id
		WHERE email = ?`,
		data.Email,
	).Scan(&user.Id, &user.Name, &user.Email, &hash)

	// an unknown email and a bad password yield the same error, denying account enumeration
	if errors.Is(err, sql.ErrNoRows) {
		return "", User{}, ErrBadCredentials
	}
	if err != nil {
		return "", User{}, err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(data.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", User{}, ErrBadCredentials
		}
		return "", User{}, err
	}

	token, err := uuid.NewV4()
	if err != nil {
		return "", User{}, err
	}

	if _, err = ar.Connection.Exec(
		"INSERT INTO sessions (token, user_id, created) VALUES (?, ?, ?)",
		token.String(), user.Id, time.Now().UTC(),
	); err != nil {
		return "", User{}, err
	}

	return token.String(), user, nil
}

// SignOut tears the session down; unknown tokens are reported to spot client bugs.
func (ar *Repository) SignOut(token string) error {
	result, err := ar.Connection.Exec("DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return err
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNoSession
	}
	return nil
}

// GetSessionUser resolves a bearer token to its principal, joining the profile for a display name.
func (ar *Repository) GetSessionUser(token string) (user User, err error) {
	if err = ar.Connection.QueryRow(`
		SELECT users.id, coalesce(full_name, ''), email
		FROM sessions
		JOIN users ON sessions.user_id = users.id
		LEFT JOIN profiles ON users.id = profiles.user_id
		WHERE token = ?`,
		token,
	).Scan(&user.Id, &user.Name, &user.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, ErrNoSession
		}
		return user, err
	}
	return user, nil
}

// HashPassword digests a plaintext password for storage; bcrypt embeds the salt in the hash.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
