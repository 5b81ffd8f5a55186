package users

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/hazemadel/vitrine/pkg/auth"
	"github.com/mattn/go-sqlite3"
)

type UserRepository interface {
	Register(data SignUpData) (*User, error)
	ExistsUserId(id string) bool
	GetUserById(id string) (User, error)
	GetProfile(userId string) (Profile, error)
	UpsertProfile(userId string, data ProfileData) error
}

type userRepository struct {
	Connection *sql.DB
}

var (
	ErrEmailTaken = errors.New("email is already registered")
	ErrNotFound   = errors.New("user not found")

	// ErrNoProfile marks the legitimate state of a user who never saved profile details.
	ErrNoProfile = errors.New("no profile yet")
)

func NewRepository(connection *sql.DB) UserRepository {
	return &userRepository{connection}
}

// Register creates the user and its initial profile in a single transaction, so a failed
// profile write never leaves a credentials-only account behind.
func (ur *userRepository) Register(data SignUpData) (*User, error) {

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("couldn't generate a unique user id for %q: %w", data.Email, err)
	}

	hash, err := auth.HashPassword(data.Password)
	if err != nil {
		return nil, err
	}

	var now = time.Now().UTC()

	tx, err := ur.Connection.Begin()
	if err != nil {
		return nil, err
	}

	// rolling back after a transaction commit results in a safe NOP
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.Exec(
		"INSERT INTO users (id, email, password, created, updated) VALUES (?, ?, ?, ?, ?)",
		id.String(), data.Email, hash, now, now,
	); err != nil {
		// detect email uniqueness violations which signal an existing account
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("couldn't add user %q: %w", data.Email, err)
	}

	if _, err = tx.Exec(
		"INSERT INTO profiles (user_id, full_name, major, student_id, updated) VALUES (?, ?, ?, ?, ?)",
		id.String(), data.FullName, data.Major, data.StudentId, now,
	); err != nil {
		return nil, fmt.Errorf("couldn't add profile for %q: %w", data.Email, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &User{
		Id:      id.String(),
		Email:   data.Email,
		Created: now,
		Updated: now,
	}, nil
}

func (ur *userRepository) ExistsUserId(id string) (exists bool) {
	// will return false in the absence of positive results
	err := ur.Connection.QueryRow("SELECT TRUE FROM users WHERE id = ?", id).Scan(&exists)
	return err == nil && exists
}

// GetUserById either returns a user matching the id, or an error (along with an ignorable empty struct).
func (ur *userRepository) GetUserById(id string) (user User, err error) {
	if err = ur.Connection.QueryRow("SELECT id, email, created, updated FROM users WHERE id = ?", id).Scan(
		&user.Id,
		&user.Email,
		&user.Created,
		&user.Updated,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, ErrNotFound
		}
		return user, err
	}
	return user, nil
}

// GetProfile fetches the user's own profile attributes; their absence isn't an anomaly but
// the state preceding the first save, flagged by ErrNoProfile.
func (ur *userRepository) GetProfile(userId string) (profile Profile, err error) {
	if err = ur.Connection.QueryRow(
		"SELECT user_id, full_name, coalesce(major, ''), coalesce(student_id, '') FROM profiles WHERE user_id = ?",
		userId,
	).Scan(&profile.UserId, &profile.FullName, &profile.Major, &profile.StudentId); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return profile, ErrNoProfile
		}
		return profile, err
	}
	return profile, nil
}

// UpsertProfile lazily creates, or overwrites, the profile row keyed by the owning user.
func (ur *userRepository) UpsertProfile(userId string, data ProfileData) error {
	_, err := ur.Connection.Exec(`
		INSERT INTO profiles (user_id, full_name, major, student_id, updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET full_name = ?, major = ?, student_id = ?, updated = ?`,
		userId, data.FullName, data.Major, data.StudentId, time.Now().UTC(),
		data.FullName, data.Major, data.StudentId, time.Now().UTC(),
	)
	return err
}
