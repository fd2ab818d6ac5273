package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrUserExists is returned when an email is already registered.
var ErrUserExists = errors.New("email already registered")

// User represents an account. Password holds the bcrypt hash and is never
// serialised; OAuth-created users have an empty hash.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Password  string    `json:"-"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateUser inserts a new user. Fails with ErrUserExists when the email is
// already registered.
func (db *DB) CreateUser(user *User) error {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", user.Email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists > 0 {
		return ErrUserExists
	}

	result, err := db.Exec(
		`INSERT INTO users (email, first_name, last_name, password, avatar, role)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Email, user.FirstName, user.LastName, user.Password, user.Avatar, user.Role,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	user.ID = int(id)
	return nil
}

// GetUserByEmail retrieves a user by email; returns sql.ErrNoRows when the
// email is unknown.
func (db *DB) GetUserByEmail(email string) (*User, error) {
	var user User
	var createdAtUnix int64

	err := db.QueryRow(
		`SELECT id, email, first_name, last_name, password, avatar, role, created_at
		 FROM users WHERE email = ?`, email,
	).Scan(
		&user.ID, &user.Email, &user.FirstName, &user.LastName,
		&user.Password, &user.Avatar, &user.Role, &createdAtUnix,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = time.Unix(createdAtUnix, 0)
	return &user, nil
}
