package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/solvaholic/teampulse/internal/normalize"
)

// SaveUser saves or updates a user
func (db *DB) SaveUser(user *normalize.User) error {
	return saveUser(db.conn, user)
}

func saveUser(ex execer, user *normalize.User) error {
	_, err := ex.Exec(`
		INSERT INTO users (
			id, display_name, email, title, is_admin, is_bot, is_deleted
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			title = excluded.title,
			is_admin = excluded.is_admin,
			is_bot = excluded.is_bot,
			is_deleted = excluded.is_deleted,
			updated_at = CURRENT_TIMESTAMP
	`, user.ID, user.DisplayName, user.Email, user.Title,
		user.IsAdmin, user.IsBot, user.IsDeleted)

	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// GetUser retrieves a user by ID. A missing user is (nil, nil).
func (db *DB) GetUser(id string) (*normalize.User, error) {
	user := &normalize.User{}

	err := db.QueryRow(`
		SELECT id, display_name, email, title, is_admin, is_bot, is_deleted
		FROM users
		WHERE id = ?
	`, id).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.Title,
		&user.IsAdmin, &user.IsBot, &user.IsDeleted,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// ListUsers returns every stored user ordered by id
func (db *DB) ListUsers() ([]normalize.User, error) {
	rows, err := db.Query(`
		SELECT id, display_name, email, title, is_admin, is_bot, is_deleted
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []normalize.User{}
	for rows.Next() {
		var u normalize.User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email, &u.Title, &u.IsAdmin, &u.IsBot, &u.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
