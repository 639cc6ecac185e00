package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/models"
)

// CreateUser persists a new account. The email must be globally unique.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return models.User{}, fmt.Errorf("user name and email must not be empty")
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users(id, name, email, password_hash) VALUES(?, ?, ?, ?)`,
		id, name, email, passwordHash)
	if isUniqueViolation(err) {
		return models.User{}, fmt.Errorf("email %q: %w", email, ErrConflict)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches an account by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail fetches an account by email, used by the login flow.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getUser(ctx, `WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (models.User, error) {
	var (
		u           models.User
		avatar, bio sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, avatar, bio, created_at FROM users `+where, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &avatar, &bio, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	if avatar.Valid {
		u.Avatar = &avatar.String
	}
	if bio.Valid {
		u.Bio = &bio.String
	}
	return u, nil
}

// UpdateProfile rewrites the mutable profile fields. Nil avatar or bio
// clears the stored value.
func (s *Store) UpdateProfile(ctx context.Context, id, name string, avatar, bio *string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, fmt.Errorf("user name must not be empty")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, avatar = ?, bio = ? WHERE id = ?`,
		name, avatar, bio, id)
	if err != nil {
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.User{}, err
	}
	if affected == 0 {
		return models.User{}, fmt.Errorf("user: %w", ErrNotFound)
	}
	return s.GetUser(ctx, id)
}
