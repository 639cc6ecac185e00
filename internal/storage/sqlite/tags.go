package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"taskboard/internal/models"
)

// ListTags returns the user's tags ordered by name.
func (s *Store) ListTags(ctx context.Context, userID string) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, user_id FROM tags WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var g models.Tag
		if err := rows.Scan(&g.ID, &g.Name, &g.Color, &g.UserID); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, g)
	}
	return tags, rows.Err()
}

// CreateTag persists a new tag. Name uniqueness is scoped to the owner,
// enforced by the (user_id, name) unique index.
func (s *Store) CreateTag(ctx context.Context, g models.Tag) (models.Tag, error) {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return models.Tag{}, fmt.Errorf("tag name must not be empty")
	}
	if g.Color == "" {
		g.Color = models.DefaultTagColor
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags(id, name, color, user_id) VALUES(?, ?, ?, ?)`,
		id, g.Name, g.Color, g.UserID)
	if isUniqueViolation(err) {
		return models.Tag{}, fmt.Errorf("tag %q: %w", g.Name, ErrConflict)
	}
	if err != nil {
		return models.Tag{}, fmt.Errorf("insert tag: %w", err)
	}
	return s.GetTag(ctx, id)
}

// GetTag fetches a single tag by id.
func (s *Store) GetTag(ctx context.Context, id string) (models.Tag, error) {
	var g models.Tag
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, color, user_id FROM tags WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.Color, &g.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tag{}, fmt.Errorf("tag %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Tag{}, fmt.Errorf("get tag: %w", err)
	}
	return g, nil
}

// UpdateTag renames or recolors a tag. Renaming onto an existing name for
// the same owner fails with ErrConflict.
func (s *Store) UpdateTag(ctx context.Context, id string, name, color *string) (models.Tag, error) {
	b := builder().Update("tags").Where(sq.Eq{"id": id})
	changed := false
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return models.Tag{}, fmt.Errorf("tag name must not be empty")
		}
		b = b.Set("name", trimmed)
		changed = true
	}
	if color != nil {
		b = b.Set("color", *color)
		changed = true
	}
	if !changed {
		return s.GetTag(ctx, id)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return models.Tag{}, fmt.Errorf("build tag update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if isUniqueViolation(err) {
		return models.Tag{}, fmt.Errorf("tag rename: %w", ErrConflict)
	}
	if err != nil {
		return models.Tag{}, fmt.Errorf("update tag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Tag{}, err
	}
	if affected == 0 {
		return models.Tag{}, fmt.Errorf("tag %q: %w", id, ErrNotFound)
	}
	return s.GetTag(ctx, id)
}

// DeleteTag removes a tag. The task_tags cascade drops the tag from every
// task that referenced it, so no dangling ids survive.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("tag %q: %w", id, ErrNotFound)
	}
	return nil
}
