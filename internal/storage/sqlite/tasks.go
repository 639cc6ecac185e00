package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"taskboard/internal/models"
)

// TaskUpdate carries a partial task mutation. Nil fields are left
// untouched. SetDueDate distinguishes "clear the due date" (true with a
// nil DueDate) from "leave it alone". A nil TagIDs keeps the current tag
// set; a non-nil slice replaces it entirely.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	DueDate     *time.Time
	SetDueDate  bool
	TagIDs      []string
}

// BulkUpdate is the uniform overwrite applied by the bulk endpoint.
type BulkUpdate struct {
	Status     *string
	DueDate    *time.Time
	SetDueDate bool
}

const taskColumns = `t.id, t.title, t.description, t.status, t.due_date, t.user_id, t.created_at, t.updated_at`

// ListTasks returns every task joined with its owner projection, newest
// first. The listing is global: visibility is not restricted by owner.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+`, u.id, u.name, u.email
         FROM tasks t JOIN users u ON u.id = t.user_id
         ORDER BY t.created_at DESC, t.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var (
			t     models.Task
			due   sql.NullTime
			owner models.Owner
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &due, &t.UserID,
			&t.CreatedAt, &t.UpdatedAt, &owner.ID, &owner.Name, &owner.Email); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if due.Valid {
			d := due.Time
			t.DueDate = &d
		}
		t.User = &owner
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a new task owned by t.UserID.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, fmt.Errorf("task title must not be empty")
	}
	if _, ok := models.ValidTaskStatuses[t.Status]; !ok {
		t.Status = models.StatusPending
	}

	// timestamps are written from Go for sub-second ordering precision
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks(id, title, description, status, due_date, user_id, created_at, updated_at)
         VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(t.Title), t.Description, t.Status, t.DueDate, t.UserID, now, now)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask retrieves a task with its full owner projection and resolved tags.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	var (
		t      models.Task
		due    sql.NullTime
		owner  models.Owner
		avatar sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+`, u.id, u.name, u.email, u.avatar
         FROM tasks t JOIN users u ON u.id = t.user_id
         WHERE t.id = ?`, id).
		Scan(&t.ID, &t.Title, &t.Description, &t.Status, &due, &t.UserID,
			&t.CreatedAt, &t.UpdatedAt, &owner.ID, &owner.Name, &owner.Email, &avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	if avatar.Valid {
		owner.Avatar = &avatar.String
	}
	t.User = &owner

	tags, err := s.taskTags(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	t.Tags = tags
	return t, nil
}

func (s *Store) taskTags(ctx context.Context, taskID string) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.color, g.user_id
         FROM tags g JOIN task_tags tt ON tt.tag_id = g.id
         WHERE tt.task_id = ? ORDER BY g.name`, taskID)
	if err != nil {
		return nil, fmt.Errorf("task tags: %w", err)
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

// UpdateTask applies a partial update to one task. Ownership is checked
// by the caller before this runs.
func (s *Store) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (models.Task, error) {
	b := builder().Update("tasks").
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id})

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return models.Task{}, fmt.Errorf("task title must not be empty")
		}
		b = b.Set("title", title)
	}
	if upd.Description != nil {
		b = b.Set("description", *upd.Description)
	}
	if upd.Status != nil {
		b = b.Set("status", *upd.Status)
	}
	if upd.SetDueDate {
		b = b.Set("due_date", upd.DueDate)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return models.Task{}, fmt.Errorf("build task update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Task{}, err
	}
	if affected == 0 {
		return models.Task{}, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}

	if upd.TagIDs != nil {
		if err := s.replaceTaskTags(ctx, id, upd.TagIDs); err != nil {
			return models.Task{}, err
		}
	}
	return s.GetTask(ctx, id)
}

// replaceTaskTags swaps the task's tag set for the supplied ids. Ids that
// do not name a tag owned by the task's owner are dropped silently.
func (s *Store) replaceTaskTags(ctx context.Context, taskID string, tagIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tags: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("clear task tags: %w", err)
	}
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO task_tags(task_id, tag_id)
             SELECT ?, g.id FROM tags g
             WHERE g.id = ? AND g.user_id = (SELECT user_id FROM tasks WHERE id = ?)`,
			taskID, tagID, taskID)
		if err != nil {
			return fmt.Errorf("attach tag: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteTask removes a task. Join rows cascade.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	return nil
}

// CountOwnedTasks reports how many of the supplied ids name tasks owned
// by userID. The bulk endpoints compare this against len(ids) before
// mutating anything.
func (s *Store) CountOwnedTasks(ctx context.Context, ids []string, userID string) (int, error) {
	query, args, err := builder().
		Select("COUNT(*)").From("tasks").
		Where(sq.Eq{"id": ids, "user_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build owned count: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count owned tasks: %w", err)
	}
	return n, nil
}

// DeleteTasks removes every listed task owned by userID in one statement
// and returns the number deleted.
func (s *Store) DeleteTasks(ctx context.Context, ids []string, userID string) (int64, error) {
	query, args, err := builder().
		Delete("tasks").
		Where(sq.Eq{"id": ids, "user_id": userID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build bulk delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete tasks: %w", err)
	}
	return res.RowsAffected()
}

// UpdateTasks applies the same field overwrite to every listed task owned
// by userID and returns the number touched.
func (s *Store) UpdateTasks(ctx context.Context, ids []string, userID string, upd BulkUpdate) (int64, error) {
	b := builder().Update("tasks").
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": ids, "user_id": userID})
	if upd.Status != nil {
		b = b.Set("status", *upd.Status)
	}
	if upd.SetDueDate {
		b = b.Set("due_date", upd.DueDate)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build bulk update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update tasks: %w", err)
	}
	return res.RowsAffected()
}

// AddTagsToTasks unions the supplied tag ids into each listed task's tag
// set. The primary key on task_tags makes the union idempotent; tag ids
// not owned by userID are dropped silently.
func (s *Store) AddTagsToTasks(ctx context.Context, ids []string, tagIDs []string, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tag union: %w", err)
	}
	defer tx.Rollback()

	for _, taskID := range ids {
		for _, tagID := range tagIDs {
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO task_tags(task_id, tag_id)
                 SELECT ?, g.id FROM tags g WHERE g.id = ? AND g.user_id = ?`,
				taskID, tagID, userID)
			if err != nil {
				return fmt.Errorf("attach tag: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE tasks SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, taskID); err != nil {
			return fmt.Errorf("touch task: %w", err)
		}
	}
	return tx.Commit()
}
