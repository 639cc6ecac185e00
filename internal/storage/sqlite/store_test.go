package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUser(t *testing.T, store *Store, name, email string) models.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), name, email, "hash")
	require.NoError(t, err)
	return user
}

func seedTask(t *testing.T, store *Store, userID, title string) models.Task {
	t.Helper()
	task, err := store.CreateTask(context.Background(), models.Task{Title: title, UserID: userID})
	require.NoError(t, err)
	return task
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedUser(t, store, "Alice", "alice@example.com")

	_, err := store.CreateUser(ctx, "Imposter", "alice@example.com", "hash")
	require.ErrorIs(t, err, ErrConflict)

	// lookup is case-insensitive on the stored lowercase form
	got, err := store.GetUserByEmail(ctx, "  ALICE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestUpdateProfile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "alice@example.com")

	avatar := "https://cdn.example.com/a.png"
	bio := "keeps lists"
	updated, err := store.UpdateProfile(ctx, user.ID, "  Alice A.  ", &avatar, &bio)
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", updated.Name)
	require.NotNil(t, updated.Avatar)
	assert.Equal(t, avatar, *updated.Avatar)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, bio, *updated.Bio)

	// nil clears both optional fields
	cleared, err := store.UpdateProfile(ctx, user.ID, "Alice", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.Avatar)
	assert.Nil(t, cleared.Bio)

	_, err = store.UpdateProfile(ctx, "missing", "Name", nil, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTaskDefaultsAndRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "alice@example.com")

	created, err := store.CreateTask(ctx, models.Task{Title: "  write notes  ", UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, "write notes", created.Title)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, "", created.Description)
	assert.Nil(t, created.DueDate)
	require.NotNil(t, created.User)
	assert.Equal(t, user.ID, created.User.ID)
	assert.Equal(t, "alice@example.com", created.User.Email)

	due := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)
	dated, err := store.CreateTask(ctx, models.Task{
		Title:       "dated",
		Description: "with details",
		Status:      models.StatusInProgress,
		DueDate:     &due,
		UserID:      user.ID,
	})
	require.NoError(t, err)

	got, err := store.GetTask(ctx, dated.ID)
	require.NoError(t, err)
	assert.Equal(t, "dated", got.Title)
	assert.Equal(t, "with details", got.Description)
	assert.Equal(t, models.StatusInProgress, got.Status)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))

	_, err = store.CreateTask(ctx, models.Task{Title: "   ", UserID: user.ID})
	require.Error(t, err)

	_, err = store.GetTask(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListTasksNewestFirst(t *testing.T) {
	store := newTestStore(t)

	user := seedUser(t, store, "Alice", "alice@example.com")
	seedTask(t, store, user.ID, "first")
	seedTask(t, store, user.ID, "second")
	seedTask(t, store, user.ID, "third")

	tasks, err := store.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "third", tasks[0].Title)
	assert.Equal(t, "first", tasks[2].Title)
}

func TestUpdateTaskPartial(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "alice@example.com")
	task := seedTask(t, store, user.ID, "original")

	status := models.StatusCompleted
	updated, err := store.UpdateTask(ctx, task.ID, TaskUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "original", updated.Title, "untouched fields survive")
	assert.Equal(t, models.StatusCompleted, updated.Status)

	due := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	updated, err = store.UpdateTask(ctx, task.ID, TaskUpdate{DueDate: &due, SetDueDate: true})
	require.NoError(t, err)
	require.NotNil(t, updated.DueDate)

	// SetDueDate with nil clears the date
	updated, err = store.UpdateTask(ctx, task.ID, TaskUpdate{SetDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)

	_, err = store.UpdateTask(ctx, "missing", TaskUpdate{Status: &status})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTaskReplacesTagSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "Alice", "alice@example.com")
	other := seedUser(t, store, "Bob", "bob@example.com")
	task := seedTask(t, store, user.ID, "tagged")

	work, err := store.CreateTag(ctx, models.Tag{Name: "work", UserID: user.ID})
	require.NoError(t, err)
	home, err := store.CreateTag(ctx, models.Tag{Name: "home", UserID: user.ID})
	require.NoError(t, err)
	foreign, err := store.CreateTag(ctx, models.Tag{Name: "theirs", UserID: other.ID})
	require.NoError(t, err)

	updated, err := store.UpdateTask(ctx, task.ID, TaskUpdate{TagIDs: []string{work.ID, home.ID}})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 2)

	// full replacement, and tags of other owners are dropped
	updated, err = store.UpdateTask(ctx, task.ID, TaskUpdate{TagIDs: []string{home.ID, foreign.ID}})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "home", updated.Tags[0].Name)

	// empty slice clears, nil keeps
	updated, err = store.UpdateTask(ctx, task.ID, TaskUpdate{TagIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
}

func TestBulkOwnershipAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "Alice", "alice@example.com")
	bob := seedUser(t, store, "Bob", "bob@example.com")
	a1 := seedTask(t, store, alice.ID, "a1")
	a2 := seedTask(t, store, alice.ID, "a2")
	b1 := seedTask(t, store, bob.ID, "b1")

	owned, err := store.CountOwnedTasks(ctx, []string{a1.ID, a2.ID, b1.ID}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, owned)

	// delete is scoped to the owner even if foreign ids slip through
	count, err := store.DeleteTasks(ctx, []string{a1.ID, a2.ID, b1.ID}, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	_, err = store.GetTask(ctx, b1.ID)
	require.NoError(t, err)
}

func TestBulkUpdateOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "Alice", "alice@example.com")
	a1 := seedTask(t, store, alice.ID, "a1")
	a2 := seedTask(t, store, alice.ID, "a2")

	status := models.StatusCompleted
	due := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	count, err := store.UpdateTasks(ctx, []string{a1.ID, a2.ID}, alice.ID, BulkUpdate{
		Status:     &status,
		DueDate:    &due,
		SetDueDate: true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	for _, id := range []string{a1.ID, a2.ID} {
		got, err := store.GetTask(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, got.Status)
		require.NotNil(t, got.DueDate)
	}
}

func TestAddTagsToTasksIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "Alice", "alice@example.com")
	task := seedTask(t, store, alice.ID, "tagged")
	urgent, err := store.CreateTag(ctx, models.Tag{Name: "urgent", UserID: alice.ID})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		err := store.AddTagsToTasks(ctx, []string{task.ID}, []string{urgent.ID}, alice.ID)
		require.NoError(t, err)
	}

	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "urgent", got.Tags[0].Name)
}

func TestTagNameUniquePerOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "Alice", "alice@example.com")
	bob := seedUser(t, store, "Bob", "bob@example.com")

	created, err := store.CreateTag(ctx, models.Tag{Name: "  Work ", UserID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, "Work", created.Name)
	assert.Equal(t, models.DefaultTagColor, created.Color)

	_, err = store.CreateTag(ctx, models.Tag{Name: "Work", UserID: alice.ID})
	require.ErrorIs(t, err, ErrConflict)

	// a different owner may reuse the name
	_, err = store.CreateTag(ctx, models.Tag{Name: "Work", UserID: bob.ID})
	require.NoError(t, err)
}

func TestUpdateTagRenameConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "Alice", "alice@example.com")
	work, err := store.CreateTag(ctx, models.Tag{Name: "work", UserID: alice.ID})
	require.NoError(t, err)
	home, err := store.CreateTag(ctx, models.Tag{Name: "home", UserID: alice.ID})
	require.NoError(t, err)

	name := "work"
	_, err = store.UpdateTag(ctx, home.ID, &name, nil)
	require.ErrorIs(t, err, ErrConflict)

	color := "red"
	updated, err := store.UpdateTag(ctx, work.ID, nil, &color)
	require.NoError(t, err)
	assert.Equal(t, "red", updated.Color)
	assert.Equal(t, "work", updated.Name)
}

func TestDeleteTagCleansTaskAssociations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "Alice", "alice@example.com")
	task := seedTask(t, store, alice.ID, "tagged")
	tag, err := store.CreateTag(ctx, models.Tag{Name: "doomed", UserID: alice.ID})
	require.NoError(t, err)

	require.NoError(t, store.AddTagsToTasks(ctx, []string{task.ID}, []string{tag.ID}, alice.ID))

	require.NoError(t, store.DeleteTag(ctx, tag.ID))
	require.ErrorIs(t, store.DeleteTag(ctx, tag.ID), ErrNotFound)

	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags, "no dangling tag ids after tag deletion")
}

func TestListTagsOrderedByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "Alice", "alice@example.com")
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := store.CreateTag(ctx, models.Tag{Name: name, UserID: alice.ID})
		require.NoError(t, err)
	}

	tags, err := store.ListTags(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "alpha", tags[0].Name)
	assert.Equal(t, "zeta", tags[2].Name)
}
