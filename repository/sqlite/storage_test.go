package sqlite

import (
	"context"
	"testing"
	"time"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite store for testing.
func setupTestDB(t *testing.T) *Storage {
	t.Helper()

	storage, err := NewStorage(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(storage.Close)
	return storage
}

func seed(t *testing.T, s *Storage, titles ...string) []models.Todo {
	t.Helper()
	todos := make([]models.Todo, 0, len(titles))
	for _, title := range titles {
		todo := &models.Todo{Title: title, Priority: models.PriorityLow, CreatedAt: time.Now().UTC()}
		require.NoError(t, s.CreateTodo(context.Background(), todo))
		todos = append(todos, *todo)
	}
	return todos
}

func TestNewStorageEmptyPath(t *testing.T) {
	storage, err := NewStorage("", nil)

	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	assert.Nil(t, storage)
}

func TestStorageTodoLifecycle(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	todo := &models.Todo{Title: "Buy milk", Priority: models.PriorityHigh, CreatedAt: created}
	require.NoError(t, storage.CreateTodo(ctx, todo))
	assert.Equal(t, int64(1), todo.ID)

	got, err := storage.GetTodoByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.True(t, created.Equal(got.CreatedAt))

	update := &models.Todo{Title: "Buy oat milk", Completed: true, Priority: models.PriorityMedium, CreatedAt: time.Now()}
	require.NoError(t, storage.UpdateTodo(ctx, todo.ID, update))
	assert.True(t, created.Equal(update.CreatedAt), "created_at is not updatable")

	got, err = storage.GetTodoByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", got.Title)
	assert.True(t, got.Completed)
	assert.Equal(t, models.PriorityMedium, got.Priority)

	// Completed can go back to false through the map update.
	update.Completed = false
	require.NoError(t, storage.UpdateTodo(ctx, todo.ID, update))
	got, err = storage.GetTodoByID(ctx, todo.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)

	require.NoError(t, storage.DeleteTodo(ctx, todo.ID))
	_, err = storage.GetTodoByID(ctx, todo.ID)
	assert.ErrorIs(t, err, errors.ErrTodoNotFound)
	assert.ErrorIs(t, storage.DeleteTodo(ctx, todo.ID), errors.ErrNotFound)
	assert.ErrorIs(t, storage.UpdateTodo(ctx, todo.ID, update), errors.ErrNotFound)
}

func TestStorageFilterAndPage(t *testing.T) {
	storage := setupTestDB(t)
	seed(t, storage, "Buy milk", "Buy bread", "Call mom", "buy stamps", "100% done")

	tests := []struct {
		name   string
		filter string
		offset int
		limit  int
		want   struct {
			count  int
			titles []string
		}
	}{
		{
			name:   "no filter",
			filter: "",
			offset: 0,
			limit:  2,
			want: struct {
				count  int
				titles []string
			}{count: 5, titles: []string{"Buy milk", "Buy bread"}},
		},
		{
			name:   "last partial page",
			filter: "",
			offset: 4,
			limit:  2,
			want: struct {
				count  int
				titles []string
			}{count: 5, titles: []string{"100% done"}},
		},
		{
			name:   "case sensitive filter",
			filter: "Buy",
			offset: 0,
			limit:  10,
			want: struct {
				count  int
				titles []string
			}{count: 2, titles: []string{"Buy milk", "Buy bread"}},
		},
		{
			name:   "percent is literal",
			filter: "%",
			offset: 0,
			limit:  10,
			want: struct {
				count  int
				titles []string
			}{count: 1, titles: []string{"100% done"}},
		},
		{
			name:   "no match",
			filter: "zzz",
			offset: 0,
			limit:  10,
			want: struct {
				count  int
				titles []string
			}{count: 0, titles: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, err := storage.CountTodos(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want.count, count)

			page, err := storage.GetTodosPage(context.Background(), tt.filter, tt.offset, tt.limit)
			require.NoError(t, err)
			titles := make([]string, 0, len(page))
			for _, todo := range page {
				titles = append(titles, todo.Title)
			}
			assert.Equal(t, tt.want.titles, titles)
		})
	}

	_, err := storage.GetTodosPage(context.Background(), "", -1, 2)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	all, err := storage.GetTodos(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestStorageUsers(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{Username: "jl", Password: "hash", Role: models.RoleUser}
	require.NoError(t, storage.CreateUser(ctx, user))
	assert.NotEmpty(t, user.ID)

	dup := &models.User{Username: "jl", Password: "other", Role: models.RoleUser}
	err := storage.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, errors.ErrUserAlreadyExists)
	assert.ErrorIs(t, err, errors.ErrConflict)

	byName, err := storage.GetUserByUsername(ctx, "jl")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.Equal(t, "hash", byName.Password)

	byID, err := storage.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, byID.Role)

	_, err = storage.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}
