package storage

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func TestNewStorage(t *testing.T) {
	storage := NewStorage()

	assert.NotNil(t, storage)
	assert.NotNil(t, storage.users)
	assert.NotNil(t, storage.todos)
	assert.Empty(t, storage.users)
	assert.Empty(t, storage.todos)
}

func TestStorageCreateUser(t *testing.T) {
	tests := []struct {
		name  string
		user  *models.User
		setup func(*Storage)
		want  struct {
			error error
		}
	}{
		{
			name: "successful user creation",
			user: &models.User{Username: "testuser", Password: "hash", Role: models.RoleUser},
			setup: func(s *Storage) {
			},
		},
		{
			name: "duplicate username",
			user: &models.User{Username: "testuser", Password: "hash2", Role: models.RoleUser},
			setup: func(s *Storage) {
				s.users["user1"] = models.User{ID: "user1", Username: "testuser", Password: "hash", Role: models.RoleUser}
			},
			want: struct {
				error error
			}{error: errors.ErrUserAlreadyExists},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewStorage()
			tt.setup(storage)

			err := storage.CreateUser(context.Background(), tt.user)

			if tt.want.error != nil {
				assert.ErrorIs(t, err, tt.want.error)
				assert.ErrorIs(t, err, errors.ErrConflict)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, tt.user.ID)

			byName, err := storage.GetUserByUsername(context.Background(), "testuser")
			require.NoError(t, err)
			assert.Equal(t, tt.user.ID, byName.ID)

			byID, err := storage.GetUserByID(context.Background(), tt.user.ID)
			require.NoError(t, err)
			assert.Equal(t, "testuser", byID.Username)
		})
	}
}

func TestStorageGetUserNotFound(t *testing.T) {
	storage := NewStorage()

	_, err := storage.GetUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, errors.ErrUserNotFound)

	_, err = storage.GetUserByUsername(context.Background(), "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestStorageCreateTodoAssignsIDs(t *testing.T) {
	storage := NewStorage()
	todos := seed(t, storage, "first", "second", "third")

	assert.Equal(t, int64(1), todos[0].ID)
	assert.Equal(t, int64(2), todos[1].ID)
	assert.Equal(t, int64(3), todos[2].ID)
}

func TestStorageUpdateTodo(t *testing.T) {
	storage := NewStorage()
	created := seed(t, storage, "Buy milk")[0]

	tests := []struct {
		name string
		id   int64
		todo *models.Todo
		want struct {
			error error
		}
	}{
		{
			name: "update existing todo",
			id:   created.ID,
			todo: &models.Todo{Title: "Buy oat milk", Completed: true, Priority: models.PriorityHigh, CreatedAt: time.Now().Add(time.Hour)},
		},
		{
			name: "update missing todo",
			id:   999,
			todo: &models.Todo{Title: "ghost"},
			want: struct {
				error error
			}{error: errors.ErrTodoNotFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.UpdateTodo(context.Background(), tt.id, tt.todo)
			if tt.want.error != nil {
				assert.ErrorIs(t, err, tt.want.error)
				return
			}
			require.NoError(t, err)

			got, err := storage.GetTodoByID(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, "Buy oat milk", got.Title)
			assert.True(t, got.Completed)
			assert.Equal(t, models.PriorityHigh, got.Priority)
			assert.Equal(t, created.CreatedAt, got.CreatedAt, "created_at is immutable")
		})
	}
}

func TestStorageDeleteTodo(t *testing.T) {
	storage := NewStorage()
	created := seed(t, storage, "Buy milk")[0]

	require.NoError(t, storage.DeleteTodo(context.Background(), created.ID))

	_, err := storage.GetTodoByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, errors.ErrTodoNotFound)

	err = storage.DeleteTodo(context.Background(), created.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound, "deleting twice must fail")
}

func TestStorageFilterAndPage(t *testing.T) {
	storage := NewStorage()
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
			name:   "second page",
			filter: "",
			offset: 2,
			limit:  2,
			want: struct {
				count  int
				titles []string
			}{count: 5, titles: []string{"Call mom", "buy stamps"}},
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
			name:   "offset past the end",
			filter: "",
			offset: 10,
			limit:  2,
			want: struct {
				count  int
				titles []string
			}{count: 5, titles: []string{}},
		},
		{
			name:   "limit at the int limit",
			filter: "",
			offset: 3,
			limit:  math.MaxInt,
			want: struct {
				count  int
				titles []string
			}{count: 5, titles: []string{"buy stamps", "100% done"}},
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
}

func TestStorageEmptyFilterEqualsUnfiltered(t *testing.T) {
	storage := NewStorage()
	seed(t, storage, "a", "b", "c")

	all, err := storage.GetTodos(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	matched, err := storage.GetTodos(context.Background(), "b")
	require.NoError(t, err)
	assert.Len(t, matched, 1)
}

func TestStorageConcurrentCreates(t *testing.T) {
	storage := NewStorage()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = storage.CreateTodo(context.Background(), &models.Todo{Title: "parallel"})
		}()
	}
	wg.Wait()

	count, err := storage.CountTodos(context.Background(), "parallel")
	require.NoError(t, err)
	assert.Equal(t, 50, count)
}
