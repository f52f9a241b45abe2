package storage

import (
	"context"
	"sort"
	"sync"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"
	"todoapp/internal/pagination"

	"github.com/google/uuid"
)

type Storage struct {
	mu     sync.RWMutex
	users  map[string]models.User
	todos  map[int64]models.Todo
	nextID int64
}

func NewStorage() *Storage {
	return &Storage{
		users: make(map[string]models.User),
		todos: make(map[int64]models.Todo),
	}
}

func (s *Storage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, exists := s.users[id]
	if !exists {
		return nil, errors.ErrUserNotFound
	}
	return &user, nil
}

func (s *Storage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Storage) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existingUser := range s.users {
		if existingUser.Username == user.Username {
			return errors.ErrUserAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *Storage) CreateTodo(_ context.Context, todo *models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	todo.ID = s.nextID
	s.todos[todo.ID] = *todo
	return nil
}

func (s *Storage) UpdateTodo(_ context.Context, id int64, todo *models.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, exists := s.todos[id]
	if !exists {
		return errors.ErrTodoNotFound
	}
	todo.ID = id
	todo.CreatedAt = existing.CreatedAt
	s.todos[id] = *todo
	return nil
}

func (s *Storage) GetTodoByID(_ context.Context, id int64) (*models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	todo, exists := s.todos[id]
	if !exists {
		return nil, errors.ErrTodoNotFound
	}
	return &todo, nil
}

func (s *Storage) DeleteTodo(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.todos[id]; !exists {
		return errors.ErrTodoNotFound
	}
	delete(s.todos, id)
	return nil
}

func (s *Storage) GetTodos(_ context.Context, filter string) ([]models.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filtered(filter), nil
}

func (s *Storage) CountTodos(_ context.Context, filter string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.filtered(filter)), nil
}

func (s *Storage) GetTodosPage(_ context.Context, filter string, offset, limit int) ([]models.Todo, error) {
	if offset < 0 || limit <= 0 {
		return nil, errors.ErrInvalidArgument
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	todos := s.filtered(filter)
	if offset >= len(todos) {
		return []models.Todo{}, nil
	}
	end := len(todos)
	if limit < end-offset {
		end = offset + limit
	}
	return todos[offset:end], nil
}

// filtered returns matching todos ordered by id, the same order the SQL stores use.
func (s *Storage) filtered(filter string) []models.Todo {
	todos := make([]models.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if pagination.Matches(t, filter) {
			todos = append(todos, t)
		}
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].ID < todos[j].ID })
	return todos
}
