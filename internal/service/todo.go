package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"
	"todoapp/internal/pagination"

	"github.com/go-playground/validator"
	"go.uber.org/zap"
)

// TodoRepository is implemented by every todo store. An empty filter means no filter;
// a non-empty one keeps todos whose title contains it (case-sensitive, literal).
type TodoRepository interface {
	CreateTodo(ctx context.Context, todo *models.Todo) error
	UpdateTodo(ctx context.Context, id int64, todo *models.Todo) error
	GetTodoByID(ctx context.Context, id int64) (*models.Todo, error)
	DeleteTodo(ctx context.Context, id int64) error
	GetTodos(ctx context.Context, filter string) ([]models.Todo, error)
	CountTodos(ctx context.Context, filter string) (int, error)
	GetTodosPage(ctx context.Context, filter string, offset, limit int) ([]models.Todo, error)
}

type TodoService struct {
	repo     TodoRepository
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewTodoService(repo TodoRepository, logger *zap.Logger) *TodoService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoService{
		repo:     repo,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// List returns one page of todos. An out-of-range page is clamped to the last page.
func (s *TodoService) List(ctx context.Context, query models.ListQuery) (models.PageView, error) {
	total, err := s.repo.CountTodos(ctx, query.Filter)
	if err != nil {
		return models.PageView{}, err
	}

	window, err := pagination.Bounds(total, query.Page, query.Size)
	if err != nil {
		return models.PageView{}, err
	}

	var items []models.Todo
	if window.PageCount > 0 {
		items, err = s.repo.GetTodosPage(ctx, query.Filter, window.Offset, window.Limit)
		if err != nil {
			return models.PageView{}, err
		}
	}

	page, err := pagination.ComputePage(total, window.PageIndex, query.Size, items)
	if err != nil {
		return models.PageView{}, err
	}
	page.Filter = query.Filter
	return page, nil
}

func (s *TodoService) All(ctx context.Context, filter string) ([]models.Todo, error) {
	return s.repo.GetTodos(ctx, filter)
}

func (s *TodoService) Create(ctx context.Context, todo models.Todo) (*models.Todo, error) {
	if err := s.normalize(&todo); err != nil {
		return nil, err
	}
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = s.now().UTC()
	}
	todo.ID = 0

	if err := s.repo.CreateTodo(ctx, &todo); err != nil {
		s.logger.Error("не удалось создать задачу", zap.Error(err))
		return nil, err
	}
	s.logger.Info("задача создана", zap.Int64("todo_id", todo.ID))
	return &todo, nil
}

func (s *TodoService) Get(ctx context.Context, id int64) (*models.Todo, error) {
	return s.repo.GetTodoByID(ctx, id)
}

// Update replaces title, completion and priority. The creation time is kept.
func (s *TodoService) Update(ctx context.Context, id int64, changes models.Todo) (*models.Todo, error) {
	if err := s.normalize(&changes); err != nil {
		return nil, err
	}

	todo, err := s.repo.GetTodoByID(ctx, id)
	if err != nil {
		return nil, err
	}
	todo.Title = changes.Title
	todo.Completed = changes.Completed
	todo.Priority = changes.Priority

	if err := s.repo.UpdateTodo(ctx, id, todo); err != nil {
		return nil, err
	}
	s.logger.Info("задача обновлена", zap.Int64("todo_id", id))
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteTodo(ctx, id); err != nil {
		return err
	}
	s.logger.Info("задача удалена", zap.Int64("todo_id", id))
	return nil
}

// ToggleCompleted flips the completed flag with a plain read then write.
// Two concurrent toggles of the same todo race and the last write wins.
func (s *TodoService) ToggleCompleted(ctx context.Context, id int64) (*models.Todo, error) {
	todo, err := s.repo.GetTodoByID(ctx, id)
	if err != nil {
		return nil, err
	}
	todo.Completed = !todo.Completed
	if err := s.repo.UpdateTodo(ctx, id, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *TodoService) normalize(todo *models.Todo) error {
	todo.Title = strings.TrimSpace(todo.Title)
	if todo.Priority == "" {
		todo.Priority = models.PriorityLow
	}
	if !todo.Priority.Valid() {
		return errors.ErrInvalidPriority
	}
	if err := s.validate.Struct(todo); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			return errors.ErrInvalidTitle
		}
		return err
	}
	return nil
}
