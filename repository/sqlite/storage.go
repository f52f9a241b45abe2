// Package sqlite is a single-file todo and user store built on gorm.
package sqlite

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// matchesFilter uses instr so that % and _ in a filter are matched literally.
const matchesFilter = `? = '' OR instr(title, ?) > 0`

type todoRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Title     string `gorm:"size:255;not null"`
	Completed bool   `gorm:"not null;default:false"`
	Priority  string `gorm:"size:16;not null;default:LOW"`
	CreatedAt time.Time
}

func (todoRecord) TableName() string { return "todos" }

type userRecord struct {
	ID       string `gorm:"primaryKey;size:36"`
	Username string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`
	Role     string `gorm:"not null;default:USER"`
}

func (userRecord) TableName() string { return "users" }

type Storage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStorage opens the database at path (":memory:" works) and migrates the schema.
func NewStorage(path string, log *zap.Logger) (*Storage, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path == "" {
		return nil, errors.ErrInvalidArgument
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		log.Error("не удалось открыть базу SQLite", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", errors.ErrInternalServer, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInternalServer, err)
	}
	// A second connection to ":memory:" would see an empty database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&todoRecord{}, &userRecord{}); err != nil {
		_ = sqlDB.Close()
		log.Error("не удалось применить схему SQLite", zap.Error(err))
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	log.Info("база SQLite открыта", zap.String("path", path))
	return &Storage{db: db, logger: log}, nil
}

func (s *Storage) Close() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (s *Storage) CreateTodo(ctx context.Context, todo *models.Todo) error {
	rec := toRecord(todo)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		s.logger.Error("не удалось создать задачу", zap.Error(err))
		return fmt.Errorf("create todo: %w", err)
	}
	todo.ID = rec.ID
	todo.CreatedAt = rec.CreatedAt
	return nil
}

func (s *Storage) UpdateTodo(ctx context.Context, id int64, todo *models.Todo) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing todoRecord
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			return s.todoError(err, id)
		}
		err := tx.Model(&existing).Updates(map[string]any{
			"title":     todo.Title,
			"completed": todo.Completed,
			"priority":  string(todo.Priority),
		}).Error
		if err != nil {
			s.logger.Error("не удалось обновить задачу", zap.Int64("todo_id", id), zap.Error(err))
			return fmt.Errorf("update todo %d: %w", id, err)
		}
		todo.ID = id
		todo.CreatedAt = existing.CreatedAt.UTC()
		return nil
	})
}

func (s *Storage) GetTodoByID(ctx context.Context, id int64) (*models.Todo, error) {
	var rec todoRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, s.todoError(err, id)
	}
	todo := rec.toModel()
	return &todo, nil
}

func (s *Storage) DeleteTodo(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&todoRecord{}, "id = ?", id)
	if result.Error != nil {
		s.logger.Error("не удалось удалить задачу", zap.Int64("todo_id", id), zap.Error(result.Error))
		return fmt.Errorf("delete todo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrTodoNotFound
	}
	return nil
}

func (s *Storage) GetTodos(ctx context.Context, filter string) ([]models.Todo, error) {
	var recs []todoRecord
	err := s.filtered(ctx, filter).Order("id").Find(&recs).Error
	if err != nil {
		s.logger.Error("не удалось получить задачи", zap.Error(err))
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return toModels(recs), nil
}

func (s *Storage) CountTodos(ctx context.Context, filter string) (int, error) {
	var count int64
	if err := s.filtered(ctx, filter).Count(&count).Error; err != nil {
		s.logger.Error("не удалось посчитать задачи", zap.Error(err))
		return 0, fmt.Errorf("count todos: %w", err)
	}
	return int(count), nil
}

func (s *Storage) GetTodosPage(ctx context.Context, filter string, offset, limit int) ([]models.Todo, error) {
	if offset < 0 || limit <= 0 {
		return nil, errors.ErrInvalidArgument
	}
	var recs []todoRecord
	err := s.filtered(ctx, filter).Order("id").Offset(offset).Limit(limit).Find(&recs).Error
	if err != nil {
		s.logger.Error("не удалось получить страницу задач", zap.Error(err))
		return nil, fmt.Errorf("page todos: %w", err)
	}
	return toModels(recs), nil
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	rec := userRecord{ID: user.ID, Username: user.Username, Password: user.Password, Role: user.Role}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return errors.ErrUserAlreadyExists
		}
		s.logger.Error("не удалось создать пользователя", zap.String("username", user.Username), zap.Error(err))
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "username = ?", username)
}

func (s *Storage) getUser(ctx context.Context, cond, arg string) (*models.User, error) {
	var rec userRecord
	if err := s.db.WithContext(ctx).First(&rec, cond, arg).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		s.logger.Error("ошибка при получении пользователя", zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &models.User{ID: rec.ID, Username: rec.Username, Password: rec.Password, Role: rec.Role}, nil
}

func (s *Storage) filtered(ctx context.Context, filter string) *gorm.DB {
	return s.db.WithContext(ctx).Model(&todoRecord{}).Where(matchesFilter, filter, filter)
}

func (s *Storage) todoError(err error, id int64) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.ErrTodoNotFound
	}
	s.logger.Error("ошибка при получении задачи", zap.Int64("todo_id", id), zap.Error(err))
	return fmt.Errorf("get todo %d: %w", id, err)
}

func toRecord(todo *models.Todo) todoRecord {
	return todoRecord{
		Title:     todo.Title,
		Completed: todo.Completed,
		Priority:  string(todo.Priority),
		CreatedAt: todo.CreatedAt,
	}
}

func (r todoRecord) toModel() models.Todo {
	return models.Todo{
		ID:        r.ID,
		Title:     r.Title,
		Completed: r.Completed,
		Priority:  models.Priority(r.Priority),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func toModels(recs []todoRecord) []models.Todo {
	todos := make([]models.Todo, 0, len(recs))
	for _, r := range recs {
		todos = append(todos, r.toModel())
	}
	return todos
}
