package db

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	queryTimeout        = 15 * time.Second
	uniqueViolationCode = "23505"
)

const todoColumns = `id, title, completed, priority, created_at`

// matchesFilter uses strpos so that % and _ in a filter are matched literally.
const matchesFilter = `($1::text = '' OR strpos(title, $1::text) > 0)`

type Storage struct {
	pool   *pgxpool.Pool
	logger *zap.Logger

	queryCreateTodo    string
	queryUpdateTodo    string
	queryGetTodoByID   string
	queryDeleteTodo    string
	queryGetTodos      string
	queryCountTodos    string
	queryGetTodosPage  string
	queryCreateUser    string
	queryGetUserByID   string
	queryGetUserByName string
}

func NewStorage(ctx context.Context, connStr string, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		logger.Error("не удалось подключиться к базе данных", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", errors.ErrInternalServer, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("база данных недоступна", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", errors.ErrInternalServer, err)
	}

	s := &Storage{
		pool:   pool,
		logger: logger,

		queryCreateTodo:    `INSERT INTO todos (title, completed, priority, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		queryUpdateTodo:    `UPDATE todos SET title = $1, completed = $2, priority = $3 WHERE id = $4 RETURNING created_at`,
		queryGetTodoByID:   `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`,
		queryDeleteTodo:    `DELETE FROM todos WHERE id = $1`,
		queryGetTodos:      `SELECT ` + todoColumns + ` FROM todos WHERE ` + matchesFilter + ` ORDER BY id`,
		queryCountTodos:    `SELECT COUNT(*) FROM todos WHERE ` + matchesFilter,
		queryGetTodosPage:  `SELECT ` + todoColumns + ` FROM todos WHERE ` + matchesFilter + ` ORDER BY id LIMIT $2 OFFSET $3`,
		queryCreateUser:    `INSERT INTO users (id, username, password, role) VALUES ($1, $2, $3, $4)`,
		queryGetUserByID:   `SELECT id, username, password, role FROM users WHERE id = $1`,
		queryGetUserByName: `SELECT id, username, password, role FROM users WHERE username = $1`,
	}
	logger.Info("соединение с базой данных установлено")
	return s, nil
}

func (s *Storage) Close() {
	s.pool.Close()
}

func (s *Storage) CreateTodo(ctx context.Context, todo *models.Todo) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := s.pool.QueryRow(ctx, s.queryCreateTodo,
		todo.Title, todo.Completed, string(todo.Priority), todo.CreatedAt,
	).Scan(&todo.ID)
	if err != nil {
		s.logger.Error("не удалось создать задачу", zap.Error(err))
		return fmt.Errorf("create todo: %w", err)
	}
	return nil
}

func (s *Storage) UpdateTodo(ctx context.Context, id int64, todo *models.Todo) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := s.pool.QueryRow(ctx, s.queryUpdateTodo,
		todo.Title, todo.Completed, string(todo.Priority), id,
	).Scan(&todo.CreatedAt)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return errors.ErrTodoNotFound
		}
		s.logger.Error("не удалось обновить задачу", zap.Int64("todo_id", id), zap.Error(err))
		return fmt.Errorf("update todo %d: %w", id, err)
	}
	todo.ID = id
	return nil
}

func (s *Storage) GetTodoByID(ctx context.Context, id int64) (*models.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	todo, err := scanTodo(s.pool.QueryRow(ctx, s.queryGetTodoByID, id))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrTodoNotFound
		}
		s.logger.Error("ошибка при получении задачи", zap.Int64("todo_id", id), zap.Error(err))
		return nil, fmt.Errorf("get todo %d: %w", id, err)
	}
	return todo, nil
}

func (s *Storage) DeleteTodo(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, s.queryDeleteTodo, id)
	if err != nil {
		s.logger.Error("не удалось удалить задачу", zap.Int64("todo_id", id), zap.Error(err))
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTodoNotFound
	}
	return nil
}

func (s *Storage) GetTodos(ctx context.Context, filter string) ([]models.Todo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, s.queryGetTodos, filter)
	if err != nil {
		s.logger.Error("не удалось получить задачи", zap.Error(err))
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return collectTodos(rows)
}

func (s *Storage) CountTodos(ctx context.Context, filter string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	if err := s.pool.QueryRow(ctx, s.queryCountTodos, filter).Scan(&count); err != nil {
		s.logger.Error("не удалось посчитать задачи", zap.Error(err))
		return 0, fmt.Errorf("count todos: %w", err)
	}
	return count, nil
}

func (s *Storage) GetTodosPage(ctx context.Context, filter string, offset, limit int) ([]models.Todo, error) {
	if offset < 0 || limit <= 0 {
		return nil, errors.ErrInvalidArgument
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, s.queryGetTodosPage, filter, limit, offset)
	if err != nil {
		s.logger.Error("не удалось получить страницу задач", zap.Error(err))
		return nil, fmt.Errorf("page todos: %w", err)
	}
	return collectTodos(rows)
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, s.queryCreateUser, user.ID, user.Username, user.Password, user.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return errors.ErrUserAlreadyExists
		}
		s.logger.Error("не удалось создать пользователя", zap.String("username", user.Username), zap.Error(err))
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.ErrUserNotFound
	}
	return s.getUser(ctx, s.queryGetUserByID, id)
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, s.queryGetUserByName, username)
}

func (s *Storage) getUser(ctx context.Context, query, arg string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user := &models.User{}
	err := s.pool.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Username, &user.Password, &user.Role)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrUserNotFound
		}
		s.logger.Error("ошибка при получении пользователя", zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func scanTodo(row pgx.Row) (*models.Todo, error) {
	var (
		todo     models.Todo
		priority string
	)
	if err := row.Scan(&todo.ID, &todo.Title, &todo.Completed, &priority, &todo.CreatedAt); err != nil {
		return nil, err
	}
	todo.Priority = models.Priority(priority)
	todo.CreatedAt = todo.CreatedAt.UTC()
	return &todo, nil
}

func collectTodos(rows pgx.Rows) ([]models.Todo, error) {
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read todos: %w", err)
	}
	return todos, nil
}
