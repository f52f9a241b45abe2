package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todoapp/internal/auth"
	"todoapp/internal/domain/errors"
	"todoapp/internal/server"
	"todoapp/internal/service"
	db "todoapp/repository/db"
	inmemory "todoapp/repository/inmemory"
	"todoapp/repository/sqlite"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// API is the part of server.TodoAPI that main drives.
type API interface {
	Start() error
	Shutdown(ctx context.Context) error
}

type store interface {
	service.TodoRepository
	service.UserRepository
}

type Repositories struct {
	Store store
	Kind  string
	Close func()
}

func main() {
	cfg, err := server.ReadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("[ERROR] Ошибка чтения конфигурации: %v", err)
	}

	logger := initLogger(cfg.Environment, cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	logger.Info("запуск сервиса задач", zap.String("environment", cfg.Environment), zap.String("storage", cfg.Storage))

	repos, err := InitializeRepositories(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("не удалось инициализировать хранилище", zap.Error(err))
	}
	defer repos.Close()

	todos := service.NewTodoService(repos.Store, logger)
	users := service.NewAuthService(repos.Store, auth.NewPasswordHasher(cfg.BcryptCost), logger)
	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTTTL))

	api := server.NewTodoAPI(cfg, todos, users, tokens, logger)
	if api == nil {
		logger.Fatal("не удалось инициализировать API")
	}

	sigChan, serverErr := StartServer(api, logger)

	select {
	case sig := <-sigChan:
		logger.Info("получен сигнал, начинаем graceful shutdown", zap.String("signal", sig.String()))
		if err := HandleShutdown(api, time.Duration(cfg.ShutdownTimeout)); err != nil {
			logger.Error("ошибка при graceful shutdown", zap.Error(err))
		} else {
			logger.Info("graceful shutdown выполнен успешно")
		}
	case err := <-serverErr:
		logger.Error("ошибка сервера", zap.Error(err))
	}

	logger.Info("сервис завершен")
}

func initLogger(environment, level string) *zap.Logger {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("[ERROR] Не удалось инициализировать логгер: %v", err)
	}
	return logger
}

// InitializeRepositories opens the configured store. A database that cannot be
// reached falls back to the in-memory store.
func InitializeRepositories(ctx context.Context, cfg *server.Config, logger *zap.Logger) (*Repositories, error) {
	switch cfg.Storage {
	case server.StorageMemory:
		return memoryRepositories(), nil

	case server.StorageSQLite:
		s, err := sqlite.NewStorage(cfg.SQLitePath, logger)
		if err != nil {
			logger.Warn("не удалось открыть SQLite, используем память", zap.Error(err))
			return memoryRepositories(), nil
		}
		return &Repositories{Store: s, Kind: server.StorageSQLite, Close: s.Close}, nil

	case server.StoragePostgres:
		s, err := db.NewStorage(ctx, cfg.DBStr, logger)
		if err != nil {
			logger.Warn("не удалось подключиться к БД, используем память", zap.Error(err))
			return memoryRepositories(), nil
		}
		if err := RunMigrations(cfg); err != nil {
			s.Close()
			return nil, err
		}
		logger.Info("миграции применены успешно")
		return &Repositories{Store: s, Kind: server.StoragePostgres, Close: s.Close}, nil

	default:
		return nil, errors.ErrUnknownStorage
	}
}

func memoryRepositories() *Repositories {
	return &Repositories{Store: inmemory.NewStorage(), Kind: server.StorageMemory, Close: func() {}}
}

func RunMigrations(cfg *server.Config) error {
	return db.Migration(cfg.DBStr, cfg.MigratePath)
}

// StartServer runs api in the background and returns the channels main waits on.
func StartServer(api API, logger *zap.Logger) (chan os.Signal, chan error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := api.Start(); err != nil {
			logger.Error("сервер остановлен с ошибкой", zap.Error(err))
			serverErr <- err
		}
	}()
	return sigChan, serverErr
}

func HandleShutdown(api API, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return api.Shutdown(ctx)
}
