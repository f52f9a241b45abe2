package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"todoapp/internal/domain/errors"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
)

const (
	defaultAddr            = "0.0.0.0"
	defaultPort            = 8080
	defaultStorage         = StoragePostgres
	defaultDBStr           = "postgresql://shouldbeinVaultuser:shouldbeinVaultpassword@db:5432/todos?sslmode=disable"
	defaultSQLitePath      = "todos.db"
	defaultMigratePath     = "migrations"
	defaultJWTSecret       = "dev-secret-change-me"
	defaultJWTTTL          = 24 * time.Hour
	defaultEnvironment     = "development"
	defaultLogLevel        = "info"
	defaultShutdownTimeout = 30 * time.Second
	defaultPageSize        = 2
)

// Duration reads "15s"-style strings from the JSON config file.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrConfigInvalidFormat, b)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %s", errors.ErrConfigInvalidFormat, s)
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	Addr            string   `json:"addr"`
	Port            int      `json:"port"`
	Storage         string   `json:"storage"`
	DBStr           string   `json:"db_str"`
	SQLitePath      string   `json:"sqlite_path"`
	MigratePath     string   `json:"migrate_path"`
	JWTSecret       string   `json:"jwt_secret"`
	JWTTTL          Duration `json:"jwt_ttl"`
	Environment     string   `json:"environment"`
	LogLevel        string   `json:"log_level"`
	ShutdownTimeout Duration `json:"shutdown_timeout"`
	DefaultPageSize int      `json:"default_page_size"`
	BcryptCost      int      `json:"bcrypt_cost"`
}

func DefaultConfig() *Config {
	return &Config{
		Addr:            defaultAddr,
		Port:            defaultPort,
		Storage:         defaultStorage,
		DBStr:           defaultDBStr,
		SQLitePath:      defaultSQLitePath,
		MigratePath:     defaultMigratePath,
		JWTSecret:       defaultJWTSecret,
		JWTTTL:          Duration(defaultJWTTTL),
		Environment:     defaultEnvironment,
		LogLevel:        defaultLogLevel,
		ShutdownTimeout: Duration(defaultShutdownTimeout),
		DefaultPageSize: defaultPageSize,
	}
}

func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Addr, strconv.Itoa(c.Port))
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ReadConfig layers the configuration: defaults, JSON file (-c or CONFIG), .env and
// environment, then command line flags. args excludes the program name.
func ReadConfig(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("todoapp", flag.ContinueOnError)
	var (
		addr        = fs.String("addr", defaultAddr, "адрес сервера")
		port        = fs.Int("port", defaultPort, "порт сервера")
		storage     = fs.String("storage", defaultStorage, "хранилище: postgres, sqlite или memory")
		dbstr       = fs.String("dbstr", defaultDBStr, "строка подключения к БД")
		dbDsn       = fs.String("dbdsn", "", "DSN для подключения к базе данных (приоритетнее dbstr)")
		sqlitePath  = fs.String("sqlite", defaultSQLitePath, "путь к файлу SQLite")
		migratePath = fs.String("migratepath", defaultMigratePath, "путь к папке с миграциями")
		logLevel    = fs.String("loglevel", defaultLogLevel, "уровень логирования")
		configFile  = fs.String("c", "", "путь к файлу конфигурации JSON")
	)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrConfigInvalidFormat, err)
	}

	cfg := DefaultConfig()

	path := *configFile
	if path == "" {
		path = os.Getenv("CONFIG")
	}
	if path != "" {
		if err := loadJSONConfig(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	// Only flags given explicitly override the lower layers.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "port":
			cfg.Port = *port
		case "storage":
			cfg.Storage = *storage
		case "dbstr":
			if *dbDsn == "" {
				cfg.DBStr = *dbstr
			}
		case "dbdsn":
			cfg.DBStr = *dbDsn
		case "sqlite":
			cfg.SQLitePath = *sqlitePath
		case "migratepath":
			cfg.MigratePath = *migratePath
		case "loglevel":
			cfg.LogLevel = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres, StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownStorage, c.Storage)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: порт должен быть от 1 до 65535: %d", errors.ErrConfigInvalidFormat, c.Port)
	}
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("%w: размер страницы должен быть больше нуля: %d", errors.ErrConfigInvalidFormat, c.DefaultPageSize)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: пустой JWT секрет", errors.ErrConfigInvalidFormat)
	}
	if c.IsProduction() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("%w: JWT_SECRET обязателен в production", errors.ErrConfigInvalidFormat)
	}
	return nil
}

func loadJSONConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w %s: %v", errors.ErrConfigFileReadFailed, path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConfigParseFailed, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w в переменной окружения %s: %s", errors.ErrConfigInvalidFormat, key, v)
		}
		*dst = n
		return nil
	}
	setDuration := func(key string, dst *Duration) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w в переменной окружения %s: %s", errors.ErrConfigInvalidFormat, key, v)
		}
		*dst = Duration(d)
		return nil
	}

	setString("ADDR", &cfg.Addr)
	setString("STORAGE", &cfg.Storage)
	setString("DB_STR", &cfg.DBStr)
	setString("SQLITE_PATH", &cfg.SQLitePath)
	setString("MIGRATE_PATH", &cfg.MigratePath)
	setString("JWT_SECRET", &cfg.JWTSecret)
	setString("ENVIRONMENT", &cfg.Environment)
	setString("LOG_LEVEL", &cfg.LogLevel)

	for key, dst := range map[string]*int{"PORT": &cfg.Port, "PAGE_SIZE": &cfg.DefaultPageSize, "BCRYPT_COST": &cfg.BcryptCost} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}
	for key, dst := range map[string]*Duration{"JWT_TTL": &cfg.JWTTTL, "SHUTDOWN_TIMEOUT": &cfg.ShutdownTimeout} {
		if err := setDuration(key, dst); err != nil {
			return err
		}
	}

	if cfg.DBStr == defaultDBStr {
		dbUser := os.Getenv("DB_USER")
		dbPassword := os.Getenv("DB_PASSWORD")
		dbName := os.Getenv("DB_NAME")
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		if dbUser != "" && dbPassword != "" && dbName != "" && dbHost != "" && dbPort != "" {
			cfg.DBStr = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, dbHost, dbPort, dbName)
		}
	}
	return nil
}
