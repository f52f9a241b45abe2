package server

import (
	"context"
	"net/http"
	"time"

	"todoapp/internal/auth"
	"todoapp/internal/domain/errors"
	"todoapp/internal/domain/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TodoService interface {
	List(ctx context.Context, query models.ListQuery) (models.PageView, error)
	All(ctx context.Context, filter string) ([]models.Todo, error)
	Create(ctx context.Context, todo models.Todo) (*models.Todo, error)
	Get(ctx context.Context, id int64) (*models.Todo, error)
	Update(ctx context.Context, id int64, changes models.Todo) (*models.Todo, error)
	Delete(ctx context.Context, id int64) error
	ToggleCompleted(ctx context.Context, id int64) (*models.Todo, error)
}

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	User(ctx context.Context, id string) (*models.User, error)
}

type TodoAPI struct {
	httpSrv       *http.Server
	todos         TodoService
	users         UserService
	tokens        *auth.TokenManager
	logger        *zap.Logger
	metrics       *httpMetrics
	pageSize      int
	secureCookies bool
}

func NewTodoAPI(cfg *Config, todos TodoService, users UserService, tokens *auth.TokenManager, logger *zap.Logger) *TodoAPI {
	if todos == nil || users == nil || tokens == nil {
		return nil
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	api := &TodoAPI{
		httpSrv: &http.Server{
			Addr:              cfg.ListenAddr(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		todos:         todos,
		users:         users,
		tokens:        tokens,
		logger:        logger,
		metrics:       newHTTPMetrics(),
		pageSize:      cfg.DefaultPageSize,
		secureCookies: cfg.IsProduction(),
	}
	if api.pageSize <= 0 {
		api.pageSize = defaultPageSize
	}

	router, err := api.configRoutes()
	if err != nil {
		logger.Error("не удалось загрузить шаблоны", zap.Error(err))
		return nil
	}
	api.httpSrv.Handler = router
	return api
}

// Handler exposes the router, mostly for tests.
func (api *TodoAPI) Handler() http.Handler {
	return api.httpSrv.Handler
}

func (api *TodoAPI) Start() error {
	if api.httpSrv == nil {
		return errors.ErrInternalServer
	}
	api.logger.Info("сервис запущен", zap.String("addr", api.httpSrv.Addr))
	if err := api.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (api *TodoAPI) Shutdown(ctx context.Context) error {
	return api.httpSrv.Shutdown(ctx)
}

func (api *TodoAPI) configRoutes() (*gin.Engine, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.SetHTMLTemplate(tmpl)
	router.Use(
		RequestLogger(api.logger),
		Recovery(api.logger),
		api.metrics.middleware(),
		GzipRequestDecompress(),
		GzipResponseCompress(),
	)

	router.NoRoute(func(ctx *gin.Context) {
		api.render(ctx, http.StatusNotFound, "not_found.html", "Не найдено", gin.H{"Message": "страница не найдена"})
	})
	router.NoMethod(func(ctx *gin.Context) {
		api.render(ctx, http.StatusMethodNotAllowed, "error.html", "Ошибка", gin.H{
			"Status":  http.StatusMethodNotAllowed,
			"Message": "использован некорректный HTTP-метод",
		})
	})

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", api.metrics.handler())

	authGroup := router.Group("/auth")
	{
		authGroup.GET("/login", api.loginForm)
		authGroup.POST("/login", api.login)
		authGroup.POST("/logout", api.logout)
		authGroup.GET("/register", api.registerForm)
		authGroup.POST("/register", api.register)
	}

	todos := router.Group("/", RequireAuth(api.tokens), api.requireUser)
	{
		todos.GET("", api.listTodos)
		todos.GET("all", api.allTodos)
		todos.GET("add", api.addForm)
		todos.POST("add", api.addTodo)
		todos.GET("update/:id", api.updateForm)
		todos.POST("update/:id", api.updateTodo)
		todos.GET("delete/:id", api.deleteForm)
		todos.POST("delete/:id", api.deleteTodo)
		todos.POST("update-completed/:id", api.toggleCompleted)
	}

	return router, nil
}
