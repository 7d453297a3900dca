package app

import (
	"bountyBuddy/internal/cache"
	"bountyBuddy/internal/config"
	"bountyBuddy/internal/handlers"
	"bountyBuddy/internal/logger"
	"bountyBuddy/internal/middleware"
	"bountyBuddy/internal/presentation"
	"bountyBuddy/internal/repository/task/inmemory"
	"bountyBuddy/internal/repository/task/postgres"
	"bountyBuddy/internal/repository/task/sqlite"
	"bountyBuddy/internal/service"
	"bountyBuddy/internal/telemetry"
	"bountyBuddy/internal/worker"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "bountyBuddy"

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TaskRepository
	service    *service.TaskService
	worker     *worker.ExpiryWorker
	shutdowns  []func(context.Context) error // выполняются в обратном порядке

	group  *errgroup.Group
	cancel context.CancelFunc
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(context.Context) error, 0),
	}
}

// Init поднимает логгер, телеметрию, хранилище, сервис и HTTP-сервер
func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	a.onShutdown(func(context.Context) error {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
		return nil
	})

	if a.config.Telemetry.Enabled {
		name := a.config.Telemetry.ServiceName
		if name == "" {
			name = serviceName
		}
		shutdown, err := telemetry.Init(ctx, name, a.config.Telemetry.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("инициализация телеметрии: %w", err)
		}
		a.onShutdown(shutdown)
	}

	repo, err := a.initRepository(ctx)
	if err != nil {
		return err
	}
	a.repository = repo

	// гейдж читает статистику через сервис, который создаётся ниже
	var svc *service.TaskService
	metrics, err := telemetry.NewMetrics(otel.Meter(serviceName), func(ctx context.Context) int64 {
		return svc.OpenTasks(ctx)
	})
	if err != nil {
		return fmt.Errorf("инициализация метрик: %w", err)
	}
	svc = service.NewTaskService(repo, service.WithMetrics(metrics))
	a.service = svc

	catalog, err := presentation.LoadCatalog()
	if err != nil {
		return fmt.Errorf("загрузка подписей: %w", err)
	}

	a.router = a.initRouter(catalog)
	a.server = &http.Server{
		Addr: a.config.GetServerAddr(),
		Handler: otelhttp.NewHandler(a.router, serviceName,
			otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" }),
		),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	if a.config.Worker.Enabled {
		a.worker = worker.NewExpiryWorker(repo, a.config.Worker.Schedule, a.config.Worker.BatchSize,
			worker.WithMetrics(metrics))
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.Bool("cache", a.config.Redis.Enabled),
		zap.Bool("worker", a.config.Worker.Enabled),
		zap.Bool("telemetry", a.config.Telemetry.Enabled))
	return nil
}

func (a *App) initRepository(ctx context.Context) (service.TaskRepository, error) {
	var repo service.TaskRepository

	switch a.config.Repository.Type {
	case config.RepoPostgres:
		storage, err := postgres.New(ctx, a.config.Database.URL, postgres.PoolConfig{
			MaxConns:        a.config.Database.MaxConnections,
			MinConns:        a.config.Database.MinConnections,
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("подключение к postgres: %w", err)
		}
		if err := storage.Migrate(ctx); err != nil {
			storage.Close()
			return nil, err
		}
		a.onShutdown(func(context.Context) error {
			storage.Close()
			return nil
		})
		repo = storage

	case config.RepoSQLite:
		storage, err := sqlite.New(a.config.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("открытие sqlite: %w", err)
		}
		a.onShutdown(func(context.Context) error { return storage.Close() })
		repo = storage

	default:
		repo = inmemory.NewTaskStorage()
	}

	if a.config.Redis.Enabled {
		c := cache.NewFromConfig(a.config.Redis)
		if err := c.Ping(ctx); err != nil {
			logger.Warn("Redis недоступен, кэш будет пропускаться", zap.String("addr", a.config.Redis.Addr), zap.Error(err))
		}
		if err := c.RegisterMetrics(otel.Meter(serviceName)); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("метрики кэша: %w", err)
		}
		a.onShutdown(func(context.Context) error { return c.Close() })
		repo = cache.NewTaskRepository(repo, c)
	}

	return repo, nil
}

func (a *App) initRouter(catalog *presentation.Catalog) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type", "X-Request-ID", middleware.UserIDHeader},
		ExposedHeaders: []string{"X-Request-ID", "Content-Language", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	if a.config.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(a.config.Server.RequestTimeout))
	}
	r.Use(middleware.RateLimit(a.config.Server.RateLimit, a.config.Server.RateBurst))
	r.Use(middleware.Identity)
	r.Use(middleware.Locale(catalog))

	handlers.NewTaskHandler(a.service, catalog.Default()).Register(r)
	return r
}

func (a *App) onShutdown(fn func(context.Context) error) {
	a.shutdowns = append(a.shutdowns, fn)
}

// Handler отдаёт корневой обработчик, используется в тестах
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Start открывает порт и запускает сервер и воркер в фоне
func (a *App) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("открытие порта %s: %w", a.server.Addr, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	g, gctx := errgroup.WithContext(runCtx)
	a.group = g

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", ln.Addr().String()))
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ошибка сервера", err)
			return err
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			return a.worker.Start(gctx)
		})
	}
	return nil
}

// Stop останавливает сервер, воркер и освобождает ресурсы
func (a *App) Stop(ctx context.Context) error {
	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("остановка сервера: %w", err))
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.group != nil {
		if err := a.group.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		if err := a.shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
