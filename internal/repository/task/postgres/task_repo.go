package postgres

import (
	"bountyBuddy/internal/logger"
	"bountyBuddy/internal/migrations"
	"bountyBuddy/internal/models/application"
	"bountyBuddy/internal/models/task"
	repo "bountyBuddy/internal/repository"
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	slowQuery = time.Millisecond * 100

	taskColumns = `id, publisher_id, title, description, category, task_type,
		bounty_amount, participant_count, current_participants,
		location, latitude, longitude, is_online, radius,
		start_time, end_time, tags, required_skills, status,
		verification_method, created_at, updated_at`
)

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

type Storage struct {
	pool       *pgxpool.Pool
	migrateURL string
}

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if poolCfg.MaxConns > 0 {
		config.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		config.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", classify(err))
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	migrateURL, err := MigrationURL(connString)
	if err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool, migrateURL: migrateURL}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

// classify помечает сетевые ошибки и таймауты как ErrUnavailable
func classify(err error) error {
	if err == nil {
		return nil
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", repo.ErrUnavailable, err)
	}
	return err
}

func warnIfSlow(op string, start time.Time, budget time.Duration) {
	if elapsed := time.Since(start); elapsed > budget {
		logger.Warn("Repository: Медленный запрос", zap.String("op", op), zap.Duration("ms", elapsed))
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", classify(err))
	}
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(publisher_id, title, description, category, task_type,
				bounty_amount, participant_count, current_participants,
				location, latitude, longitude, is_online, radius,
				start_time, end_time, tags, required_skills, status, verification_method)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
				RETURNING id, created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.PublisherID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Category,
		taskToCreate.TaskType,
		taskToCreate.BountyAmount,
		taskToCreate.ParticipantCount,
		taskToCreate.CurrentParticipants,
		taskToCreate.Location,
		taskToCreate.Latitude,
		taskToCreate.Longitude,
		taskToCreate.IsOnline,
		taskToCreate.Radius,
		taskToCreate.StartTime,
		taskToCreate.EndTime,
		taskToCreate.Tags,
		taskToCreate.RequiredSkills,
		taskToCreate.Status,
		taskToCreate.VerificationMethod,
	).Scan(&taskToCreate.ID, &taskToCreate.CreatedAt, &taskToCreate.UpdatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", classify(err))
	}

	warnIfSlow("create", start, slowQuery)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	found, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", classify(err))
	}

	warnIfSlow("get_by_id", start, slowQuery)
	return found, nil
}

// выборка по фильтру, порядок - по возрастанию id
func (s *Storage) List(ctx context.Context, filter task.ListFilter) ([]*task.Task, error) {
	start := time.Now()

	where := []string{"id > $1"}
	args := []any{filter.AfterID}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.IsOnline != nil {
		args = append(args, *filter.IsOnline)
		where = append(where, fmt.Sprintf("is_online = $%d", len(args)))
	}
	args = append(args, filter.Limit)

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY id LIMIT $%d`,
		taskColumns, strings.Join(where, " AND "), len(args))

	tasks, err := s.queryTasks(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, err
	}

	warnIfSlow("list", start, time.Millisecond*50+time.Millisecond*10*time.Duration(filter.Limit))
	return tasks, nil
}

// UpdateStatus пишет статус, только если он всё ещё равен from
func (s *Storage) UpdateStatus(ctx context.Context, id int64, from, to task.Status) (time.Time, error) {
	start := time.Now()

	query := `UPDATE tasks
			SET status = $3,
				updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING updated_at`

	var updatedAt time.Time
	err := s.pool.QueryRow(ctx, query, id, from, to).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists); err != nil {
			return time.Time{}, fmt.Errorf("проверка задачи: %w", classify(err))
		}
		if !exists {
			return time.Time{}, repo.ErrNotFound
		}
		return time.Time{}, repo.ErrConflict
	}
	if err != nil {
		logger.Error("Repository: Не удалось обновить статус", err, zap.Duration("ms", time.Since(start)))
		return time.Time{}, fmt.Errorf("обновление статуса: %w", classify(err))
	}

	warnIfSlow("update_status", start, slowQuery)
	return updatedAt.UTC(), nil
}

// открытые задачи, у которых время окончания раньше deadline
func (s *Storage) GetOpenEndedBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks
              WHERE status = $1
                AND end_time IS NOT NULL
                AND end_time < $2
              ORDER BY id
              LIMIT $3`

	tasks, err := s.queryTasks(ctx, query, task.StatusOpen, deadline, limit)
	if err != nil {
		logger.Error("Repository: Не удалось получить просроченные задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, err
	}

	warnIfSlow("open_ended_before", start, time.Millisecond*50+time.Millisecond*10*time.Duration(limit))
	return tasks, nil
}

func (s *Storage) Stats(ctx context.Context) (task.Stats, error) {
	start := time.Now()
	var stats task.Stats

	query := `SELECT COUNT(*), COALESCE(SUM(bounty_amount), 0)
				FROM tasks WHERE status = $1`

	err := s.pool.QueryRow(ctx, query, task.StatusOpen).Scan(&stats.OpenTasks, &stats.TotalBounty)
	if err != nil {
		logger.Error("Repository: Не удалось посчитать статистику", err, zap.Duration("ms", time.Since(start)))
		return task.Stats{}, fmt.Errorf("статистика задач: %w", classify(err))
	}

	warnIfSlow("stats", start, slowQuery)
	return stats, nil
}

func (s *Storage) CreateApplication(ctx context.Context, app *application.Application) error {
	start := time.Now()

	// отклик вставляется только для существующей задачи
	query := `INSERT INTO task_applications (task_id, applicant_id, status, message, match_score)
				SELECT id, $2::bigint, $3::varchar, $4::text, $5::integer FROM tasks WHERE id = $1
				RETURNING id, created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		app.TaskID,
		app.ApplicantID,
		app.Status,
		app.Message,
		app.MatchScore,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось добавить отклик", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление отклика: %w", classify(err))
	}

	warnIfSlow("create_application", start, slowQuery)
	return nil
}

func (s *Storage) GetApplicationsByTask(ctx context.Context, taskID int64) ([]*application.Application, error) {
	start := time.Now()

	query := `SELECT id, task_id, applicant_id, status, message, match_score, created_at, updated_at
				FROM task_applications
				WHERE task_id = $1
				ORDER BY id`

	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить отклики", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение откликов: %w", classify(err))
	}
	defer rows.Close()

	apps := []*application.Application{}
	for rows.Next() {
		app := &application.Application{}
		err := rows.Scan(
			&app.ID,
			&app.TaskID,
			&app.ApplicantID,
			&app.Status,
			&app.Message,
			&app.MatchScore,
			&app.CreatedAt,
			&app.UpdatedAt,
		)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования отклика", zap.Error(err))
			continue
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", classify(err))
	}

	warnIfSlow("applications_by_task", start, slowQuery)
	return apps, nil
}

func (s *Storage) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", classify(err))
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", classify(err))
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.ID,
		&t.PublisherID,
		&t.Title,
		&t.Description,
		&t.Category,
		&t.TaskType,
		&t.BountyAmount,
		&t.ParticipantCount,
		&t.CurrentParticipants,
		&t.Location,
		&t.Latitude,
		&t.Longitude,
		&t.IsOnline,
		&t.Radius,
		&t.StartTime,
		&t.EndTime,
		&t.Tags,
		&t.RequiredSkills,
		&t.Status,
		&t.VerificationMethod,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// MigrationURL приводит строку подключения к URL, который понимает golang-migrate.
// URL возвращается как есть, строка вида "host=... user=..." собирается заново
func MigrationURL(connString string) (string, error) {
	if strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://") {
		return connString, nil
	}

	cfg, err := pgconn.ParseConfig(connString)
	if err != nil {
		return "", fmt.Errorf("разбор строки подключения: %w", err)
	}

	u := url.URL{Scheme: "postgres", Path: "/" + cfg.Database}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else if cfg.User != "" {
		u.User = url.User(cfg.User)
	}

	q := url.Values{}
	port := strconv.Itoa(int(cfg.Port))
	if strings.HasPrefix(cfg.Host, "/") {
		// unix-сокет
		u.Host = "localhost:" + port
		q.Set("host", cfg.Host)
	} else {
		u.Host = net.JoinHostPort(cfg.Host, port)
	}
	q.Set("sslmode", sslMode(cfg))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// sslMode восстанавливает режим TLS; prefer и allow сводятся к disable,
// драйвер миграций их не поддерживает
func sslMode(cfg *pgconn.Config) string {
	switch {
	case cfg.TLSConfig == nil:
		return "disable"
	case len(cfg.Fallbacks) > 0 && cfg.Fallbacks[0].TLSConfig == nil:
		return "disable"
	case cfg.TLSConfig.InsecureSkipVerify:
		return "require"
	default:
		return "verify-full"
	}
}

func (s *Storage) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("источник миграций: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, s.migrateURL)
	if err != nil {
		return nil, fmt.Errorf("инициализация миграций: %w", err)
	}
	return m, nil
}

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Repository: Применение миграций")

	m, err := s.newMigrate()
	if err != nil {
		logger.Error("Repository: Не удалось подготовить миграции", err)
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось применить миграции", err)
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Repository: Миграции применены", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Repository: Откат миграций")

	m, err := s.newMigrate()
	if err != nil {
		logger.Error("Repository: Не удалось подготовить миграции", err)
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: Не удалось откатить миграции", err)
		return fmt.Errorf("откат миграций: %w", err)
	}

	logger.Info("Repository: Миграции откачены")
	return nil
}
