// Package sqlite - файловое хранилище задач на gorm для одиночного развёртывания
package sqlite

import (
	"bountyBuddy/internal/logger"
	"bountyBuddy/internal/models/application"
	"bountyBuddy/internal/models/task"
	repo "bountyBuddy/internal/repository"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Storage struct {
	db *gorm.DB
}

// New открывает базу по dsn и применяет AutoMigrate
func New(dsn string) (*Storage, error) {
	if dsn == "" {
		dsn = "bounty.db"
	}

	if err := ensureDir(dsn); err != nil {
		return nil, err
	}

	dbLogger := gormlogger.New(
		zap.NewStdLog(logger.Logger),
		gormlogger.Config{
			SlowThreshold:             time.Millisecond * 100,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		logger.Error("Repository: Не удалось открыть SQLite", err, zap.String("dsn", dsn))
		return nil, fmt.Errorf("открытие базы: %w", err)
	}

	if err := db.AutoMigrate(&task.Task{}, &application.Application{}); err != nil {
		logger.Error("Repository: Не удалось применить миграции SQLite", err)
		return nil, fmt.Errorf("миграция базы: %w", err)
	}

	logger.Info("Repository: Успешное подключение к SQLite", zap.String("dsn", dsn))
	return &Storage{db: db}, nil
}

// ensureDir создаёт каталог файла базы, если его нет
func ensureDir(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("создание каталога %q: %w", dir, err)
	}
	return nil
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	logger.Info("Repository: Закрытие SQLite")
	return sqlDB.Close()
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("получение соединения: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("%w: %v", repo.ErrUnavailable, err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	if err := s.db.WithContext(ctx).Create(taskToCreate).Error; err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err)
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	var found task.Task
	if err := s.db.WithContext(ctx).First(&found, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return &found, nil
}

func (s *Storage) List(ctx context.Context, filter task.ListFilter) ([]*task.Task, error) {
	query := s.db.WithContext(ctx).Where("id > ?", filter.AfterID)
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.IsOnline != nil {
		query = query.Where("is_online = ?", *filter.IsOnline)
	}

	tasks := []*task.Task{}
	if err := query.Order("id").Limit(filter.Limit).Find(&tasks).Error; err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

// UpdateStatus выполняет условный UPDATE по текущему статусу
func (s *Storage) UpdateStatus(ctx context.Context, id int64, from, to task.Status) (time.Time, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).
		Model(&task.Task{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": now})
	if err := result.Error; err != nil {
		logger.Error("Repository: Не удалось обновить статус", err)
		return time.Time{}, fmt.Errorf("обновление статуса: %w", err)
	}
	if result.RowsAffected == 0 {
		var n int64
		if err := s.db.WithContext(ctx).Model(&task.Task{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return time.Time{}, fmt.Errorf("проверка задачи: %w", err)
		}
		if n == 0 {
			return time.Time{}, repo.ErrNotFound
		}
		return time.Time{}, repo.ErrConflict
	}
	return now, nil
}

func (s *Storage) GetOpenEndedBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	tasks := []*task.Task{}
	err := s.db.WithContext(ctx).
		Where("status = ? AND end_time IS NOT NULL AND end_time < ?", task.StatusOpen, deadline).
		Order("id").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		logger.Error("Repository: Не удалось получить просроченные задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *Storage) Stats(ctx context.Context) (task.Stats, error) {
	var stats task.Stats
	err := s.db.WithContext(ctx).
		Model(&task.Task{}).
		Select("COUNT(*) AS open_tasks, COALESCE(SUM(bounty_amount), 0) AS total_bounty").
		Where("status = ?", task.StatusOpen).
		Scan(&stats).Error
	if err != nil {
		logger.Error("Repository: Не удалось посчитать статистику", err)
		return task.Stats{}, fmt.Errorf("статистика задач: %w", err)
	}
	return stats, nil
}

func (s *Storage) CreateApplication(ctx context.Context, app *application.Application) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&task.Task{}).Where("id = ?", app.TaskID).Count(&count).Error; err != nil {
			return fmt.Errorf("проверка задачи: %w", err)
		}
		if count == 0 {
			return repo.ErrNotFound
		}
		if err := tx.Create(app).Error; err != nil {
			logger.Error("Repository: Не удалось добавить отклик", err)
			return fmt.Errorf("добавление отклика: %w", err)
		}
		return nil
	})
}

func (s *Storage) GetApplicationsByTask(ctx context.Context, taskID int64) ([]*application.Application, error) {
	apps := []*application.Application{}
	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Order("id").Find(&apps).Error; err != nil {
		logger.Error("Repository: Не удалось получить отклики", err)
		return nil, fmt.Errorf("получение откликов: %w", err)
	}
	return apps, nil
}
