package worker

import (
	"bountyBuddy/internal/logger"
	"bountyBuddy/internal/models/task"
	"bountyBuddy/internal/repository"
	"bountyBuddy/internal/service"
	"bountyBuddy/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	DefaultSchedule  = "@every 5m"
	DefaultBatchSize = 100
)

// ExpiryWorker по расписанию отменяет открытые задачи, у которых прошёл endTime
type ExpiryWorker struct {
	repo      service.TaskRepository
	schedule  string
	batchSize int
	metrics   *telemetry.Metrics
	now       func() time.Time
}

type Option func(*ExpiryWorker)

func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(w *ExpiryWorker) {
		w.metrics = metrics
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *ExpiryWorker) {
		w.now = now
	}
}

func NewExpiryWorker(repo service.TaskRepository, schedule string, batchSize int, opts ...Option) *ExpiryWorker {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	w := &ExpiryWorker{
		repo:      repo,
		schedule:  schedule,
		batchSize: batchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start блокируется до отмены ctx, затем дожидается текущего запуска
func (w *ExpiryWorker) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(logger.Logger)))),
	)

	if _, err := c.AddFunc(w.schedule, func() { w.Check(ctx) }); err != nil {
		return fmt.Errorf("неверное расписание %q: %w", w.schedule, err)
	}

	logger.Info("Worker: Фоновая проверка запущена",
		zap.String("schedule", w.schedule),
		zap.Int("batch_size", w.batchSize))
	c.Start()

	<-ctx.Done()
	logger.Info("Worker: Фоновая проверка останавливается")
	<-c.Stop().Done()
	return nil
}

// Check отменяет одну пачку истёкших задач и возвращает их число
func (w *ExpiryWorker) Check(ctx context.Context) int {
	start := time.Now()

	tasks, err := w.repo.GetOpenEndedBefore(ctx, w.now(), w.batchSize)
	if err != nil {
		logger.Warn("Worker: ошибка получения задач", zap.Error(err))
		return 0
	}

	expired := 0
	for _, t := range tasks {
		if !task.CanTransition(t.Status, task.StatusCancelled) {
			continue
		}
		_, err := w.repo.UpdateStatus(ctx, t.ID, t.Status, task.StatusCancelled)
		if errors.Is(err, repository.ErrConflict) {
			logger.Debug("Worker: Задачу уже перевели", zap.Int64("task_id", t.ID))
			continue
		}
		if err != nil {
			logger.Warn("Worker: Ошибка обновления задачи", zap.Int64("task_id", t.ID), zap.Error(err))
			continue
		}
		expired++
	}

	w.metrics.TasksExpired(ctx, expired)
	logger.Info("Worker: Завершение проверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(tasks)),
		zap.Int("expired", expired))
	return expired
}
