package cache

import (
	"bountyBuddy/internal/logger"
	"bountyBuddy/internal/models/task"
	"bountyBuddy/internal/repository"
	"bountyBuddy/internal/service"
	"context"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// TaskRepository кэширует GetByID поверх любого хранилища.
// Ошибки Redis не мешают запросу: чтение уходит в хранилище
type TaskRepository struct {
	service.TaskRepository
	cache *Cache
}

func NewTaskRepository(inner service.TaskRepository, cache *Cache) *TaskRepository {
	return &TaskRepository{
		TaskRepository: inner,
		cache:          cache,
	}
}

func taskKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	var cached task.Task
	hit, err := r.cache.Get(ctx, taskKey(id), &cached)
	if err != nil && !errors.Is(err, ErrBypassed) {
		logger.Warn("Cache: Ошибка чтения, идём в хранилище", zap.Int64("task_id", id), zap.Error(err))
	}
	if hit {
		return &cached, nil
	}

	found, err := r.TaskRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, taskKey(id), found); err != nil && !errors.Is(err, ErrBypassed) {
		logger.Warn("Cache: Не удалось сохранить задачу", zap.Int64("task_id", id), zap.Error(err))
	}
	return found, nil
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id int64, from, to task.Status) (time.Time, error) {
	updatedAt, err := r.TaskRepository.UpdateStatus(ctx, id, from, to)
	if errors.Is(err, repository.ErrConflict) {
		// в кэше мог остаться старый статус
		_ = r.cache.Delete(ctx, taskKey(id))
		return updatedAt, err
	}
	if err != nil {
		return updatedAt, err
	}

	if err := r.cache.Delete(ctx, taskKey(id)); err != nil {
		logger.Warn("Cache: Не удалось сбросить задачу", zap.Int64("task_id", id), zap.Error(err))
	}
	return updatedAt, nil
}

func (r *TaskRepository) HealthCheck(ctx context.Context) error {
	if err := r.cache.Ping(ctx); err != nil {
		logger.Warn("Cache: Redis недоступен", zap.Error(err))
	}
	return r.TaskRepository.HealthCheck(ctx)
}
