package inmemory

import (
	"bountyBuddy/internal/logger"
	"bountyBuddy/internal/models/application"
	"bountyBuddy/internal/models/task"
	repo "bountyBuddy/internal/repository"
	"context"
	"sync"
	"time"
)

type TaskStorage struct {
	storage      map[int64]*task.Task
	applications map[int64][]*application.Application
	mtx          *sync.RWMutex
	ids          []int64
	lastTaskID   int64
	lastAppID    int64
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage:      make(map[int64]*task.Task),
		applications: make(map[int64][]*application.Application),
		mtx:          &sync.RWMutex{},
		ids:          []int64{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.lastTaskID++
	now := time.Now()

	taskToCreate.ID = s.lastTaskID
	taskToCreate.CreatedAt = now
	taskToCreate.UpdatedAt = now

	// храним копию, чтобы вызывающий код не менял хранилище в обход Update
	stored := *taskToCreate
	s.storage[stored.ID] = &stored
	s.ids = append(s.ids, stored.ID)
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	res := *taskToGet
	return &res, nil
}

// выборка по фильтру, порядок - по возрастанию id
func (s *TaskStorage) List(ctx context.Context, filter task.ListFilter) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		if len(res) >= filter.Limit {
			break
		}
		if id <= filter.AfterID {
			continue
		}

		taskToGet := s.storage[id]
		if !filter.Matches(taskToGet) {
			continue
		}

		copied := *taskToGet
		res = append(res, &copied)
	}

	return res, nil
}

// сравнение и запись под одной блокировкой
func (s *TaskStorage) UpdateStatus(ctx context.Context, id int64, from, to task.Status) (time.Time, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	taskToUpdate, ok := s.storage[id]
	if !ok {
		return time.Time{}, repo.ErrNotFound
	}
	if taskToUpdate.Status != from {
		return time.Time{}, repo.ErrConflict
	}

	taskToUpdate.Status = to
	taskToUpdate.UpdatedAt = time.Now().UTC()
	return taskToUpdate.UpdatedAt, nil
}

// открытые задачи, у которых время окончания раньше deadline
func (s *TaskStorage) GetOpenEndedBefore(ctx context.Context, deadline time.Time, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var tasks []*task.Task
	for _, id := range s.ids {
		if len(tasks) >= limit {
			break
		}

		t := s.storage[id]
		if t.Status == task.StatusOpen && t.EndTime != nil && t.EndTime.Before(deadline) {
			copied := *t
			tasks = append(tasks, &copied)
		}
	}

	return tasks, nil
}

func (s *TaskStorage) Stats(ctx context.Context) (task.Stats, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var stats task.Stats
	for _, t := range s.storage {
		if t.Status != task.StatusOpen {
			continue
		}
		stats.OpenTasks++
		stats.TotalBounty += t.BountyAmount
	}
	return stats, nil
}

func (s *TaskStorage) CreateApplication(ctx context.Context, app *application.Application) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[app.TaskID]; !ok {
		return repo.ErrNotFound
	}

	s.lastAppID++
	now := time.Now()
	app.ID = s.lastAppID
	app.CreatedAt = now
	app.UpdatedAt = now

	stored := *app
	s.applications[app.TaskID] = append(s.applications[app.TaskID], &stored)
	return nil
}

func (s *TaskStorage) GetApplicationsByTask(ctx context.Context, taskID int64) ([]*application.Application, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*application.Application, 0, len(s.applications[taskID]))
	for _, app := range s.applications[taskID] {
		copied := *app
		res = append(res, &copied)
	}
	return res, nil
}
