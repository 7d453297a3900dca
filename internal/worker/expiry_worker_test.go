package worker_test

import (
	"bountyBuddy/internal/models/task"
	"bountyBuddy/internal/repository/task/inmemory"
	"bountyBuddy/internal/worker"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTask(t *testing.T, storage *inmemory.TaskStorage, status task.Status, endTime *time.Time) int64 {
	t.Helper()
	created := &task.Task{
		PublisherID:  1,
		Title:        "Evening walk",
		Description:  "Around the lake",
		Category:     task.CategoryLife,
		BountyAmount: 5,
		Status:       status,
		EndTime:      endTime,
	}
	require.NoError(t, storage.Create(context.Background(), created))
	return created.ID
}

func ptr(t time.Time) *time.Time {
	return &t
}

// TestExpiryWorker_Check тестирует отмену истёкших открытых задач
func TestExpiryWorker_Check(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	storage := inmemory.NewTaskStorage()

	expired := createTask(t, storage, task.StatusOpen, ptr(now.Add(-time.Hour)))
	future := createTask(t, storage, task.StatusOpen, ptr(now.Add(time.Hour)))
	noDeadline := createTask(t, storage, task.StatusOpen, nil)
	matched := createTask(t, storage, task.StatusMatched, ptr(now.Add(-time.Hour)))

	w := worker.NewExpiryWorker(storage, "", 0, worker.WithClock(func() time.Time { return now }))
	assert.Equal(t, 1, w.Check(ctx))

	statuses := map[int64]task.Status{
		expired:    task.StatusCancelled,
		future:     task.StatusOpen,
		noDeadline: task.StatusOpen,
		matched:    task.StatusMatched,
	}
	for id, want := range statuses {
		got, err := storage.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, "задача %d", id)
	}

	// повторный запуск ничего не меняет
	assert.Zero(t, w.Check(ctx))
}

// TestExpiryWorker_Batch тестирует ограничение размера пачки
func TestExpiryWorker_Batch(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	storage := inmemory.NewTaskStorage()
	for i := 0; i < 5; i++ {
		createTask(t, storage, task.StatusOpen, ptr(now.Add(-time.Minute)))
	}

	w := worker.NewExpiryWorker(storage, "", 2, worker.WithClock(func() time.Time { return now }))
	assert.Equal(t, 2, w.Check(ctx))
	assert.Equal(t, 2, w.Check(ctx))
	assert.Equal(t, 1, w.Check(ctx))
	assert.Zero(t, w.Check(ctx))
}

// staleRepo отдаёт задачи со статусом на момент выборки, хотя в хранилище он уже другой
type staleRepo struct {
	*inmemory.TaskStorage
	snapshot []*task.Task
}

func (r *staleRepo) GetOpenEndedBefore(context.Context, time.Time, int) ([]*task.Task, error) {
	return r.snapshot, nil
}

// TestExpiryWorker_ConcurrentTransition тестирует, что воркер не отменяет задачу, переведённую после выборки
func TestExpiryWorker_ConcurrentTransition(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	storage := inmemory.NewTaskStorage()
	id := createTask(t, storage, task.StatusOpen, ptr(now.Add(-time.Minute)))

	snapshot, err := storage.GetOpenEndedBefore(ctx, now, 10)
	require.NoError(t, err)
	_, err = storage.UpdateStatus(ctx, id, task.StatusOpen, task.StatusMatched)
	require.NoError(t, err)

	w := worker.NewExpiryWorker(&staleRepo{TaskStorage: storage, snapshot: snapshot}, "", 0,
		worker.WithClock(func() time.Time { return now }))
	assert.Zero(t, w.Check(ctx))

	got, err := storage.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, task.StatusMatched, got.Status)
}

// TestExpiryWorker_Start тестирует запуск по расписанию и остановку
func TestExpiryWorker_Start(t *testing.T) {
	if testing.Short() {
		t.Skip("пропуск теста расписания в коротком режиме")
	}

	storage := inmemory.NewTaskStorage()
	id := createTask(t, storage, task.StatusOpen, ptr(time.Now().Add(-time.Minute)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := worker.NewExpiryWorker(storage, "@every 1s", 10)
	go func() { done <- w.Start(ctx) }()

	assert.Eventually(t, func() bool {
		got, err := storage.GetByID(context.Background(), id)
		return err == nil && got.Status == task.StatusCancelled
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("воркер не остановился")
	}
}

// TestExpiryWorker_BadSchedule тестирует ошибку разбора расписания
func TestExpiryWorker_BadSchedule(t *testing.T) {
	w := worker.NewExpiryWorker(inmemory.NewTaskStorage(), "every minute please", 10)
	assert.Error(t, w.Start(context.Background()))
}
