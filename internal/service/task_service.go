package service

import (
	"bountyBuddy/internal/logger"
	"bountyBuddy/internal/models/application"
	"bountyBuddy/internal/models/task"
	rep "bountyBuddy/internal/repository"
	"bountyBuddy/internal/search"
	"bountyBuddy/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

var tracer = otel.Tracer("bountyBuddy/internal/service")

type TaskService struct {
	repo    TaskRepository
	metrics *telemetry.Metrics
}

type Option func(*TaskService)

func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(s *TaskService) {
		s.metrics = metrics
	}
}

func NewTaskService(repo TaskRepository, opts ...Option) *TaskService {
	s := &TaskService{
		repo: repo,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyInput - отклик пользователя на задачу
type ApplyInput struct {
	TaskID      int64
	ApplicantID int64
	Message     string
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// CreateTask публикует задачу. При ошибке валидации ничего не сохраняется
func (s *TaskService) CreateTask(ctx context.Context, in task.CreateInput) (*task.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.CreateTask")
	defer span.End()

	newTask, err := buildTask(in)
	if err != nil {
		logger.Info("Service: Неверные данные задачи", zap.Error(err))
		span.SetStatus(codes.Error, "validation")
		return nil, err
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create")
		if errors.Is(err, rep.ErrUnavailable) {
			logger.Warn("Service: Хранилище недоступно при создании задачи", zap.Error(err))
			return nil, NewStoreUnavailable(err)
		}
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("task.id", newTask.ID),
		attribute.String("task.category", string(newTask.Category)),
	)
	s.metrics.TaskCreated(ctx, string(newTask.Category))
	logger.Info("Service: Задача опубликована",
		zap.Int64("task_id", newTask.ID),
		zap.Int64("publisher_id", newTask.PublisherID),
		zap.Int64("bounty", newTask.BountyAmount))
	return newTask, nil
}

// GetTaskByID возвращает nil без ошибки, если задачи нет или хранилище недоступно
func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (*task.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.GetTaskByID")
	defer span.End()
	span.SetAttributes(attribute.Int64("task.id", id))

	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, rep.ErrNotFound):
			logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
			return nil, nil
		case errors.Is(err, rep.ErrUnavailable):
			logger.Warn("Service: Хранилище недоступно, отдаём пустой результат", zap.Int64("target_id", id), zap.Error(err))
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return found, nil
}

// ListTasks отдаёт страницу задач по фильтру хранилища и текстовому запросу.
// Курсор считается по строкам хранилища, поэтому страница после поиска может быть короче лимита
func (s *TaskService) ListTasks(ctx context.Context, query string, opts ...task.ListOption) (*task.Page, error) {
	ctx, span := tracer.Start(ctx, "TaskService.ListTasks")
	defer span.End()

	filter := task.NewListFilter(opts...)
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		if errors.Is(err, rep.ErrUnavailable) {
			logger.Warn("Service: Хранилище недоступно, отдаём пустой список", zap.Error(err))
			return &task.Page{Tasks: []*task.Task{}}, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	page := &task.Page{Tasks: search.Filter(rows, query, nil)}
	if len(rows) == filter.Limit && len(rows) > 0 {
		page.NextCursor = rows[len(rows)-1].ID
	}

	span.SetAttributes(
		attribute.Int("task.rows", len(rows)),
		attribute.Int("task.count", len(page.Tasks)),
	)
	return page, nil
}

func invalidTransition(id int64, from, to task.Status) *BusinessError {
	allowed := task.AllowedTransitions(from)
	names := make([]string, 0, len(allowed))
	for _, st := range allowed {
		names = append(names, string(st))
	}
	logger.Info("Service: Недопустимый переход",
		zap.Int64("task_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return NewInvalidTransition(string(from), string(to), names)
}

// UpdateStatus переводит задачу по таблице жизненного цикла
func (s *TaskService) UpdateStatus(ctx context.Context, id int64, to task.Status) (*task.Task, error) {
	ctx, span := tracer.Start(ctx, "TaskService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("task.id", id), attribute.String("task.status.to", string(to)))

	if !to.Valid() {
		return nil, NewValidationError("status", "неизвестный статус")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.writeError(err, id)
	}

	if !task.CanTransition(current.Status, to) {
		return nil, invalidTransition(id, current.Status, to)
	}

	from := current.Status
	updatedAt, err := s.repo.UpdateStatus(ctx, id, from, to)
	if errors.Is(err, rep.ErrConflict) {
		// задачу успели перевести, ошибка строится от нового статуса
		latest, gerr := s.repo.GetByID(ctx, id)
		if gerr != nil {
			return nil, s.writeError(gerr, id)
		}
		logger.Info("Service: Статус изменён параллельно",
			zap.Int64("task_id", id),
			zap.String("expected", string(from)),
			zap.String("actual", string(latest.Status)))
		return nil, invalidTransition(id, latest.Status, to)
	}
	if err != nil {
		span.RecordError(err)
		return nil, s.writeError(err, id)
	}

	current.Status = to
	current.UpdatedAt = updatedAt

	s.metrics.TransitionAccepted(ctx, string(from), string(to))
	logger.Info("Service: Статус задачи изменён",
		zap.Int64("task_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return current, nil
}

// Apply оставляет отклик на открытую задачу
func (s *TaskService) Apply(ctx context.Context, in ApplyInput) (*application.Application, error) {
	ctx, span := tracer.Start(ctx, "TaskService.Apply")
	defer span.End()
	span.SetAttributes(attribute.Int64("task.id", in.TaskID))

	if in.ApplicantID <= 0 {
		return nil, NewValidationError("applicantId", "обязательное поле")
	}
	message := strings.TrimSpace(in.Message)
	if utf8.RuneCountInString(message) > maxMessageLength {
		return nil, NewValidationError("message", "слишком длинное значение")
	}

	target, err := s.repo.GetByID(ctx, in.TaskID)
	if err != nil {
		return nil, s.writeError(err, in.TaskID)
	}
	if target.Status != task.StatusOpen {
		return nil, NewBusinessError(CodeTaskNotOpen, "Задача не принимает отклики",
			ToDetail("status", target.Status))
	}
	if target.PublisherID == in.ApplicantID {
		return nil, NewBusinessError(CodeForbidden, "Нельзя откликнуться на собственную задачу")
	}

	app := &application.Application{
		TaskID:      in.TaskID,
		ApplicantID: in.ApplicantID,
		Status:      application.StatusPending,
		Message:     message,
	}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		span.RecordError(err)
		return nil, s.writeError(err, in.TaskID)
	}

	s.metrics.ApplicationSubmitted(ctx)
	logger.Info("Service: Новый отклик",
		zap.Int64("task_id", app.TaskID),
		zap.Int64("application_id", app.ID),
		zap.Int64("applicant_id", app.ApplicantID))
	return app, nil
}

func (s *TaskService) GetApplications(ctx context.Context, taskID int64) ([]*application.Application, error) {
	ctx, span := tracer.Start(ctx, "TaskService.GetApplications")
	defer span.End()

	apps, err := s.repo.GetApplicationsByTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, rep.ErrUnavailable) {
			logger.Warn("Service: Хранилище недоступно, отдаём пустой список откликов", zap.Error(err))
			return []*application.Application{}, nil
		}
		return nil, fmt.Errorf("получение откликов: %w", err)
	}
	return apps, nil
}

func (s *TaskService) GetStats(ctx context.Context) (task.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		if errors.Is(err, rep.ErrUnavailable) {
			logger.Warn("Service: Хранилище недоступно, статистика пустая", zap.Error(err))
			return task.Stats{}, nil
		}
		return task.Stats{}, fmt.Errorf("получение статистики: %w", err)
	}
	return stats, nil
}

// OpenTasks используется гейджем метрик
func (s *TaskService) OpenTasks(ctx context.Context) int64 {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return 0
	}
	return stats.OpenTasks
}

// writeError переводит ошибки хранилища на путях записи в бизнес-ошибки
func (s *TaskService) writeError(err error, id int64) error {
	switch {
	case errors.Is(err, rep.ErrNotFound):
		logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
		return NewNotFound("задача", id)
	case errors.Is(err, rep.ErrUnavailable):
		logger.Warn("Service: Хранилище недоступно", zap.Int64("target_id", id), zap.Error(err))
		return NewStoreUnavailable(err)
	}
	return fmt.Errorf("операция над задачей %d: %w", id, err)
}
