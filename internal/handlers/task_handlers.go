package handlers

import (
	"bountyBuddy/internal/handlers/dto"
	"bountyBuddy/internal/logger"
	"bountyBuddy/internal/middleware"
	"bountyBuddy/internal/models/task"
	"bountyBuddy/internal/presentation"
	"bountyBuddy/internal/service"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type TaskHandler struct {
	TaskService TaskService
	fallback    presentation.Config
}

// NewTaskHandler принимает конфигурацию подписей на случай, если middleware.Locale не подключён
func NewTaskHandler(taskService TaskService, fallback presentation.Config) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
		fallback:    fallback,
	}
}

// Register вешает маршруты задач на роутер
func (h *TaskHandler) Register(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.ListTasks)   // GET /tasks
		r.Post("/", h.CreateTask) // POST /tasks

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTaskByID)                 // GET /tasks/{id}
			r.Patch("/status", h.UpdateStatus)        // PATCH /tasks/{id}/status
			r.Post("/applications", h.Apply)          // POST /tasks/{id}/applications
			r.Get("/applications", h.GetApplications) // GET /tasks/{id}/applications
		})
	})

	r.Get("/stats", h.GetStats)
	r.Get("/health", h.HealthCheck)
}

func (h *TaskHandler) locale(r *http.Request) presentation.Config {
	if cfg, ok := middleware.GetLocale(r.Context()); ok {
		return cfg
	}
	return h.fallback
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()

	opts, err := parseListOptions(query.Get("category"), query.Get("status"), query.Get("online"), query.Get("cursor"), query.Get("limit"))
	if err != nil {
		logger.Warn("HTTP: Неверные параметры выборки",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, err.Error())
		return
	}

	page, err := h.TaskService.ListTasks(r.Context(), query.Get("q"), opts...)
	if err != nil {
		handleError(w, r, err, "list_tasks")
		return
	}

	resp := dto.FromPage(page, h.locale(r))
	payload := []Payload{toPayload("tasks", resp.Tasks)}
	if resp.NextCursor > 0 {
		payload = append(payload, toPayload("nextCursor", resp.NextCursor))
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(resp.Tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, payload...)
}

// parseListOptions разбирает параметры выборки. Пустой status означает open, "all" снимает фильтр
func parseListOptions(category, status, online, cursor, limit string) ([]task.ListOption, error) {
	var opts []task.ListOption

	if category != "" {
		c := task.Category(category)
		if !c.Valid() {
			return nil, errors.New("неизвестная категория: " + category)
		}
		opts = append(opts, task.WithCategory(c))
	}

	switch status {
	case "":
		opts = append(opts, task.WithStatus(task.StatusOpen))
	case "all":
	default:
		st := task.Status(status)
		if !st.Valid() {
			return nil, errors.New("неизвестный статус: " + status)
		}
		opts = append(opts, task.WithStatus(st))
	}

	if online != "" {
		value, err := strconv.ParseBool(online)
		if err != nil {
			return nil, errors.New("online должен быть true или false")
		}
		opts = append(opts, task.WithOnline(value))
	}

	if cursor != "" {
		value, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil || value < 0 {
			return nil, errors.New("неверное значение cursor")
		}
		opts = append(opts, task.WithCursor(value))
	}

	if limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil || value <= 0 {
			return nil, errors.New("неверное значение limit")
		}
		opts = append(opts, task.WithLimit(value))
	}

	return opts, nil
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	found, err := h.TaskService.GetTaskByID(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}

	if found == nil {
		logger.Info("HTTP_OUT: Задача не найдена",
			zap.Int64("task_id", id),
			zap.Int("http_status", http.StatusNotFound))
		responseWithJSON(w, http.StatusNotFound, toPayload("task", nil))
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(found, h.locale(r))))
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	publisherID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}

	created, err := h.TaskService.CreateTask(r.Context(), request.ToInput(publisherID))
	if err != nil {
		handleError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(created, h.locale(r))))
}

func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.UpdateStatusRequest
	if !decodeJSON(w, r, &request, false) {
		return
	}

	if strings.TrimSpace(request.Status) == "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "status"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "статус не может быть пустым")
		return
	}

	updated, err := h.TaskService.UpdateStatus(r.Context(), id, task.Status(request.Status))
	if err != nil {
		handleError(w, r, err, "update_status")
		return
	}

	logger.Info("HTTP_OUT: Статус обновлён",
		zap.Int64("task_id", id),
		zap.String("status", string(updated.Status)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(updated, h.locale(r))))
}

func (h *TaskHandler) Apply(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	applicantID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var request dto.ApplyRequest
	if !decodeJSON(w, r, &request, true) {
		return
	}

	app, err := h.TaskService.Apply(r.Context(), service.ApplyInput{
		TaskID:      id,
		ApplicantID: applicantID,
		Message:     request.Message,
	})
	if err != nil {
		handleError(w, r, err, "apply")
		return
	}

	logger.Info("HTTP_OUT: Отклик создан",
		zap.Int64("task_id", id),
		zap.Int64("application_id", app.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("application", app))
}

func (h *TaskHandler) GetApplications(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	apps, err := h.TaskService.GetApplications(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "get_applications")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("applications", apps))
}

func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.TaskService.GetStats(r.Context())
	if err != nil {
		handleError(w, r, err, "get_stats")
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("openTasks", stats.OpenTasks),
		toPayload("totalBounty", stats.TotalBounty),
	)
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Warn("HTTP: Сервис нездоров", zap.Error(err))
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("time", time.Now().UTC()),
		)
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("time", time.Now().UTC()),
	)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("id", idParam),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "неверное значение id: "+idParam)
		return 0, false
	}
	return id, true
}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Warn("HTTP: Запрос без идентификатора пользователя",
			zap.String("path", r.URL.Path),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnauthorized, service.CodeUnauthorized,
			"требуется заголовок "+middleware.UserIDHeader)
		return 0, false
	}
	return userID, true
}

// decodeJSON читает тело запроса в target. При optional пустое тело допустимо
func decodeJSON(w http.ResponseWriter, r *http.Request, target any, optional bool) bool {
	if optional && r.ContentLength == 0 {
		return true
	}

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusUnsupportedMediaType, service.CodeValidation,
			"Content-Type должен быть application/json")
		return false
	}

	defer r.Body.Close()
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(target)
	if err != nil && !(optional && errors.Is(err, io.EOF)) {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, service.CodeValidation, "неверное тело запроса: "+err.Error())
		return false
	}
	return true
}
