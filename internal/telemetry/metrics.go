package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics - доменные счётчики сервиса задач
type Metrics struct {
	TasksCreated   metric.Int64Counter
	Transitions    metric.Int64Counter
	Applications   metric.Int64Counter
	ExpiredTasks   metric.Int64Counter
	OpenTasksGauge metric.Int64ObservableGauge
}

// NewMetrics регистрирует инструменты; openTasks вызывается при каждом сборе метрик
func NewMetrics(meter metric.Meter, openTasks func(context.Context) int64) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.TasksCreated, err = meter.Int64Counter(
		"bounty_tasks_created_total",
		metric.WithDescription("Number of published tasks"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, fmt.Errorf("счётчик созданных задач: %w", err)
	}

	m.Transitions, err = meter.Int64Counter(
		"bounty_task_transitions_total",
		metric.WithDescription("Number of accepted lifecycle transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("счётчик переходов: %w", err)
	}

	m.Applications, err = meter.Int64Counter(
		"bounty_task_applications_total",
		metric.WithDescription("Number of submitted task applications"),
		metric.WithUnit("{application}"),
	)
	if err != nil {
		return nil, fmt.Errorf("счётчик откликов: %w", err)
	}

	m.ExpiredTasks, err = meter.Int64Counter(
		"bounty_tasks_expired_total",
		metric.WithDescription("Number of open tasks cancelled after their end time"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, fmt.Errorf("счётчик просроченных задач: %w", err)
	}

	if openTasks != nil {
		m.OpenTasksGauge, err = meter.Int64ObservableGauge(
			"bounty_open_tasks",
			metric.WithDescription("Current number of open tasks"),
			metric.WithUnit("{task}"),
			metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
				o.Observe(openTasks(ctx))
				return nil
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("гейдж открытых задач: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) TaskCreated(ctx context.Context, category string) {
	if m == nil {
		return
	}
	m.TasksCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("task.category", category)))
}

func (m *Metrics) TransitionAccepted(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.Transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("task.status.from", from),
		attribute.String("task.status.to", to),
	))
}

func (m *Metrics) ApplicationSubmitted(ctx context.Context) {
	if m == nil {
		return
	}
	m.Applications.Add(ctx, 1)
}

func (m *Metrics) TasksExpired(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ExpiredTasks.Add(ctx, int64(n))
}
