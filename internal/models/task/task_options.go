package task

import (
	"time"
)

const MaxPageSize = 50

// ListFilter - параметры выборки из хранилища.
// nil-указатели означают, что предикат не применяется
type ListFilter struct {
	Category *Category
	Status   *Status
	IsOnline *bool
	AfterID  int64
	Limit    int
}

type ListOption func(*ListFilter)

func WithCategory(category Category) ListOption {
	if category == "" {
		return nil
	}
	return func(f *ListFilter) {
		f.Category = &category
	}
}

func WithStatus(status Status) ListOption {
	if status == "" {
		return nil
	}
	return func(f *ListFilter) {
		f.Status = &status
	}
}

func WithOnline(online bool) ListOption {
	return func(f *ListFilter) {
		f.IsOnline = &online
	}
}

func WithCursor(afterID int64) ListOption {
	if afterID <= 0 {
		return nil
	}
	return func(f *ListFilter) {
		f.AfterID = afterID
	}
}

func WithLimit(limit int) ListOption {
	if limit <= 0 {
		return nil
	}
	return func(f *ListFilter) {
		f.Limit = limit
	}
}

// NewListFilter собирает фильтр из опций, nil-опции пропускаются.
// Лимит всегда в пределах [1, MaxPageSize]
func NewListFilter(options ...ListOption) ListFilter {
	filter := ListFilter{Limit: MaxPageSize}
	for _, opt := range options {
		if opt != nil {
			opt(&filter)
		}
	}
	if filter.Limit <= 0 || filter.Limit > MaxPageSize {
		filter.Limit = MaxPageSize
	}
	return filter
}

// Matches проверяет задачу на предикаты фильтра (курсор и лимит не учитываются)
func (f ListFilter) Matches(t *Task) bool {
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.IsOnline != nil && t.IsOnline != *f.IsOnline {
		return false
	}
	return true
}

// CreateInput - типизированный ввод операции создания задачи
type CreateInput struct {
	PublisherID        int64
	Title              string
	Description        string
	Category           Category
	BountyAmount       *int64
	TaskType           TaskType
	ParticipantCount   int
	Location           string
	Latitude           string
	Longitude          string
	IsOnline           bool
	Radius             int
	StartTime          *time.Time
	EndTime            *time.Time
	Tags               string
	RequiredSkills     string
	VerificationMethod VerificationMethod
}

// Page - страница выдачи с курсором на следующую
type Page struct {
	Tasks      []*Task `json:"tasks"`
	NextCursor int64   `json:"nextCursor,omitempty"`
}
