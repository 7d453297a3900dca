package task_test

import (
	"bountyBuddy/internal/models/task"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCanTransition проверяет таблицу переходов
func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    task.Status
		to      task.Status
		allowed bool
	}{
		{"open to matched", task.StatusOpen, task.StatusMatched, true},
		{"open to cancelled", task.StatusOpen, task.StatusCancelled, true},
		{"open to completed is not a direct edge", task.StatusOpen, task.StatusCompleted, false},
		{"open to disputed", task.StatusOpen, task.StatusDisputed, false},
		{"open to open", task.StatusOpen, task.StatusOpen, false},
		{"matched to in progress", task.StatusMatched, task.StatusInProgress, true},
		{"matched to disputed", task.StatusMatched, task.StatusDisputed, true},
		{"matched to open", task.StatusMatched, task.StatusOpen, false},
		{"in progress to completed", task.StatusInProgress, task.StatusCompleted, true},
		{"in progress to cancelled", task.StatusInProgress, task.StatusCancelled, true},
		{"disputed to completed", task.StatusDisputed, task.StatusCompleted, true},
		{"disputed to cancelled", task.StatusDisputed, task.StatusCancelled, true},
		{"disputed to in progress", task.StatusDisputed, task.StatusInProgress, false},
		{"completed is terminal", task.StatusCompleted, task.StatusCancelled, false},
		{"cancelled is terminal", task.StatusCancelled, task.StatusOpen, false},
		{"unknown source", task.Status("archived"), task.StatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, task.CanTransition(tt.from, tt.to))
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, task.StatusCompleted.IsTerminal())
	assert.True(t, task.StatusCancelled.IsTerminal())
	assert.False(t, task.StatusOpen.IsTerminal())
	assert.False(t, task.StatusDisputed.IsTerminal())
	assert.False(t, task.Status("unknown").IsTerminal())
}

func TestAllowedTransitions_ReturnsCopy(t *testing.T) {
	next := task.AllowedTransitions(task.StatusOpen)
	assert.Equal(t, []task.Status{task.StatusMatched, task.StatusCancelled}, next)

	next[0] = task.StatusCompleted
	assert.False(t, task.CanTransition(task.StatusOpen, task.StatusCompleted))
	assert.Empty(t, task.AllowedTransitions(task.StatusCompleted))
}

func TestEnums_Valid(t *testing.T) {
	for _, c := range task.Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, task.Category("music").Valid())
	assert.False(t, task.Category("").Valid())

	assert.True(t, task.TypeGroup.Valid())
	assert.False(t, task.TaskType("weekly").Valid())

	assert.True(t, task.VerificationGPS.Valid())
	assert.False(t, task.VerificationMethod("email").Valid())

	assert.True(t, task.StatusDisputed.Valid())
	assert.False(t, task.Status("done").Valid())
}

// TestNewListFilter проверяет сборку фильтра из опций
func TestNewListFilter(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := task.NewListFilter()
		assert.Equal(t, task.MaxPageSize, f.Limit)
		assert.Nil(t, f.Category)
		assert.Nil(t, f.Status)
		assert.Nil(t, f.IsOnline)
		assert.Zero(t, f.AfterID)
	})

	t.Run("empty values are skipped", func(t *testing.T) {
		f := task.NewListFilter(task.WithCategory(""), task.WithStatus(""), task.WithCursor(0), task.WithLimit(0))
		assert.Nil(t, f.Category)
		assert.Nil(t, f.Status)
		assert.Equal(t, task.MaxPageSize, f.Limit)
	})

	t.Run("limit is capped", func(t *testing.T) {
		f := task.NewListFilter(task.WithLimit(500))
		assert.Equal(t, task.MaxPageSize, f.Limit)
	})

	t.Run("all options", func(t *testing.T) {
		f := task.NewListFilter(
			task.WithCategory(task.CategoryFood),
			task.WithStatus(task.StatusOpen),
			task.WithOnline(true),
			task.WithCursor(10),
			task.WithLimit(5),
		)
		assert.Equal(t, task.CategoryFood, *f.Category)
		assert.Equal(t, task.StatusOpen, *f.Status)
		assert.True(t, *f.IsOnline)
		assert.Equal(t, int64(10), f.AfterID)
		assert.Equal(t, 5, f.Limit)
	})
}

func TestListFilter_Matches(t *testing.T) {
	food := &task.Task{Category: task.CategoryFood, Status: task.StatusOpen, IsOnline: false}

	assert.True(t, task.NewListFilter().Matches(food))
	assert.True(t, task.NewListFilter(task.WithCategory(task.CategoryFood)).Matches(food))
	assert.False(t, task.NewListFilter(task.WithCategory(task.CategoryFitness)).Matches(food))
	assert.False(t, task.NewListFilter(task.WithStatus(task.StatusMatched)).Matches(food))
	assert.False(t, task.NewListFilter(task.WithOnline(true)).Matches(food))
	assert.True(t, task.NewListFilter(task.WithOnline(false), task.WithStatus(task.StatusOpen)).Matches(food))
}
