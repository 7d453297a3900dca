package search_test

import (
	"bountyBuddy/internal/models/task"
	"bountyBuddy/internal/search"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func category(c task.Category) *task.Category {
	return &c
}

func sampleTasks() []*task.Task {
	return []*task.Task{
		{ID: 1, Title: "Hiking Trip", Description: "Weekend in the hills", Category: task.CategoryFitness},
		{ID: 2, Title: "Study Group", Description: "React Native together", Category: task.CategoryStudy},
		{ID: 3, Title: "Food tour", Description: "Try the HIKING snacks", Category: task.CategoryFood},
		{ID: 4, Title: "周末一起去香山爬山", Description: "呼吸新鲜空气", Category: task.CategoryFitness},
		{ID: 5, Title: "Badminton", Description: "Twice a week", Category: task.CategoryFitness},
	}
}

func ids(tasks []*task.Task) []int64 {
	res := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		res = append(res, t.ID)
	}
	return res
}

// TestFilter_Scenario проверяет базовый сценарий из двух задач
func TestFilter_Scenario(t *testing.T) {
	tasks := []*task.Task{
		{ID: 1, Title: "Hiking Trip", Category: task.CategoryFitness},
		{ID: 2, Title: "Study Group", Category: task.CategoryStudy},
	}

	res := search.Filter(tasks, "hik", nil)
	require.Len(t, res, 1)
	assert.Equal(t, int64(1), res[0].ID)

	res = search.Filter(tasks, "", category(task.CategoryStudy))
	require.Len(t, res, 1)
	assert.Equal(t, int64(2), res[0].ID)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		category *task.Category
		expected []int64
	}{
		{"empty query and no category returns everything", "", nil, []int64{1, 2, 3, 4, 5}},
		{"case insensitive title match", "HIKING", nil, []int64{1, 3}},
		{"description match", "react", nil, []int64{2}},
		{"text and category combined", "hik", category(task.CategoryFitness), []int64{1}},
		{"category only", "", category(task.CategoryFitness), []int64{1, 4, 5}},
		{"unicode substring", "香山", nil, []int64{4}},
		{"no match", "swimming", nil, []int64{}},
		{"category without tasks", "", category(task.CategoryLife), []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := search.Filter(sampleTasks(), tt.query, tt.category)
			assert.Equal(t, tt.expected, ids(res))
		})
	}
}

func TestFilter_ExactCategory(t *testing.T) {
	tasks := []*task.Task{{ID: 1, Title: "Dumplings", Category: task.CategoryFood}}

	res := search.Filter(tasks, "", category(task.CategoryFitness))
	assert.Empty(t, res)
}

func TestFilter_Idempotent(t *testing.T) {
	queries := []string{"", "hik", "WEEK", "香"}
	categories := []*task.Category{nil, category(task.CategoryFitness), category(task.CategoryStudy)}

	for _, q := range queries {
		for _, c := range categories {
			once := search.Filter(sampleTasks(), q, c)
			twice := search.Filter(once, q, c)
			assert.Equal(t, ids(once), ids(twice))
		}
	}
}

func TestFilter_PreservesInputAndOrder(t *testing.T) {
	tasks := sampleTasks()
	reversed := []*task.Task{tasks[4], tasks[3], tasks[2], tasks[1], tasks[0]}

	res := search.Filter(reversed, "", nil)
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(res))
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(reversed))

	res = search.Filter(reversed, "hik", nil)
	assert.Equal(t, []int64{3, 1}, ids(res))
}

func TestFilter_NilAndEmptyInput(t *testing.T) {
	assert.Empty(t, search.Filter(nil, "x", nil))
	assert.Empty(t, search.Filter([]*task.Task{nil}, "", nil))
}
