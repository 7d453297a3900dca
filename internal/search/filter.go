// Package search отбирает задачи по текстовому запросу и категории.
// Это фильтр, а не ранжированный поиск: порядок входа сохраняется.
package search

import (
	"bountyBuddy/internal/models/task"
	"strings"
)

// Filter возвращает задачи, у которых заголовок или описание содержат query
// без учёта регистра и категория совпадает с category (nil - любая).
// Входной срез не изменяется
func Filter(tasks []*task.Task, query string, category *task.Category) []*task.Task {
	needle := strings.ToLower(query)
	res := make([]*task.Task, 0, len(tasks))

	for _, t := range tasks {
		if t == nil {
			continue
		}
		if category != nil && t.Category != *category {
			continue
		}
		if !matchesText(t, needle) {
			continue
		}
		res = append(res, t)
	}

	return res
}

func matchesText(t *task.Task, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle)
}
