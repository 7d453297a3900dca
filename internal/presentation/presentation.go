// Package presentation превращает задачу в набор подписей для клиентов.
// Язык и таблица подписей передаются явно через Config.
package presentation

import (
	"bountyBuddy/internal/models/task"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type LookupTable struct {
	Currency   string            `yaml:"currency"`
	Categories map[string]string `yaml:"categories"`
	Location   map[string]string `yaml:"location"`
	Types      map[string]string `yaml:"types"`
	Statuses   map[string]string `yaml:"statuses"`
}

type Config struct {
	Locale language.Tag
	Table  LookupTable
}

type DisplayModel struct {
	CategoryLabel string `json:"categoryLabel"`
	LocationLabel string `json:"locationLabel"`
	BountyLabel   string `json:"bountyLabel"`
	TypeLabel     string `json:"typeLabel"`
	StatusLabel   string `json:"statusLabel"`
}

// Display строит подписи; неизвестные ключи отдаются как есть
func (c Config) Display(t *task.Task) DisplayModel {
	return DisplayModel{
		CategoryLabel: lookup(c.Table.Categories, string(t.Category)),
		LocationLabel: c.locationLabel(t),
		BountyLabel:   c.bountyLabel(t.BountyAmount),
		TypeLabel:     lookup(c.Table.Types, string(t.TaskType)),
		StatusLabel:   lookup(c.Table.Statuses, string(t.Status)),
	}
}

func (c Config) locationLabel(t *task.Task) string {
	if t.IsOnline {
		return lookup(c.Table.Location, "online")
	}
	if t.Location != "" {
		return t.Location
	}
	if label, ok := c.Table.Location["tbd"]; ok {
		return label
	}
	return lookup(c.Table.Location, "offline")
}

func (c Config) bountyLabel(amount int64) string {
	p := message.NewPrinter(c.Locale)
	if c.Table.Currency == "" {
		return p.Sprintf("%d", amount)
	}
	return p.Sprintf("%d %s", amount, c.Table.Currency)
}

func lookup(table map[string]string, key string) string {
	if label, ok := table[key]; ok && label != "" {
		return label
	}
	return key
}
