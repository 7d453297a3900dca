package presentation_test

import (
	"bountyBuddy/internal/models/task"
	"bountyBuddy/internal/presentation"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func loadCatalog(t *testing.T) *presentation.Catalog {
	t.Helper()
	catalog, err := presentation.LoadCatalog()
	require.NoError(t, err)
	return catalog
}

func TestCatalog_Resolve(t *testing.T) {
	catalog := loadCatalog(t)

	tests := []struct {
		name        string
		preferences []string
		expected    language.Tag
	}{
		{"no preference falls back to chinese", nil, language.Chinese},
		{"explicit english", []string{"en"}, language.English},
		{"accept language header", []string{"en-US,en;q=0.9,zh;q=0.5"}, language.English},
		{"simplified chinese region", []string{"zh-CN"}, language.Chinese},
		{"query param wins over header", []string{"zh", "en-US"}, language.Chinese},
		{"garbage is ignored", []string{"%%%", "en"}, language.English},
		{"unsupported language falls back", []string{"fr"}, language.Chinese},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := catalog.Resolve(tt.preferences...)
			assert.Equal(t, tt.expected, cfg.Locale)
			assert.NotEmpty(t, cfg.Table.Categories)
		})
	}
}

func TestConfig_Display(t *testing.T) {
	catalog := loadCatalog(t)

	offline := &task.Task{
		Category:     task.CategoryFitness,
		TaskType:     task.TypeRecurring,
		Status:       task.StatusOpen,
		BountyAmount: 1200,
		Location:     "北京市海淀区香山公园",
	}
	online := &task.Task{
		Category:     task.CategoryStudy,
		TaskType:     task.TypeOneTime,
		Status:       task.StatusInProgress,
		BountyAmount: 500,
		IsOnline:     true,
	}

	t.Run("english labels", func(t *testing.T) {
		cfg := catalog.Resolve("en")

		d := cfg.Display(offline)
		assert.Equal(t, "Fitness", d.CategoryLabel)
		assert.Equal(t, "北京市海淀区香山公园", d.LocationLabel)
		assert.Equal(t, "1,200 Cups", d.BountyLabel)
		assert.Equal(t, "Recurring", d.TypeLabel)
		assert.Equal(t, "Open", d.StatusLabel)

		d = cfg.Display(online)
		assert.Equal(t, "Study", d.CategoryLabel)
		assert.Equal(t, "Online", d.LocationLabel)
		assert.Equal(t, "500 Cups", d.BountyLabel)
		assert.Equal(t, "One-time", d.TypeLabel)
		assert.Equal(t, "In progress", d.StatusLabel)
	})

	t.Run("chinese labels", func(t *testing.T) {
		cfg := catalog.Default()

		d := cfg.Display(online)
		assert.Equal(t, "学习", d.CategoryLabel)
		assert.Equal(t, "线上", d.LocationLabel)
		assert.Equal(t, "500 杯币", d.BountyLabel)
		assert.Equal(t, "单次", d.TypeLabel)
	})

	t.Run("offline without location", func(t *testing.T) {
		cfg := catalog.Resolve("en")
		d := cfg.Display(&task.Task{Category: task.CategoryFood})
		assert.Equal(t, "TBD", d.LocationLabel)
	})

	t.Run("unknown keys fall back to raw values", func(t *testing.T) {
		cfg := catalog.Resolve("en")
		d := cfg.Display(&task.Task{
			Category: task.Category("music"),
			TaskType: task.TaskType("weekly"),
			Status:   task.Status("archived"),
			IsOnline: true,
		})
		assert.Equal(t, "music", d.CategoryLabel)
		assert.Equal(t, "weekly", d.TypeLabel)
		assert.Equal(t, "archived", d.StatusLabel)
	})

	t.Run("empty table", func(t *testing.T) {
		cfg := presentation.Config{Locale: language.English}
		d := cfg.Display(offline)
		assert.Equal(t, "fitness", d.CategoryLabel)
		assert.Equal(t, "recurring", d.TypeLabel)
		assert.Equal(t, "1,200", d.BountyLabel)

		d = cfg.Display(&task.Task{IsOnline: true})
		assert.Equal(t, "online", d.LocationLabel)
	})
}
