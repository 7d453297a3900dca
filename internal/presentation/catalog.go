package presentation

import (
	"embed"
	"fmt"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yml
var localeFS embed.FS

// первая локаль используется по умолчанию
var supportedLocales = []string{"zh", "en"}

type Catalog struct {
	tags    []language.Tag
	tables  map[language.Tag]LookupTable
	matcher language.Matcher
}

func LoadCatalog() (*Catalog, error) {
	c := &Catalog{
		tables: make(map[language.Tag]LookupTable, len(supportedLocales)),
	}

	for _, name := range supportedLocales {
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("разбор локали %s: %w", name, err)
		}

		raw, err := localeFS.ReadFile("locales/" + name + ".yml")
		if err != nil {
			return nil, fmt.Errorf("чтение таблицы %s: %w", name, err)
		}

		var table LookupTable
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("парсинг таблицы %s: %w", name, err)
		}

		c.tags = append(c.tags, tag)
		c.tables[tag] = table
	}

	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Resolve подбирает локаль по предпочтениям клиента (?lang, Accept-Language).
// Непонятные значения пропускаются, без совпадений берётся локаль по умолчанию
func (c *Catalog) Resolve(preferences ...string) Config {
	var wanted []language.Tag
	for _, pref := range preferences {
		if pref == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		wanted = append(wanted, tags...)
	}

	_, index, confidence := c.matcher.Match(wanted...)
	if confidence == language.No {
		index = 0
	}

	tag := c.tags[index]
	return Config{Locale: tag, Table: c.tables[tag]}
}

func (c *Catalog) Default() Config {
	tag := c.tags[0]
	return Config{Locale: tag, Table: c.tables[tag]}
}
