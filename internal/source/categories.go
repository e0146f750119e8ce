package source

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ddanilov/poisk/internal/model"
)

// bboxPlaceholder is substituted with "south,west,north,east" at request
// time. Every category query must contain it.
const bboxPlaceholder = "{{bbox}}"

// DefaultCategories returns the built-in category set covering the POI kinds
// the catalog ingests.
func DefaultCategories() []model.CategoryTemplate {
	return []model.CategoryTemplate{
		{
			Code:  "museum",
			Label: "Музеи",
			Query: `[out:json][timeout:25];(node["tourism"="museum"]({{bbox}});way["tourism"="museum"]({{bbox}}););out center;`,
			Kinds: []string{"museum", "gallery"},
		},
		{
			Code:  "attraction",
			Label: "Достопримечательности",
			Query: `[out:json][timeout:25];(node["tourism"="attraction"]({{bbox}});way["tourism"="attraction"]({{bbox}}););out center;`,
			Kinds: []string{"attraction", "viewpoint"},
		},
		{
			Code:  "monument",
			Label: "Памятники",
			Query: `[out:json][timeout:25];(node["historic"~"monument|memorial"]({{bbox}});way["historic"~"monument|memorial"]({{bbox}}););out center;`,
			Kinds: []string{"monument", "memorial"},
		},
		{
			Code:  "park",
			Label: "Парки",
			Query: `[out:json][timeout:25];(node["leisure"="park"]({{bbox}});way["leisure"="park"]({{bbox}}););out center;`,
			Kinds: []string{"park", "garden"},
		},
		{
			Code:  "theatre",
			Label: "Театры",
			Query: `[out:json][timeout:25];(node["amenity"="theatre"]({{bbox}});way["amenity"="theatre"]({{bbox}}););out center;`,
			Kinds: []string{"theatre"},
		},
		{
			Code:  "event",
			Label: "События",
			Query: `[out:json][timeout:25];(node["tourism"="event"]({{bbox}});node["leisure"="festival"]({{bbox}}););out center;`,
			Kinds: []string{"event", "festival"},
		},
	}
}

type categoriesFile struct {
	Categories []model.CategoryTemplate `yaml:"categories"`
}

// LoadCategories reads category templates from a YAML file. An empty path
// returns the built-in set. The result is always validated.
func LoadCategories(path string) ([]model.CategoryTemplate, error) {
	if path == "" {
		return DefaultCategories(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}

	var file categoriesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}

	if err := ValidateCategories(file.Categories); err != nil {
		return nil, err
	}
	return file.Categories, nil
}

// ValidateCategories checks the template set at startup so a malformed
// config fails the run before any region is touched.
func ValidateCategories(categories []model.CategoryTemplate) error {
	if len(categories) == 0 {
		return fmt.Errorf("categories: empty set")
	}

	seen := make(map[string]bool, len(categories))
	for i, c := range categories {
		if c.Code == "" {
			return fmt.Errorf("categories[%d]: missing code", i)
		}
		if seen[c.Code] {
			return fmt.Errorf("categories[%d]: duplicate code %q", i, c.Code)
		}
		seen[c.Code] = true

		if c.Label == "" {
			return fmt.Errorf("categories[%d] (%s): missing label", i, c.Code)
		}
		if !strings.Contains(c.Query, bboxPlaceholder) {
			return fmt.Errorf("categories[%d] (%s): query lacks %s placeholder", i, c.Code, bboxPlaceholder)
		}
	}
	return nil
}
