package config

import (
	"fmt"

	"fleetdesk/internal/models"

	"github.com/spf13/viper"
)

type SafetyConfig struct {
	ChecklistPath string            `yaml:"checklist_path"`
	Checklist     *models.Checklist `yaml:"-"`
}

func loadSafetyConfig() (*SafetyConfig, error) {
	path := getEnv("SAFETY_CHECKLIST_PATH", "")
	checklist, err := LoadChecklist(path)
	if err != nil {
		return nil, err
	}
	return &SafetyConfig{ChecklistPath: path, Checklist: checklist}, nil
}

// LoadChecklist reads the pre-trip checklist from a YAML or JSON file. An
// empty path yields the built-in checklist.
func LoadChecklist(path string) (*models.Checklist, error) {
	if path == "" {
		return models.DefaultChecklist(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read checklist %s: %w", path, err)
	}

	var checklist models.Checklist
	if err := v.Unmarshal(&checklist); err != nil {
		return nil, fmt.Errorf("failed to parse checklist %s: %w", path, err)
	}

	if err := validateChecklist(&checklist); err != nil {
		return nil, fmt.Errorf("invalid checklist %s: %w", path, err)
	}
	return &checklist, nil
}

func validateChecklist(checklist *models.Checklist) error {
	if len(checklist.Categories) == 0 {
		return fmt.Errorf("no categories defined")
	}

	seen := make(map[string]bool)
	for _, category := range checklist.Categories {
		if category.Name == "" {
			return fmt.Errorf("category without a name")
		}
		for _, item := range category.Items {
			if item.ID == "" {
				return fmt.Errorf("item without an id in category %s", category.Name)
			}
			if seen[item.ID] {
				return fmt.Errorf("duplicate item id %s", item.ID)
			}
			seen[item.ID] = true
		}
	}
	return nil
}
