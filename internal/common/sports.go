package common

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// SportConfig maps one sport title to its spreadsheet tab.
type SportConfig struct {
	Title string `yaml:"title"`
	Sheet string `yaml:"sheet"`
}

// SportsConfig is the shape of the sports.yaml file.
type SportsConfig struct {
	Sports []SportConfig `yaml:"sports"`
}

// LoadSportTabs reads the sports file and returns the sport-title to
// sheet-tab mapping used by incremental form sync. The file is optional: a
// missing file yields an empty mapping, which disables per-sport tabs
// without affecting any other sink.
func LoadSportTabs(path string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("unable to read sports file %s: %w", path, err)
	}

	var cfg SportsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unable to parse sports file %s: %w", path, err)
	}

	tabs := make(map[string]string, len(cfg.Sports))
	for _, sport := range cfg.Sports {
		if sport.Title == "" {
			continue
		}
		sheet := sport.Sheet
		if sheet == "" {
			sheet = sport.Title
		}
		tabs[sport.Title] = sheet
	}
	return tabs, nil
}
