package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML configuration. Environment variables win
// over every value set here.
type fileConfig struct {
	Route struct {
		DepartureID   int    `yaml:"departure_id"`
		DepartureName string `yaml:"departure_name"`
		ArrivalID     int    `yaml:"arrival_id"`
		ArrivalName   string `yaml:"arrival_name"`
	} `yaml:"route"`

	CheckStart string `yaml:"check_start"`
	CheckEnd   string `yaml:"check_end"`

	DepartureDate      string `yaml:"departure_date"`
	CheckMultipleDates bool   `yaml:"check_multiple_dates"`
	DateRangeStart     string `yaml:"date_range_start"`
	DateRangeEnd       string `yaml:"date_range_end"`
	MaxDaysToCheck     *int   `yaml:"max_days_to_check"`

	PollInterval string   `yaml:"poll_interval"`
	CabinClasses []string `yaml:"cabin_classes"`
	DiffMatch    string   `yaml:"diff_match"`
	Timezone     string   `yaml:"timezone"`

	Endpoint string `yaml:"tcdd_endpoint"`
	UnitID   string `yaml:"unit_id"`

	StateBackend string `yaml:"state_backend"`
	StateFile    string `yaml:"state_file"`
}

func loadFile(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config yaml: %w", err)
	}
	return fc, nil
}
