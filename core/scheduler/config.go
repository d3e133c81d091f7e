package scheduler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/swiftdrop/dispatch/core/model"
)

// LoadConfig loads SchedulerConfig from a JSON or YAML file.
func LoadConfig(path string) (SchedulerConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SchedulerConfig{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var cfg SchedulerConfig
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	default:
		return SchedulerConfig{}, fmt.Errorf("unsupported config format: %s", ext)
	}
	return cfg, err
}

type rosterDriver struct {
	ID      string  `yaml:"id" json:"id"`
	Name    string  `yaml:"name" json:"name"`
	Rating  float64 `yaml:"rating" json:"rating"`
	Done    int     `yaml:"deliveries" json:"deliveries"`
	Windows []struct {
		Start time.Time `yaml:"start" json:"start"`
		End   time.Time `yaml:"end" json:"end"`
	} `yaml:"windows" json:"windows"`
}

type rosterFile struct {
	Drivers []rosterDriver `yaml:"drivers" json:"drivers"`
}

// LoadRoster reads drivers and their shift windows from a YAML or JSON file.
// Roster files describe pre-vetted drivers, so compliance flags are set.
func LoadRoster(path string) ([]model.Driver, map[string][]ShiftWindow, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var rf rosterFile
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &rf)
	case ".json":
		err = json.Unmarshal(b, &rf)
	default:
		return nil, nil, fmt.Errorf("unsupported roster format: %s", ext)
	}
	if err != nil {
		return nil, nil, err
	}
	drivers := make([]model.Driver, 0, len(rf.Drivers))
	windows := make(map[string][]ShiftWindow, len(rf.Drivers))
	for _, rd := range rf.Drivers {
		drivers = append(drivers, model.Driver{
			ID:                    rd.ID,
			Name:                  rd.Name,
			AverageRating:         rd.Rating,
			TotalDeliveries:       rd.Done,
			LicenseValid:          true,
			BackgroundCheckPassed: true,
		})
		for _, w := range rd.Windows {
			windows[rd.ID] = append(windows[rd.ID], ShiftWindow{Start: w.Start, End: w.End})
		}
	}
	return drivers, windows, nil
}
