package survey

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the unified configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	// Validate scanner configs. The broker may be empty: file-based builds
	// do not need MQTT at all.
	seen := make(map[string]struct{}, len(config.Scanners))
	for i, sc := range config.Scanners {
		if sc.ID == "" {
			return nil, fmt.Errorf("scanner[%d].id is required", i)
		}
		if _, dup := seen[sc.ID]; dup {
			return nil, fmt.Errorf("scanner[%d]: duplicate id %q", i, sc.ID)
		}
		seen[sc.ID] = struct{}{}
		if config.MQTT.Broker != "" && sc.Topic == "" {
			return nil, fmt.Errorf("scanner[%d].topic is required for %s when mqtt is enabled", i, sc.ID)
		}
		if sc.Orientation != nil {
			if _, err := ParseOrientation(*sc.Orientation); err != nil {
				return nil, fmt.Errorf("scanner %s: %w", sc.ID, err)
			}
		}
	}

	if config.MinOverlap < 0 {
		return nil, fmt.Errorf("minOverlap must be positive, got %d", config.MinOverlap)
	}
	if config.SensorRange < 0 {
		return nil, fmt.Errorf("sensorRange must be positive, got %d", config.SensorRange)
	}

	return &config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
