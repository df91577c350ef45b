package survey

// ScannerConfig defines one physical scanner from the config file.
type ScannerConfig struct {
	ID    string `yaml:"id" json:"id"`
	Topic string `yaml:"topic" json:"topic"`
	// Range overrides the detection range for this scanner's sensor pose.
	Range *int `yaml:"range,omitempty" json:"range,omitempty"`
	// Orientation is an optional mount hint in "x->y, y->z, z->-x" notation.
	// It is advisory only: registration recovers the orientation itself, and
	// a mismatch between hint and recovered pose is logged.
	Orientation *string `yaml:"orientation,omitempty" json:"orientation,omitempty"`
}

// Config represents the full configuration file.
type Config struct {
	MQTT        MQTTConfig      `yaml:"mqtt" json:"mqtt"`
	Scanners    []ScannerConfig `yaml:"scanners" json:"scanners"`
	MinOverlap  int             `yaml:"minOverlap,omitempty" json:"minOverlap,omitempty"`   // Beacon overlap threshold (default 12)
	SensorRange int             `yaml:"sensorRange,omitempty" json:"sensorRange,omitempty"` // Detection range (default 1000)
	Workers     int             `yaml:"workers,omitempty" json:"workers,omitempty"`         // Parallel placement attempts
}

// MQTTConfig holds MQTT connection settings.
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// GetScannerByID returns the scanner config for the given ID.
func (c *Config) GetScannerByID(id string) *ScannerConfig {
	for i := range c.Scanners {
		if c.Scanners[i].ID == id {
			return &c.Scanners[i]
		}
	}
	return nil
}

// GetScannerByTopic returns the scanner ID for a given topic.
func (c *Config) GetScannerByTopic(topic string) (string, bool) {
	for _, sc := range c.Scanners {
		if sc.Topic == topic {
			return sc.ID, true
		}
	}
	return "", false
}

// BuildConfig derives the registration tunables from the config file,
// falling back to defaults for unset fields.
func (c *Config) BuildConfig() BuildConfig {
	cfg := DefaultBuildConfig()
	if c.MinOverlap > 0 {
		cfg.MinOverlap = c.MinOverlap
	}
	if c.SensorRange > 0 {
		cfg.SensorRange = c.SensorRange
	}
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}
	return cfg
}

// GetRange returns the scanner's configured range or the given default.
func (sc *ScannerConfig) GetRange(def int) int {
	if sc.Range != nil && *sc.Range > 0 {
		return *sc.Range
	}
	return def
}
