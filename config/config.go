// Package config parses the YAML configuration of the healthboard binary.
//
// Example configuration:
//
//	title: Platform Health
//	port: 5000
//	vocabulary_file: status_config.json
//	watch_vocabulary: true
//	restore_on_start: true
//	checkpoint_interval: 5m
//
//	snapshot:
//	  backend: redis
//	  redis:
//	    addr: ${REDIS_ADDR:-localhost:6379}
//	    password: ${REDIS_PASSWORD:-}
//
//	seed:
//	  - category: services
//	    items: [database, api]
//
//	probes:
//	  - category: services
//	    item: api
//	    url: https://api.example.com/health
//	    extractor: json:status
//
//	grids:
//	  - category: regions
//	    item: api
//	    url_template: "https://{{.region}}.example.com/health"
//	    dimensions:
//	      region: [us-east, eu-west]
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = 5000
	defaultProbeInterval  = 30 * time.Second
	defaultMaxConcurrency = 5
	defaultSnapshotPath   = "health_data.json"

	// minProbeInterval keeps a config from hammering probed endpoints.
	minProbeInterval = time.Second
)

// Snapshot backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the root of the configuration file.
//
// Use [Load] or [Parse] to create one; both apply defaults and validate.
type Config struct {
	// Title is the dashboard title.
	Title string `yaml:"title"`

	// Port is the HTTP port. Defaults to 5000.
	Port int `yaml:"port"`

	// VocabularyFile is a JSON or YAML status vocabulary. Empty means the
	// built-in statuses.
	VocabularyFile string `yaml:"vocabulary_file"`

	// WatchVocabulary reloads VocabularyFile whenever it changes.
	WatchVocabulary bool `yaml:"watch_vocabulary"`

	// RestoreOnStart loads the last checkpoint at startup.
	RestoreOnStart bool `yaml:"restore_on_start"`

	// CheckpointInterval enables periodic checkpoints. Zero disables them.
	CheckpointInterval Duration `yaml:"checkpoint_interval"`

	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Seed lists categories and items created at startup.
	Seed []SeedConfig `yaml:"seed"`

	// ProbeInterval is the default time between probe checks. Defaults to 30s.
	ProbeInterval Duration `yaml:"probe_interval"`

	// MaxConcurrency bounds the checks in flight. Defaults to 5.
	MaxConcurrency int `yaml:"max_concurrency"`

	Probes []ProbeConfig `yaml:"probes"`

	// Grids expand into one probe per combination of dimension values.
	Grids []GridConfig `yaml:"grids"`
}

// SnapshotConfig selects where checkpoints are stored.
type SnapshotConfig struct {
	// Backend is "file" (default), "redis" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the checkpoint file for the file backend. Defaults to
	// health_data.json.
	Path string `yaml:"path"`

	Redis  RedisConfig  `yaml:"redis"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// RedisConfig configures the Redis snapshot backend. Addr and Password
// support environment variable substitution.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// Key defaults to "healthboard:snapshot".
	Key string `yaml:"key"`
}

// SQLiteConfig configures the SQLite snapshot backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`

	// Name distinguishes boards sharing one database. Defaults to "default".
	Name string `yaml:"name"`
}

// SeedConfig is one category, with items, created at startup.
type SeedConfig struct {
	Category string   `yaml:"category"`
	Items    []string `yaml:"items"`
}

// StatusesConfig overrides the statuses a probe writes per verdict.
type StatusesConfig struct {
	UpStatus       string `yaml:"up_status"`
	DegradedStatus string `yaml:"degraded_status"`
	DownStatus     string `yaml:"down_status"`
	UnknownStatus  string `yaml:"unknown_status"`
}

// ProbeConfig binds one endpoint to a board item.
type ProbeConfig struct {
	Category string `yaml:"category"`
	Item     string `yaml:"item"`

	// URL supports environment variable substitution: ${VAR} or
	// ${VAR:-default}.
	URL string `yaml:"url"`

	// Method is GET (default), HEAD or POST.
	Method string `yaml:"method"`

	// Timeout defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Interval overrides probe_interval for this probe; 1s to 1h.
	Interval Duration `yaml:"interval"`

	// Headers values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	Extractor ExtractorConfig `yaml:"extractor"`

	StatusesConfig `yaml:",inline"`
}

// GridConfig expands a URL template over every combination of dimension
// values. Item names are Item followed by the values, joined with "-".
type GridConfig struct {
	Category string `yaml:"category"`
	Item     string `yaml:"item"`

	// URLTemplate uses text/template syntax with dimension keys as
	// variables and supports environment variable substitution.
	URLTemplate string `yaml:"url_template"`

	Dimensions map[string][]string `yaml:"dimensions"`

	Method    string            `yaml:"method"`
	Timeout   Duration          `yaml:"timeout"`
	Interval  Duration          `yaml:"interval"`
	Headers   map[string]string `yaml:"headers"`
	Extractor ExtractorConfig   `yaml:"extractor"`

	StatusesConfig `yaml:",inline"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, applies defaults, expands
// environment variables and validates the result.
//
// Validation errors name the offending entry, e.g.
// "probes[0] (services/api): url is required".
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.ProbeInterval == 0 {
		c.ProbeInterval = Duration(defaultProbeInterval)
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = defaultMaxConcurrency
	}
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = BackendFile
	}
	if c.Snapshot.Backend == BackendFile && c.Snapshot.Path == "" {
		c.Snapshot.Path = defaultSnapshotPath
	}
}
