package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/mapping"
)

// ProjectFile is the project configuration file name.
const ProjectFile = ".scout.yaml"

// Config represents the complete scout configuration.
type Config struct {
	Version  int                  `yaml:"version" json:"version"`
	Index    IndexConfig          `yaml:"index" json:"index"`
	Watch    WatchConfig          `yaml:"watch" json:"watch"`
	Logging  LoggingConfig        `yaml:"logging" json:"logging"`
	Metrics  MetricsConfig        `yaml:"metrics" json:"metrics"`
	Settings Settings             `yaml:"settings,omitempty" json:"settings,omitempty"`
	Mappings []mapping.Definition `yaml:"mappings,omitempty" json:"mappings,omitempty"`
}

// IndexConfig configures where generations live and how they are built.
type IndexConfig struct {
	// Root is the directory holding index generations.
	Root string `yaml:"root" json:"root"`

	// Catalog is the SQLite file recording which generation each index uses.
	// Empty keeps bindings in memory for the life of the process.
	Catalog string `yaml:"catalog" json:"catalog"`

	// CacheSize bounds the number of open index handles.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// Workers is the number of concurrent marshalling workers.
	Workers int `yaml:"workers" json:"workers"`

	// BatchSize is the number of documents written per batch.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// WatchConfig configures the freshness signal.
type WatchConfig struct {
	Signal       string `yaml:"signal" json:"signal"`
	Debounce     string `yaml:"debounce" json:"debounce"`
	PollInterval string `yaml:"poll_interval" json:"poll_interval"`
	ForcePolling bool   `yaml:"force_polling" json:"force_polling"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Stderr bool   `yaml:"stderr" json:"stderr"`
}

// MetricsConfig configures the Prometheus endpoint served by `scout watch`.
type MetricsConfig struct {
	// Addr is the listen address, e.g. ":9464". Empty disables the endpoint.
	Addr string `yaml:"addr" json:"addr"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Index: IndexConfig{
			Root:      filepath.Join(".scout", "generations"),
			Catalog:   filepath.Join(".scout", "catalog.db"),
			CacheSize: 16,
			Workers:   runtime.NumCPU(),
			BatchSize: 256,
		},
		Watch: WatchConfig{
			Signal:       filepath.Join(".scout", "signal"),
			Debounce:     "200ms",
			PollInterval: "5s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Settings: Settings{},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/scout/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/scout/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scout", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "scout", "config.yaml")
	}
	return filepath.Join(home, ".config", "scout", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var cfg Config
	if err := readYAML(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/scout/config.yaml)
//  3. Project config (.scout.yaml in dir)
//  4. Environment variables (SCOUT_*)
//
// Relative paths are resolved against dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	cfg.resolvePaths(dir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFile loads defaults merged with the single file at path, then the
// environment. Relative paths are resolved against the file's directory.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	cfg.resolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromFile loads .scout.yaml, or .scout.yml as a fallback.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ProjectFile)
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".scout.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}
	return nil
}

func readYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return scerrors.New(scerrors.ErrCodeSettingMalformed,
			fmt.Sprintf("failed to read config file %s", path), err).WithPath(path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return scerrors.New(scerrors.ErrCodeSettingMalformed,
			fmt.Sprintf("failed to parse config file %s", path), err).WithPath(path)
	}
	return nil
}

// loadYAML merges the non-zero values of the file at path into c.
func (c *Config) loadYAML(path string) error {
	var parsed Config
	if err := readYAML(path, &parsed); err != nil {
		return err
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
// Settings merge key by key; a mapping replaces one with the same alias.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Index.Root != "" {
		c.Index.Root = other.Index.Root
	}
	if other.Index.Catalog != "" {
		c.Index.Catalog = other.Index.Catalog
	}
	if other.Index.CacheSize != 0 {
		c.Index.CacheSize = other.Index.CacheSize
	}
	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.BatchSize != 0 {
		c.Index.BatchSize = other.Index.BatchSize
	}

	if other.Watch.Signal != "" {
		c.Watch.Signal = other.Watch.Signal
	}
	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.PollInterval != "" {
		c.Watch.PollInterval = other.Watch.PollInterval
	}
	if other.Watch.ForcePolling {
		c.Watch.ForcePolling = true
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Stderr {
		c.Logging.Stderr = true
	}

	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}

	if len(other.Settings) > 0 {
		if c.Settings == nil {
			c.Settings = Settings{}
		}
		for k, v := range other.Settings {
			c.Settings[k] = v
		}
	}

	for _, def := range other.Mappings {
		replaced := false
		for i := range c.Mappings {
			if c.Mappings[i].Alias == def.Alias {
				c.Mappings[i] = def
				replaced = true
				break
			}
		}
		if !replaced {
			c.Mappings = append(c.Mappings, def)
		}
	}
}

// applyEnvOverrides applies SCOUT_* variables. Malformed numbers are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCOUT_INDEX_ROOT"); v != "" {
		c.Index.Root = v
	}
	if v, ok := os.LookupEnv("SCOUT_CATALOG"); ok {
		c.Index.Catalog = v
	}
	if v := os.Getenv("SCOUT_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.CacheSize = n
		}
	}
	if v := os.Getenv("SCOUT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
	if v := os.Getenv("SCOUT_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.BatchSize = n
		}
	}
	if v := os.Getenv("SCOUT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SCOUT_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	if v := os.Getenv("SCOUT_WATCH_DEBOUNCE"); v != "" {
		c.Watch.Debounce = v
	}
	if v := os.Getenv("SCOUT_FORCE_POLLING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Watch.ForcePolling = b
		}
	}
}

func (c *Config) resolvePaths(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Index.Root = abs(c.Index.Root)
	c.Index.Catalog = abs(c.Index.Catalog)
	c.Watch.Signal = abs(c.Watch.Signal)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Index.Root == "" {
		return fmt.Errorf("index.root must be set")
	}
	if c.Index.CacheSize <= 0 {
		return fmt.Errorf("index.cache_size must be positive, got %d", c.Index.CacheSize)
	}
	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must be non-negative, got %d", c.Index.Workers)
	}
	if c.Index.BatchSize < 0 {
		return fmt.Errorf("index.batch_size must be non-negative, got %d", c.Index.BatchSize)
	}

	if _, err := c.DebounceWindow(); err != nil {
		return err
	}
	if _, err := c.PollInterval(); err != nil {
		return err
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	seen := make(map[string]bool, len(c.Mappings))
	for i, def := range c.Mappings {
		if def.Alias == "" {
			return fmt.Errorf("mappings[%d] has no alias", i)
		}
		if seen[def.Alias] {
			return fmt.Errorf("mapping alias %q is defined twice", def.Alias)
		}
		seen[def.Alias] = true
	}
	return nil
}

// DebounceWindow parses watch.debounce.
func (c *Config) DebounceWindow() (time.Duration, error) {
	return parseDuration("watch.debounce", c.Watch.Debounce)
}

// PollInterval parses watch.poll_interval.
func (c *Config) PollInterval() (time.Duration, error) {
	return parseDuration("watch.poll_interval", c.Watch.PollInterval)
}

func parseDuration(key, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a non-negative duration, got %q", key, v)
	}
	return d, nil
}

// BuildMappings builds every configured mapping, resolving defaults from
// the settings.
func (c *Config) BuildMappings() ([]*mapping.Node, error) {
	nodes := make([]*mapping.Node, 0, len(c.Mappings))
	for _, def := range c.Mappings {
		node, err := mapping.FromDefinition(def, c.Settings)
		if err != nil {
			return nil, fmt.Errorf("mapping %s: %w", def.Alias, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
