// FILE: config.go
package ulog

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/lixenwraith/config"
)

// Config holds all logger configuration values
type Config struct {
	// Per-level output paths. Empty means stdout. Critical and fatal fall
	// back to the error path when left empty.
	TracePath    string `toml:"trace_path"`
	DebugPath    string `toml:"debug_path"`
	InfoPath     string `toml:"info_path"`
	WarnPath     string `toml:"warn_path"`
	ErrorPath    string `toml:"error_path"`
	CriticalPath string `toml:"critical_path"`
	FatalPath    string `toml:"fatal_path"`

	// Queue sizing
	QueueCapacity int64 `toml:"queue_capacity"` // MPMC cells, power of two
	BatchSize     int64 `toml:"batch_size"`     // Records per flush batch

	// Timers
	FlushIntervalNs int64 `toml:"flush_interval_ns"` // Flusher sleep between batches

	// Line format
	JSONMode          bool `toml:"json_mode"`           // JSON lines instead of text
	EnableColorStdout bool `toml:"enable_color_stdout"` // ANSI color on stdout terminals

	// Rotation
	MaxFileSizeBytes int64 `toml:"max_file_size_bytes"` // 0 disables rotation
	MaxFiles         int64 `toml:"max_files"`           // Live file plus archives

	// Behavior switches
	TrackMetrics           bool `toml:"track_metrics"`             // Count overflow and backpressure
	SpinOnFull             bool `toml:"spin_on_full"`              // Spin instead of fallback queue
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"` // Write internal errors to stderr
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	QueueCapacity:   16384,
	BatchSize:       512,
	FlushIntervalNs: 2_000_000,

	JSONMode:          false,
	EnableColorStdout: true,

	MaxFileSizeBytes: 0,
	MaxFiles:         3,

	TrackMetrics:           true,
	SpinOnFull:             false,
	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Use lixenwraith/config as a loader
	loader := config.New()

	if err := loader.RegisterStruct("ulog.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	// Load from file (handles file not found gracefully)
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, "ulog.", cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig extracts values from lixenwraith/config into our Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue // Use default value
		}

		if err := setFieldValue(fieldValue, val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate performs validation on the configuration. Batch size is clamped
// rather than rejected.
func (c *Config) Validate() error {
	if c.QueueCapacity <= 0 {
		return fmtErrorf("queue_capacity must be positive: %d", c.QueueCapacity)
	}
	if c.QueueCapacity&(c.QueueCapacity-1) != 0 {
		return fmtErrorf("queue_capacity must be a power of two: %d", c.QueueCapacity)
	}
	if c.QueueCapacity > maxQueueCapacity {
		return fmtErrorf("queue_capacity exceeds limit of %d: %d", maxQueueCapacity, c.QueueCapacity)
	}

	if c.BatchSize < minBatchSize {
		c.BatchSize = minBatchSize
	}
	if c.BatchSize > maxBatchSize {
		c.BatchSize = maxBatchSize
	}

	if c.FlushIntervalNs <= 0 {
		return fmtErrorf("flush_interval_ns must be positive: %d", c.FlushIntervalNs)
	}

	if c.MaxFileSizeBytes < 0 {
		return fmtErrorf("max_file_size_bytes cannot be negative: %d", c.MaxFileSizeBytes)
	}
	if c.MaxFiles < 1 {
		return fmtErrorf("max_files must be at least 1: %d", c.MaxFiles)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// levelPaths resolves the per-level output path array. Critical and fatal
// inherit the error path unless set explicitly.
func (c *Config) levelPaths() [levelCount]string {
	paths := [levelCount]string{
		c.TracePath, c.DebugPath, c.InfoPath, c.WarnPath,
		c.ErrorPath, c.CriticalPath, c.FatalPath,
	}
	if paths[LevelCritical] == "" {
		paths[LevelCritical] = c.ErrorPath
	}
	if paths[LevelFatal] == "" {
		paths[LevelFatal] = c.ErrorPath
	}
	return paths
}
