// Package config loads typedann settings from YAML files.
//
//	index:
//	  connectivity: 32
//	  expansion_add: 200
//	  memory_limit_bytes: 1073741824
//	logging:
//	  level: debug
//	  format: json
//	snapshot:
//	  backend: s3
//	  bucket: ${SNAPSHOT_BUCKET}
//	  codec: zstd
//
// ${VAR} and ${VAR:-default} references are expanded from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/typedann"
	"github.com/hupe1980/typedann/snapshot"
)

// Config holds the typedann configuration.
type Config struct {
	Index    IndexConfig    `yaml:"index"`
	Logging  LoggingConfig  `yaml:"logging"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// IndexConfig holds index construction settings. Zero values select the
// engine defaults.
type IndexConfig struct {
	Connectivity     int    `yaml:"connectivity"`
	ExpansionAdd     int    `yaml:"expansion_add"`
	ExpansionSearch  int    `yaml:"expansion_search"`
	Multi            bool   `yaml:"multi"`
	BatchWorkers     int    `yaml:"batch_workers"`
	MemoryLimitBytes int64  `yaml:"memory_limit_bytes"` // 0 = unlimited
	Seed             uint64 `yaml:"seed"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format"` // text, json (default: text)
}

// SnapshotConfig holds snapshot shipping settings.
type SnapshotConfig struct {
	Backend            string `yaml:"backend"` // local, memory, s3, minio (default: local)
	Dir                string `yaml:"dir"`
	Bucket             string `yaml:"bucket"`
	Prefix             string `yaml:"prefix"`
	Region             string `yaml:"region"`
	Endpoint           string `yaml:"endpoint"`
	AccessKey          string `yaml:"access_key"`
	SecretKey          string `yaml:"secret_key"`
	Secure             bool   `yaml:"secure"`
	Codec              string `yaml:"codec"`                  // none, lz4, zstd
	IOLimitBytesPerSec int64  `yaml:"io_limit_bytes_per_sec"` // 0 = unlimited
}

// Load reads configuration from a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = "local"
	}
	if c.Snapshot.Backend == "local" && c.Snapshot.Dir == "" {
		c.Snapshot.Dir = "snapshots"
	}
	if c.Snapshot.Codec == "" {
		c.Snapshot.Codec = "none"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	for name, v := range map[string]int{
		"index.connectivity":     c.Index.Connectivity,
		"index.expansion_add":    c.Index.ExpansionAdd,
		"index.expansion_search": c.Index.ExpansionSearch,
		"index.batch_workers":    c.Index.BatchWorkers,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	if c.Index.MemoryLimitBytes < 0 {
		return fmt.Errorf("index.memory_limit_bytes must not be negative, got %d", c.Index.MemoryLimitBytes)
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	if _, err := snapshot.ParseCodec(c.Snapshot.Codec); err != nil {
		return fmt.Errorf("snapshot.codec: %w", err)
	}
	if c.Snapshot.IOLimitBytesPerSec < 0 {
		return fmt.Errorf("snapshot.io_limit_bytes_per_sec must not be negative, got %d", c.Snapshot.IOLimitBytesPerSec)
	}
	switch c.Snapshot.Backend {
	case "local", "memory":
	case "s3":
		if c.Snapshot.Bucket == "" {
			return fmt.Errorf("snapshot.bucket is required for the s3 backend")
		}
	case "minio":
		if c.Snapshot.Bucket == "" || c.Snapshot.Endpoint == "" {
			return fmt.Errorf("snapshot.bucket and snapshot.endpoint are required for the minio backend")
		}
	default:
		return fmt.Errorf("snapshot.backend must be one of local, memory, s3, minio, got %q", c.Snapshot.Backend)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// Logger builds the configured logger writing to stderr.
func (c LoggingConfig) Logger() (*typedann.Logger, error) {
	level, err := parseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	if c.Format == "json" {
		return typedann.NewJSONLogger(level), nil
	}
	return typedann.NewTextLogger(level), nil
}

// Options converts the configuration into index options.
func (c Config) Options() ([]typedann.Option, error) {
	logger, err := c.Logging.Logger()
	if err != nil {
		return nil, err
	}

	return []typedann.Option{
		typedann.WithLogger(logger),
		typedann.WithBatchWorkers(c.Index.BatchWorkers),
		typedann.WithMemoryLimit(c.Index.MemoryLimitBytes),
		typedann.WithSeed(c.Index.Seed),
	}, nil
}

// NewIndex creates an index from the configuration. extra options are
// applied after the configured ones.
func NewIndex[T typedann.Scalar, D typedann.Dimension, M typedann.MetricType](c Config, extra ...typedann.Option) (*typedann.Index[T, D, M], error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	return typedann.New[T, D, M](c.Index.Connectivity, c.Index.ExpansionAdd, c.Index.ExpansionSearch, c.Index.Multi, append(opts, extra...)...)
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
