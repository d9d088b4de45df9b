// Package config loads server configuration from defaults, a YAML file and
// environment variables, in that order of increasing precedence, following
// the same viper + mapstructure layering the rest of the ambient stack uses.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Bilal079/dropvault/internal/bytesize"
)

// Config is the top-level server configuration.
type Config struct {
	Logging         LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry       TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Profiling       ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
	Server          ServerConfig    `mapstructure:"server" yaml:"server"`
	Metadata        MetadataConfig  `mapstructure:"metadata" yaml:"metadata"`
	Storage         StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Metrics         MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig controls logger output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled        bool    `mapstructure:"enabled" yaml:"enabled"`
	ServiceName    string  `mapstructure:"service_name" yaml:"service_name"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	SampleFraction float64 `mapstructure:"sample_fraction" yaml:"sample_fraction"`
}

// ProfilingConfig controls continuous profiling via Pyroscope.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// ServerConfig controls the listener and the connection/worker stages.
type ServerConfig struct {
	Port              int `mapstructure:"port" yaml:"port"`
	ClientThreads     int `mapstructure:"client_threads" yaml:"client_threads"`
	Workers           int `mapstructure:"workers" yaml:"workers"`
	ClientQueueDepth  int `mapstructure:"client_queue_depth" yaml:"client_queue_depth"`
	TaskQueueDepth    int `mapstructure:"task_queue_depth" yaml:"task_queue_depth"`
}

// MetadataConfig selects and configures the metadata store backend.
type MetadataConfig struct {
	// Backend is "sqlite" or "badger".
	Backend    string `mapstructure:"backend" yaml:"backend"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	BadgerDir  string `mapstructure:"badger_dir" yaml:"badger_dir"`
}

// StorageConfig controls where file content is stored and the default
// per-user quota assigned at signup.
type StorageConfig struct {
	RootDir      string           `mapstructure:"root_dir" yaml:"root_dir"`
	DefaultQuota bytesize.ByteSize `mapstructure:"default_quota" yaml:"default_quota"`
}

// MetricsConfig controls the Prometheus metrics/health HTTP server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

// Load reads configuration from configPath (or the default search path if
// empty), overlays DROPVAULT_* environment variables, fills in defaults for
// anything left unset, and validates the result. Environment variables
// override only keys that the config file itself sets; when no config file
// is found, no environment variable is read.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if found {
		if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHooks())); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("DROPVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(".")
	v.SetConfigName("dropvault")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Server.Workers <= 0 {
		return fmt.Errorf("server.workers must be positive")
	}
	if cfg.Server.ClientThreads <= 0 {
		return fmt.Errorf("server.client_threads must be positive")
	}
	switch cfg.Metadata.Backend {
	case "sqlite", "badger":
	default:
		return fmt.Errorf("metadata.backend %q must be sqlite or badger", cfg.Metadata.Backend)
	}
	if cfg.Storage.RootDir == "" {
		return fmt.Errorf("storage.root_dir must be set")
	}
	return nil
}
