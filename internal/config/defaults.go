package config

import (
	"time"

	"github.com/Bilal079/dropvault/internal/bytesize"
)

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in any zero-valued field left unset after loading the
// config file and environment overrides.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "dropvault"
	}
	if cfg.Telemetry.SampleFraction == 0 {
		cfg.Telemetry.SampleFraction = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_objects", "inuse_objects"}
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9000
	}
	if cfg.Server.ClientThreads == 0 {
		cfg.Server.ClientThreads = 4
	}
	if cfg.Server.Workers == 0 {
		cfg.Server.Workers = 4
	}
	if cfg.Server.ClientQueueDepth == 0 {
		cfg.Server.ClientQueueDepth = 128
	}
	if cfg.Server.TaskQueueDepth == 0 {
		cfg.Server.TaskQueueDepth = 1024
	}

	if cfg.Metadata.Backend == "" {
		cfg.Metadata.Backend = "sqlite"
	}
	if cfg.Metadata.SQLitePath == "" {
		cfg.Metadata.SQLitePath = "storage/meta.db"
	}
	if cfg.Metadata.BadgerDir == "" {
		cfg.Metadata.BadgerDir = "storage/meta.badger"
	}

	if cfg.Storage.RootDir == "" {
		cfg.Storage.RootDir = "storage"
	}
	if cfg.Storage.DefaultQuota == 0 {
		cfg.Storage.DefaultQuota = bytesize.ByteSize(100 * 1024 * 1024)
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9100"
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}
