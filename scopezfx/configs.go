package scopezfx

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied for omitted or non-positive Config fields.
const (
	DefaultServiceName = "scopez"
	DefaultBufferSize  = 2048
	DefaultWorkers     = 4
	DefaultQueueSize   = 1024
)

// Config defines the configuration for the tracing module.
type Config struct {
	// ServiceName names the collector the module registers and tags the
	// lifecycle logs.
	//
	// Default: "scopez"
	ServiceName string `yaml:"service_name"`

	// Enabled selects between the recording backend and the no-op
	// implementations. Application code cannot tell the difference; a
	// disabled tracer simply discards everything.
	//
	// Default: true (see DefaultConfig)
	Enabled bool `yaml:"enabled"`

	// BufferSize is the collector's channel capacity. Spans beyond it
	// are dropped rather than blocking the caller.
	//
	// Default: 2048
	BufferSize int `yaml:"buffer_size"`

	// Workers is the size of the worker pool running async completion
	// handlers. Zero disables the pool; async handlers then run on
	// fresh goroutines.
	//
	// Default: 4
	Workers int `yaml:"workers"`

	// QueueSize is the worker pool's task queue capacity.
	//
	// Default: 1024
	QueueSize int `yaml:"queue_size"`
}

// DefaultConfig returns the configuration used when no file is loaded.
func DefaultConfig() Config {
	return Config{
		ServiceName: DefaultServiceName,
		Enabled:     true,
		BufferSize:  DefaultBufferSize,
		Workers:     DefaultWorkers,
		QueueSize:   DefaultQueueSize,
	}
}

// LoadConfig reads a YAML config file, applying defaults for omitted
// fields.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.Workers < 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	return c
}
