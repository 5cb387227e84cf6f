package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/gameframe/internal/core/ecs"
	"github.com/zeusync/gameframe/internal/core/observability/log"
)

type Config struct {
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	ECS       ecs.Config      `yaml:"ecs" toml:"ecs"`
	Host      HostConfig      `yaml:"host" toml:"host"`
	Inspector InspectorConfig `yaml:"inspector" toml:"inspector"`
	Scripting ScriptingConfig `yaml:"scripting" toml:"scripting"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "json" or "console"
	// Outputs defaults to stderr.
	Outputs []string `yaml:"outputs" toml:"outputs"`
}

type HostConfig struct {
	FrameRate     int           `yaml:"frame_rate" toml:"frame_rate"`
	FixedStep     time.Duration `yaml:"fixed_step" toml:"fixed_step"`
	MaxFixedSteps int           `yaml:"max_fixed_steps" toml:"max_fixed_steps"` // per frame, drops backlog beyond
	JobQueue      int           `yaml:"job_queue" toml:"job_queue"`
}

type InspectorConfig struct {
	Enabled      bool          `yaml:"enabled" toml:"enabled"`
	Addr         string        `yaml:"addr" toml:"addr"`
	PushInterval time.Duration `yaml:"push_interval" toml:"push_interval"`
}

type ScriptingConfig struct {
	Enabled bool     `yaml:"enabled" toml:"enabled"`
	Scripts []string `yaml:"scripts" toml:"scripts"`
}

// Load reads path over the defaults. The format follows the extension:
// .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("config %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		ECS: ecs.DefaultConfig(),
		Host: HostConfig{
			FrameRate:     60,
			FixedStep:     20 * time.Millisecond,
			MaxFixedSteps: 5,
			JobQueue:      256,
		},
		Inspector: InspectorConfig{
			Enabled:      false,
			Addr:         "127.0.0.1:7070",
			PushInterval: time.Second,
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if f := c.Logging.Format; f != "json" && f != "console" {
		errs = append(errs, fmt.Errorf("logging.format: want json or console, got %q", f))
	}
	if c.ECS.EntityCapacity < 0 {
		errs = append(errs, errors.New("ecs.entity_capacity: must not be negative"))
	}
	if c.Host.FrameRate <= 0 {
		errs = append(errs, errors.New("host.frame_rate: must be positive"))
	}
	if c.Host.FixedStep <= 0 {
		errs = append(errs, errors.New("host.fixed_step: must be positive"))
	}
	if c.Host.MaxFixedSteps < 1 {
		errs = append(errs, errors.New("host.max_fixed_steps: must be at least 1"))
	}
	if c.Host.JobQueue < 1 {
		errs = append(errs, errors.New("host.job_queue: must be at least 1"))
	}
	if c.Inspector.Enabled {
		if c.Inspector.Addr == "" {
			errs = append(errs, errors.New("inspector.addr: required when enabled"))
		}
		if c.Inspector.PushInterval <= 0 {
			errs = append(errs, errors.New("inspector.push_interval: must be positive"))
		}
	}
	return errors.Join(errs...)
}

// LogOptions converts the logging section for log.New.
func (c LoggingConfig) LogOptions() log.Options {
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		lvl = log.LevelInfo
	}
	return log.Options{Level: lvl, Encoding: c.Format, OutputPaths: c.Outputs}
}

// FrameInterval is the wall time of one variable-step frame.
func (c HostConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}
