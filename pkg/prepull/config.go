package prepull

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ghodss/yaml"
	"github.com/imdario/mergo"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/openshift/image-prepuller/pkg/registry"
)

const (
	// DefaultPollInterval is the delay between two status reads of a prepull pod.
	DefaultPollInterval = time.Second
	// DefaultMaxAttempts bounds the status reads of one pod, an hour at the default interval.
	DefaultMaxAttempts = 3600
	// DefaultUnitTimeout is the longest a prepull pod is waited for by default.
	DefaultUnitTimeout = DefaultMaxAttempts * DefaultPollInterval

	defaultOwner = "lsstsqre"
	defaultName  = "jld-lab"
)

// DefaultCommand is run by every prepull pod. It only has to exit promptly
// once the image is on the node.
func DefaultCommand() []string {
	return []string{
		"/bin/sh",
		"-c",
		"echo Prepuller run for $(hostname) complete at $(date).",
	}
}

// Config holds everything one prepull run needs. A Config is built once per
// invocation and never shared between runs; use Copy before handing it to
// long-lived components.
type Config struct {
	Registry registry.Config `json:"registry"`
	// Images are pulled in addition to the scanned tags.
	Images []string `json:"images,omitempty"`
	// SkipScan disables the registry scan; only Images are pulled.
	SkipScan bool `json:"skipScan,omitempty"`
	// Command run by each prepull pod.
	Command []string `json:"command,omitempty"`
	// Namespace for prepull pods. Empty means resolve from the environment.
	Namespace    string          `json:"namespace,omitempty"`
	PollInterval metav1.Duration `json:"pollInterval,omitempty"`
	MaxAttempts  int             `json:"maxAttempts,omitempty"`
	Debug        bool            `json:"debug,omitempty"`
}

// DefaultConfig returns a fresh Config populated with defaults.
func DefaultConfig() Config {
	return Config{
		Registry: registry.Config{
			Owner:     defaultOwner,
			Name:      defaultName,
			Dailies:   3,
			Weeklies:  2,
			Releases:  1,
			SortField: registry.SortByCompletion,
		},
		Command:      DefaultCommand(),
		PollInterval: metav1.Duration{Duration: DefaultPollInterval},
		MaxAttempts:  DefaultMaxAttempts,
	}
}

// Copy returns a deep copy of c.
func (c Config) Copy() Config {
	out := c
	out.Images = append([]string(nil), c.Images...)
	out.Command = append([]string(nil), c.Command...)
	return out
}

// UnitTimeout is the longest a single prepull pod is waited for.
func (c Config) UnitTimeout() time.Duration {
	return time.Duration(c.MaxAttempts) * c.PollInterval.Duration
}

// SetUnitTimeout sets MaxAttempts so that polling lasts about d.
func (c *Config) SetUnitTimeout(d time.Duration) {
	if c.PollInterval.Duration <= 0 {
		c.MaxAttempts = 1
		return
	}
	attempts := int((d + c.PollInterval.Duration - 1) / c.PollInterval.Duration)
	if attempts < 1 {
		attempts = 1
	}
	c.MaxAttempts = attempts
}

// ExecutorConfig returns the polling settings for the Executor.
func (c Config) ExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		PollInterval: c.PollInterval.Duration,
		MaxAttempts:  c.MaxAttempts,
	}
}

// Validate checks c and returns an ErrInvalidConfig error describing the first problem.
func (c Config) Validate() error {
	if len(c.Command) == 0 {
		return fmt.Errorf("%w: command must not be empty", ErrInvalidConfig)
	}
	if c.PollInterval.Duration <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidConfig, c.PollInterval.Duration)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.SkipScan {
		return nil
	}
	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// LoadConfigFile reads a Config from a YAML, JSON or TOML file. Fields absent
// from the file are left zero; combine with MergeConfig to apply defaults.
func LoadConfigFile(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		// route TOML through JSON so both formats share one set of field names
		var raw map[string]interface{}
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return cfg, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
		data, err = json.Marshal(raw)
		if err != nil {
			return cfg, fmt.Errorf("failed to convert TOML config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// MergeConfig overlays the non-zero fields of override onto a copy of base.
func MergeConfig(base, override Config) (Config, error) {
	out := base.Copy()
	if err := mergo.Merge(&out, override.Copy(), mergo.WithOverride); err != nil {
		return base, fmt.Errorf("failed to merge config: %w", err)
	}
	return out, nil
}
