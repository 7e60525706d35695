package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/openshift/image-prepuller/pkg/prepull"
	"github.com/openshift/image-prepuller/pkg/registry"
)

// configOpts collects the flags shared by start and scan. Flag values only
// replace the defaults and the config file when they were set explicitly.
type configOpts struct {
	cfg        prepull.Config
	configFile string
	// timeout is the per-pod wait in seconds.
	timeout int
}

func newConfigOpts() *configOpts {
	cfg := prepull.DefaultConfig()
	return &configOpts{
		cfg:     cfg,
		timeout: int(prepull.DefaultUnitTimeout / time.Second),
	}
}

func (o *configOpts) addRegistryFlags(fs *pflag.FlagSet) {
	r := &o.cfg.Registry
	fs.StringVar(&o.configFile, "config", "", "YAML, JSON or TOML file with prepuller settings")
	fs.StringVar(&r.Host, "repo", r.Host, "Registry host to scan (empty means Docker Hub)")
	fs.StringVar(&r.Port, "port", r.Port, "Registry port, only used with --repo")
	fs.StringVar(&r.Owner, "owner", r.Owner, "Repository owner")
	fs.StringVar(&r.Name, "name", r.Name, "Repository name")
	fs.StringVar(&r.Path, "path", r.Path, "Docker Hub tag listing API path (default /v2/repositories/<owner>/<name>/tags/); not allowed with --repo other than "+registry.DockerHubHost)
	fs.IntVar(&r.Dailies, "dailies", r.Dailies, "Number of daily images to keep")
	fs.IntVar(&r.Weeklies, "weeklies", r.Weeklies, "Number of weekly images to keep")
	fs.IntVar(&r.Releases, "releases", r.Releases, "Number of release images to keep")
	fs.BoolVar(&r.Insecure, "insecure", r.Insecure, "Talk to the registry over plain HTTP or without TLS verification")
	fs.StringVar(&r.SortField, "sort", r.SortField, fmt.Sprintf("Field to sort tags by (%s or %s)", registry.SortByCompletion, registry.SortByName))
	fs.StringVar(&r.AuthFile, "authfile", r.AuthFile, "Container registry auth file, for registries other than Docker Hub")
	fs.StringSliceVar(&o.cfg.Images, "list", o.cfg.Images, "Comma separated images to pull in addition to the scanned ones")
	fs.BoolVar(&o.cfg.Debug, "debug", o.cfg.Debug, "Log per-pod and per-page detail")
}

func (o *configOpts) addRunFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.cfg.SkipScan, "no-scan", o.cfg.SkipScan, "Do not scan the registry, only pull the --list images")
	fs.StringSliceVar(&o.cfg.Command, "command", o.cfg.Command, "Command run by each prepull pod")
	fs.IntVar(&o.timeout, "timeout", o.timeout, "Seconds to wait for a single prepull pod")
	fs.DurationVar(&o.cfg.PollInterval.Duration, "poll-interval", o.cfg.PollInterval.Duration, "Delay between status reads of a prepull pod")
	fs.StringVar(&o.cfg.Namespace, "namespace", o.cfg.Namespace, "Namespace for prepull pods (default: service account namespace)")
}

// overrides maps each flag to the Config field it sets.
func (o *configOpts) overrides() map[string]func(*prepull.Config) {
	src := o.cfg
	return map[string]func(*prepull.Config){
		"repo":          func(c *prepull.Config) { c.Registry.Host = src.Registry.Host },
		"port":          func(c *prepull.Config) { c.Registry.Port = src.Registry.Port },
		"owner":         func(c *prepull.Config) { c.Registry.Owner = src.Registry.Owner },
		"name":          func(c *prepull.Config) { c.Registry.Name = src.Registry.Name },
		"path":          func(c *prepull.Config) { c.Registry.Path = src.Registry.Path },
		"dailies":       func(c *prepull.Config) { c.Registry.Dailies = src.Registry.Dailies },
		"weeklies":      func(c *prepull.Config) { c.Registry.Weeklies = src.Registry.Weeklies },
		"releases":      func(c *prepull.Config) { c.Registry.Releases = src.Registry.Releases },
		"insecure":      func(c *prepull.Config) { c.Registry.Insecure = src.Registry.Insecure },
		"sort":          func(c *prepull.Config) { c.Registry.SortField = src.Registry.SortField },
		"authfile":      func(c *prepull.Config) { c.Registry.AuthFile = src.Registry.AuthFile },
		"list":          func(c *prepull.Config) { c.Images = append([]string(nil), src.Images...) },
		"debug":         func(c *prepull.Config) { c.Debug = src.Debug },
		"no-scan":       func(c *prepull.Config) { c.SkipScan = src.SkipScan },
		"command":       func(c *prepull.Config) { c.Command = append([]string(nil), src.Command...) },
		"poll-interval": func(c *prepull.Config) { c.PollInterval = src.PollInterval },
		"namespace":     func(c *prepull.Config) { c.Namespace = src.Namespace },
	}
}

// resolve builds the effective Config: defaults, then the config file, then
// the flags that were set on the command line. Unless --timeout or a file
// maxAttempts pins it, the attempt count is derived from the default unit
// timeout and the effective poll interval.
func (o *configOpts) resolve(fs *pflag.FlagSet) (prepull.Config, error) {
	cfg := prepull.DefaultConfig()
	pinnedAttempts := false

	if o.configFile != "" {
		fileCfg, err := prepull.LoadConfigFile(o.configFile)
		if err != nil {
			return cfg, err
		}
		if cfg, err = prepull.MergeConfig(cfg, fileCfg); err != nil {
			return cfg, err
		}
		pinnedAttempts = fileCfg.MaxAttempts != 0
	}

	overrides := o.overrides()
	fs.Visit(func(f *pflag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply(&cfg)
		}
	})

	switch {
	case fs.Changed("timeout"):
		if o.timeout < 1 {
			return cfg, fmt.Errorf("%w: timeout must be at least one second, got %d", prepull.ErrInvalidConfig, o.timeout)
		}
		cfg.SetUnitTimeout(time.Duration(o.timeout) * time.Second)
	case !pinnedAttempts:
		cfg.SetUnitTimeout(prepull.DefaultUnitTimeout)
	}

	cfg.Registry.Debug = cfg.Registry.Debug || cfg.Debug
	return cfg, cfg.Validate()
}
