package registry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DockerHubHost serves the tag listing API used when no registry host is configured.
	DockerHubHost = "hub.docker.com"

	// SortByCompletion orders tags by their completion timestamp.
	SortByCompletion = "comp_ts"
	// SortByName orders tags by name.
	SortByName = "name"
)

// Tier is a retention bucket for image tags.
type Tier string

const (
	TierDaily   Tier = "daily"
	TierWeekly  Tier = "weekly"
	TierRelease Tier = "release"
)

// Tiers lists the tiers in the order their tags are reported.
var Tiers = []Tier{TierDaily, TierWeekly, TierRelease}

var (
	errInvalidConfig    = errors.New("invalid registry configuration")
	errUnexpectedStatus = errors.New("unexpected response status")
)

// Scanner lists the image tags a registry repository should keep warm.
type Scanner interface {
	Scan(ctx context.Context) (*ScanData, error)
}

// TagEntry is one retained tag.
type TagEntry struct {
	Name   string    `json:"name"`
	CompTS time.Time `json:"comp_ts"`
}

// ScanData holds the retained tags per tier, newest first.
type ScanData struct {
	Daily   []TagEntry `json:"daily"`
	Weekly  []TagEntry `json:"weekly"`
	Release []TagEntry `json:"release"`
}

// Entries returns the tags of one tier.
func (d *ScanData) Entries(tier Tier) []TagEntry {
	if d == nil {
		return nil
	}
	switch tier {
	case TierDaily:
		return d.Daily
	case TierWeekly:
		return d.Weekly
	case TierRelease:
		return d.Release
	}
	return nil
}

// Len returns the number of retained tags across all tiers.
func (d *ScanData) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Daily) + len(d.Weekly) + len(d.Release)
}

// Config describes the repository to scan and how many tags of each tier to keep.
type Config struct {
	// Host of the registry. Empty means Docker Hub.
	Host string `json:"host,omitempty"`
	// Port of the registry, only meaningful with Host.
	Port string `json:"port,omitempty"`
	// Path of the Docker Hub tag listing API. Empty means DefaultPath(Owner, Name).
	// Other registries always use the v2 tags/list endpoint, so Path must be empty for them.
	Path      string `json:"path,omitempty"`
	Owner     string `json:"owner,omitempty"`
	Name      string `json:"name,omitempty"`
	Dailies   int    `json:"dailies,omitempty"`
	Weeklies  int    `json:"weeklies,omitempty"`
	Releases  int    `json:"releases,omitempty"`
	Insecure  bool   `json:"insecure,omitempty"`
	SortField string `json:"sortField,omitempty"`
	// AuthFile is a container auth file used for registries other than Docker Hub.
	AuthFile string `json:"authFile,omitempty"`
	Debug    bool   `json:"debug,omitempty"`
}

// DefaultPath returns the Docker Hub tag listing path of a repository.
func DefaultPath(owner, name string) string {
	return "/v2/repositories/" + owner + "/" + name + "/tags/"
}

// ListingPath returns the configured path, falling back to DefaultPath.
func (c Config) ListingPath() string {
	if c.Path != "" {
		return c.Path
	}
	return DefaultPath(c.Owner, c.Name)
}

// Keep returns the retain count of a tier.
func (c Config) Keep(tier Tier) int {
	switch tier {
	case TierDaily:
		return c.Dailies
	case TierWeekly:
		return c.Weeklies
	case TierRelease:
		return c.Releases
	}
	return 0
}

// Validate checks the fields a scan depends on.
func (c Config) Validate() error {
	if c.Owner == "" || c.Name == "" {
		return fmt.Errorf("%w: owner and name are required", errInvalidConfig)
	}
	if c.Dailies < 0 || c.Weeklies < 0 || c.Releases < 0 {
		return fmt.Errorf("%w: retain counts must not be negative (dailies=%d weeklies=%d releases=%d)", errInvalidConfig, c.Dailies, c.Weeklies, c.Releases)
	}
	switch c.SortField {
	case SortByCompletion, SortByName:
	default:
		return fmt.Errorf("%w: unknown sort field %q", errInvalidConfig, c.SortField)
	}
	if c.Port != "" && c.Host == "" {
		return fmt.Errorf("%w: port %q set without a host", errInvalidConfig, c.Port)
	}
	if c.Path != "" && !c.IsDockerHub() {
		return fmt.Errorf("%w: path %q only applies to the Docker Hub API, not %s", errInvalidConfig, c.Path, c.Host)
	}
	return nil
}

// IsDockerHub reports whether c targets the Docker Hub listing API.
func (c Config) IsDockerHub() bool {
	return c.Host == "" || c.Host == DockerHubHost
}

// IsInvalidConfig reports whether err was caused by an invalid Config.
func IsInvalidConfig(err error) bool {
	return errors.Is(err, errInvalidConfig)
}
