package registry

import (
	"context"
	"fmt"

	"github.com/containers/common/pkg/retry"
	"github.com/containers/image/v5/docker"
	"k8s.io/klog/v2"

	"github.com/openshift/image-prepuller/pkg/imageutils"
)

// TagListScanner lists tags through the registry v2 tags/list endpoint.
// That endpoint reports no timestamps, so entries are ordered by name.
type TagListScanner struct {
	cfg       Config
	retryOpts *retry.Options
}

// NewTagListScanner returns a Scanner for a plain v2 registry. Transient
// listing errors are retried twice.
func NewTagListScanner(cfg Config) *TagListScanner {
	return &TagListScanner{
		cfg:       cfg,
		retryOpts: &retry.Options{MaxRetry: 2},
	}
}

func (s *TagListScanner) repository() string {
	host := s.cfg.Host
	if s.cfg.Port != "" {
		host += ":" + s.cfg.Port
	}
	return host + "/" + s.cfg.Owner + "/" + s.cfg.Name
}

// Scan lists the repository tags and classifies them.
func (s *TagListScanner) Scan(ctx context.Context) (*ScanData, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	repo := s.repository()
	ref, err := imageutils.ParseImageName(repo)
	if err != nil {
		return nil, fmt.Errorf("failed to parse repository %q: %w", repo, err)
	}

	sysCtx := imageutils.NewSystemContext(s.cfg.Insecure, s.cfg.AuthFile)
	var names []string
	if err := retry.IfNecessary(ctx, func() error {
		names, err = docker.GetRepositoryTags(ctx, sysCtx, ref)
		return err
	}, s.retryOpts); err != nil {
		return nil, fmt.Errorf("failed to list tags for %s: %w", repo, err)
	}
	klog.V(4).Infof("Found %d tags for %s", len(names), repo)

	tags := make([]TagEntry, 0, len(names))
	for _, name := range names {
		tags = append(tags, TagEntry{Name: name})
	}
	return Classify(tags, s.cfg)
}

// NewScanner picks the Scanner matching the configured host.
func NewScanner(cfg Config) Scanner {
	if cfg.IsDockerHub() {
		return NewHubScanner(cfg)
	}
	return NewTagListScanner(cfg)
}
