package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
	"k8s.io/klog/v2"
)

const (
	hubPageSize       = 100
	hubMaxPages       = 500
	hubRequestTimeout = 30 * time.Second
	// Docker Hub rate limits anonymous clients; keep well under it.
	hubRequestInterval = 250 * time.Millisecond
)

type hubTagPage struct {
	Next    string      `json:"next"`
	Results []hubResult `json:"results"`
}

type hubResult struct {
	Name        string    `json:"name"`
	LastUpdated time.Time `json:"last_updated"`
}

// HubScanner lists tags through the Docker Hub repositories API.
type HubScanner struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	// baseURL overrides scheme://host, used by tests.
	baseURL string
}

// NewHubScanner returns a Scanner for the Docker Hub API.
func NewHubScanner(cfg Config) *HubScanner {
	return &HubScanner{
		cfg:     cfg,
		client:  &http.Client{Timeout: hubRequestTimeout},
		limiter: rate.NewLimiter(rate.Every(hubRequestInterval), 1),
	}
}

func (s *HubScanner) firstPageURL() string {
	base := s.baseURL
	if base == "" {
		scheme := "https"
		if s.cfg.Insecure {
			scheme = "http"
		}
		host := s.cfg.Host
		if host == "" {
			host = DockerHubHost
		}
		if s.cfg.Port != "" {
			host += ":" + s.cfg.Port
		}
		base = scheme + "://" + host
	}
	q := url.Values{}
	q.Set("page_size", fmt.Sprint(hubPageSize))
	return base + s.cfg.ListingPath() + "?" + q.Encode()
}

// Scan fetches every tag page, then classifies the tags.
func (s *HubScanner) Scan(ctx context.Context) (*ScanData, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	var tags []TagEntry
	next := s.firstPageURL()
	for page := 0; next != ""; page++ {
		if page >= hubMaxPages {
			return nil, fmt.Errorf("tag listing for %s/%s exceeded %d pages", s.cfg.Owner, s.cfg.Name, hubMaxPages)
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		tp, err := s.fetch(ctx, next)
		if err != nil {
			return nil, err
		}
		if s.cfg.Debug {
			klog.Infof("Fetched %d tags from %s", len(tp.Results), next)
		}
		for _, r := range tp.Results {
			tags = append(tags, TagEntry{Name: r.Name, CompTS: r.LastUpdated})
		}
		next = tp.Next
	}

	klog.V(4).Infof("Found %d tags for %s/%s", len(tags), s.cfg.Owner, s.cfg.Name)
	return Classify(tags, s.cfg)
}

func (s *HubScanner) fetch(ctx context.Context, pageURL string) (*hubTagPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", pageURL, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", errUnexpectedStatus, pageURL, resp.Status)
	}

	var tp hubTagPage
	if err := json.NewDecoder(resp.Body).Decode(&tp); err != nil {
		return nil, fmt.Errorf("failed to decode tag listing from %s: %w", pageURL, err)
	}
	return &tp, nil
}
