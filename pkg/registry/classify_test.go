package registry

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC)
}

func testConfig() Config {
	return Config{
		Owner:     "lsstsqre",
		Name:      "sciplat-lab",
		Dailies:   2,
		Weeklies:  1,
		Releases:  1,
		SortField: SortByCompletion,
	}
}

func TestClassify(t *testing.T) {
	tags := []TagEntry{
		{Name: "d_2024_03_01", CompTS: day(1)},
		{Name: "d_2024_03_03", CompTS: day(3)},
		{Name: "d_2024_03_02", CompTS: day(2)},
		{Name: "w_2024_09", CompTS: day(1)},
		{Name: "w_2024_10", CompTS: day(8)},
		{Name: "r26_0_0", CompTS: day(5)},
		{Name: "r25_0_0", CompTS: day(6)},
		{Name: "exp_random", CompTS: day(9)},
		{Name: "latest", CompTS: day(9)},
	}

	got, err := Classify(tags, testConfig())
	require.NoError(t, err)

	want := &ScanData{
		Daily: []TagEntry{
			{Name: "d_2024_03_03", CompTS: day(3)},
			{Name: "d_2024_03_02", CompTS: day(2)},
		},
		Weekly: []TagEntry{
			{Name: "w_2024_10", CompTS: day(8)},
		},
		// ordered by completion time, not name
		Release: []TagEntry{
			{Name: "r25_0_0", CompTS: day(6)},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected scan data (-want +got):\n%s", diff)
	}
	require.Equal(t, 4, got.Len())
}

func TestClassifySortByName(t *testing.T) {
	cfg := testConfig()
	cfg.SortField = SortByName
	cfg.Releases = 2

	got, err := Classify([]TagEntry{
		{Name: "r25_0_0", CompTS: day(6)},
		{Name: "r26_0_0", CompTS: day(5)},
		{Name: "r24_0_0", CompTS: day(7)},
	}, cfg)
	require.NoError(t, err)
	require.Equal(t, []TagEntry{
		{Name: "r26_0_0", CompTS: day(5)},
		{Name: "r25_0_0", CompTS: day(6)},
	}, got.Release)
	require.Empty(t, got.Daily)
	require.Empty(t, got.Weekly)
}

func TestClassifyZeroKeep(t *testing.T) {
	cfg := testConfig()
	cfg.Dailies = 0

	got, err := Classify([]TagEntry{{Name: "d_2024_03_01", CompTS: day(1)}}, cfg)
	require.NoError(t, err)
	require.Empty(t, got.Daily)
}

func TestClassifyEmpty(t *testing.T) {
	got, err := Classify(nil, testConfig())
	require.NoError(t, err)
	require.Equal(t, 0, got.Len())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing owner", mutate: func(c *Config) { c.Owner = "" }, wantErr: true},
		{name: "negative dailies", mutate: func(c *Config) { c.Dailies = -1 }, wantErr: true},
		{name: "unknown sort field", mutate: func(c *Config) { c.SortField = "size" }, wantErr: true},
		{name: "port without host", mutate: func(c *Config) { c.Port = "5000" }, wantErr: true},
		{name: "port with host", mutate: func(c *Config) { c.Host = "registry.example.com"; c.Port = "5000" }},
		{name: "path for docker hub", mutate: func(c *Config) { c.Path = "/custom/tags/" }},
		{name: "path for hub host", mutate: func(c *Config) { c.Host = DockerHubHost; c.Path = "/custom/tags/" }},
		{name: "path for v2 registry", mutate: func(c *Config) { c.Host = "registry.example.com"; c.Path = "/custom/tags/" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				require.True(t, IsInvalidConfig(err))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestListingPath(t *testing.T) {
	cfg := testConfig()
	require.Equal(t, "/v2/repositories/lsstsqre/sciplat-lab/tags/", cfg.ListingPath())
	cfg.Path = "/custom/tags/"
	require.Equal(t, "/custom/tags/", cfg.ListingPath())
}

func TestNewScanner(t *testing.T) {
	cfg := testConfig()
	require.IsType(t, &HubScanner{}, NewScanner(cfg))
	cfg.Host = DockerHubHost
	require.IsType(t, &HubScanner{}, NewScanner(cfg))
	cfg.Host = "registry.example.com"
	require.IsType(t, &TagListScanner{}, NewScanner(cfg))
}
