package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshift/image-prepuller/pkg/prepull"
	"github.com/openshift/image-prepuller/pkg/registry"
)

type staticScanner struct {
	data *registry.ScanData
	err  error
}

func (s staticScanner) Scan(context.Context) (*registry.ScanData, error) {
	return s.data, s.err
}

var testScanData = &registry.ScanData{
	Daily:   []registry.TagEntry{{Name: "d_2024_03_01"}},
	Release: []registry.TagEntry{{Name: "r170"}},
}

func TestRunScanPrintsScanData(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runScan(context.Background(), &out, prepull.DefaultConfig(), staticScanner{data: testScanData}, false))

	var got registry.ScanData
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "d_2024_03_01", got.Daily[0].Name)
	assert.Empty(t, got.Weekly)
	assert.Equal(t, "r170", got.Release[0].Name)
}

func TestRunScanPrintsImages(t *testing.T) {
	cfg := prepull.DefaultConfig()
	cfg.Images = []string{"redis"}

	var out bytes.Buffer
	require.NoError(t, runScan(context.Background(), &out, cfg, staticScanner{data: testScanData}, true))
	assert.Equal(t, "library/redis:latest\nlsstsqre/jld-lab:d_2024_03_01\nlsstsqre/jld-lab:r170\n", out.String())
}

func TestRunScanError(t *testing.T) {
	var out bytes.Buffer
	err := runScan(context.Background(), &out, prepull.DefaultConfig(), staticScanner{err: errors.New("boom")}, false)
	require.ErrorIs(t, err, prepull.ErrScan)
	assert.Empty(t, out.String())
}
