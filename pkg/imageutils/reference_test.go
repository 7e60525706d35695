package imageutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeImage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "redis", want: "library/redis:latest"},
		{in: "redis:7", want: "library/redis:7"},
		{in: "lsstsqre/sciplat-lab", want: "lsstsqre/sciplat-lab:latest"},
		{in: " lsstsqre/sciplat-lab:w_2024_01 ", want: "lsstsqre/sciplat-lab:w_2024_01"},
		{in: "registry.example.com:5000/owner/name", want: "registry.example.com:5000/owner/name:latest"},
		{in: "registry.example.com:5000/owner/name:r26", want: "registry.example.com:5000/owner/name:r26"},
		{in: "quay.io/owner/name@sha256:6134ca5fbcf8e4007de2d319758dcd7b4e5ded97a00c78a7ff490c1f56579d49", want: "quay.io/owner/name@sha256:6134ca5fbcf8e4007de2d319758dcd7b4e5ded97a00c78a7ff490c1f56579d49"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeImage(tt.in))
		})
	}
}

func TestValidateImage(t *testing.T) {
	require.NoError(t, ValidateImage("library/redis:latest"))
	require.NoError(t, ValidateImage("registry.example.com:5000/owner/name:r26"))
	require.Error(t, ValidateImage("library/Redis:latest"))
	require.Error(t, ValidateImage("library/redis:"))
}

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, "lsstsqre/jld-lab:d_2024_01_02", QualifiedName("", "", "lsstsqre", "jld-lab", "d_2024_01_02"))
	assert.Equal(t, "registry.example.com/lsstsqre/jld-lab:r26", QualifiedName("registry.example.com", "", "lsstsqre", "jld-lab", "r26"))
	assert.Equal(t, "registry.example.com:5000/lsstsqre/jld-lab:r26", QualifiedName("registry.example.com", "5000", "lsstsqre", "jld-lab", "r26"))
	// a port without a host has nothing to attach to
	assert.Equal(t, "lsstsqre/jld-lab:r26", QualifiedName("", "5000", "lsstsqre", "jld-lab", "r26"))
}

func TestParseImageName(t *testing.T) {
	ref, err := ParseImageName("quay.io/owner/name:tag")
	require.NoError(t, err)
	assert.Equal(t, "//quay.io/owner/name:tag", ref.StringWithinTransport())

	_, err = ParseImageName("oci://quay.io/owner/name:tag")
	require.Error(t, err)
}
