package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- name: test
  cluster:
    server: https://api.test.example.com:6443
contexts:
- name: test
  context:
    cluster: test
    user: test
current-context: test
users:
- name: test
  user:
    token: not-a-real-token
`

func writeKubeconfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))
	return path
}

func TestNewClientBuilderFromFlag(t *testing.T) {
	t.Setenv("KUBECONFIG", "")

	cb, err := NewClientBuilder(writeKubeconfig(t))
	require.NoError(t, err)
	assert.Equal(t, "https://api.test.example.com:6443", cb.Host())

	client, err := cb.KubeClient("image-prepuller")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewClientBuilderFromEnv(t *testing.T) {
	t.Setenv("KUBECONFIG", writeKubeconfig(t))

	cb, err := NewClientBuilder("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.test.example.com:6443", cb.Host())
}

func TestNewClientBuilderNoCluster(t *testing.T) {
	t.Setenv("KUBECONFIG", "")
	t.Setenv("KUBERNETES_SERVICE_HOST", "")
	t.Setenv("KUBERNETES_SERVICE_PORT", "")

	_, err := NewClientBuilder("")
	require.Error(t, err)
}
