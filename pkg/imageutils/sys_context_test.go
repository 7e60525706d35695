package imageutils

import (
	"testing"

	"github.com/containers/image/v5/types"
	"github.com/stretchr/testify/assert"
)

func TestNewSystemContext(t *testing.T) {
	sys := NewSystemContext(false, "")
	assert.Equal(t, types.OptionalBoolUndefined, sys.DockerInsecureSkipTLSVerify)
	assert.Empty(t, sys.AuthFilePath)

	sys = NewSystemContext(true, "/run/secrets/auth.json")
	assert.Equal(t, types.OptionalBoolTrue, sys.DockerInsecureSkipTLSVerify)
	assert.Equal(t, "/run/secrets/auth.json", sys.AuthFilePath)
}
