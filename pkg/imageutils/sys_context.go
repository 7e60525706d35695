package imageutils

import (
	"github.com/containers/image/v5/types"
)

// NewSystemContext returns the SystemContext used to talk to a registry.
// An empty authFile leaves credential lookup to the containers/image defaults.
func NewSystemContext(insecure bool, authFile string) *types.SystemContext {
	sys := &types.SystemContext{
		AuthFilePath: authFile,
	}
	if insecure {
		sys.DockerInsecureSkipTLSVerify = types.OptionalBoolTrue
		sys.DockerDaemonInsecureSkipTLSVerify = true
	}
	return sys
}
