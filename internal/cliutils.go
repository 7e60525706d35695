package internal

import (
	"flag"
	"os"

	"k8s.io/klog/v2"

	"github.com/openshift/image-prepuller/pkg/version"
)

// debugVerbosity is the klog level that enables per-pod and per-page detail.
const debugVerbosity = "4"

// InitLogging sets up klog from the options already registered to the flag
// package and raises the verbosity when debug is set. It also logs the
// current prepuller version.
func InitLogging(debug bool) {
	flag.Set("logtostderr", "true")
	if debug {
		flag.Set("v", debugVerbosity)
	}

	// To help debugging, immediately log version
	releaseVersion := os.Getenv("RELEASE_VERSION")
	if releaseVersion == "" {
		klog.Infof("Version: %s (%s)", version.Raw, version.Hash)
	} else {
		klog.Infof("Version: %s (Raw: %s, Hash: %s)", releaseVersion, version.Raw, version.Hash)
	}
}
