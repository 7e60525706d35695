package prepull

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/openshift/image-prepuller/pkg/imageutils"
	"github.com/openshift/image-prepuller/pkg/registry"
)

// BuildImageList merges the explicit images with the retained tags of a scan
// into one deduplicated, lexicographically sorted list of fully-qualified
// references. scan may be nil when scanning was skipped.
//
// Retained tags are qualified with the registry host (and port) only when a
// pull host was configured; the Docker Hub API host is not a pull host.
func BuildImageList(explicit []string, scan *registry.ScanData, reg registry.Config) ([]string, error) {
	images := sets.New[string]()

	for _, entry := range explicit {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		image := imageutils.NormalizeImage(entry)
		if err := imageutils.ValidateImage(image); err != nil {
			return nil, err
		}
		images.Insert(image)
	}

	host, port := reg.Host, reg.Port
	if reg.IsDockerHub() {
		host, port = "", ""
	}
	for _, tier := range registry.Tiers {
		for _, entry := range scan.Entries(tier) {
			image := imageutils.QualifiedName(host, port, reg.Owner, reg.Name, entry.Name)
			if err := imageutils.ValidateImage(image); err != nil {
				return nil, err
			}
			images.Insert(image)
		}
	}

	return sets.List(images), nil
}
