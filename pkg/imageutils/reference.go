package imageutils

import (
	"fmt"
	"strings"

	"github.com/containers/image/v5/docker"
	"github.com/containers/image/v5/types"
	"github.com/distribution/reference"
)

const (
	// DefaultTag is appended to image names that carry neither a tag nor a digest.
	DefaultTag = "latest"
	// DefaultOwner is prepended to image names that have no path separator.
	DefaultOwner = "library"
)

// ParseImageName parses an image name into a docker transport ImageReference.
func ParseImageName(imgName string) (types.ImageReference, error) {
	if strings.Contains(imgName, "//") && !strings.HasPrefix(imgName, "docker://") {
		return nil, fmt.Errorf("unknown transport for pullspec %s", imgName)
	}

	if strings.HasPrefix(imgName, "docker://") {
		imgName = strings.ReplaceAll(imgName, "docker://", "//")
	}

	if !strings.HasPrefix(imgName, "//") {
		imgName = "//" + imgName
	}

	return docker.Transport.ParseReference(imgName)
}

// NormalizeImage returns the fully-qualified form of an image name: a missing
// tag becomes ":latest" and a bare name gains the "library/" owner.
func NormalizeImage(image string) string {
	image = strings.TrimSpace(image)
	if !HasTagOrDigest(image) {
		image = image + ":" + DefaultTag
	}
	if !strings.Contains(image, "/") {
		image = DefaultOwner + "/" + image
	}
	return image
}

// HasTagOrDigest reports whether the last path segment of image carries a
// tag, or the image is pinned by digest. A colon in the host part (a
// registry port) is not a tag.
func HasTagOrDigest(image string) bool {
	if strings.Contains(image, "@") {
		return true
	}
	last := image[strings.LastIndex(image, "/")+1:]
	return strings.Contains(last, ":")
}

// ValidateImage checks that image is a pullable reference.
func ValidateImage(image string) error {
	if _, err := reference.ParseNormalizedNamed(image); err != nil {
		return fmt.Errorf("invalid image reference %q: %w", image, err)
	}
	return nil
}

// QualifiedName builds "[host[:port]/]owner/name:tag". The host prefix is
// only emitted when host is set.
func QualifiedName(host, port, owner, name, tag string) string {
	var sb strings.Builder
	if host != "" {
		sb.WriteString(host)
		if port != "" {
			sb.WriteString(":" + port)
		}
		sb.WriteString("/")
	}
	sb.WriteString(owner + "/" + name + ":" + tag)
	return sb.String()
}
