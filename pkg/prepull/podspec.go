package prepull

import (
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/validation"
)

const (
	componentName = "image-prepuller"
	podNamePrefix = "pp"
	containerName = "prepull"

	// shortDigestLen is how much of a digest survives in a pod name.
	shortDigestLen = 12

	// LabelName and LabelManagedBy mark every prepull pod.
	LabelName      = "app.kubernetes.io/name"
	LabelManagedBy = "app.kubernetes.io/managed-by"
	// LabelNode records the node a prepull pod targets.
	LabelNode = "prepull.openshift.io/node"
)

// sanitizeName lowercases s and replaces every character outside
// [a-z0-9-], dots included, with "-".
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '-'
	}, s)
}

// ImageTail joins the last two path segments of image with "-" and turns
// the tag separator into "-". A digest is shortened to its first hex digits.
func ImageTail(image string) string {
	if name, ref, ok := strings.Cut(image, "@"); ok {
		if d, err := digest.Parse(ref); err == nil && len(d.Encoded()) > shortDigestLen {
			image = name + ":" + d.Encoded()[:shortDigestLen]
		}
	}
	segments := strings.Split(image, "/")
	if len(segments) > 2 {
		segments = segments[len(segments)-2:]
	}
	tail := strings.Join(segments, "-")
	tail = strings.NewReplacer(":", "-", "@", "-").Replace(tail)
	return sanitizeName(tail)
}

// NodeSuffix returns the last "-" delimited token of a node name.
func NodeSuffix(node string) string {
	return sanitizeName(node[strings.LastIndex(node, "-")+1:])
}

// PodName derives the name of the prepull pod for image on the node with
// the given suffix.
func PodName(image, nodeSuffix string) string {
	return podNamePrefix + "-" + ImageTail(image) + "-" + nodeSuffix
}

// nodeSuffixes maps each node to the suffix used in its pod names. When two
// nodes share a suffix every node falls back to its full sanitized name.
func nodeSuffixes(nodes []string) map[string]string {
	suffixes := make(map[string]string, len(nodes))
	seen := make(map[string]string, len(nodes))
	widen := false
	for _, node := range nodes {
		suffix := NodeSuffix(node)
		if other, ok := seen[suffix]; ok && other != node {
			widen = true
		}
		seen[suffix] = node
		suffixes[node] = suffix
	}
	if widen {
		for _, node := range nodes {
			suffixes[node] = sanitizeName(node)
		}
	}
	return suffixes
}

// BuildPodSpecs returns, for every node, one prepull pod per image in image
// order. Distinct (image, node) pairs that still derive the same pod name
// are rejected with ErrNameCollision.
func BuildPodSpecs(images, nodes []string, command []string) (map[string][]*corev1.Pod, error) {
	specs := make(map[string][]*corev1.Pod, len(nodes))
	if len(images) == 0 {
		return specs, nil
	}

	type owner struct{ image, node string }
	owners := map[string]owner{}
	suffixes := nodeSuffixes(nodes)

	for _, node := range nodes {
		pods := make([]*corev1.Pod, 0, len(images))
		for _, image := range images {
			name := PodName(image, suffixes[node])
			if prev, ok := owners[name]; ok {
				return nil, fmt.Errorf("%w: %q for image %s on node %s and image %s on node %s", ErrNameCollision, name, prev.image, prev.node, image, node)
			}
			if errs := validation.IsDNS1123Subdomain(name); len(errs) > 0 {
				return nil, fmt.Errorf("invalid prepull pod name %q for image %s: %s", name, image, strings.Join(errs, "; "))
			}
			owners[name] = owner{image: image, node: node}
			pods = append(pods, newPrepullPod(name, image, node, command))
		}
		specs[node] = pods
	}
	return specs, nil
}

func newPrepullPod(name, image, node string, command []string) *corev1.Pod {
	labels := map[string]string{
		LabelName:      componentName,
		LabelManagedBy: componentName,
	}
	// node names may be longer than a label value allows
	if len(validation.IsValidLabelValue(node)) == 0 {
		labels[LabelNode] = node
	}
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: labels,
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{
				{
					Name:            containerName,
					Image:           image,
					Command:         append([]string(nil), command...),
					ImagePullPolicy: corev1.PullAlways,
				},
			},
			RestartPolicy: corev1.RestartPolicyNever,
			NodeName:      node,
		},
	}
}
