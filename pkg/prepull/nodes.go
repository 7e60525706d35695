package prepull

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/sets"
)

// isEligible reports whether prepull pods may be placed on node. Only a
// NoSchedule taint excludes a node: prepull pods are short lived, so
// PreferNoSchedule and NoExecute nodes still get them.
func isEligible(node *corev1.Node) bool {
	if node.Spec.Unschedulable {
		return false
	}
	for _, taint := range node.Spec.Taints {
		if taint.Effect == corev1.TaintEffectNoSchedule {
			return false
		}
	}
	return true
}

// SelectNodes returns the names of the eligible nodes in listing order.
func SelectNodes(nodes []corev1.Node) []string {
	seen := sets.New[string]()
	var eligible []string
	for i := range nodes {
		node := &nodes[i]
		if seen.Has(node.Name) || !isEligible(node) {
			continue
		}
		seen.Insert(node.Name)
		eligible = append(eligible, node.Name)
	}
	return eligible
}
