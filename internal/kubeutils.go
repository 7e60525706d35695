package internal

import (
	"os"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
)

const (
	// ServiceAccountNamespaceFile holds the namespace of the pod's service account.
	ServiceAccountNamespaceFile = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"
	// NamespaceEnvVar sets the namespace outside a cluster.
	NamespaceEnvVar = "JLD_NAMESPACE"
	// NamespaceEnvVarAlias is read when NamespaceEnvVar is unset.
	NamespaceEnvVarAlias = "PREPULLER_NAMESPACE"
)

// ResolveNamespace picks the namespace prepull pods are created in: the
// explicit value, then the service account namespace, then the
// JLD_NAMESPACE (or PREPULLER_NAMESPACE) environment variable, then "default".
func ResolveNamespace(explicit string) string {
	return resolveNamespace(explicit, ServiceAccountNamespaceFile, os.Getenv)
}

func resolveNamespace(explicit, saFile string, getenv func(string) string) string {
	if ns := strings.TrimSpace(explicit); ns != "" {
		return ns
	}
	if data, err := os.ReadFile(saFile); err == nil {
		if ns := strings.TrimSpace(string(data)); ns != "" {
			klog.V(4).Infof("Using service account namespace %s", ns)
			return ns
		}
	}
	for _, key := range []string{NamespaceEnvVar, NamespaceEnvVarAlias} {
		if ns := strings.TrimSpace(getenv(key)); ns != "" {
			klog.V(4).Infof("Using namespace %s from %s", ns, key)
			return ns
		}
	}
	klog.Warningf("No namespace configured, using %q", metav1.NamespaceDefault)
	return metav1.NamespaceDefault
}
