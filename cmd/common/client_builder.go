package common

import (
	"os"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"
)

// ClientBuilder can create a kubernetes client interface
// with its embeded rest.Config.
type ClientBuilder struct {
	config *rest.Config
}

// KubeClient returns the kubernetes client interface for general kubernetes objects.
func (cb *ClientBuilder) KubeClient(name string) (kubernetes.Interface, error) {
	return kubernetes.NewForConfig(rest.AddUserAgent(cb.config, name))
}

// Host returns the API server the clients talk to.
func (cb *ClientBuilder) Host() string {
	return cb.config.Host
}

// NewClientBuilder returns a *ClientBuilder with the given kubeconfig.
// An empty kubeconfig falls back to $KUBECONFIG, then to the in-cluster config.
func NewClientBuilder(kubeconfig string) (*ClientBuilder, error) {
	var config *rest.Config
	var err error

	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")
	}

	if kubeconfig != "" {
		klog.V(4).Infof("Loading kube client config from path %q", kubeconfig)
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	} else {
		klog.V(4).Infof("Using in-cluster kube client config")
		config, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, err
	}

	return &ClientBuilder{
		config: config,
	}, nil
}
