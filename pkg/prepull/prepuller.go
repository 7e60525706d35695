package prepull

import (
	"context"
	"errors"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"

	"github.com/openshift/image-prepuller/pkg/registry"
)

// Prepuller assembles the image list, picks the nodes and hands the
// resulting pods to an Executor.
type Prepuller struct {
	cfg       Config
	namespace string
	client    kubernetes.Interface
	scanner   registry.Scanner
}

// New returns a Prepuller for one run. scanner may be nil when cfg.SkipScan is set.
func New(cfg Config, namespace string, client kubernetes.Interface, scanner registry.Scanner) *Prepuller {
	return &Prepuller{
		cfg:       cfg.Copy(),
		namespace: namespace,
		client:    client,
		scanner:   scanner,
	}
}

// Images returns the sorted, deduplicated list of images to prepull.
func (p *Prepuller) Images(ctx context.Context) ([]string, error) {
	var data *registry.ScanData
	if !p.cfg.SkipScan {
		if p.scanner == nil {
			return nil, fmt.Errorf("%w: no registry scanner configured", ErrScan)
		}
		klog.V(4).Infof("Scanning %s/%s for images", p.cfg.Registry.Owner, p.cfg.Registry.Name)
		var err error
		data, err = p.scanner.Scan(ctx)
		if registry.IsInvalidConfig(err) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScan, err)
		}
		klog.V(4).Infof("Scan retained %d tags: %d daily, %d weekly, %d release", data.Len(), len(data.Daily), len(data.Weekly), len(data.Release))
	}
	return BuildImageList(p.cfg.Images, data, p.cfg.Registry)
}

// Nodes returns the eligible nodes of the cluster.
func (p *Prepuller) Nodes(ctx context.Context) ([]string, error) {
	klog.V(4).Info("Getting schedulable node list")
	nodeList, err := p.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	nodes := SelectNodes(nodeList.Items)
	klog.V(4).Infof("Schedulable nodes: %v", nodes)
	return nodes, nil
}

// Run performs one full prepull. The error is set when nothing could be
// dispatched; faults of individual nodes are reported in the Result.
func (p *Prepuller) Run(ctx context.Context) (*Result, error) {
	images, err := p.Images(ctx)
	if err != nil {
		return nil, err
	}
	klog.Infof("Prepulling %d images", len(images))

	nodes, err := p.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	specs, err := BuildPodSpecs(images, nodes, p.cfg.Command)
	if err != nil {
		return nil, err
	}

	result := NewExecutor(p.client, p.namespace, p.cfg.ExecutorConfig()).Run(ctx, specs)
	if err := result.Err(); err != nil {
		klog.Warningf("Prepull finished with faults: %v", err)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		klog.Warning("Prepull was cancelled")
	}
	klog.Infof("Prepull finished: %s", result)
	return result, nil
}
