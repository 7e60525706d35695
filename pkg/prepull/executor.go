package prepull

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"
)

// cleanupTimeout bounds the delete of a pod abandoned after a fault.
const cleanupTimeout = 30 * time.Second

// ExecutorConfig holds the polling settings of an Executor.
type ExecutorConfig struct {
	// PollInterval is the delay between status reads of one pod.
	PollInterval time.Duration
	// MaxAttempts is the number of status reads before a pod is abandoned.
	MaxAttempts int
}

// Executor runs prepull pods: one worker per node, all nodes in parallel,
// the pods of one node strictly one after another.
type Executor struct {
	client    kubernetes.Interface
	namespace string
	cfg       ExecutorConfig
}

// NewExecutor returns an Executor creating pods in namespace.
func NewExecutor(client kubernetes.Interface, namespace string, cfg ExecutorConfig) *Executor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Executor{
		client:    client,
		namespace: namespace,
		cfg:       cfg,
	}
}

// Run starts a worker for every node with pods and waits for all of them.
// A worker that faults stops its own node only; its error is reported in
// the returned Result.
func (e *Executor) Run(ctx context.Context, specsByNode map[string][]*corev1.Pod) *Result {
	nodes := sets.List(sets.KeySet(specsByNode))

	resultCh := make(chan NodeResult, len(nodes))
	workers := 0
	for _, node := range nodes {
		pods := specsByNode[node]
		if len(pods) == 0 {
			continue
		}
		workers++
		go func(node string, pods []*corev1.Pod) {
			resultCh <- e.runNode(ctx, node, pods)
		}(node, pods)
	}

	result := &Result{Nodes: make([]NodeResult, 0, workers)}
	for i := 0; i < workers; i++ {
		result.Nodes = append(result.Nodes, <-resultCh)
	}
	sort.Slice(result.Nodes, func(i, j int) bool {
		return result.Nodes[i].Node < result.Nodes[j].Node
	})
	return result
}

// runNode processes the pods of one node in order: create, wait for a
// terminal phase, delete, next. A Failed pod does not stop the worker; a
// timeout or an API error does.
func (e *Executor) runNode(ctx context.Context, node string, pods []*corev1.Pod) (res NodeResult) {
	res.Node = node
	defer func() {
		if r := recover(); r != nil {
			res.Err = &NodeError{Node: node, Err: fmt.Errorf("worker panicked: %v", r)}
		}
		if res.Err != nil {
			prepullNodeFaults.WithLabelValues(node).Inc()
			klog.Errorf("Prepull on node %s stopped after %d of %d images: %v", node, len(res.Created), len(pods), res.Err)
		}
	}()

	klog.Infof("Prepulling %d images on node %s", len(pods), node)
	for _, pod := range pods {
		image := pod.Spec.Containers[0].Image
		start := time.Now()

		name, err := e.dispatch(ctx, pod)
		if err != nil {
			res.Err = &NodeError{Node: node, Pod: pod.Name, Err: err}
			return res
		}
		res.Created = append(res.Created, name)

		phase, err := e.awaitTerminal(ctx, name)
		if err != nil {
			if errors.Is(err, ErrUnitTimeout) {
				res.TimedOut++
				prepullUnits.WithLabelValues(node, resultTimedOut).Inc()
			}
			e.abandon(ctx, name)
			res.Err = &NodeError{Node: node, Pod: name, Err: err}
			return res
		}
		prepullUnitDuration.Observe(time.Since(start).Seconds())

		switch phase {
		case corev1.PodSucceeded:
			res.Succeeded++
			prepullUnits.WithLabelValues(node, resultSucceeded).Inc()
			klog.V(4).Infof("Pod %s pulled %s on node %s", name, image, node)
		case corev1.PodFailed:
			res.Failed++
			prepullUnits.WithLabelValues(node, resultFailed).Inc()
			klog.Errorf("Pod %s failed to prepull %s on node %s", name, image, node)
		}

		if err := e.reclaim(ctx, name); err != nil {
			utilruntime.HandleError(err)
		}
	}
	klog.Infof("Prepull on node %s complete: %d succeeded, %d failed", node, res.Succeeded, res.Failed)
	return res
}

// dispatch creates pod and returns the name the API server assigned. A pod
// left behind by an earlier run under the same name is adopted when it
// targets the same node and image, and replaced otherwise.
func (e *Executor) dispatch(ctx context.Context, pod *corev1.Pod) (string, error) {
	klog.V(4).Infof("Creating pod %s for %s on node %s", pod.Name, pod.Spec.Containers[0].Image, pod.Spec.NodeName)
	created, err := e.client.CoreV1().Pods(e.namespace).Create(ctx, pod, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		return e.adopt(ctx, pod)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create pod %s/%s: %w", e.namespace, pod.Name, err)
	}
	return createdName(created, pod), nil
}

// adopt resolves a create conflict on pod.Name.
func (e *Executor) adopt(ctx context.Context, pod *corev1.Pod) (string, error) {
	existing, err := e.client.CoreV1().Pods(e.namespace).Get(ctx, pod.Name, metav1.GetOptions{})
	switch {
	case err == nil && samePrepull(existing, pod):
		klog.Warningf("Pod %s/%s already exists, resuming", e.namespace, pod.Name)
		return pod.Name, nil
	case err == nil:
		klog.Warningf("Pod %s/%s already exists for node %q, replacing it", e.namespace, pod.Name, existing.Spec.NodeName)
		if err := e.reclaim(ctx, pod.Name); err != nil {
			return "", err
		}
		if err := e.awaitGone(ctx, pod.Name); err != nil {
			return "", err
		}
	case !apierrors.IsNotFound(err):
		return "", fmt.Errorf("failed to read existing pod %s/%s: %w", e.namespace, pod.Name, err)
	}

	created, err := e.client.CoreV1().Pods(e.namespace).Create(ctx, pod, metav1.CreateOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to recreate pod %s/%s: %w", e.namespace, pod.Name, err)
	}
	return createdName(created, pod), nil
}

// samePrepull reports whether existing pulls the same image on the same node as want.
func samePrepull(existing, want *corev1.Pod) bool {
	if existing.Spec.NodeName != want.Spec.NodeName || len(existing.Spec.Containers) == 0 {
		return false
	}
	return existing.Spec.Containers[0].Image == want.Spec.Containers[0].Image
}

func createdName(created, requested *corev1.Pod) string {
	if created == nil || created.Name == "" {
		return requested.Name
	}
	return created.Name
}

// awaitGone polls until the pod is no longer found.
func (e *Executor) awaitGone(ctx context.Context, name string) error {
	backoff := wait.Backoff{
		Duration: e.cfg.PollInterval,
		Factor:   1.0,
		Steps:    e.cfg.MaxAttempts,
	}
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		_, err := e.client.CoreV1().Pods(e.namespace).Get(ctx, name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return true, nil
		}
		if err != nil {
			klog.Warningf("Failed to read pod %s/%s: %v", e.namespace, name, err)
		}
		return false, nil
	})
	if err != nil {
		return fmt.Errorf("pod %s/%s was not removed: %w", e.namespace, name, err)
	}
	return nil
}

// awaitTerminal polls the pod every PollInterval until it is Succeeded or
// Failed, for at most MaxAttempts reads.
func (e *Executor) awaitTerminal(ctx context.Context, name string) (corev1.PodPhase, error) {
	phase := corev1.PodUnknown
	attempts := 0
	backoff := wait.Backoff{
		Duration: e.cfg.PollInterval,
		Factor:   1.0,
		Steps:    e.cfg.MaxAttempts,
	}

	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attempts++
		phase = e.readPhase(ctx, name)
		if phase == corev1.PodSucceeded || phase == corev1.PodFailed {
			return true, nil
		}
		klog.V(4).Infof("Pod %s in phase %s (%d/%d)", name, phase, attempts, e.cfg.MaxAttempts)
		return false, nil
	})
	if err == nil {
		return phase, nil
	}
	if ctx.Err() == nil && wait.Interrupted(err) {
		return phase, fmt.Errorf("%w: pod %s still %s after %d attempts", ErrUnitTimeout, name, phase, attempts)
	}
	return phase, fmt.Errorf("stopped waiting for pod %s: %w", name, err)
}

// readPhase returns the pod phase. A pod that cannot be read is Unknown,
// which keeps it polling.
func (e *Executor) readPhase(ctx context.Context, name string) corev1.PodPhase {
	pod, err := e.client.CoreV1().Pods(e.namespace).Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		klog.V(4).Infof("Pod %s/%s not found", e.namespace, name)
		return corev1.PodUnknown
	}
	if err != nil {
		klog.Warningf("Failed to read pod %s/%s: %v", e.namespace, name, err)
		return corev1.PodUnknown
	}
	if pod.Status.Phase == "" {
		return corev1.PodPending
	}
	return pod.Status.Phase
}

// reclaim deletes a finished pod.
func (e *Executor) reclaim(ctx context.Context, name string) error {
	klog.V(4).Infof("Deleting pod %s/%s", e.namespace, name)
	err := e.client.CoreV1().Pods(e.namespace).Delete(ctx, name, metav1.DeleteOptions{
		GracePeriodSeconds: ptr.To[int64](0),
	})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete pod %s/%s: %w", e.namespace, name, err)
	}
	return nil
}

// abandon deletes a pod that never finished, even if ctx is already done.
func (e *Executor) abandon(ctx context.Context, name string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := e.reclaim(cleanupCtx, name); err != nil {
		klog.Warningf("Failed to clean up unfinished pod: %v", err)
	}
}
