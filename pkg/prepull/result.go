package prepull

import (
	"errors"
	"fmt"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/apimachinery/pkg/util/sets"
)

// NodeResult is what one node's worker reports after it finishes.
type NodeResult struct {
	Node string
	// Created holds the names of the pods created on the node, in order.
	Created   []string
	Succeeded int
	Failed    int
	TimedOut  int
	// Err is set when the worker stopped before processing every image.
	Err error
}

// Result aggregates the NodeResults of one run, ordered by node name.
type Result struct {
	Nodes []NodeResult
}

// Created returns the names of every pod created during the run.
func (r *Result) Created() sets.Set[string] {
	created := sets.New[string]()
	for _, n := range r.Nodes {
		created.Insert(n.Created...)
	}
	return created
}

func (r *Result) sum(f func(NodeResult) int) int {
	total := 0
	for _, n := range r.Nodes {
		total += f(n)
	}
	return total
}

// Succeeded returns the number of pods that reached phase Succeeded.
func (r *Result) Succeeded() int {
	return r.sum(func(n NodeResult) int { return n.Succeeded })
}

// Failed returns the number of pods that reached phase Failed.
func (r *Result) Failed() int {
	return r.sum(func(n NodeResult) int { return n.Failed })
}

// TimedOut returns the number of pods abandoned after the poll budget ran out.
func (r *Result) TimedOut() int {
	return r.sum(func(n NodeResult) int { return n.TimedOut })
}

// FaultedNodes returns the nodes whose worker stopped early.
func (r *Result) FaultedNodes() []string {
	var nodes []string
	for _, n := range r.Nodes {
		if n.Err != nil {
			nodes = append(nodes, n.Node)
		}
	}
	return nodes
}

// Err aggregates the faults of every node, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, n := range r.Nodes {
		if n.Err != nil {
			errs = append(errs, n.Err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

// HasTimeout reports whether any node stopped because a pod timed out.
func (r *Result) HasTimeout() bool {
	for _, n := range r.Nodes {
		if errors.Is(n.Err, ErrUnitTimeout) {
			return true
		}
	}
	return false
}

func (r *Result) String() string {
	return fmt.Sprintf("nodes=%d created=%d succeeded=%d failed=%d timed_out=%d faulted_nodes=%v",
		len(r.Nodes), r.Created().Len(), r.Succeeded(), r.Failed(), r.TimedOut(), r.FaultedNodes())
}
