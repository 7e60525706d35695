package prepull

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrScan wraps a registry scan failure; nothing is dispatched.
	ErrScan = errors.New("registry scan failed")
	// ErrUnitTimeout means a prepull pod did not reach a terminal phase
	// within the configured number of attempts.
	ErrUnitTimeout = errors.New("timed out waiting for prepull pod")
	// ErrNameCollision means two (image, node) pairs derive the same pod name.
	ErrNameCollision = errors.New("prepull pod name collision")
)

// NodeError is a fault that ended the work of one node's worker.
type NodeError struct {
	Node string
	Pod  string
	Err  error
}

func (e *NodeError) Error() string {
	if e.Pod == "" {
		return fmt.Sprintf("node %s: %v", e.Node, e.Err)
	}
	return fmt.Sprintf("node %s: pod %s: %v", e.Node, e.Pod, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
