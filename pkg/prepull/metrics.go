package prepull

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

const (
	// DefaultBindAddress is the port for the metrics listener
	DefaultBindAddress = ":8797"

	resultSucceeded = "succeeded"
	resultFailed    = "failed"
	resultTimedOut  = "timed_out"
)

var (
	// prepullUnits counts prepull pods by node and outcome.
	prepullUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_prepuller_units_total",
			Help: "prepull pods by terminal outcome",
		}, []string{"node", "result"})

	// prepullNodeFaults counts workers that stopped before their last image.
	prepullNodeFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_prepuller_node_faults_total",
			Help: "node workers that stopped early",
		}, []string{"node"})

	prepullUnitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_prepuller_unit_duration_seconds",
			Help:    "time from pod creation to terminal phase",
			Buckets: prometheus.ExponentialBuckets(1, 2, 13),
		})
)

// RegisterMetrics registers the prepuller collectors with the default registry.
func RegisterMetrics() error {
	for _, c := range []prometheus.Collector{prepullUnits, prepullNodeFaults, prepullUnitDuration} {
		if err := prometheus.Register(c); err != nil {
			return fmt.Errorf("could not register image-prepuller metrics: %w", err)
		}
	}
	return nil
}

// StartMetricsListener serves /metrics on addr until stopCh is closed.
func StartMetricsListener(addr string, stopCh <-chan struct{}) {
	if addr == "" {
		addr = DefaultBindAddress
	}

	klog.Infof("Starting metrics listener on %s", addr)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	s := http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			klog.Errorf("metrics listener exited with error: %v", err)
		}
	}()
	<-stopCh
	if err := s.Shutdown(context.Background()); err != nil {
		klog.Errorf("error stopping metrics listener: %v", err)
	} else {
		klog.Infof("Metrics listener successfully stopped")
	}
}
