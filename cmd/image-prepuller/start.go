package main

import (
	"context"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/openshift/image-prepuller/cmd/common"
	"github.com/openshift/image-prepuller/internal"
	"github.com/openshift/image-prepuller/pkg/prepull"
	"github.com/openshift/image-prepuller/pkg/registry"
)

var (
	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Prepulls images on every schedulable node",
		Long:  "",
		Run:   runStartCmd,
	}

	startOpts = struct {
		*configOpts
		kubeconfig         string
		metricsBindAddress string
	}{configOpts: newConfigOpts()}
)

func init() {
	rootCmd.AddCommand(startCmd)
	startOpts.addRegistryFlags(startCmd.PersistentFlags())
	startOpts.addRunFlags(startCmd.PersistentFlags())
	startCmd.PersistentFlags().StringVar(&startOpts.kubeconfig, "kubeconfig", "", "Kubeconfig file to access a remote cluster (testing only)")
	startCmd.PersistentFlags().StringVar(&startOpts.metricsBindAddress, "metrics-bind-address", "", "Serve Prometheus metrics on this address, e.g. "+prepull.DefaultBindAddress)
}

func runStartCmd(cmd *cobra.Command, _ []string) {
	cfg, err := startOpts.resolve(cmd.Flags())
	internal.InitLogging(cfg.Debug)
	if err != nil {
		klog.Exitf("Error loading configuration: %v", err)
	}

	cb, err := common.NewClientBuilder(startOpts.kubeconfig)
	if err != nil {
		klog.Errorf("CRITICAL: cannot reach a Kubernetes cluster: %v", err)
		klog.Exitf("error creating clients: %v", err)
	}
	client, err := cb.KubeClient(componentName)
	if err != nil {
		klog.Errorf("CRITICAL: cannot create a Kubernetes client for %s: %v", cb.Host(), err)
		klog.Exitf("error creating clients: %v", err)
	}
	namespace := internal.ResolveNamespace(cfg.Namespace)
	klog.Infof("Creating prepull pods in namespace %s on %s", namespace, cb.Host())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go common.SignalHandler(cancel)

	if startOpts.metricsBindAddress != "" {
		if err := prepull.RegisterMetrics(); err != nil {
			klog.Exitf("error registering metrics: %v", err)
		}
		stopCh := make(chan struct{})
		defer close(stopCh)
		go prepull.StartMetricsListener(startOpts.metricsBindAddress, stopCh)
	}

	var scanner registry.Scanner
	if !cfg.SkipScan {
		scanner = registry.NewScanner(cfg.Registry)
	}

	result, err := prepull.New(cfg, namespace, client, scanner).Run(ctx)
	if err != nil {
		klog.Exitf("Prepull failed: %v", err)
	}
	if faulted := result.FaultedNodes(); len(faulted) > 0 {
		klog.Warningf("Prepull incomplete on nodes %v", faulted)
	}
	if result.HasTimeout() {
		klog.Warningf("%d prepull pods did not finish within %s; consider raising --timeout", result.TimedOut(), cfg.UnitTimeout())
	}
}
