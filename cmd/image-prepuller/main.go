package main

import (
	"flag"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

const (
	componentName = "image-prepuller"
)

var (
	rootCmd = &cobra.Command{
		Use:   componentName,
		Short: "Pull container images onto every schedulable node",
		Long:  "",
	}
)

func init() {
	klog.InitFlags(nil)
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		klog.Exitf("Error executing image-prepuller: %v", err)
	}
}
