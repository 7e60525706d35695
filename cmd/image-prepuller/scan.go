package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/openshift/image-prepuller/internal"
	"github.com/openshift/image-prepuller/pkg/prepull"
	"github.com/openshift/image-prepuller/pkg/registry"
)

var (
	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Scans the registry and prints the tags that would be prepulled",
		Long:  "",
		Run:   runScanCmd,
	}

	scanOpts = struct {
		*configOpts
		images bool
	}{configOpts: newConfigOpts()}
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanOpts.addRegistryFlags(scanCmd.PersistentFlags())
	scanCmd.PersistentFlags().BoolVar(&scanOpts.images, "images", false, "Print the resulting image list instead of the scan data")
}

func runScanCmd(cmd *cobra.Command, _ []string) {
	cfg, err := scanOpts.resolve(cmd.Flags())
	internal.InitLogging(cfg.Debug)
	if err != nil {
		klog.Exitf("Error loading configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runScan(ctx, cmd.OutOrStdout(), cfg, registry.NewScanner(cfg.Registry), scanOpts.images); err != nil {
		klog.Exitf("Scan failed: %v", err)
	}
}

// runScan writes the scan data as YAML, or the image list one per line.
func runScan(ctx context.Context, out io.Writer, cfg prepull.Config, scanner registry.Scanner, images bool) error {
	data, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", prepull.ErrScan, err)
	}

	if images {
		list, err := prepull.BuildImageList(cfg.Images, data, cfg.Registry)
		if err != nil {
			return err
		}
		for _, image := range list {
			fmt.Fprintln(out, image)
		}
		return nil
	}

	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode scan data: %w", err)
	}
	_, err = out.Write(b)
	return err
}
