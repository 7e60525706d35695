package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openshift/image-prepuller/pkg/version"
)

var (
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of Image Prepuller",
		Long:  `All software has versions. This is Image Prepuller's.`,
		Run:   runVersionCmd,
	}
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersionCmd(cmd *cobra.Command, _ []string) {
	fmt.Fprintln(cmd.OutOrStdout(), version.String+"-"+version.Hash)
}
