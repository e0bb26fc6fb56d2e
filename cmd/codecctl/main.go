// Command codecctl is a diagnostic CLI that exercises the codec core
// end-to-end against the synthetic codec library, useful for manually
// inspecting queue backpressure, flush ordering, and config support without
// a real ffmpeg binary on hand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	appName    = "codecctl"
	appVersion = "0.1.0"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Diagnostic CLI for the webcodecs-core processing core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRoundtripCmd(),
		newProbeCmd(),
		newImageCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%s version %s\n", appName, appVersion)
			return nil
		},
	}
}
