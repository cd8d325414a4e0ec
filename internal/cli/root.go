// Package cli provides the command-line interface for landtint.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/landtint/internal/version"
)

// NewRootCmd builds the command tree. Each call returns independent flag
// state, so tests can execute several commands in one process.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "landtint",
		Short: "Land-cover segmentation of satellite imagery by colour",
		Long: `landtint groups the pixels of a satellite or aerial image into K colour
clusters with k-means and reports how much of the scene each cluster covers.

It renders a dashboard with the original and segmented images, a coverage
chart and masks of the largest clusters, and can fetch imagery for a
coordinate or serve the analysis over HTTP.`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyEnv(cmd.Flags())
		},
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolP("quiet", "q", false, "suppress non-error output")
	root.SetVersionTemplate(version.String() + "\n")

	root.AddCommand(newAnalyseCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// newLogger returns the root logger for a command invocation.
func newLogger(cmd *cobra.Command) hclog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")

	level := hclog.Info
	switch {
	case quiet:
		level = hclog.Error
	case verbose:
		level = hclog.Debug
	}

	var out io.Writer = cmd.ErrOrStderr()
	return hclog.New(&hclog.LoggerOptions{
		Name:   "landtint",
		Output: out,
		Level:  level,
	})
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
				return nil
			}
			data, err := json.MarshalIndent(version.GetInfo(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode version info: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")
	return cmd
}
