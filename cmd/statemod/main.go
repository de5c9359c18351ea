// Command statemod reads StateMod monthly time-series files from the local
// filesystem: print series, split identifiers and check files before they
// are published to the pipeline.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "statemod",
		Short: "Inspect StateMod monthly time-series files",
		Long: `statemod reads StateMod monthly time-series files the same way the ETL
service does and prints what the service would publish.

Examples:
  statemod read cm2015.rih
  statemod read cm2015.ddh --tsid 3600507.DWR.Diversion.Month --format table
  statemod ident "09152500.USGS.Streamflow.Month~StateMod~cm2015.rih"
  statemod validate data/mock`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log reader warnings to stderr")

	logger := func() *slog.Logger {
		if !verbose {
			return slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	rootCmd.AddCommand(readCmd(logger))
	rootCmd.AddCommand(identCmd())
	rootCmd.AddCommand(validateCmd())
	return rootCmd
}
