package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/apack-io/apack/internal/ui"
)

var (
	// Version information
	Version   = "0.0.1"
	BuildTime = "dev"
	GitCommit = "unknown"
)

var rootCmd = newRootCmd()

type registrar func(*cobra.Command)

var registrars []registrar

func register(r registrar) {
	registrars = append(registrars, r)
	if rootCmd != nil {
		r(rootCmd)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	var noColor bool

	cmd := &cobra.Command{
		Use:   "apack",
		Short: "apack - incremental asset packer",
		Long: `apack builds content-versioned asset files from a declarative manifest.

Assets are either raw files from the source directory or the output of a
named filter over other assets. Every built artifact gets a UUID-versioned
filename, so downstream caches always see fresh URLs after a rebuild; work
from previous runs is reused whenever sources and definitions are unchanged.

It provides:
  - Incremental rebuilds driven by a persistent cache manifest
  - Blake3 change detection for raw source files
  - Filter pipelines over arbitrary-depth dependency graphs
  - A target directory holding only the assets marked public`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			if noColor {
				ui.Disable()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

// NewRootCmd builds a fresh root command with all subcommands registered.
// Used by tests to avoid sharing flag state.
func NewRootCmd() *cobra.Command {
	cmd := newRootCmd()
	for _, r := range registrars {
		r(cmd)
	}
	return cmd
}

func Execute() error {
	return rootCmd.Execute()
}
