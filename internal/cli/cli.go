// Package cli implements the minitest command line.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"digital.vasic.minitest/pkg/registry"
)

// ErrTestsFailed is returned by the run command when at least one
// test did not pass. main maps it to exit status 1 without
// printing it.
var ErrTestsFailed = errors.New("tests failed")

// App holds what the commands operate on.
type App struct {
	// Registry holds the test files to run.
	Registry registry.Registry

	// Fs receives summaries, history and the log file.
	Fs afero.Fs

	// Version is printed by the version command.
	Version string
}

// New creates the root command.
func New(app App) *cobra.Command {
	if app.Registry == nil {
		app.Registry = registry.Default
	}
	if app.Fs == nil {
		app.Fs = afero.NewOsFs()
	}

	rootCmd := &cobra.Command{
		Use:   "minitest",
		Short: "Run registered test files and report each result",

		// main prints the error, so cobra must not.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.AddCommand(
		newRunCommand(app),
		newListCommand(app),
		newVersionCommand(app),
	)
	return rootCmd
}

func newListCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered test files in load order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listFiles(cmd.OutOrStdout(), app.Registry)
		},
	}
}

func listFiles(w io.Writer, reg registry.Registry) error {
	for i, f := range reg.List() {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, f.Name); err != nil {
			return err
		}
	}
	return nil
}

func newVersionCommand(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "minitest %s\n", app.Version)
			return err
		},
	}
}
