// Package cmd provides the CLI commands for scout.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/profiling"
	"github.com/Aman-CERP/scout/pkg/version"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dir        string
	debug      bool
	profile    profiling.Options

	profiler *profiling.Session
}

// NewRootCmd creates the root command for the scout CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "scout",
		Short: "Map objects into a search index and serve it with hot swaps",
		Long: `scout marshalls documents into searchable resources through declarative
mappings, writes them into index generations, and swaps new generations in
without disturbing searches that are already running.

Mappings, converters and index locations are configured in .scout.yaml.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("scout version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: .scout.yaml in --dir)")
	cmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "Project directory")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to ~/.scout/logs/")
	cmd.PersistentFlags().StringVar(&opts.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = func(*cobra.Command, []string) error {
		if !opts.profile.Enabled() {
			return nil
		}
		s, err := profiling.Start(opts.profile)
		if err != nil {
			return err
		}
		opts.profiler = s
		return nil
	}
	cmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		return opts.profiler.Stop()
	}

	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newPruneCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints failures for the terminal.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprint(os.Stderr, scerrors.FormatForCLI(err))
		return err
	}
	return nil
}
