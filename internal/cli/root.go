// Package cli provides the command-line interface for sqlweave.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlweave/sqlweave/internal/cli/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var (
	cfgFile string
	cfg     *config.Config
)

// errReported signals that a diagnostic was already rendered to stderr
// and Execute should not print anything further.
var errReported = errors.New("diagnostics reported")

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlweave --target <target> <file>...",
		Short: "sqlweave - typed query bindings from annotated SQL",
		Long: `sqlweave reads SQL files whose comments carry @query annotations and
generates, for a chosen target, ready-to-call functions that prepare
each query, bind its parameters, and decode the result rows into typed
values. Pass '-' as a file to read from stdin.`,
		Version: Version,
		Args:    cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands.
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().Flags())
			if err != nil {
				return err
			}
			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`sqlweave {{.Version}}, built from commit ` + GitCommit + `
`)

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: ./sqlweave.yaml)")
	rootCmd.Flags().StringP("target", "t", "", "Target to generate code for; use '--target help' to list them")
	rootCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	rootCmd.Flags().BoolP("watch", "w", false, "Watch the input files and regenerate on change")
	rootCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.Flags().Bool("no-color", false, "Disable colored diagnostics")

	_ = rootCmd.RegisterFlagCompletionFunc("target", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return targetNames(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command and reports whether the process should
// exit nonzero.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return err
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqlweave v%s\n", Version)
		},
	}
}
