// Package cli provides the command-line interface for bqscope.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/bqscope/internal/cli/commands"
	"github.com/leapstack-labs/bqscope/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bqscope",
		Short: "bqscope - BigQuery table usage scanner",
		Long: `bqscope builds an index of BigQuery table usage across two sources: the
SQL and settings files of a codebase, and the scheduled queries of a GCP
project. The merged index answers "who references this table?" before a
schema change ships.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for commands that never touch it
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			// Build the logger once and hand it to commands through the
			// context; the config package owns the key to avoid an import
			// cycle with the commands package.
			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))
			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
BigQuery table usage scanner
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./bqscope.yaml)")
	rootCmd.PersistentFlags().String("root", "", "Codebase root to scan (default: project root)")
	rootCmd.PersistentFlags().String("report", "", "Report output path (default: ./result.yaml)")
	rootCmd.PersistentFlags().String("ignore-file", "", "Ignore file with exclusion patterns (default: ./.bqscopeignore)")
	rootCmd.PersistentFlags().String("credentials", "", "GCP credentials file")
	rootCmd.PersistentFlags().String("project", "", "GCP project id")
	rootCmd.PersistentFlags().String("location", "", "BigQuery transfer location (default: EU)")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Top-level directories to exclude (glob patterns)")
	rootCmd.PersistentFlags().String("bq-path", "", "Path to the bq executable (default: bq)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(commands.VersionInfo{
		Version: Version,
		Commit:  GitCommit,
		Date:    BuildDate,
	}))
	rootCmd.AddCommand(commands.NewScanCommand())
	rootCmd.AddCommand(commands.NewImpactCommand())
	rootCmd.AddCommand(commands.NewTablesCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for bqscope.

To load completions:

Bash:
  $ source <(bqscope completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ bqscope completion bash > /etc/bash_completion.d/bqscope
  # macOS:
  $ bqscope completion bash > $(brew --prefix)/etc/bash_completion.d/bqscope

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ bqscope completion zsh > "${fpath[1]}/_bqscope"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ bqscope completion fish | source

  # To load completions for each session, execute once:
  $ bqscope completion fish > ~/.config/fish/completions/bqscope.fish

PowerShell:
  PS> bqscope completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> bqscope completion powershell > bqscope.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
