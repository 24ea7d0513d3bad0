// Package main is the entry point for the gatehouse CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flemzord/gatehouse/internal/config"
	"github.com/flemzord/gatehouse/pkg/app"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gatehouse",
		Short:         "A permission-gated tool invocation gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), startCmd(), configCmd(), mcpCmd(), serviceCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("gatehouse %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the gateway and serve HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			return app.Run(app.RunParams{
				ConfigPath: cfgPath,
				Version:    version,
				Commit:     commit,
				Date:       date,
			})
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tool surface over MCP on stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			return app.RunMCP(app.RunParams{
				ConfigPath: cfgPath,
				Version:    version,
			})
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(configValidateCmd(), configInitCmd())
	return cmd
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := config.Load(args[0])
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			fmt.Printf("%s is valid\n", args[0])
			return nil
		},
	}
}
