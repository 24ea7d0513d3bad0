package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/flemzord/gatehouse/pkg/app"
)

const configTemplate = `version: "1"
log_level: %s

server:
  addr: %s
  # bearer_token: ${GATEHOUSE_BEARER_TOKEN}
  request_timeout: 30s

sandbox:
  root: %s

audit:
  log_path: %s
  db_path: %s
`

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, _ := cmd.Flags().GetString("output")
			if target == "" {
				target = app.DefaultConfigPath()
			}

			sandboxRoot := app.DefaultSandboxRoot()
			addr := "127.0.0.1:8422"
			logLevel := "info"
			enableSQLite := true

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Sandbox root").
						Description("The only directory tree file tools may touch.").
						Value(&sandboxRoot),
					huh.NewInput().
						Title("Listen address").
						Value(&addr),
					huh.NewSelect[string]().
						Title("Log level").
						Options(
							huh.NewOption("debug", "debug"),
							huh.NewOption("info", "info"),
							huh.NewOption("warn", "warn"),
							huh.NewOption("error", "error"),
						).
						Value(&logLevel),
					huh.NewConfirm().
						Title("Store the audit trail in SQLite as well as JSONL?").
						Value(&enableSQLite),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			dataDir := app.DefaultDataDir()
			dbPath := ""
			if enableSQLite {
				dbPath = filepath.Join(dataDir, "audit.db")
			}
			body := fmt.Sprintf(configTemplate,
				logLevel, addr, sandboxRoot,
				filepath.Join(dataDir, "audit.jsonl"), dbPath,
			)
			if !enableSQLite {
				body = strings.Replace(body, "db_path: \n", "# db_path:\n", 1)
			}

			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", target)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
				return err
			}
			if err := os.WriteFile(target, []byte(body), 0o600); err != nil {
				return err
			}

			fmt.Printf("Wrote %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Where to write the config (default: XDG config dir)")
	return cmd
}
