package main

import (
	"fmt"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/flemzord/gatehouse/pkg/app"
)

// program adapts the application loop to the service manager lifecycle.
type program struct {
	configPath string
	errCh      chan error
}

func (p *program) Start(service.Service) error {
	p.errCh = make(chan error, 1)
	go func() {
		p.errCh <- app.Run(app.RunParams{
			ConfigPath: p.configPath,
			Version:    version,
			Commit:     commit,
			Date:       date,
		})
	}()
	return nil
}

func (p *program) Stop(service.Service) error {
	// app.Run exits on SIGTERM, which the service manager already sent.
	return nil
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "service <install|uninstall|start|stop|restart|run>",
		Short:     "Manage gatehouse as a system service",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"install", "uninstall", "start", "stop", "restart", "run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")

			svcConfig := &service.Config{
				Name:        "gatehouse",
				DisplayName: "Gatehouse",
				Description: "Permission-gated tool invocation gateway",
				Arguments:   []string{"service", "run"},
			}
			if cfgPath != "" {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", cfgPath)
			}

			prg := &program{configPath: cfgPath}
			svc, err := service.New(prg, svcConfig)
			if err != nil {
				return err
			}

			action := args[0]
			if action == "run" {
				return svc.Run()
			}
			if err := service.Control(svc, action); err != nil {
				return err
			}
			fmt.Printf("service %s: done\n", action)
			return nil
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}
