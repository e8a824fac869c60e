// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package cmd wires the inertial_sim command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relabs-tech/inertial_simulator/internal/app"
	"github.com/relabs-tech/inertial_simulator/internal/config"
	"github.com/relabs-tech/inertial_simulator/internal/logging"
)

// DefaultConfigPath is written by init when --output is not given.
const DefaultConfigPath = "inertial_sim.yaml"

func commonFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "configuration file (built-in defaults when empty)")
	cmd.Flags().Bool("debug", false, "toggle debug logging")
}

// setup loads the configuration and builds the logger for a subcommand.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg := config.Default()
	if path != "" {
		if err := config.InitGlobal(path); err != nil {
			return nil, nil, err
		}
		cfg = config.Get()
	}

	level := cfg.Log.Level
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	log, err := logging.New(level)
	if err != nil {
		return nil, nil, err
	}
	if path != "" {
		log.Info("config loaded", zap.String("path", path))
	}
	return cfg, log, nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func runE(run func(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log *zap.Logger) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signalContext(cmd)
		defer stop()
		return run(ctx, cmd, cfg, log)
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:        "run",
		SuggestFor: []string{"serve", "start"},
		Short:      "run the simulator with its MQTT and web surfaces",
		Long: `run starts the simulation clock and every surface enabled in the configuration:
the MQTT bridge (readings out, orientation/target in), the web server
(JSON API, websocket stream, panel PNG) and the mock orientation driver.`,
		Example: `  inertial_sim run --config inertial_sim.yaml`,
		RunE: runE(func(ctx context.Context, _ *cobra.Command, cfg *config.Config, log *zap.Logger) error {
			return app.RunSimulator(ctx, cfg, log)
		}),
	}
	commonFlags(cmd)
	return cmd
}

func newConsoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "console",
		Short:   "print readings published by a running simulator over MQTT",
		Example: `  inertial_sim console --config inertial_sim.yaml`,
		RunE: runE(func(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log *zap.Logger) error {
			return app.RunConsoleMQTT(ctx, cfg, log, cmd.OutOrStdout())
		}),
	}
	commonFlags(cmd)
	return cmd
}

func newMockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mock",
		Short:   "run the simulation offline from the mock orientation source",
		Example: `  inertial_sim mock`,
		RunE: runE(func(ctx context.Context, cmd *cobra.Command, cfg *config.Config, log *zap.Logger) error {
			return app.RunMockConsole(ctx, cfg, log, cmd.OutOrStdout())
		}),
	}
	commonFlags(cmd)
	return cmd
}

func newFeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "feed",
		Short:   "publish mock orientation to a running simulator over MQTT",
		Example: `  inertial_sim feed --config inertial_sim.yaml`,
		RunE: runE(func(ctx context.Context, _ *cobra.Command, cfg *config.Config, log *zap.Logger) error {
			return app.RunMockFeed(ctx, cfg, log)
		}),
	}
	commonFlags(cmd)
	return cmd
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:        "init",
		SuggestFor: []string{"ini", "in"},
		Short:      "init create a configuration template",
		Long: `init create a configuration template with the default values.
If --print flag is present, the configuration will be printed to stdout.
Otherwise it is written to --output; an existing file is kept unless --yes is set.`,
		Example: `  inertial_sim init --print
  inertial_sim init -o /path/to/inertial_sim.yaml -y`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if toStdout, _ := cmd.Flags().GetBool("print"); toStdout {
				data, err := config.DefaultYAML()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			overwrite, _ := cmd.Flags().GetBool("yes")
			if err := config.WriteDefault(output, overwrite); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", output)
			return nil
		},
	}
	cmd.Flags().Bool("print", false, "print config to stdout")
	cmd.Flags().BoolP("yes", "y", false, "overwrite")
	cmd.Flags().StringP("output", "o", DefaultConfigPath, "specify output path")
	return cmd
}

// NewRootCmd returns the inertial_sim command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "inertial_sim",
		Short:         "accelerometer, gyroscope and magnetometer simulator",
		Long:          "inertial_sim simulates the inertial and magnetic sensors of a handheld device from its attitude and on-screen motion.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newConsoleCmd(), newMockCmd(), newFeedCmd(), newInitCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
