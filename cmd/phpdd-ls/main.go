// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command phpdd-ls is a language server that surfaces PHP deprecation
// findings as editor diagnostics.
//
// It bridges the phpdd deprecation detector into any LSP-capable editor:
// open PHP buffers are piped to the checker on open, save, and (debounced)
// change, and the checker's JSON report comes back as
// textDocument/publishDiagnostics.
//
// Usage:
//
//	phpdd-ls                          # serve LSP over stdio
//	phpdd-ls serve --log-level debug
//	phpdd-ls serve --config ~/.phpdd-ls/config.yaml
//	phpdd-ls serve --debug-addr localhost:6060
//	phpdd-ls doctor                   # check the phpdd installation
//	phpdd-ls version
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	_ "github.com/tliron/commonlog/simple"

	"github.com/deprecheck/phpdd-ls/checker"
	"github.com/deprecheck/phpdd-ls/pkg/logging"
	"github.com/deprecheck/phpdd-ls/server"
)

var (
	flagLogLevel  string
	flagLogDir    string
	flagConfig    string
	flagDebugAddr string

	rootCmd = &cobra.Command{
		Use:   "phpdd-ls",
		Short: "Language server for PHP deprecation diagnostics",
		Long: `phpdd-ls bridges the phpdd deprecation detector into LSP-capable
editors. Open PHP buffers are checked on open, save, and change; findings
appear as diagnostics with the "phpdd" source tag.`,
		RunE: runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve LSP over stdin/stdout",
		RunE:  runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", server.Name, server.Version)
		},
	}

	doctorCmd = &cobra.Command{
		Use:   "doctor",
		Short: "Check that the phpdd executable is installed and runnable",
		RunE:  runDoctor,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&flagLogLevel, "log-level", "info", "Minimum log level (debug, info, warn, error)")
		cmd.Flags().StringVar(&flagLogDir, "log-dir", "", "Directory for JSON log files (disabled when empty)")
		cmd.Flags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
		cmd.Flags().StringVar(&flagDebugAddr, "debug-addr", "", "Address for the debug HTTP endpoint (disabled when empty)")
	}
	doctorCmd.Flags().StringVar(&flagConfig, "config", "", "Path to a YAML config file")
	rootCmd.AddCommand(serveCmd, versionCmd, doctorCmd)
}

// runServe starts the stdio LSP server.
func runServe(cmd *cobra.Command, args []string) error {
	// A terminal on stderr means a human is watching; pipes mean a collector.
	logger, err := logging.Setup(logging.Config{
		Level:   logging.ParseLevel(flagLogLevel),
		LogDir:  flagLogDir,
		Service: server.Name,
		JSON:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	// glsp logs through commonlog; route it quietly unless debugging.
	verbosity := 0
	if logging.ParseLevel(flagLogLevel) == logging.LevelDebug {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	defaults := checker.DefaultSettings()
	debugAddr := flagDebugAddr
	if flagConfig != "" {
		cfg, err := server.LoadConfig(flagConfig)
		if err != nil {
			return err
		}
		defaults = cfg.Checker
		if debugAddr == "" {
			debugAddr = cfg.DebugAddr
		}
	}

	srv := server.New(server.Config{Defaults: defaults})

	if debugAddr != "" {
		if err := setupMetricsExport(); err != nil {
			logger.Warn("Metrics export unavailable", "error", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go server.NewDebugServer(debugAddr, srv).Start(ctx)
	}

	logger.Info("Serving LSP over stdio", "version", server.Version)
	return srv.RunStdio()
}

// runDoctor reports whether the configured phpdd executable resolves and runs.
func runDoctor(cmd *cobra.Command, args []string) error {
	// Stdout is the product here; keep logs out of it.
	logger, err := logging.Setup(logging.Config{Level: logging.LevelError, Service: server.Name})
	if err != nil {
		return err
	}
	defer logger.Close()

	settings := checker.DefaultSettings()
	if flagConfig != "" {
		cfg, err := server.LoadConfig(flagConfig)
		if err != nil {
			return err
		}
		settings = cfg.Checker
	}

	resolved, ok := checker.New().IsInstalled(settings)
	if !ok {
		fmt.Printf("phpdd NOT FOUND at %s\n", settings.ExecutablePath)
		fmt.Println("Install it with: composer global require wapmorgan/php-deprecation-detector")
		return fmt.Errorf("checker executable not runnable")
	}

	fmt.Printf("phpdd OK: %s\n", resolved)
	return nil
}

// setupMetricsExport bridges otel instruments into the Prometheus registry
// served on the debug endpoint.
func setupMetricsExport() error {
	exporter, err := otelprom.New()
	if err != nil {
		return err
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)))
	return nil
}
