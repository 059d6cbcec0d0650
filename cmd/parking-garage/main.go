package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"parking-garage/internal/config"
	"parking-garage/internal/logging"
	"parking-garage/internal/parking"
	"parking-garage/internal/server"
)

var (
	mode = "cli"
	port = ""
)

func main() {
	fs := pflag.NewFlagSet("", pflag.ExitOnError)
	fs.StringVar(&mode, "mode", mode, "Mode to run: cli, server, or both")
	fs.StringVar(&port, "port", port, "Port for HTTP server (overrides PORT)")

	cmd := &cobra.Command{
		Use:   "parking-garage",
		Short: "Multi-level parking garage with first-fit allocation and hourly billing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
		SilenceUsage: true,
	}
	cmd.Flags().AddFlagSet(fs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if port != "" {
		cfg.Port = port
	}

	telemetry, err := parking.NewTelemetryProvider(ctx, cfg.OTelConfig.ServiceName, cfg.OTelConfig.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownTelemetry(telemetry)

	logging.Init(cfg.OTelConfig.ServiceName, cfg.Environment)

	garage, err := parking.NewGarageFromLayout(cfg.Layout)
	if err != nil {
		return fmt.Errorf("failed to build garage: %w", err)
	}
	system, err := parking.NewInstrumentedSystem(
		parking.NewSystem(garage, cfg.HourlyRate, parking.WithBillingMode(cfg.BillingMode)),
		telemetry,
	)
	if err != nil {
		return fmt.Errorf("failed to create parking system: %w", err)
	}

	logging.Info(ctx, "garage ready",
		slog.Int("floors", len(cfg.Layout)),
		slog.Int("capacity", garage.Capacity()),
		slog.Float64("hourly_rate", cfg.HourlyRate),
		slog.String("billing_mode", string(cfg.BillingMode)),
	)

	desk := parking.NewDesk(telemetry, system, parking.WithBillingMode(cfg.BillingMode))

	switch mode {
	case "cli":
		runCLI(ctx, desk)
		return nil
	case "server":
		return runServer(ctx, cfg, desk)
	case "both":
		return runBoth(ctx, cfg, desk)
	default:
		return fmt.Errorf("invalid mode: %s. Must be cli, server, or both", mode)
	}
}

func runCLI(ctx context.Context, desk *parking.Desk) {
	shell := parking.NewShell(desk, os.Stdin, os.Stdout)

	// Scan blocks on stdin, so a signal can't interrupt Run directly.
	done := make(chan struct{})
	go func() {
		shell.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}

func newServer(cfg *config.Config, desk *parking.Desk) *server.Server {
	handler := server.NewHandler(cfg.OTelConfig.ServiceName, desk)
	return server.NewServer(cfg.Port, handler)
}

func runServer(ctx context.Context, cfg *config.Config, desk *parking.Desk) error {
	srv := newServer(cfg, desk)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logging.Info(context.Background(), "received shutdown signal")
		return shutdownServer(srv)
	}
}

func runBoth(ctx context.Context, cfg *config.Config, desk *parking.Desk) error {
	srv := newServer(cfg, desk)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start()
	}()

	// One desk, so the shell and the API see the same garage and drivers.
	cliDone := make(chan struct{})
	go func() {
		runCLI(ctx, desk)
		close(cliDone)
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-cliDone:
		logging.Info(context.Background(), "CLI exited")
	case <-ctx.Done():
		logging.Info(context.Background(), "received shutdown signal")
	}

	return shutdownServer(srv)
}

func shutdownServer(srv *server.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

func shutdownTelemetry(telemetry *parking.TelemetryProvider) {
	logging.Info(context.Background(), "shutting down telemetry")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error shutting down telemetry: %v\n", err)
	}
}
