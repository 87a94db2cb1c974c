package helloext

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/igorsilveira/helloext/pkg/docserver"
	"github.com/igorsilveira/helloext/pkg/gateway"
	"github.com/igorsilveira/helloext/pkg/grpcserver"
	"github.com/igorsilveira/helloext/pkg/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the agent gateway, the extension docs and the gRPC transport",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.Format, nil)
	logger.Info("starting helloext",
		slog.String("version", version),
		slog.String("agent", cfg.Agent.Kind),
		slog.Int("port", cfg.Gateway.Port),
		slog.String("bind", cfg.Gateway.Bind),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = telemetry.WithLogger(ctx, logger)

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		Enabled:  cfg.Tracing.Enabled,
		Endpoint: cfg.Tracing.Endpoint,
		Version:  version,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = shutdownTracer(sctx)
	}()

	handler, closeAudit, err := buildHandler(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeAudit() }()

	g, gctx := errgroup.WithContext(ctx)

	gw := gateway.New(gateway.Config{
		Bind:      cfg.Gateway.Bind,
		Port:      cfg.Gateway.Port,
		Handler:   handler,
		Logger:    telemetry.Component(ctx, "gateway"),
		AuthToken: cfg.Gateway.AuthToken,
		RateLimit: cfg.Gateway.RateLimit,
		Burst:     cfg.Gateway.Burst,
	})
	g.Go(func() error { return gw.Start(gctx) })

	if cfg.Docs.Enabled {
		docs, err := docserver.New(docserver.Config{
			Bind:       cfg.Docs.Bind,
			Port:       cfg.Docs.Port,
			BaseURL:    cfg.Extensions.BaseURL,
			Extensions: documented(cfg),
			Logger:     telemetry.Component(ctx, "docs"),
		})
		if err != nil {
			return fmt.Errorf("building docs server: %w", err)
		}
		g.Go(func() error { return docs.Start(gctx) })
	}

	if cfg.GRPC.Enabled {
		gs := grpcserver.New(grpcserver.Config{
			Bind:    cfg.GRPC.Bind,
			Port:    cfg.GRPC.Port,
			Handler: handler,
			Logger:  telemetry.Component(ctx, "grpc"),
		})
		g.Go(func() error { return gs.Start(gctx) })
	}

	err = g.Wait()
	logger.Info("shutting down")
	return err
}
