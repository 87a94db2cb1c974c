package helloext

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/igorsilveira/helloext/pkg/docserver"
	"github.com/igorsilveira/helloext/pkg/telemetry"
	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Serve only the extension documentation",
	RunE:  runDocs,
}

var docsPort int

func init() {
	docsCmd.Flags().IntVar(&docsPort, "port", 0, "listen port (default from config)")
}

func runDocs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if docsPort != 0 {
		cfg.Docs.Port = docsPort
	}

	logger := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.Format, nil)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = telemetry.WithLogger(ctx, logger)

	docs, err := docserver.New(docserver.Config{
		Bind:       cfg.Docs.Bind,
		Port:       cfg.Docs.Port,
		BaseURL:    cfg.Extensions.BaseURL,
		Extensions: documented(cfg),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("building docs server: %w", err)
	}
	return docs.Start(ctx)
}
