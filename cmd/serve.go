package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumenpay-systems/fraudpipe/internal/handlers"
	"github.com/lumenpay-systems/fraudpipe/internal/natsingest"
	"github.com/lumenpay-systems/fraudpipe/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline service",
	Long: `Starts the HTTP server that accepts transaction batches, together with
the optional NATS batch subscription. Connections to the dimension store,
the result database, and the scoring endpoint are established once at
startup; a missing required handle aborts immediately.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "override listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := buildLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proc, cleanup, err := buildProcessor(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.NATS.Enabled {
		conn, err := natsingest.Connect(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer conn.Close()

		sub := natsingest.NewSubscriber(conn, cfg.NATS.Subject, proc, log)
		if err := sub.Start(); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		defer func() { _ = sub.Stop() }()
	}

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	if serveAddr != "" {
		listenAddr = serveAddr
	}

	srv := &http.Server{
		Addr:         listenAddr,
		Handler:      server.NewRouter(handlers.NewBatchHandler(proc)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("pipeline service listening", "addr", listenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
