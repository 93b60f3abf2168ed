package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/AenganZ/pseudo/internal/audit"
	"github.com/AenganZ/pseudo/internal/config"
	"github.com/AenganZ/pseudo/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pseudonymization HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP server port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	eng, cleanup, err := buildPipeline(cfg)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	defer cleanup()

	auditStore, err := audit.NewStore(cfg.AuditDBPath())
	if err != nil {
		return fmt.Errorf("initializing audit store: %w", err)
	}
	defer auditStore.Close()

	janitor := audit.NewJanitor(auditStore, cfg.AuditKeep)
	if err := janitor.Register(cfg.AuditPruneCron); err != nil {
		return fmt.Errorf("registering audit janitor: %w", err)
	}
	janitor.Start()
	defer janitor.Stop()

	if cfg.APIKey == "" {
		log.Warn().Msg("PSEUDO_API_KEY not set; API endpoints are unauthenticated")
	}

	srv := server.NewServer(eng, auditStore,
		server.WithAPIKey(cfg.APIKey),
		server.WithCORSOrigins(cfg.CORSOrigins),
		server.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		server.WithAuditKeep(cfg.AuditKeep),
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().
		Str("addr", addr).
		Int("audit_keep", cfg.AuditKeep).
		Bool("ner", cfg.NERBundleDir != "").
		Msg("pseudo_serve_started")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown_signal_received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server_stopped")
	return nil
}
