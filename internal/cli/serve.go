package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-reminder-bot/internal/bot"
	"github.com/tbourn/go-reminder-bot/internal/gateway"
	httpapi "github.com/tbourn/go-reminder-bot/internal/http"
	"github.com/tbourn/go-reminder-bot/internal/observability"
	"github.com/tbourn/go-reminder-bot/internal/repo"
	"github.com/tbourn/go-reminder-bot/internal/services"
	"github.com/tbourn/go-reminder-bot/internal/socket"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot (Socket Mode or HTTP, per SOCKET_MODE)",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, Version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open delivery ledger: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := repo.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate delivery ledger: %w", err)
	}

	gw := gateway.New(cfg.Slack)
	sched := services.NewSchedulingService(gw, &cfg)
	b := bot.New(&cfg, gw, sched, repo.NewDeliveryLedger(db, cfg.DeliveryTTL))

	log.Info().
		Str("version", Version).
		Bool("socket_mode", cfg.Slack.SocketMode).
		Str("timezone", cfg.Location.String()).
		Int("minute_interval", cfg.MinuteInterval).
		Bool("fallback", cfg.Slack.DeveloperChannelID != "").
		Msg("reminder bot starting")

	if cfg.Slack.SocketMode {
		return socket.New(gw.API(), b, cfg.Slack.Debug).Run(ctx)
	}
	return serveHTTP(ctx, b)
}

func serveHTTP(ctx context.Context, b *bot.Bot) error {
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, b, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}
