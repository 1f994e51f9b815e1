package cli

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"flag-quiz-service/internal/config"
	"flag-quiz-service/internal/telemetry"
	transport "flag-quiz-service/internal/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string, envPort string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server (WebSocket, scoreboard, metrics; Telegram when a token is set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", envPort, "port to listen on")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := telemetry.NewLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.NewMetrics(registry)

	rt, err := buildService(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer rt.Close()
	go rt.reapIdle(ctx, time.Minute)

	wsHandler := transport.NewWSHandler(rt.service, logger)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(rt.service, wsHandler, registry),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
			stop()
		}
	}()

	if cfg.Telegram.Token != "" {
		go func() {
			if err := runBot(ctx, cfg, rt.service, logger); err != nil && ctx.Err() == nil {
				logger.Error("telegram bot stopped", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
