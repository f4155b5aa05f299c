package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arcanaland/tarotreading/internal/interpret"
	"github.com/arcanaland/tarotreading/internal/server"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interpretation API",
	Long: `Serve runs the HTTP proxy between a tarot front end and the language model.

Routes:
  POST /api/interpret   interpret drawn cards
  GET  /api/models      list models available to the configured API key
  GET  /ping            health check
  GET  /metrics         Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		provider, err := newProvider(ctx, cfg)
		if err != nil {
			return err
		}

		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		requester := newRequester(cfg, provider, log, interpret.NewMetrics(registry))

		gin.SetMode(gin.ReleaseMode)
		router := server.NewRouter(server.Options{
			Handler:        server.NewHandler(requester, provider, cfg.LLM.Timeout.Duration, log),
			Logger:         log,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Registry:       registry,
		})

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			// Retries with backoff can outlast the model timeout
			WriteTimeout: cfg.LLM.Timeout.Duration + 30*time.Second,
			IdleTimeout:  60 * time.Second,
		}

		if !cfg.Server.AllowsAnyOrigin() {
			log.Warn("CORS restricted; preflights from unlisted origins get 403",
				zap.Strings("allowed_origins", cfg.Server.AllowedOrigins))
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("Starting HTTP server",
				zap.String("addr", cfg.Server.Addr),
				zap.String("provider", cfg.LLM.Provider),
				zap.Strings("allowed_origins", cfg.Server.AllowedOrigins),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			log.Error("Server stopped with error", zap.Error(err))
			return err
		}
		log.Info("Server exiting")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}
