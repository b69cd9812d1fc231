package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	httpAdapter "github.com/lcroft/stagehand/internal/adapters/http"
	"github.com/lcroft/stagehand/internal/config"
	"github.com/lcroft/stagehand/internal/logging"
	"github.com/lcroft/stagehand/internal/metrics"
	"github.com/lcroft/stagehand/internal/service"
	"github.com/lcroft/stagehand/internal/storage/sqlite"
	redisAdapter "github.com/lcroft/stagehand/pkg/adapters/redis"
	"github.com/lcroft/stagehand/pkg/guard"
	"github.com/lcroft/stagehand/pkg/ports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the transition guard as a JSON API over HTTP, backed by SQLite and optionally Redis.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		addr, _ := cmd.Flags().GetString("addr")

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.ListenAddr = addr
		}

		log := logging.New(slog.LevelInfo)
		if cfg.LogJSON {
			log = logging.NewJSON(slog.LevelInfo)
		}

		if err := httpAdapter.ValidateSpec(cmd.Context()); err != nil {
			return err
		}

		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer store.Close()

		// SQLite covers every port; Redis takes over dedupe, throttling,
		// and locking when configured, for multi-replica deployments.
		var (
			eventStore    ports.EventStore    = store
			throttleStore ports.ThrottleStore = store
			locker        ports.DistributedLocker
		)
		if cfg.RedisAddr != "" {
			rds := redisAdapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
				redisAdapter.WithRetention(cfg.DedupeRetention))
			eventStore, throttleStore = rds, rds
			locker = redisAdapter.NewLocker(backend.NewClient(&backend.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			}), "stagehand:")
			log.Info("using redis for dedupe, throttling, and locking", "addr", cfg.RedisAddr)
		}

		reg := prometheus.NewRegistry()
		m := metrics.New(reg)
		g := guard.New()

		transitions := service.NewTransitions(store, store, store, g, m, log)
		events := service.NewEvents(eventStore, throttleStore, cfg.Throttle, m, log)
		transitions.BindEvents(events)

		handler := httpAdapter.NewHandler(httpAdapter.Options{
			Transitions:  transitions,
			Dependencies: service.NewDependencies(store, store, m, log),
			Events:       events,
			Promotions:   service.NewPromotions(store, locker, m, log),
			Gatherer:     reg,
			Log:          log,
		})

		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			log.Info("starting server", "addr", srv.Addr, "db", cfg.DBPath)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Info("starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				log.Warn("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("could not stop server: %w", err)
				}
			}
			log.Info("server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides config)")
}
