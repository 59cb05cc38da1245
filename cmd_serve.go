package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/app"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/services"
	"storefront/pkg/logger"
	"storefront/pkg/rabbitmq"

	"github.com/spf13/cobra"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the order event consumer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "run schema migrations before serving")
}

func serve(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.Init(cfg.AppEnv)

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if migrateOnStart {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(orBackground(parent), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := app.Deps{Config: cfg, DB: db, AccessLog: true}

	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer redisCache.Close()
		deps.Cache = redisCache
		log.Info("analytics cache enabled", "addr", cfg.RedisAddr)
	}

	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			return err
		}
		defer mqClient.Close()
		deps.Events = services.EventPublisher(mqClient)

		if err := mqClient.ConsumeOrderEvents(ctx, rabbitmq.LogOrderEvent(log)); err != nil {
			return err
		}
	} else {
		log.Info("RABBITMQ_URL not set, order events disabled")
	}

	server := app.New(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", cfg.AppPort, "env", cfg.AppEnv)
		errCh <- server.Listen(cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	if err := server.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server gracefully stopped")
	return nil
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
