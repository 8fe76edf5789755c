package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"yeargrid/internal/backend"
	"yeargrid/internal/cli"
	"yeargrid/internal/config"
	apphttp "yeargrid/internal/http"
	"yeargrid/internal/log"
	"yeargrid/internal/services"
	"yeargrid/internal/session"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Starting yeargrid", "port", cfg.Port, "backend", cfg.SessionBackend, "publishing", cfg.PublishingEnabled())
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateStateStore(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create state store: %w", err)
	}
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Warn("State store cleanup failed", log.FieldError, err.Error())
			}
		}()
	}

	opts := []services.Option{services.WithLogger(logger)}
	checks := map[string]apphttp.CheckFunc{}
	if cfg.PublishingEnabled() {
		client, err := cli.DialAMQP(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("connect AMQP: %w", err)
		}
		defer client.Close()

		opts = append(opts, services.WithPublisher(client))
		checks["amqp"] = func(context.Context) error { return client.Ping() }
		logger.Info("Result publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	srv, err := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		Grid:               services.NewGridService(res.Store, opts...),
		Store:              res.Store,
		Cookies:            session.NewCookies(cli.SessionSecret(cfg, logger), cfg.SessionCookieSecure, cfg.SessionMaxAge),
		Checks:             checks,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ValidationDetails:  cfg.ValidationDetails,
		ShutdownTimeout:    cfg.ShutdownTimeout,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return srv.Serve(egctx) })
	eg.Go(func() error { return res.Maintain(egctx) })
	return eg.Wait()
}
