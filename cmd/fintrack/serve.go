package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	"fintrack/internal/labels"
	"fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	janitorInterval = 5 * time.Minute
)

func newServeCommand(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			return runServe(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func runServe(parent context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger
	if parent == nil {
		parent = context.Background()
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	kv, err := cli.OpenKV(cfg, logger)
	if err != nil {
		return err
	}
	defer kv.Close()

	opts := []store.Option{store.WithLogger(logger)}
	if cfg.AMQPEnabled() {
		dialCtx, cancel := context.WithTimeout(parent, 30*time.Second)
		events, err := amqp.Dial(dialCtx, amqp.Config{URL: cfg.AMQPURL, Exchange: cfg.AMQPExchange, Queue: cfg.AMQPQueue}, logger)
		cancel()
		if err != nil {
			return err
		}
		defer events.Close()
		opts = append(opts, store.WithNotifier(events))
	} else {
		logger.Info("Event publishing disabled - no AMQP_URL provided")
	}

	st, err := store.Open(parent, kv, opts...)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	pref, err := labels.OpenPreference(parent, kv)
	if err != nil {
		return fmt.Errorf("open language preference: %w", err)
	}

	rateClient := rates.NewClient(rates.Config{
		BaseURL:  cfg.RatesBaseURL,
		Timeout:  cfg.RatesTimeout,
		CacheTTL: cfg.RatesCacheTTL,
	}, logger)
	syncer := rates.NewSyncer(rateClient, st, logger)

	labelService := labels.NewService(labels.NewSanityClient(sanityConfig(a)), logger)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:      st,
		Rates:      syncer,
		Currencies: rateClient,
		Labels:     labelService,
		Language:   pref,
		Logger:     logger,
		PageSize:   cfg.PageSize,
		Location:   loc,
	})
	if err != nil {
		return err
	}

	ctx, done := cli.GracefulShutdown(parent, logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.LogError(ctx, "Server shutdown error", err, log.OpShutdown, nil)
		}
	})

	go syncer.Run(ctx, cfg.RatesRefreshInterval)
	go labelService.Run(ctx, cfg.LabelsRefreshInterval)
	go cache.NewJanitor(logger, rateClient.Cache(), srv.Limiter()).Run(ctx, janitorInterval)

	logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.DataBackend, log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen on port %s: %w", cfg.Port, err)
	}

	<-done
	logger.Info("Server stopped gracefully")
	return nil
}

func sanityConfig(a *app) labels.SanityConfig {
	return labels.SanityConfig{
		ProjectID:  a.cfg.SanityProjectID,
		Dataset:    a.cfg.SanityDataset,
		APIVersion: a.cfg.SanityAPIVersion,
		UseCDN:     a.cfg.SanityUseCDN,
	}
}
