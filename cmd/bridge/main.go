package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/config"
	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/server"
	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/service/appconfig"
	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/service/klarna"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/logger"
	"github.com/dalecarliacrew/klarna-checkout-bridge/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Environment: cfg.AppEnv,
		LogLevel:    cfg.LogLevel,
		ServiceName: cfg.AppName,
	})
	defer func() {
		if err := log.Sync(); err != nil {
			fmt.Printf("Failed to sync logger: %v\n", err)
		}
	}()

	metrics.Register(prometheus.DefaultRegisterer)

	fileResolver, err := appconfig.NewFileResolver(cfg.ChannelConfigPath, log)
	if err != nil {
		log.Error("Failed to load channel configuration", zap.Error(err))
		return
	}

	var resolver appconfig.Resolver = fileResolver
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cache := appconfig.NewRedisCache(redisClient, log)
		resolver = appconfig.NewCachedResolver(fileResolver, cache, cfg.ConfigCacheTTL, log)
		log.Info("Channel configuration cache enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	sessions := klarna.NewSessionHandler(log, resolver, klarna.SessionHandlerOptions{
		AppBaseURL:   cfg.AppAPIBaseURL,
		SaleorAPIURL: cfg.SaleorAPIURL,
		Locale:       cfg.CheckoutLocale,
		MerchantURLs: klarna.MerchantURLs{
			Terms:        cfg.TermsURL,
			Checkout:     cfg.CheckoutURL,
			Confirmation: cfg.ConfirmationURL,
			Push:         cfg.PushURL,
		},
		ProviderTimeout: cfg.ProviderTimeout,
	})

	httpServer := server.New(log, cfg, sessions)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		if err := fileResolver.Watch(groupCtx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	group.Go(func() error {
		metrics.CollectRuntimeMetrics(groupCtx, 15*time.Second)
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("Shutdown with error", zap.Error(err))
		return
	}
	log.Info("Shutdown complete")
}
