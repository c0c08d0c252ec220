// Copyright (c) 2025 PawHaven
// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pawhaven/pawcore/internal/api"
	"github.com/pawhaven/pawcore/internal/config"
	"github.com/pawhaven/pawcore/internal/correlation"
	"github.com/pawhaven/pawcore/internal/idempotency"
	pclog "github.com/pawhaven/pawcore/internal/log"
	"github.com/pawhaven/pawcore/internal/store"
	"github.com/pawhaven/pawcore/internal/txn"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pawcored %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	pclog.Configure(pclog.Config{Level: "info", Service: "pawcored"})
	logger := pclog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings := config.Load()

	kv, err := openStore(settings)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "store.open_failed").
			Str(pclog.FieldStoreBackend, settings.StoreBackend).
			Msg("failed to open persistence backend")
	}
	defer func() {
		if cerr := kv.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("store close failed")
		}
	}()

	contexts := correlation.NewStore(correlation.WithRetention(settings.ContextRetention))
	cache := idempotency.NewCache(idempotency.WithSweepInterval(settings.IdempotencySweep))
	defer cache.Stop()

	coordinator := txn.NewCoordinator(txn.Options{
		Policy: txn.Policy{
			MaxAttempts: settings.RetryMaxAttempts,
			BaseDelay:   settings.RetryBaseDelay,
			Multiplier:  settings.RetryMultiplier,
			MaxDelay:    settings.RetryMaxDelay,
		},
		KV:         kv,
		Cache:      cache,
		MaxTracked: settings.TrackingSetMaxSize,
	})
	defer coordinator.Close()

	// Periodic correlation cleanup sweep.
	go func() {
		interval := settings.ContextRetention / 4
		if interval < time.Minute {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				contexts.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()

	server := api.NewServer(api.Config{
		Coordinator:    coordinator,
		Contexts:       contexts,
		MetricsEnabled: settings.MetricsEnabled,
	})

	httpServer := &http.Server{
		Addr:              settings.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("event", "server.start").
			Str("addr", settings.ListenAddr).
			Str(pclog.FieldStoreBackend, settings.StoreBackend).
			Msg("diagnostics server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("shutdown incomplete")
	}
	logger.Info().Str("event", "server.stop").Msg("shut down")
}

func openStore(settings config.Settings) (store.KV, error) {
	switch settings.StoreBackend {
	case "badger":
		return store.OpenBadger(settings.StorePath)
	case "redis":
		return store.NewRedisStore(store.RedisConfig{
			Addr: settings.RedisAddr,
			DB:   settings.RedisDB,
		}, pclog.WithComponent("store.redis"))
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", settings.StoreBackend)
	}
}
