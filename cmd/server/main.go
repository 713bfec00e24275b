// The identity service: authentication, tenant isolation, degraded-mode
// continuity, and MFA for the Beauty Platform.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/config"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/fallback"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/mfa"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/middleware"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/monitoring"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/server"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/storage/postgres"
	storageredis "github.com/DesignCorporation/Beauty-Platform-sub005/internal/storage/redis"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/tenantgate"
	"github.com/DesignCorporation/Beauty-Platform-sub005/internal/token"
	"github.com/DesignCorporation/Beauty-Platform-sub005/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := monitoring.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, &cfg.Database, log)
	if err != nil {
		return err
	}
	if err := postgres.Migrate(ctx, db, log); err != nil {
		return err
	}

	redisClient := storageredis.Connect(ctx, &cfg.Redis, log)
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warn(ctx, "redis close failed", logger.Fields{"error": err.Error()})
		}
	}()

	codec := token.NewCodec(&cfg.JWT)
	fallbackManager := fallback.NewManager(redisClient, codec, cfg.Fallback, log)
	metrics := monitoring.NewMetrics()
	auth := middleware.NewAuth(codec, fallbackManager, metrics, log)
	mfaService := mfa.NewService(&cfg.MFA, log)
	gate := tenantgate.NewFactory(db)

	srv := server.New(cfg, codec, auth, fallbackManager, mfaService, gate, metrics, log)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gCtx)
	})

	log.Info(ctx, "identity service started", logger.Fields{
		"port": cfg.Server.Port,
	})
	return g.Wait()
}
