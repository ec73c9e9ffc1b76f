package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/Skotchmaster/auth_service/internal/audit"
	"github.com/Skotchmaster/auth_service/internal/config"
	"github.com/Skotchmaster/auth_service/internal/events"
	"github.com/Skotchmaster/auth_service/internal/httpserver"
	jwthelp "github.com/Skotchmaster/auth_service/internal/jwt"
	"github.com/Skotchmaster/auth_service/internal/metrics"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/service"
	pkgcfg "github.com/Skotchmaster/auth_service/pkg/config"
	"github.com/Skotchmaster/auth_service/pkg/db"
	"github.com/Skotchmaster/auth_service/pkg/jwks"
	"github.com/Skotchmaster/auth_service/pkg/logging"
)

const purgeInterval = time.Hour

func main() {
	cfg := config.Load()
	pkgcfg.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := repo.AutoMigrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("metrics register error: %v", err)
	}

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	recorder, err := audit.New(cfg.Elastic)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}

	store := repo.New(gdb)
	issuer := jwthelp.NewJWTIssuer(cfg)
	keys := jwks.NewClient(cfg.JWKSURI, cfg.JWKSRateLimit)

	e := httpserver.New(&httpserver.Deps{
		Logger: logger,
		AuthHandler: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Users:  store,
				Tokens: store,
				Issuer: issuer,
				Events: publisher,
				Audit:  recorder,
			},
			Cookies: cfg.Cookie,
		},
		TenantHandler: &httpserver.TenantHTTP{Svc: &service.TenantService{Store: store}},
		UserHandler:   &httpserver.UserHTTP{Svc: &service.UserService{Store: store, Tenants: store}},
		KeySet:        issuer.JWKS,
		KeyFunc:       keys.Keyfunc,
		Issuer:        cfg.Issuer,
		RefreshSecret: cfg.RefreshSecret,
		Revocation:    store,
		Ready:         func(ctx context.Context) error { return db.Ping(ctx, gdb) },
	})

	bgCtx, stopBackground := context.WithCancel(context.Background())
	go purgeExpired(bgCtx, logger, store)

	go func() {
		logger.Info("auth_service_started", "addr", cfg.AuthAddr)
		if err := e.Start(cfg.AuthAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")
	stopBackground()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}
	closeDB(gdb)

	logger.Info("shutdown_complete")
}

func purgeExpired(ctx context.Context, logger *slog.Logger, store *repo.GormRepo) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.PurgeExpiredRefreshTokens(ctx, now)
			if err != nil {
				logger.Error("refresh_purge_failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("refresh_tokens_purged", "count", n)
			}
		}
	}
}

func closeDB(gdb *gorm.DB) {
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Printf("db() error: %v", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Printf("db close error: %v", err)
	}
}
