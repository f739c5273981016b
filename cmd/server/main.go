package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	adminhandler "certmint/internal/admin/handler"
	adminsvc "certmint/internal/admin/service"
	"certmint/internal/assets"
	"certmint/internal/audit"
	authhandler "certmint/internal/auth/handler"
	authsvc "certmint/internal/auth/service"
	certhandler "certmint/internal/certificate/handler"
	certsvc "certmint/internal/certificate/service"
	certstore "certmint/internal/certificate/store"
	identityhandler "certmint/internal/identity/handler"
	identitysvc "certmint/internal/identity/service"
	identitystore "certmint/internal/identity/store"
	jwttoken "certmint/internal/jwt_token"
	"certmint/internal/notification"
	"certmint/internal/platform/config"
	"certmint/internal/platform/httpserver"
	"certmint/internal/platform/logger"
	"certmint/internal/platform/metrics"
	"certmint/internal/platform/postgres"
	platformredis "certmint/internal/platform/redis"
	httptransport "certmint/internal/transport/http"
	"certmint/internal/verification"
	verificationhandler "certmint/internal/verification/handler"
)

const shutdownGrace = 15 * time.Second

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Error("schema migration failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	uploader, err := assets.NewS3(cfg.S3)
	if err != nil {
		log.Error("object storage init failed", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		log.Error("kafka sink init failed", "error", err)
		os.Exit(1)
	}
	var auditSink audit.Sink
	if sink != nil {
		defer sink.Close()
		auditSink = sink
	}
	auditStore := audit.NewPostgresStore(db)
	publisher := audit.NewPublisher(auditStore, auditSink, log)

	identities := identitysvc.New(identitystore.NewPostgres(db), cfg.OrgPrefix)
	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "certmint")
	jwtValidator := jwttoken.NewMiddlewareAdapter(tokens)
	authService := authsvc.New(identities, tokens, cfg.SuperAdminEmail, cfg.SuperAdminPassword)

	mailer := notification.NewMailer(cfg.SMTP, log, m)
	certificates := certstore.NewPostgres(db)
	minter := certsvc.New(identities, certificates, mailer, cfg.BaseURL, log, m)

	cache := verification.NewCache(redisClient, log)
	resolver := verification.New(certificates, identities, cache, cfg.BaseURL, m)

	adminService := adminsvc.New(
		identities,
		certificates,
		adminsvc.NewSettingsStore(cfg.SettingsFile),
		cfg.Backup.Dir,
	)

	var uploaderPort assets.Uploader
	if uploader != nil {
		uploaderPort = uploader
	}

	router := httptransport.NewRouter(log, m, registry, httptransport.Handlers{
		Auth:         authhandler.New(authService, log, m, publisher),
		Identity:     identityhandler.New(identities, uploaderPort, mailer, log, m, publisher, jwtValidator, cfg.LoginURL),
		Certificate:  certhandler.New(minter, log, publisher, jwtValidator),
		Verification: verificationhandler.New(resolver, log),
		Admin:        adminhandler.New(adminService, uploaderPort, auditStore, log, publisher, jwtValidator),
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := publisher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
