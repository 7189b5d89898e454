package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/medpoint/clinic_auth/internal/audit"
	"github.com/medpoint/clinic_auth/internal/config"
	"github.com/medpoint/clinic_auth/internal/handlers"
	"github.com/medpoint/clinic_auth/internal/logging"
	authmw "github.com/medpoint/clinic_auth/internal/middleware/auth"
	"github.com/medpoint/clinic_auth/internal/middleware/csrf"
	loggingmw "github.com/medpoint/clinic_auth/internal/middleware/logging"
	"github.com/medpoint/clinic_auth/internal/mykafka"
	"github.com/medpoint/clinic_auth/internal/rbac"
	"github.com/medpoint/clinic_auth/internal/repo"
	"github.com/medpoint/clinic_auth/internal/seed"
	"github.com/medpoint/clinic_auth/internal/service"
	httpserver "github.com/medpoint/clinic_auth/internal/transport/http"
	"github.com/medpoint/clinic_auth/internal/tokens"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	if cfg.Seed {
		if err := seed.Seed(ctx, db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("seed error: %v", err)
		}
		logger.Info("seed complete")
	}

	codec, err := tokens.LoadCodec(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("jwt keys error: %v", err)
	}

	authSvc := &service.AuthService{
		Users:  &repo.Users{DB: db},
		Tokens: &repo.RefreshTokens{DB: db},
		Codec:  codec,
	}

	var producer *mykafka.Producer
	if cfg.KafkaAddress != "" {
		producer = mykafka.NewProducer([]string{cfg.KafkaAddress}, cfg.KafkaTopic)
		authSvc.Events = producer
	}

	auditHandler := &handlers.AuditHandler{}
	var auditSink *audit.Sink
	if cfg.ESURL != "" {
		sink, err := audit.NewSink(audit.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.AuditIndex,
		})
		if err != nil {
			log.Fatalf("audit sink error: %v", err)
		}
		authSvc.Audit = sink
		auditHandler.Audit = sink
		auditSink = sink
	}

	resolver := rbac.NewResolver(&repo.Permissions{DB: db}, cfg.PermissionCacheTTL)
	guard := &rbac.Guard{Resolver: resolver}

	access := &authmw.Middleware{Codec: codec, Guard: guard}
	if auditSink != nil {
		access.Audit = auditSink
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.Config{
			SkipPaths: []string{"/auth/register", "/auth/login", "/health/live", "/health/ready"},
		}))
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:  &handlers.AuthHandler{Auth: authSvc, Codec: codec},
		UserHandler:  &handlers.UserHandler{Auth: authSvc},
		AuditHandler: auditHandler,
		Access:       access,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
