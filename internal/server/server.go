// Package server assembles the access core into a running HTTP service:
// config, profile store, document store, verifier, router, executor and
// the gin engine.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/docport-io/docport/internal/access"
	"github.com/docport-io/docport/internal/api"
	"github.com/docport-io/docport/internal/auth"
	"github.com/docport-io/docport/internal/config"
	"github.com/docport-io/docport/internal/middleware"
	"github.com/docport-io/docport/internal/query"
	"github.com/docport-io/docport/internal/repository"
	"github.com/docport-io/docport/internal/store"
	"github.com/docport-io/docport/internal/store/memory"
	"github.com/docport-io/docport/internal/store/sqlstore"
	"github.com/docport-io/docport/internal/version"
)

// Run wires everything from the given configuration and serves until
// SIGINT/SIGTERM, then shuts down within the configured timeout.
func Run(cfg *config.Config) error {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	secret := cfg.Auth.JWT.Secret
	if secret == "" {
		secret = os.Getenv("DOCPORT_JWT_SECRET")
	}
	if secret == "" {
		if cfg.App.Env == "production" {
			return errors.New("auth.jwt.secret must be set in production")
		}
		secret = "development-secret"
		log.Println("WARNING: using the development JWT secret")
	}

	db, err := sqlx.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping profile store: %w", err)
	}

	var docStore store.DocumentStore
	switch cfg.Store.Driver {
	case "memory":
		docStore = memory.NewStore()
	default:
		docStore = sqlstore.NewStore(db, cfg.Store.UnindexedCollections...)
	}

	profiles := repository.NewProfileRepository(db)

	jwtManager := auth.NewJWTManager(secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.Duration)
	verifier := auth.NewVerifier(jwtManager, profiles)
	verifier.StampLastAccess = cfg.Auth.StampLastAccess

	router := access.NewRouter(auth.NewRBAC(), profiles)
	if cfg.Store.ScopedLimit > 0 {
		router.ScopedLimit = cfg.Store.ScopedLimit
	}
	if cfg.Store.AdminLimit > 0 {
		router.AdminLimit = cfg.Store.AdminLimit
	}

	executor := query.NewExecutor(docStore)

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.RequestID(), middleware.Metrics())

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	api.RegisterRoutes(engine,
		middleware.NewAuthMiddleware(verifier),
		api.NewDocumentHandlers(router, executor, docStore, cfg.App.Debug),
		api.NewProfileHandlers(router, profiles, cfg.App.Debug),
		docStore, metricsPath)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("docport %s listening on %s", version.String(), srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
