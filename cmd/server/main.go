package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitdesk/backend/internal/audit"
	auditrepo "fitdesk/backend/internal/audit/repository"
	branchrepo "fitdesk/backend/internal/branch/repository"
	"fitdesk/backend/internal/config"
	"fitdesk/backend/internal/db"
	"fitdesk/backend/internal/identity"
	identityrepo "fitdesk/backend/internal/identity/repository"
	"fitdesk/backend/internal/role"
	rolerepo "fitdesk/backend/internal/role/repository"
	"fitdesk/backend/internal/security"
	"fitdesk/backend/internal/server"
	otelsetup "fitdesk/backend/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "fitdesk-backend", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("jwt private key: %v", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("jwt public key: %v", err)
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	auditLog := audit.NewLogger(auditrepo.NewPostgresRepository(database))

	registry := role.NewRegistry(rolerepo.NewPostgresRepository(database))
	if err := registry.LoadCustomRoles(ctx); err != nil {
		log.Fatalf("roles: %v", err)
	}

	binding := identity.NewBinding(registry, identityrepo.NewPostgresRepository(database), auditLog)
	directory := branchrepo.NewPostgresDirectory(database)

	// Per-principal resolutions are cached for the configured TTL; role
	// edits flush the cache so the next request re-resolves.
	resolver := server.NewCachingResolver(binding, cfg.CacheTTL())
	handler := server.NewHandler(registry, directory, auditLog,
		auditrepo.NewPostgresRepository(database), int32(cfg.AuditListPageSize), resolver.Flush)
	router := server.NewRouter(handler, tokens, resolver)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	auditLog.Drain()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
