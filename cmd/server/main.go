// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal services.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"avalia/internal/certificate/filestore"
	certificatehandler "avalia/internal/certificate/handler"
	certificatemetrics "avalia/internal/certificate/metrics"
	"avalia/internal/certificate/render"
	certificateservice "avalia/internal/certificate/service"
	certificatestore "avalia/internal/certificate/store"
	formhandler "avalia/internal/form/handler"
	formservice "avalia/internal/form/service"
	formstore "avalia/internal/form/store"
	"avalia/internal/platform/config"
	"avalia/internal/platform/database"
	"avalia/internal/platform/health"
	"avalia/internal/platform/httpserver"
	"avalia/internal/platform/logger"
	"avalia/internal/platform/metrics"
	"avalia/internal/platform/token"
	"avalia/internal/platform/tracer"
	responsehandler "avalia/internal/response/handler"
	responseservice "avalia/internal/response/service"
	responsestore "avalia/internal/response/store"
	"avalia/internal/seeder"
	httptransport "avalia/internal/transport/http"
	userstore "avalia/internal/user/store"
)

const tokenTTL = 12 * time.Hour

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing avalia",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	healthHandler := health.New(cfg.Environment)

	// Stores: postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		users     userstore.Store
		forms     formstore.Store
		responses responsestore.Store
		certs     certificatestore.Store
		logs      certificatestore.ValidationLogStore
	)

	pool, err := database.New(database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		if err := pool.Migrate(context.Background()); err != nil {
			log.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
		db := pool.DB()
		users = userstore.NewPostgres(db)
		forms = formstore.NewPostgres(db)
		responses = responsestore.NewPostgres(db)
		certs = certificatestore.NewPostgres(db)
		logs = certificatestore.NewPostgresValidationLogStore(db)
		log.Info("using postgres stores")
	} else {
		memUsers := userstore.NewInMemoryStore()
		memForms := formstore.NewInMemoryStore()
		users = memUsers
		forms = memForms
		responses = responsestore.NewInMemoryStore()
		certs = certificatestore.NewInMemoryStore()
		logs = certificatestore.NewInMemoryValidationLogStore()
		log.Info("using in-memory stores")

		if err := seeder.New(memUsers, memForms, log).SeedAll(context.Background()); err != nil {
			log.Error("seeding demo data failed", "error", err)
			os.Exit(1)
		}
	}

	files, err := filestore.NewOSStore(cfg.CertificatesDir)
	if err != nil {
		log.Error("certificate file store init failed", "error", err)
		os.Exit(1)
	}

	certService := certificateservice.New(
		certs,
		logs,
		users,
		forms,
		render.NewPDFRenderer(cfg.PublicBaseURL),
		files,
		certificateservice.WithLogger(log),
		certificateservice.WithMetrics(certificatemetrics.New()),
		certificateservice.WithTracer(tracer.NewOTel()),
	)
	formSvc := formservice.New(forms, formservice.WithLogger(log))
	responseSvc := responseservice.New(responses, forms, users,
		responseservice.WithLogger(log),
		responseservice.WithCertificateIssuer(certService),
	)

	tokens := token.New(cfg.JWTSigningKey, tokenTTL)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Forms:          formhandler.New(formSvc, log),
		Responses:      responsehandler.New(responseSvc, log),
		Certificates:   certificatehandler.New(certService, log),
		Health:         healthHandler,
		TokenValidator: tokens,
		TrustedProxies: cfg.TrustedProxies,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        metrics.NewHTTP(),
	}, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
