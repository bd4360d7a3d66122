package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	appointmentshandler "github.com/fixbay/fixbay-backend/domains/appointments/be/handler"
	appointmentsrepo "github.com/fixbay/fixbay-backend/domains/appointments/be/repo"
	appointmentsservice "github.com/fixbay/fixbay-backend/domains/appointments/be/service"
	customershandler "github.com/fixbay/fixbay-backend/domains/customers/be/handler"
	customersrepo "github.com/fixbay/fixbay-backend/domains/customers/be/repo"
	customersservice "github.com/fixbay/fixbay-backend/domains/customers/be/service"
	tenantshandler "github.com/fixbay/fixbay-backend/domains/tenants/be/handler"
	tenantsrepo "github.com/fixbay/fixbay-backend/domains/tenants/be/repo"
	tenantsservice "github.com/fixbay/fixbay-backend/domains/tenants/be/service"
	platformauth "github.com/fixbay/fixbay-backend/platform/go/auth"
	"github.com/fixbay/fixbay-backend/platform/go/events"
	platformlogging "github.com/fixbay/fixbay-backend/platform/go/logging"
	"github.com/fixbay/fixbay-backend/platform/go/metrics"
	platformmiddleware "github.com/fixbay/fixbay-backend/platform/go/middleware"
	"github.com/fixbay/fixbay-backend/platform/go/persistence"
	"github.com/fixbay/fixbay-backend/platform/go/tenant"
	tenantmiddleware "github.com/fixbay/fixbay-backend/platform/go/tenant/middleware"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	AuthSecret      string        `env:"AUTH_HS256_SECRET,required"`
	NATSURL         string        `env:"NATS_URL"`
	TenantHeader    string        `env:"TENANT_HEADER" envDefault:"X-Tenant-Id"`
	TenantQuery     string        `env:"TENANT_QUERY_PARAM" envDefault:"tenant"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	m := metrics.New()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString:  cfg.DatabaseURL,
		Logger:      logger,
		OnScopeLeak: m.ScopeLeaks.Inc,
	})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Fatal("connect nats", zap.String("url", cfg.NATSURL), zap.Error(err))
		}
		defer conn.Close()
		publisher = events.NewNATSPublisher(conn)
		logger.Info("event publishing enabled", zap.String("url", cfg.NATSURL))
	}

	tenantDB := persistence.NewTenantDB(persistence.TenantDBConfig{Pool: pool})

	appointmentStore := persistence.NewAppointmentStore(tenantDB)
	appointmentRepo := appointmentsrepo.NewPostgresRepository(appointmentStore)
	appointmentService := appointmentsservice.New(appointmentRepo, publisher, m, logger)
	appointmentHTTPHandler := appointmentshandler.New(appointmentService, logger)

	customerStore := persistence.NewCustomerStore(tenantDB)
	customerRepo := customersrepo.NewPostgresRepository(customerStore)
	customerService := customersservice.New(customerRepo)
	customerHTTPHandler := customershandler.New(customerService, logger)

	tenantRegistry := persistence.NewTenantRegistry(tenantDB)
	tenantRepo := tenantsrepo.NewPostgresRepository(tenantRegistry)
	tenantService := tenantsservice.New(tenantRepo)
	tenantHTTPHandler := tenantshandler.New(tenantService, logger)

	authMiddleware := platformauth.JWT(platformauth.HS256Verifier([]byte(cfg.AuthSecret)), platformauth.DefaultCredentialExtractor)

	resolver := tenant.Resolver{
		Header:     cfg.TenantHeader,
		QueryParam: cfg.TenantQuery,
	}

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	// Resolution runs before the request logger so tenant-scoped log lines
	// carry the tenant id.
	rootRouter.Use(tenantmiddleware.ResolveTenant(resolver))
	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Method(http.MethodGet, "/metrics", m.Handler())

	apiRouter := chi.NewRouter()
	apiRouter.Use(authMiddleware)
	apiRouter.Use(platformmiddleware.RequestTrace)

	// Tenant-required data routes fail with 400 before any query when no
	// valid tenant was resolved.
	apiRouter.Group(func(r chi.Router) {
		r.Use(tenantmiddleware.RequireTenant(logger))
		appointmentHTTPHandler.Routes(r)
		customerHTTPHandler.Routes(r)
	})

	// Platform admin routes operate outside any tenant scope.
	apiRouter.Route("/admin", func(r chi.Router) {
		r.Use(platformauth.RequireRole("admin"))
		tenantHTTPHandler.Routes(r)
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
