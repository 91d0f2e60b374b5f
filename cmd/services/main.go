package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/gin-gonic/gin"
	"github.com/staffdesk/staffdesk/internal/auth"
	"github.com/staffdesk/staffdesk/internal/debug"
	authHandlers "github.com/staffdesk/staffdesk/internal/domains/auth/handler"
	"github.com/staffdesk/staffdesk/internal/domains/employee/bus"
	employeeHandlers "github.com/staffdesk/staffdesk/internal/domains/employee/handler"
	"github.com/staffdesk/staffdesk/internal/domains/employee/store/employeedb"
	healthHandlers "github.com/staffdesk/staffdesk/internal/domains/health/handler"
	onboardingHandlers "github.com/staffdesk/staffdesk/internal/domains/onboarding/handler"
	"github.com/staffdesk/staffdesk/internal/domains/onboarding/wizard"
	"github.com/staffdesk/staffdesk/internal/metrics"
	"github.com/staffdesk/staffdesk/internal/mid"
	"github.com/staffdesk/staffdesk/internal/sqldb"
	"github.com/staffdesk/staffdesk/internal/storage/avatars"
	"github.com/staffdesk/staffdesk/pkg/keystore"
	"github.com/staffdesk/staffdesk/pkg/logger"
	"github.com/staffdesk/staffdesk/pkg/telemetry"
	"go.opentelemetry.io/otel"
)

var build = "development"

func main() {
	traceIDFn := func(ctx context.Context) string {
		return telemetry.GetTraceID(ctx)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	env := logger.EnvironmentDev
	if build != "development" {
		env = logger.EnvironmentProd
	}

	log := logger.New(os.Stdout, logger.LevelDebug, env, "staffdesk", traceIDFn)

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "main failed to execute run", "err", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	log.Info(ctx, "run", "build", build, "GOMAXPROCS", runtime.GOMAXPROCS(0))

	//configuration
	cfg := struct {
		Web struct {
			ReadTimeout    time.Duration `conf:"default:10s"`
			WriteTimeout   time.Duration `conf:"default:30s"`
			IdleTimeout    time.Duration `conf:"default:120s"`
			ShutdownTimout time.Duration `conf:"default:120s"`
			DebugHost      string        `conf:"default:0.0.0.0:3000"`
			APIHost        string        `conf:"default:0.0.0.0:8000"`
			HealthCheck    string        `conf:"default:0.0.0.0:9000"`
		}

		DB struct {
			User        string `conf:"default:postgres"`
			Password    string `conf:"default:postgres,mask"`
			Host        string `conf:"default:database:5432"`
			Name        string `conf:"default:postgres"`
			MaxIdleConn int    `conf:"default:0"`
			MaxOpenConn int    `conf:"default:0"`
			DisableTLS  bool   `conf:"default:true"`
		}

		Auth struct {
			Keys        string        `conf:"default:/etc/rsa-keys"`
			ActiveKey   string        `conf:"default:54bb2165-71e1-41a6-af3e-7da4a0e1e2c1"`
			Issuer      string        `conf:"default:staffdesk"`
			TokenMaxAge time.Duration `conf:"default:8h"`
		}

		Onboarding struct {
			//empty means the default pattern for the deployment's region
			PhonePattern string `conf:"default:"`
		}

		Avatars struct {
			Dir     string `conf:"default:/var/lib/staffdesk/avatars"`
			BaseURL string `conf:"default:/static/avatars"`
		}

		Tempo struct {
			Host        string  `conf:"default:tempo:4317"`
			ServiceName string  `conf:"default:staffdesk-service"`
			Probability float64 `conf:"default:1"`
		}
	}{}

	const prefix = "STAFFDESK"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing conf: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("conf to string: %w", err)
	}

	log.Info(ctx, "app configuration", "cfg", out)

	//==========================================================================
	// Debug Server
	go func() {
		log.Info(ctx, "debug server starting", "host", cfg.Web.DebugHost)
		if err := http.ListenAndServe(cfg.Web.DebugHost, debug.Register()); err != nil {
			log.Error(ctx, "failed to start debug server", "host", cfg.Web.DebugHost, "err", err.Error())
			return
		}
	}()

	expvar.NewString("build").Set(build)

	//==========================================================================
	// Database init
	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConn,
		MaxOpenConns: cfg.DB.MaxOpenConn,
		DisableTLS:   cfg.DB.DisableTLS,
	})

	if err != nil {
		return fmt.Errorf("failed to open connection to database: %w", err)
	}

	defer db.Close()

	log.Info(ctx, "database initialized", "host", cfg.DB.Host)

	//==========================================================================
	// Trace init
	cleanup, err := telemetry.SetupOTelSDK(telemetry.Config{
		ServiceName: cfg.Tempo.ServiceName,
		Host:        cfg.Tempo.Host,
		Probability: cfg.Tempo.Probability,
		ExcludedRoutes: map[string]struct{}{
			"/v1/liveness":  {},
			"/v1/readiness": {},
		},
	})

	if err != nil {
		return fmt.Errorf("setupOTelSDK: %w", err)
	}

	defer func() {
		cleanup(ctx)
	}()

	tracer := otel.Tracer(cfg.Tempo.ServiceName)

	log.Info(ctx, "tracer successfully initialized", "host", cfg.Tempo.Host, "probability", cfg.Tempo.Probability)

	//==========================================================================
	// Auth init
	ks := keystore.New()

	count, err := ks.LoadFromFileSystem(os.DirFS(cfg.Auth.Keys))
	if err != nil {
		return fmt.Errorf("loadFromFileSystem: %w", err)
	}

	if err := ks.SetActiveKey(cfg.Auth.ActiveKey); err != nil {
		return fmt.Errorf("setActiveKey: %w", err)
	}

	a := auth.New(ks, cfg.Auth.Issuer)

	log.Info(ctx, "auth initialized", "key-count", count, "activeKID", ks.GetActiveKid())

	//==========================================================================
	// Domain init
	store := employeedb.NewStore(db, tracer)
	empBus := bus.New(store)

	validate, err := wizard.NewValidator(cfg.Onboarding.PhonePattern)
	if err != nil {
		return fmt.Errorf("newValidator: %w", err)
	}

	sessions := wizard.NewStore(log, validate)

	avatarStore, err := avatars.New(cfg.Avatars.Dir, cfg.Avatars.BaseURL)
	if err != nil {
		return fmt.Errorf("avatar store: %w", err)
	}

	//==========================================================================
	// Metrics init
	m := metrics.New()

	//==========================================================================
	// Router init
	r := gin.New()

	//middleware stack
	r.Use(mid.Telemetry(tracer))
	r.Use(mid.Logger(log))
	r.Use(mid.Metrics(m))
	r.Use(mid.Panic(log, m))
	r.Use(mid.Error(log))

	r.Static(cfg.Avatars.BaseURL, avatarStore.Dir())

	employeeHandlers.RegisterRoutes(employeeHandlers.Conf{
		Router:      r,
		EmployeeBus: empBus,
		Validator:   validate,
		Avatars:     avatarStore,
		Auth:        a,
		Tracer:      tracer,
		Logger:      log,
	})

	onboardingHandlers.RegisterRoutes(onboardingHandlers.Conf{
		Router:      r,
		Sessions:    sessions,
		EmployeeBus: empBus,
		Auth:        a,
		Tracer:      tracer,
		Logger:      log,
	})

	authHandlers.RegisterRoutes(authHandlers.Conf{
		Router:      r,
		EmployeeBus: empBus,
		Auth:        a,
		Kid:         ks.GetActiveKid(),
		Issuer:      cfg.Auth.Issuer,
		TokenMaxAge: cfg.Auth.TokenMaxAge,
		Tracer:      tracer,
	})

	healthCheckMux := healthHandlers.RegisterRoutes(healthHandlers.Conf{
		DB:    db,
		Log:   log,
		Build: build,
	})

	//health check server
	go func() {
		log.Info(ctx, "health check server is running", "host", cfg.Web.HealthCheck)
		if err := http.ListenAndServe(cfg.Web.HealthCheck, healthCheckMux); err != nil {
			log.Error(ctx, "health check server failed", "err", err)
			return
		}
	}()

	//==========================================================================
	// API Server
	server := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      r,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     log.StdLogger(logger.LevelError),
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	serverErrs := make(chan error, 1)

	go func() {
		log.Info(ctx, "API server starting", "host", cfg.Web.APIHost)
		if err := server.ListenAndServe(); err != nil {
			serverErrs <- fmt.Errorf("listenAndServe: %w", err)
		}
	}()

	select {
	case err := <-serverErrs:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		log.Info(ctx, "server received a shutdown signal")
		defer log.Info(ctx, "server completed the shutdown process")

		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Web.ShutdownTimout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("failed to gracefully shutdown the server: %w", err)
		}
	}
	return nil
}
