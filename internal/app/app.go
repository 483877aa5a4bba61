package app

import (
	"context"
	"errors"
	"net/http"

	"ballot-app-go/internal/config"
	"ballot-app-go/internal/db"
	ballotsdomain "ballot-app-go/internal/domain/ballots"
	tallydomain "ballot-app-go/internal/domain/tally"
	usersdomain "ballot-app-go/internal/domain/users"
	votingdomain "ballot-app-go/internal/domain/voting"
	"ballot-app-go/internal/metrics"
	"ballot-app-go/internal/repository/inmemory"
	ballotsrepo "ballot-app-go/internal/repository/postgres/ballots"
	tallyrepo "ballot-app-go/internal/repository/postgres/tally"
	usersrepo "ballot-app-go/internal/repository/postgres/users"
	votingrepo "ballot-app-go/internal/repository/postgres/voting"
	"ballot-app-go/internal/telemetry"
	"ballot-app-go/internal/transport/httpserver"
	"ballot-app-go/internal/transport/httpserver/handler"
	ballotshandler "ballot-app-go/internal/transport/httpserver/handler/ballots"
	commonhandler "ballot-app-go/internal/transport/httpserver/handler/common"
	authmw "ballot-app-go/internal/transport/httpserver/middleware"
	"ballot-app-go/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

type Services struct {
	Users   *usersdomain.Service
	Ballots *ballotsdomain.Service
	Voting  *votingdomain.Service
	Tally   *tallydomain.Service
}

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	handler    http.Handler
	db         *gorm.DB
	services   Services
	shutdown   telemetry.ShutdownFunc
}

// New loads nothing itself: cfg is already parsed. It opens the store,
// installs tracing and wires every service behind the HTTP router.
func New(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	log.Info("app: initializing tracing", "enabled", cfg.Tracing.Enabled, "exporter", cfg.Tracing.Exporter)
	shutdown, err := telemetry.Setup(ctx, cfg.Tracing, cfg.Env)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database", "driver", cfg.DB.Driver)
	gormDB, err := db.Open(cfg, log)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	application, err := NewWithDB(cfg, gormDB, log, prometheus.NewRegistry())
	if err != nil {
		_ = db.Close(gormDB)
		_ = shutdown(ctx)
		return nil, err
	}
	application.shutdown = shutdown
	return application, nil
}

// NewWithDB wires the application on an already opened store. Metrics are
// registered on reg.
func NewWithDB(cfg config.Config, gormDB *gorm.DB, log logger.Logger, reg *prometheus.Registry) (*App, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewDBStatsCollector(sqlDB, "ballot"))
	m := metrics.New(reg)

	users := usersdomain.NewService(usersrepo.NewPostgres(gormDB))
	ballots := ballotsdomain.NewService(ballotsrepo.NewPostgres(gormDB), cfg.Ballots.PageSize, m)
	voting := votingdomain.NewService(votingrepo.NewPostgres(gormDB), users, ballots, log.With("component", "voting"), votingdomain.Options{
		CastTimeout: cfg.Ballots.CastTimeout,
		Observer:    m,
	})
	cache := inmemory.NewInMemoryTallyCache(cfg.Ballots.TallyCacheLen, cfg.Ballots.TallyCacheTTL)
	tally := tallydomain.NewService(tallyrepo.NewPostgres(gormDB), cache, m)
	ballots.OnChange(tally.Invalidate)

	handlers := handler.New(
		commonhandler.New(users, sqlDB, log),
		ballotshandler.New(ballots, voting, tally, log),
	)
	auth := authmw.NewJWTAuth(cfg.Auth, users, log)

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, handlers, auth, reg)

	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpserver.New(cfg, router),
		handler:    router,
		db:         gormDB,
		services: Services{
			Users:   users,
			Ballots: ballots,
			Voting:  voting,
			Tally:   tally,
		},
		shutdown: func(context.Context) error { return nil },
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Services() Services {
	return a.services
}

func (a *App) DB() *gorm.DB {
	return a.db
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := db.Close(a.db); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
