package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"equipmarket/internal/config"
	"equipmarket/internal/database"
	"equipmarket/internal/domain/admin"
	"equipmarket/internal/domain/auth"
	"equipmarket/internal/domain/catalog"
	"equipmarket/internal/domain/history"
	"equipmarket/internal/domain/imagestore"
	"equipmarket/internal/domain/reservation"
	"equipmarket/internal/events"
	"equipmarket/internal/metrics"
	"equipmarket/internal/middleware"
	jwtsvc "equipmarket/internal/pkg/jwt"
	"equipmarket/internal/pkg/response"
)

// Options carries the optional collaborators main decides on at startup.
type Options struct {
	Cache     catalog.ListCache
	Publisher events.Publisher
	// Quiet drops gin's access log, used by tests.
	Quiet bool
}

// App holds the wired services and the HTTP router built over them.
type App struct {
	Router       *gin.Engine
	JWT          *jwtsvc.Service
	Hub          *events.Hub
	Ledger       *history.Repository
	Catalog      *catalog.Service
	Reservations *reservation.Service
	Auth         *auth.Service
	Admin        *admin.Service
	Images       *imagestore.Store
	Metrics      *metrics.Metrics
}

// New wires repositories, services and handlers over db.
func New(cfg *config.Config, db *gorm.DB, opts Options) *App {
	hub := events.NewHub(nil)
	publisher := events.Publisher(hub)
	if opts.Publisher != nil {
		publisher = events.Multi{hub, opts.Publisher}
	}

	m := metrics.New()
	j := jwtsvc.New(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	images := imagestore.New(cfg.Images.Dir, cfg.Images.URLBase, cfg.Images.MaxBytes)

	ledger := history.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	catalogOpts := []catalog.Option{catalog.WithImages(images), catalog.WithPublisher(publisher)}
	if opts.Cache != nil {
		catalogOpts = append(catalogOpts, catalog.WithCache(opts.Cache))
	}
	catalogService := catalog.NewService(catalogRepo, ledger, catalogOpts...)

	reservations := reservation.NewService(catalogRepo, ledger, reservation.Config{
		LockTimeout:     cfg.Reservation.LockTimeout,
		RetryMaxElapsed: cfg.Reservation.RetryMaxElapsed,
	}, catalogService, publisher, reservation.WithObserver(m))

	app := &App{
		JWT:          j,
		Hub:          hub,
		Ledger:       ledger,
		Catalog:      catalogService,
		Reservations: reservations,
		Auth:         auth.NewService(auth.NewRepository(db), j),
		Admin:        admin.NewService(catalogService, ledger, publisher),
		Images:       images,
		Metrics:      m,
	}
	app.Router = app.routes(cfg, db, opts.Quiet)
	return app
}

func (a *App) routes(cfg *config.Config, db *gorm.DB, quiet bool) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	if !quiet {
		r.Use(gin.Logger())
	}
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(cfg.HTTP.CORSOrigins))
	r.Use(a.Metrics.Middleware())

	r.GET("/metrics", a.Metrics.Handler())

	r.GET("/health", func(c *gin.Context) {
		if err := database.Ping(c.Request.Context(), db); err != nil {
			response.Error(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "database is not reachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "ws_clients": a.Hub.Count()})
	})

	v1 := r.Group("/api/v1", middleware.OptionalAuth(a.JWT))
	{
		v1.GET("/ws/stock", a.Hub.ServeWS)

		auth.RegisterRoutes(v1, auth.NewHandler(a.Auth))
		catalog.RegisterRoutes(v1, catalog.NewHandler(a.Catalog))
		reservation.RegisterRoutes(v1, reservation.NewHandler(a.Reservations))

		managers := v1.Group("", middleware.CatalogManagers())
		history.RegisterRoutes(managers, history.NewHandler(a.Ledger))
		imagestore.RegisterRoutes(v1, managers, imagestore.NewHandler(a.Images))

		admin.RegisterRoutes(v1.Group("/admin", middleware.AdminOnly()), admin.NewHandler(a.Admin))
	}
	return r
}
