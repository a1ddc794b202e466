package router

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/pharmacy-api/internal/config"
	"github.com/jwalitptl/pharmacy-api/internal/handler/auth"
	"github.com/jwalitptl/pharmacy-api/internal/handler/consultation"
	"github.com/jwalitptl/pharmacy-api/internal/handler/health"
	"github.com/jwalitptl/pharmacy-api/internal/handler/medication"
	"github.com/jwalitptl/pharmacy-api/internal/handler/prescription"
	"github.com/jwalitptl/pharmacy-api/internal/handler/site"
	"github.com/jwalitptl/pharmacy-api/internal/middleware"
	"github.com/jwalitptl/pharmacy-api/pkg/metrics"
)

// Handlers groups every resource handler mounted under /api.
type Handlers struct {
	Health        *health.Handler
	Auth          *auth.Handler
	Sites         *site.Handler
	Medications   *medication.Handler
	Consultations *consultation.Handler
	Prescriptions *prescription.Handler
}

type Router struct {
	engine      *gin.Engine
	cfg         *config.Config
	h           Handlers
	authn       middleware.Authenticator
	sites       middleware.SiteResolver
	metrics     *metrics.Metrics
	tracing     bool
	serviceName string
}

func NewRouter(cfg *config.Config, h Handlers, authn middleware.Authenticator, sites middleware.SiteResolver, m *metrics.Metrics) *Router {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Router{
		engine:      gin.New(),
		cfg:         cfg,
		h:           h,
		authn:       authn,
		sites:       sites,
		metrics:     m,
		tracing:     cfg.Tracing.Enabled,
		serviceName: cfg.Tracing.ServiceName,
	}
}

// Setup installs the middleware chain and mounts every route.
func (r *Router) Setup() {
	if r.tracing {
		r.engine.Use(middleware.Tracing(r.serviceName))
	}
	r.engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.ErrorLogger(),
		middleware.Metrics(r.metrics),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig(r.cfg.IsProduction())),
		middleware.CORS(r.cfg.CORS),
		middleware.SizeLimit(r.cfg.Server.MaxBodyBytes),
		middleware.Timeout(r.cfg.Server.RequestTimeout),
	)
	r.engine.NoRoute(middleware.NoRoute())

	r.h.Health.RegisterRoutes(r.engine)

	api := r.engine.Group("/api")
	authLimit := func(c *gin.Context) { c.Next() }
	if r.cfg.RateLimit.Enabled {
		api.Use(middleware.NewRateLimiter(r.cfg.RateLimit.RequestsPerSecond, r.cfg.RateLimit.Burst,
			"Trop de requêtes, veuillez réessayer plus tard").Middleware())
		authLimit = middleware.NewRateLimiter(r.cfg.RateLimit.AuthPerSecond, r.cfg.RateLimit.AuthBurst,
			"Trop de tentatives, veuillez réessayer plus tard").Middleware()
	}

	authenticate := middleware.Auth(r.authn)
	r.h.Auth.RegisterRoutes(api, authenticate, middleware.OptionalAuth(r.authn), authLimit)

	protected := api.Group("", authenticate, middleware.SiteContext(r.sites))

	catalog := protected.Group("", middleware.CacheControl(middleware.CatalogConfig()))
	r.h.Sites.RegisterRoutes(catalog)
	r.h.Medications.RegisterRoutes(catalog)

	records := protected.Group("", middleware.CacheControl(middleware.NoStoreConfig()))
	r.h.Consultations.RegisterRoutes(records)
	r.h.Prescriptions.RegisterRoutes(records)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
