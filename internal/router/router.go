package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/patient-companion/internal/middleware"
	"github.com/jwalitptl/patient-companion/pkg/logger"
	"github.com/jwalitptl/patient-companion/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers groups route sets by who may call them.
type Handlers struct {
	Health Handler
	// Any authenticated user.
	Authenticated []Handler
	Patient       []Handler
	Doctor        []Handler
	Admin         []Handler
}

type RouterConfig struct {
	Mode        string
	ServiceName string // enables request tracing when set
	RateLimit   rate.Limit
	RateBurst   int
	CORSConfig  middleware.CORSConfig
	SizeLimit   middleware.SizeLimitConfig
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	limiter  *middleware.RateLimiter
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, log *logger.Logger, m *metrics.Metrics, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	if config.ServiceName != "" {
		engine.Use(otelgin.Middleware(config.ServiceName))
	}
	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log, m),
		middleware.ErrorHandler(log),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(config.CORSConfig),
		middleware.SizeLimit(config.SizeLimit),
	)

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}
	if config.RateLimit > 0 {
		r.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
	}
	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(api)
	}

	protected := api.Group("")
	protected.Use(r.auth.Authenticate(), middleware.NoStore())
	if r.limiter != nil {
		protected.Use(r.limiter.RateLimit())
	}
	register(protected, r.handlers.Authenticated)

	patient := protected.Group("")
	patient.Use(r.auth.RequireRole(middleware.RolePatient))
	register(patient, r.handlers.Patient)

	doctor := protected.Group("/doctors")
	doctor.Use(r.auth.RequireRole(middleware.RoleDoctor))
	register(doctor, r.handlers.Doctor)

	admin := protected.Group("")
	admin.Use(r.auth.RequireRole(middleware.RoleAdmin))
	register(admin, r.handlers.Admin)
}

func register(rg *gin.RouterGroup, handlers []Handler) {
	for _, h := range handlers {
		h.RegisterRoutes(rg)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
