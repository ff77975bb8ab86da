package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/medibook-api/internal/middleware"
	"github.com/jwalitptl/medibook-api/internal/storage"
	"github.com/jwalitptl/medibook-api/pkg/metrics"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers are the route groups mounted under /api/v1, plus health which
// lives at the root.
type Handlers struct {
	Health      Handler
	Auth        Handler
	Doctor      Handler
	Review      Handler
	Patient     Handler
	Appointment Handler
	Booking     Handler
	Admin       Handler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	SecurityConfig   middleware.SecurityConfig
	SizeLimit        middleware.SizeLimitConfig
	RequestTimeout   time.Duration
	// MetricsPath is left empty to disable the scrape endpoint.
	MetricsPath string
	Gatherer    prometheus.Gatherer
	Photos      storage.PhotoStore
}

type Router struct {
	engine   *gin.Engine
	handlers Handlers
	config   RouterConfig
}

func NewRouter(handlers Handlers, config RouterConfig, m *metrics.Metrics) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		handlers: handlers,
		config:   config,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(config.SecurityConfig),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.RequestTimeout}),
		middleware.SizeLimit(config.SizeLimit),
		middleware.ErrorHandler(),
	)

	return r
}

func (r *Router) Setup() {
	r.handlers.Health.RegisterRoutes(&r.engine.RouterGroup)
	if r.config.MetricsPath != "" && r.config.Gatherer != nil {
		r.engine.GET(r.config.MetricsPath, gin.WrapH(promhttp.HandlerFor(r.config.Gatherer, promhttp.HandlerOpts{})))
	}
	if dir := storage.Dir(r.config.Photos); dir != "" {
		r.engine.Static(storage.URLPrefix, dir)
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	// Credential endpoints are limited per client IP.
	public := api.Group("")
	if r.config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  r.config.RateLimit,
			Burst: r.config.RateBurst,
		})
		public.Use(limiter.RateLimit())
	}
	r.handlers.Auth.RegisterRoutes(public)

	r.handlers.Doctor.RegisterRoutes(api)
	r.handlers.Review.RegisterRoutes(api)
	r.handlers.Patient.RegisterRoutes(api)
	r.handlers.Appointment.RegisterRoutes(api)
	r.handlers.Booking.RegisterRoutes(api)
	r.handlers.Admin.RegisterRoutes(api)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
