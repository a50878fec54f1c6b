package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/latra/medicsystem-gta-backend/internal/handler/health"
	"github.com/latra/medicsystem-gta-backend/internal/handler/prometheus"
	"github.com/latra/medicsystem-gta-backend/internal/middleware"
)

// Handler is anything that wires its routes into a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler additionally exposes routes that skip authentication.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	RateLimit        rate.Limit
	RateBurst        int
	RateLimitEnabled bool
	CORSConfig       middleware.CORSConfig
}

type Router struct {
	engine *gin.Engine
}

// NewRouter assembles the HTTP surface. Health, metrics, registration
// and the system catalogs are public; everything else sits behind the
// authorization gate.
func NewRouter(
	auth *middleware.AuthMiddleware,
	userH PublicHandler,
	patientH Handler,
	visitH Handler,
	examH Handler,
	systemH Handler,
	healthH *health.Handler,
	metricsH *prometheus.Handler,
	config RouterConfig,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		metricsH.Middleware(),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	root := engine.Group("/")
	healthH.RegisterRoutes(root)
	engine.GET("/metrics", metricsH.Handler())

	public := engine.Group("/api/v1")
	userH.RegisterPublicRoutes(public)
	systemH.RegisterRoutes(public)

	protected := engine.Group("/api/v1")
	protected.Use(auth.Authenticate())
	userH.RegisterRoutes(protected)
	patientH.RegisterRoutes(protected)
	visitH.RegisterRoutes(protected)
	examH.RegisterRoutes(protected)

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
