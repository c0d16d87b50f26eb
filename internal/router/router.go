package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	auditHandler "github.com/opticheck/screening-api/internal/handler/audit"
	authHandler "github.com/opticheck/screening-api/internal/handler/auth"
	healthHandler "github.com/opticheck/screening-api/internal/handler/health"
	patientHandler "github.com/opticheck/screening-api/internal/handler/patient"
	promHandler "github.com/opticheck/screening-api/internal/handler/prometheus"
	screeningHandler "github.com/opticheck/screening-api/internal/handler/screening"
	userHandler "github.com/opticheck/screening-api/internal/handler/user"
	"github.com/opticheck/screening-api/internal/middleware"
	"github.com/opticheck/screening-api/pkg/authz"
)

type Config struct {
	RateLimitRPS   float64
	RateLimitBurst int
	CORS           middleware.CORSConfig
}

type Handlers struct {
	Auth      *authHandler.Handler
	Patient   *patientHandler.Handler
	Screening *screeningHandler.Handler
	Audit     *auditHandler.Handler
	User      *userHandler.Handler
	Health    *healthHandler.Handler
	Metrics   *promHandler.Handler
}

type Router struct {
	engine      *gin.Engine
	rateLimiter *middleware.RateLimiter
}

// New assembles the middleware chain and the route tree. Destructive
// and administrative routes sit behind RequireCapability so their role
// checks all read the same capability matrix.
func New(h Handlers, authMW *middleware.AuthMiddleware, cfg Config, log zerolog.Logger) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(cfg.CORS),
		rateLimiter.RateLimit(),
		h.Metrics.Middleware(),
	)

	h.Health.RegisterRoutes(engine)
	engine.GET("/metrics", h.Metrics.Handler())

	api := engine.Group("/api/v1")

	// Public surface: credential exchange only.
	h.Auth.RegisterRoutes(api)

	// Everything else requires a verified access token.
	protected := api.Group("", authMW.Authenticate())
	h.Patient.RegisterRoutes(protected)
	h.Screening.RegisterRoutes(protected)

	// Capability-gated groups. Each gate consults authz.Can with its
	// action; no route carries a role list of its own.
	patientDelete := api.Group("", authMW.Authenticate(), authMW.RequireCapability(authz.ActionDeletePatient))
	h.Patient.RegisterDeleteRoute(patientDelete)

	screeningDelete := api.Group("", authMW.Authenticate(), authMW.RequireCapability(authz.ActionDeleteScreening))
	h.Screening.RegisterDeleteRoute(screeningDelete)

	userAdmin := api.Group("", authMW.Authenticate(), authMW.RequireCapability(authz.ActionManageUsers))
	h.User.RegisterRoutes(userAdmin)

	auditView := api.Group("", authMW.Authenticate(), authMW.RequireCapability(authz.ActionViewAuditLog))
	h.Audit.RegisterRoutes(auditView)

	return &Router{engine: engine, rateLimiter: rateLimiter}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Stop releases background resources held by the middleware chain.
func (r *Router) Stop() {
	r.rateLimiter.Stop()
}
