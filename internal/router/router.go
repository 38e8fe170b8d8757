package router

import (
	"time"

	"github.com/gin-gonic/gin"

	adminHandler "github.com/jwalitptl/clinic-api/internal/handler/admin"
	diagnosisHandler "github.com/jwalitptl/clinic-api/internal/handler/diagnosis"
	doctorHandler "github.com/jwalitptl/clinic-api/internal/handler/doctor"
	healthHandler "github.com/jwalitptl/clinic-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	prometheusHandler "github.com/jwalitptl/clinic-api/internal/handler/prometheus"
	visitHandler "github.com/jwalitptl/clinic-api/internal/handler/visit"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Handlers groups every route owner mounted by the router.
type Handlers struct {
	Patient    *patientHandler.Handler
	Doctor     *doctorHandler.Handler
	Diagnosis  *diagnosisHandler.Handler
	Visit      *visitHandler.Handler
	Admin      *adminHandler.Handler
	Health     *healthHandler.Handler
	Prometheus *prometheusHandler.Handler
}

type RouterConfig struct {
	// Mode is a gin mode: debug, release or test.
	Mode string
	// RateLimit disables per-client limiting when nil.
	RateLimit      *middleware.RateLimiterConfig
	MaxBodyBytes   int64
	RequestTimeout time.Duration
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	handlers Handlers
	limiter  *middleware.RateLimiter
}

func NewRouter(auth *middleware.AuthMiddleware, handlers Handlers, m *metrics.Metrics, config RouterConfig) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	engine := gin.New()
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(m),
		middleware.ErrorHandler(),
		middleware.Recovery(),
	)
	if config.MaxBodyBytes > 0 {
		engine.Use(middleware.BodyLimit(config.MaxBodyBytes))
	}
	if config.RequestTimeout > 0 {
		engine.Use(middleware.Deadline(config.RequestTimeout))
	}

	r := &Router{
		engine:   engine,
		auth:     auth,
		handlers: handlers,
	}
	if config.RateLimit != nil {
		r.limiter = middleware.NewRateLimiter(*config.RateLimit)
	}
	r.setup()
	return r
}

func (r *Router) setup() {
	if r.handlers.Health != nil {
		r.handlers.Health.RegisterRoutes(r.engine)
	}
	if r.handlers.Prometheus != nil {
		r.engine.GET("/metrics", r.handlers.Prometheus.Handler())
	}

	api := r.engine.Group("/api/v1")
	api.Use(r.auth.Authenticate())
	if r.limiter != nil {
		api.Use(r.limiter.RateLimit())
	}

	staff := r.auth.RequireRole(model.RoleAdmin, model.RoleStaff)
	admin := r.auth.RequireRole(model.RoleAdmin)
	clinical := r.auth.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleDoctor)

	r.handlers.Patient.RegisterRoutes(api, staff)
	r.handlers.Doctor.RegisterRoutes(api, admin)
	r.handlers.Diagnosis.RegisterRoutes(api, clinical)
	r.handlers.Visit.RegisterRoutes(api)

	adminGroup := api.Group("/admin", admin)
	r.handlers.Admin.RegisterRoutes(adminGroup)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
