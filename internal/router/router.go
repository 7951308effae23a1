package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework for routing
	"github.com/redis/go-redis/v9"

	"github.com/Devlipesilva17/studio-sub000/internal/config"
	"github.com/Devlipesilva17/studio-sub000/internal/handler"
	"github.com/Devlipesilva17/studio-sub000/internal/middleware"
)

// Handlers bundles every handler the router mounts.  main wires the concrete
// instances; the router only decides paths and middleware.
type Handlers struct {
	Auth      *handler.AuthHandler
	Clients   *handler.ClientHandler
	Pools     *handler.PoolHandler
	Visits    *handler.VisitHandler
	Products  *handler.ProductHandler
	Payments  *handler.PaymentHandler
	Recommend *handler.RecommendHandler
	Calendar  *handler.CalendarHandler
	Events    *handler.EventsHandler
}

// Register mounts all routes.  Three tiers: unauthenticated endpoints
// (health, auth, the OAuth callback Google's redirect hits without a token),
// then everything else under /v1 behind JWT auth, role enforcement and the
// rate limiter.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	// Session endpoints: no existing session required.
	a := e.Group("/v1/auth")
	a.POST("/register", h.Auth.Register)
	a.POST("/login", h.Auth.Login)
	a.POST("/refresh", h.Auth.Refresh)
	a.POST("/logout", h.Auth.Logout)

	// Google redirects the operator's browser here after consent; the
	// request carries no bearer token, attribution rides in the state param.
	e.GET("/oauth/google/callback", h.Calendar.Callback)

	// Protected surface.
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(cfg.JWTSecret))
	g.Use(middleware.RequireRole(handler.RoleOperator))
	g.Use(middleware.RateLimit(cfg, rdb))

	g.GET("/me", h.Auth.Me)
	g.POST("/auth/logout-all", h.Auth.LogoutAll)

	g.POST("/clients", h.Clients.Create)
	g.GET("/clients", h.Clients.List)
	g.GET("/clients/:id", h.Clients.Get)
	g.PUT("/clients/:id", h.Clients.Update)
	g.DELETE("/clients/:id", h.Clients.Delete)
	g.GET("/clients/:id/pools", h.Pools.ListByClient)
	g.POST("/clients/:id/pools", h.Pools.CreateUnderClient)
	g.GET("/clients/:id/payments", h.Payments.ListByClient)

	// One save endpoint resolves create vs update by the id in the body;
	// the RESTful forms below are equivalent.
	g.POST("/pools", h.Pools.Save)
	g.GET("/pools/:id", h.Pools.Get)
	g.PUT("/pools/:id", h.Pools.Update)
	g.DELETE("/pools/:id", h.Pools.Delete)
	g.GET("/pools/:id/visits", h.Visits.ListByPool)
	g.POST("/pools/:id/visits", h.Visits.CreateUnderPool)

	g.POST("/visits", h.Visits.Create)
	g.GET("/visits/:id", h.Visits.Get)
	g.PUT("/visits/:id", h.Visits.Reschedule)
	g.POST("/visits/:id/complete", h.Visits.Complete)
	g.PUT("/visits/:id/products", h.Visits.UpdateProducts)
	g.POST("/visits/:id/skip", h.Visits.Skip)
	g.POST("/visits/:id/calendar-sync", h.Calendar.SyncVisit)

	g.POST("/products", h.Products.Create)
	g.GET("/products", h.Products.List)
	g.GET("/products/:id", h.Products.Get)
	g.PUT("/products/:id", h.Products.Update)
	g.DELETE("/products/:id", h.Products.Delete)

	g.POST("/recommendations", h.Recommend.Recommend)

	g.GET("/calendar/connect", h.Calendar.Connect)
	g.GET("/calendar/status", h.Calendar.Status)
	g.DELETE("/calendar", h.Calendar.Disconnect)

	g.GET("/events", h.Events.Stream)
}
