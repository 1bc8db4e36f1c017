package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/walkin-queue/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/walkin-queue/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/walkin-queue/internal/model"      // role constants
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring poll this to verify the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Session bootstrap: register, login and token exchange need no JWT.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access only mints a new
	// access token and leaves the refresh token in place.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a bearer token (revoke all sessions) or a
	// refresh_token body (revoke one session), so no JWT middleware here.
	g.POST("/logout", a.Logout)

	// Any authenticated user can inspect their own session.
	auth := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleBusinessOwner, model.RoleBranchManager, model.RoleStaff, model.RoleCustomer),
	)
	auth.GET("/me", a.Me)

	// Alias kept for clients that call logout at the top level.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated discovery endpoints.  The
// business and branch listings change rarely and sit behind the Redis
// response cache; the queue listing is always served fresh because its
// is_active flag drives whether customers may join.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/businesses", p.ListBusinesses, cache)
	e.GET("/v1/businesses/:id/branches", p.ListBranches, cache)
	e.GET("/v1/branches/:id/queues", p.ListQueues)
}
