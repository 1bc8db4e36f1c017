package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/walkin-queue/internal/handler"    // queue handlers
	"github.com/iliyamo/walkin-queue/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/walkin-queue/internal/model"      // role constants
)

// RegisterQueues registers the staff-side queue endpoints under /v1.  All
// routes require a valid JWT and one of the operating roles; per-branch
// tenancy is enforced inside the handlers.
func RegisterQueues(e *echo.Echo, q *handler.QueueHandler, ops *handler.QueueOpsHandler, u *handler.UserHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleBusinessOwner, model.RoleBranchManager, model.RoleStaff),
	)

	// ---- Queue CRUD ----
	g.POST("/queues", q.Create)
	g.GET("/queues", q.List)
	g.GET("/queues/:id", q.Get)
	g.PUT("/queues/:id", q.Update)
	g.PATCH("/queues/:id", q.Update)
	g.DELETE("/queues/:id", q.Delete)

	// ---- Lifecycle ----
	g.POST("/queues/:id/activate", ops.Activate)
	g.POST("/queues/:id/pause", ops.Pause)
	g.POST("/queues/:id/resume", ops.Resume)
	g.POST("/queues/:id/deactivate", ops.Deactivate)

	// ---- Membership and ordering ----
	g.GET("/queues/:id/customers", ops.Members)
	g.POST("/queues/:id/customers", ops.AddCustomer)
	g.DELETE("/queues/:id/customers/:customerID", ops.RemoveCustomer)
	g.POST("/queues/:id/members/:memberID/move", ops.Move)

	// ---- Serving ----
	g.POST("/queues/:id/call-next", ops.CallNext)
	g.POST("/queues/:id/complete", ops.CompleteServing)

	// ---- Latecomers ----
	g.GET("/queues/:id/late", ops.LateCustomers)
	g.POST("/queues/:id/late", ops.MarkLate)
	g.POST("/queues/:id/reinsert", ops.Reinsert)

	// ---- Live state ----
	g.GET("/queues/:id/status", ops.Status)

	// Customer lookup used at the counter before adding a walk-in.
	g.GET("/users/search", u.Search)
}

// RegisterCustomer registers the customer-side queue endpoints.  Customers
// act on their own membership only.
func RegisterCustomer(e *echo.Echo, c *handler.CustomerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer),
	)
	g.POST("/queues/:id/join", c.Join)
	g.DELETE("/queues/:id/leave", c.Leave)
	g.GET("/queues/:id/my-status", c.MyStatus)
}
