package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/walkin-queue/internal/handler"    // owner handlers
	"github.com/iliyamo/walkin-queue/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/walkin-queue/internal/model"      // role constants
)

// RegisterOwner registers the business and branch management endpoints.
// Only business owners may shape the tenancy tree.
func RegisterOwner(e *echo.Echo, o *handler.BranchHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleBusinessOwner),
	)

	// ---- Business ----
	g.POST("/business", o.CreateBusiness)
	g.GET("/business", o.MyBusiness)

	// ---- Branches ----
	g.POST("/branches", o.CreateBranch)
	g.GET("/branches", o.ListBranches)
	g.PUT("/branches/:id", o.UpdateBranch)
	g.PATCH("/branches/:id", o.UpdateBranch)
	g.DELETE("/branches/:id", o.DeleteBranch)

	// ---- Staffing ----
	g.POST("/branches/:id/staff", o.AssignStaff)
}
