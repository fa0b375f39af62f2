package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/handler"    // admin handlers
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/middleware" // JWT + role middlewares
)

// RegisterAdmin registers admin-scoped endpoints under /admin.  All
// routes require a valid JWT whose role claim is "admin"; the gate runs
// before any handler, so an unauthorized call never reaches a mutation.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, p *handler.ProjectHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("admin"),
	)

	// ---- Client registry ----
	g.GET("/clients", a.ListClients)
	g.POST("/add-client", a.AddClient)
	g.PUT("/update-client/:id", a.UpdateClient)
	g.PATCH("/toggle-client/:id", a.ToggleClient)
	g.DELETE("/delete-client/:id", a.DeleteClient)

	// ---- Projects ----
	// Creating a project uploads the first report in the same call, so
	// it lives with the admin group rather than the shared portal group.
	g.POST("/create-project", p.CreateProject)
}
