package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/handler"    // portal handlers
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/middleware" // JWT + role middlewares
)

// RegisterPortal registers the endpoints both roles share: project and
// report listings, follow-up uploads, downloads and comment threads.
// Scoping inside the handlers comes from the token claims, never from
// request parameters, so the same routes serve both dashboards.  The
// cache middleware fronts the two read-heavy listing routes; its key
// includes the bearer token, keeping admin and client entries apart.
func RegisterPortal(e *echo.Echo, p *handler.ProjectHandler, cm *handler.CommentHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("admin", "client"),
	)

	// ---- Projects & reports ----
	g.GET("/projects", p.ListProjects, cache)
	g.GET("/reports", p.ListReports, cache) // legacy flat list, kept for compatibility
	g.POST("/project/:id/add-report", p.AddReport)
	g.GET("/download/:reportId", p.Download)

	// ---- Comments ----
	g.GET("/comments/:reportId", cm.ListComments)
	g.POST("/comments/:reportId", cm.PostComment)
}
