package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/health" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to
	// verify that the service is up and running.
	e.GET("/health", handler.Health)
}
