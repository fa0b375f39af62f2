package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/handler"    // auth handlers
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/middleware" // JWT + role middlewares
)

// RegisterAuth registers the two login flows and the session endpoints.
// The unauthenticated group carries the Redis token bucket so the OTP
// challenge route cannot be used to enumerate client emails.  Protected
// session endpoints (me, logout-all) live behind JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	// Login endpoints match the paths the dashboard has always called:
	// OTP challenge/response for clients, password login for admins.
	g := e.Group("", limit)
	// Request a one-time code for a registered, active client email.
	g.POST("/generate-otp", a.GenerateOTP)
	// Exchange a pending code for a client session.
	g.POST("/verify-otp", a.VerifyOTP)
	// Password login for configured admin emails.
	g.POST("/admin-login", a.AdminLogin)
	// Rotate a refresh token into a fresh session pair.
	g.POST("/refresh", a.Refresh)
	// Logout with a refresh token in the body does not require a JWT;
	// the token itself proves ownership of the session being closed.
	g.POST("/logout", a.Logout)

	// Protected session endpoints live behind the JWT middleware.  Both
	// roles are accepted; RequireRole still rejects tokens carrying a
	// missing or unknown role claim.
	auth := e.Group("", middleware.JWTAuth(jwtSecret), middleware.RequireRole("admin", "client"))
	// Echo the server-asserted identity for a valid bearer token.
	auth.GET("/me", a.Me)
	// Logout without a body token revokes every session for the bearer.
	auth.POST("/logout-all", a.Logout)
}
