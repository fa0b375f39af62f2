package handler

import (
	"context"      // provides context with cancellation for DB calls
	"errors"       // sentinel error comparisons
	"log"          // dev-mode OTP logging when no broker is configured
	"net/http"     // HTTP status codes and primitives
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/auth"       // token issuing, OTP store, hashing
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/config"     // app configuration
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/model"      // roles and table structs
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/queue"      // OTP email event payload
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/repository" // DB repositories
	queue_publisher "github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.  AdminHash is the
// bcrypt hash of the configured admin password, computed once at startup
// so every login attempt pays the same comparison cost.
type AuthHandler struct {
	Cfg       config.Config
	AdminHash string
	Clients   *repository.ClientRepo
	Tokens    *repository.TokenRepo
	OTP       *auth.OTPStore
}

func NewAuthHandler(cfg config.Config, adminHash string, clients *repository.ClientRepo, tokens *repository.TokenRepo, otp *auth.OTPStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, AdminHash: adminHash, Clients: clients, Tokens: tokens, OTP: otp}
}

// ----- DTOs -----

type emailReq struct {
	Email string `json:"email"`
}
type verifyOTPReq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}
type adminLoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type userPart struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type sessionResp struct {
	Message string    `json:"message"`
	User    userPart  `json:"user"`
	Token   string    `json:"token"` // access JWT, opaque to the caller
	Refresh tokenPart `json:"refresh"`
}

// issueSession mints the access/refresh pair for an identity whose role
// has already been decided server-side and persists the refresh hash.
func (h *AuthHandler) issueSession(ctx context.Context, message, email, role string) (sessionResp, error) {
	access, err := auth.NewAccessToken(h.Cfg.JWTSecret, email, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return sessionResp{}, err
	}
	refresh, err := auth.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return sessionResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, email, role, auth.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return sessionResp{}, err
	}
	return sessionResp{
		Message: message,
		User:    userPart{Email: email, Role: role},
		Token:   access.Token,
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	}, nil
}

// GenerateOTP handles POST /generate-otp.  Admin emails are pushed to the
// password flow; unknown and inactive clients are rejected here, at
// request time, so the verify endpoint can never leak whether a code was
// issued for an email.
func (h *AuthHandler) GenerateOTP(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	if h.Cfg.IsAdminEmail(email) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admins must login with password"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Only active registered clients may request a code.
	if _, err := h.Clients.GetActiveByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "email not registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	code, err := h.OTP.Issue(ctx, email)
	if err != nil {
		if errors.Is(err, auth.ErrOTPCooldown) {
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error": "please wait before requesting a new OTP",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue OTP"})
	}

	// Hand the code to the mail pipeline.  Without a broker (local dev)
	// the code goes to the server log, never into the response.
	if queue_publisher.BrokerConfigured() {
		ev := queue.OTPEmailEvent{
			Email:        email,
			Code:         code,
			ExpiresInMin: h.Cfg.OTPTTLMin,
			RequestedAt:  time.Now().UTC().Format(time.RFC3339),
		}
		if err := queue_publisher.PublishOTPEmail(ctx, ev); err != nil {
			// Nothing was delivered, so do not make the client sit out
			// the cooldown before retrying.
			_ = h.OTP.ReleaseCooldown(ctx, email)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send OTP"})
		}
	} else {
		log.Printf("[DEV] OTP for %s: %s", email, code)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent to " + email})
}

// VerifyOTP handles POST /verify-otp.  A wrong, expired or reused code
// yields the same rejection and never creates a session.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	code := strings.TrimSpace(req.OTP)
	if email == "" || code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and OTP required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.OTP.Verify(ctx, email, code); err != nil {
		if errors.Is(err, auth.ErrOTPInvalid) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired OTP"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
	}

	resp, err := h.issueSession(ctx, "Login successful", email, model.RoleClient)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// AdminLogin handles POST /admin-login.  Only configured admin emails may
// use it; the shared password is compared against the startup bcrypt hash.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req adminLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	if !h.Cfg.IsAdminEmail(email) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not an admin"})
	}
	if !auth.VerifyPassword(h.AdminHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp, err := h.issueSession(ctx, "Admin login successful", email, model.RoleAdmin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh handles POST /refresh: validate by hash, revoke old, issue new.
// The new session carries the role that was asserted at original login.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := auth.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	email, role, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	// The old token must be dead before a new one exists; otherwise a
	// failed revoke would leave two live refresh tokens for one session.
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}

	resp, err := h.issueSession(ctx, "Session refreshed", email, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout handles POST /logout.  A refresh token in the body revokes that
// single session; a valid bearer with no body token revokes every session
// for the identity.  Either way the caller's stored token becomes dead.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	refreshToken := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if refreshToken != "" {
		hash := auth.HashRefreshRaw(refreshToken)
		if _, _, err := h.Tokens.ValidateRefresh(ctx, hash); err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}

	// No body token: fall back to the authenticated identity, if any.
	if email, err := currentEmail(c); err == nil {
		if err := h.Tokens.RevokeAllForEmail(ctx, email); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
		}
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refresh_token"})
}

// Me is a simple protected endpoint echoing the server-asserted identity.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"email": c.Get("email"),
		"role":  c.Get("role"),
	})
}
