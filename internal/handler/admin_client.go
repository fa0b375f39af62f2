package handler // handler package contains admin-only client registry handlers

import (
	"errors"   // errors matches repository sentinels
	"net/http" // http provides status code constants
	"strings"  // strings offers trimming utilities

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/model"      // model defines the client row struct
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/repository" // repository holds database access
	"github.com/labstack/echo/v4"                                     // echo is the web framework used for handlers
)

// AdminHandler bundles repositories for the client registry.  Every route
// that reaches these handlers has already passed the JWT and admin role
// middleware, so authorization failures are rejected before any mutation.
type AdminHandler struct {
	Clients *repository.ClientRepo // Clients provides client persistence
}

// NewAdminHandler constructs a new AdminHandler and panics if the
// dependency is nil.
func NewAdminHandler(clients *repository.ClientRepo) *AdminHandler {
	if clients == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Clients: clients}
}

// ListClients handles GET /admin/clients and returns all registered
// clients, newest first.
func (h *AdminHandler) ListClients(c echo.Context) error {
	items, err := h.Clients.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
	}
	if items == nil { // an empty registry serializes as [] rather than null
		items = []*model.Client{}
	}
	return c.JSON(http.StatusOK, items)
}

// AddClient handles POST /admin/add-client and registers a new allowed
// client with status active.
func (h *AdminHandler) AddClient(c echo.Context) error {
	var body struct {
		Email string `json:"email"` // Email is the only required field for a client
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email required"})
	}
	client, err := h.Clients.Create(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) { // duplicate email means the client already exists
			return c.JSON(http.StatusConflict, map[string]string{"error": "client already exists"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not add client"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Client " + email + " added successfully",
		"client":  client,
	})
}

// UpdateClient handles PUT /admin/update-client/:id and renames a client.
func (h *AdminHandler) UpdateClient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var body struct {
		Email string `json:"email"` // Email is the only updatable field
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email required"})
	}
	client, err := h.Clients.UpdateEmail(c.Request().Context(), id, email)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "client not found"})
		}
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "client already exists"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Client updated", "client": client})
}

// ToggleClient handles PATCH /admin/toggle-client/:id and flips the
// client between active and inactive.  Applying it twice restores the
// original status.
func (h *AdminHandler) ToggleClient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	client, err := h.Clients.ToggleStatus(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "toggle failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Client " + client.Email + " set to " + client.Status,
		"client":  client,
	})
}

// DeleteClient handles DELETE /admin/delete-client/:id.
func (h *AdminHandler) DeleteClient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.Clients.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrClientNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "client not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Client deleted"})
}
