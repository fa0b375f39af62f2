package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used in identity helpers
	"strconv" // strconv converts path params to numeric ids

	"github.com/labstack/echo/v4" // echo defines request context types
)

// currentEmail extracts the authenticated email placed into the context
// by the JWT middleware.
func currentEmail(c echo.Context) (string, error) {
	if s, ok := c.Get("email").(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("missing email in context")
}

// currentRole extracts the server-asserted role from the context.  The
// role was fixed at login; handlers branch on it but never recompute it.
func currentRole(c echo.Context) (string, error) {
	if s, ok := c.Get("role").(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("missing role in context")
}

// pathID parses the named path parameter as an unsigned id.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
