// Package handler contains the HTTP handlers binding the API surface to the
// repositories and domain logic.
package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

var errNoUser = errors.New("no authenticated user in context")

// getUserID extracts the authenticated operator id injected by the JWT
// middleware.  JWT numeric claims decode as float64; string subjects are
// parsed for robustness.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v), nil
	case uint64:
		return v, nil
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return id, nil
		}
	}
	return 0, errNoUser
}

// pathID parses a numeric :id (or other named) path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
