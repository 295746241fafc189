package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any session lookup:
//   - profile_id must be non-empty; it is the key every session and every
//     per-user subscription hangs off, so a token without a subject is
//     structurally valid but operationally unusable — reject with 401.
//   - role must be non-empty (presence proves the middleware ran).
func ctxClaims(c echo.Context) (profileID, role string, err error) {
	profileID, _ = c.Get("profile_id").(string)
	if profileID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
	}

	role, _ = c.Get("role").(string)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	return profileID, role, nil
}
