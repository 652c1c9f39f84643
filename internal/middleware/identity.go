package middleware

// identity.go holds the accessors for the caller identity that JWTAuth
// stores in the Echo context.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's ID.  ok is false on routes
// without JWTAuth.
func UserID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(ctxUserID).(uint64)
    return id, ok && id != 0
}

// Role returns the authenticated user's role, or "" when anonymous.
func Role(c echo.Context) string {
    r, _ := c.Get(ctxRole).(string)
    return r
}

// userKey identifies the caller for rate limiting; anonymous callers
// share the "anon" bucket of their IP.
func userKey(c echo.Context) string {
    if id, ok := UserID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "anon"
}
