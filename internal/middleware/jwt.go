package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/coworking-booking/internal/utils"
)

// Context keys set by JWTAuth.
const (
    ctxUserID = "user_id" // uint64
    ctxRole   = "role"    // string
    ctxClaims = "claims"  // *utils.Claims
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the caller's ID and role into the request context.  The provided
// secret must match the one used when issuing tokens.  Handlers read the
// values back with UserID and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            // HMAC only; expiry, subject and role are required.
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }
            uid, err := claims.UserID()
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            c.Set(ctxUserID, uid)
            c.Set(ctxRole, claims.Role)
            c.Set(ctxClaims, claims)
            return next(c)
        }
    }
}
