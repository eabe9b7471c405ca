package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

// accountIDKey is the Locals key under which the verified account
// identifier is stored for downstream handlers.
const accountIDKey = "accountID"

// NewAuth returns a middleware that verifies the auth provider's session
// token (HS256 JWT from the Authorization header or the session cookie)
// and stores the opaque account identifier in the request context. The
// provider issues tokens for both password and OAuth sign-ins; this
// service only verifies them.
func NewAuth(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			raw = c.Cookies("session")
		}
		if raw == "" {
			return ErrorResponse(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Missing session token")
		}

		token, err := jwt.ParseWithClaims(raw, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			return ErrorResponse(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Invalid or expired session token")
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return ErrorResponse(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Session token has no subject")
		}

		c.Locals(accountIDKey, sub)
		return c.Next()
	}
}

// AccountID returns the verified account identifier set by NewAuth.
func AccountID(c fiber.Ctx) string {
	if id, ok := c.Locals(accountIDKey).(string); ok {
		return id
	}
	return ""
}

// NewAdminKey guards operator-only routes with a shared key header.
// An empty configured key disables the routes entirely.
func NewAdminKey(adminKey string) fiber.Handler {
	return func(c fiber.Ctx) error {
		if adminKey == "" || c.Get("X-Admin-Key") != adminKey {
			return ErrorResponse(c, fiber.StatusUnauthorized, "NOT_AUTHENTICATED", "Operator key required")
		}
		return c.Next()
	}
}

func bearerToken(c fiber.Ctx) string {
	h := c.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
