// Package authtest provides stand-ins for the JWT middleware in handler tests.
package authtest

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/golang-jwt/jwt/v5"

	"github.com/klach-ocado/10x-aimondo/internal/auth"
)

// Owner authenticates every request as owner.
func Owner(owner string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(auth.LocalsKey, owner)
		return c.Next()
	}
}

// FromHeader authenticates requests as the value of header and rejects
// requests without it. Fiber reuses the request buffer once the handler
// returns, so the value is copied before it is stored.
func FromHeader(header string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := c.Get(header)
		if owner == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing "+header)
		}
		c.Locals(auth.LocalsKey, utils.CopyString(owner))
		return c.Next()
	}
}

// Token issues an HS256 token for owner that JWTMiddleware(secret) accepts.
func Token(secret, owner string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
