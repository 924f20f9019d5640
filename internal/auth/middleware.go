// Package auth verifies bearer tokens issued by the identity provider and
// exposes the owner id they carry.
package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalsKey is the fiber locals key holding the owner id.
const LocalsKey = "user_id"

var ErrNoOwner = errors.New("token carries no owner id")

// Claims accepts the owner id either as a user_id claim or as the subject.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) owner() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// JWTMiddleware validates HS256 bearer tokens and stores the owner id in locals.
// Websocket upgrades may pass the token as access_token since browsers cannot
// set headers on them.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if token == "" && strings.EqualFold(c.Get("Upgrade"), "websocket") {
			token = c.Query("access_token")
		}
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		parsed, err := parseMiddlewareClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
			return secretBytes, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims, ok := parsed.Claims.(*Claims)
		if !ok || !parsed.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
		}
		owner := claims.owner()
		if owner == "" {
			return fiber.NewError(fiber.StatusUnauthorized, ErrNoOwner.Error())
		}

		c.Locals(LocalsKey, owner)
		return c.Next()
	}
}

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

// OwnerID returns the id stored by JWTMiddleware, or "" outside it.
func OwnerID(c *fiber.Ctx) string {
	owner, _ := c.Locals(LocalsKey).(string)
	return owner
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
