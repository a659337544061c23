// Package middleware provides authentication, logging, rate limiting
// and metrics middleware for the application.
package middleware

import (
	"strconv"
	"strings"

	"ripple/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// parseViewerID extracts the authenticated user id from a Bearer token.
// The token carries the id in the "sub" claim (RFC 7519). Credential
// issuance lives in the external auth collaborator; this service only
// verifies.
func parseViewerID(c *fiber.Ctx) (uint, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Authorization header required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid token subject")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}
	return uint(userID), nil
}

// AuthRequired enforces authentication and stores the viewer id in
// c.Locals("userID").
func AuthRequired(c *fiber.Ctx) error {
	userID, err := parseViewerID(c)
	if err != nil {
		var fe *fiber.Error
		if e, ok := err.(*fiber.Error); ok {
			fe = e
		} else {
			fe = fiber.ErrUnauthorized
		}
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	c.Locals("userID", userID)
	return c.Next()
}

// OptionalAuth resolves the viewer id when a valid token is present and
// proceeds anonymously otherwise. Reads that vary by viewer (liked,
// bookmarked flags) use this.
func OptionalAuth(c *fiber.Ctx) error {
	if userID, err := parseViewerID(c); err == nil {
		c.Locals("userID", userID)
	}
	return c.Next()
}
