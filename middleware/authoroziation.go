package middleware

import (
	"errors"
	"strings"

	"zaivio-client/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const payloadKey = "user"

// ProtectedRoute requires a valid bearer access token. Missing, expired and
// refresh tokens all answer 401 so clients can renew and retry.
func ProtectedRoute(ctx *AppContext) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, accessToken, found := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || accessToken == "" {
			ctx.Logger.Debug("No bearer token provided in request", zap.String("path", c.Path()))
			return unauthorized(c, "Authentication required")
		}

		payload, err := ctx.PasetoMaker.VerifyToken(accessToken)
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				ctx.Logger.Debug("Expired access token", zap.String("path", c.Path()))
				return unauthorized(c, "Token expired")
			}
			ctx.Logger.Debug("Invalid access token encountered", zap.Error(err))
			return unauthorized(c, "Invalid token")
		}
		if payload.Subject.Kind != token.AccessKind {
			return unauthorized(c, "Invalid token")
		}

		c.Locals(payloadKey, payload)
		return c.Next()
	}
}

// AdminOnly must run after ProtectedRoute; isAdmin decides from the token's subject.
func AdminOnly(isAdmin func(token.Subject) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := Payload(c)
		if payload == nil || !isAdmin(payload.Subject) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status":  "error",
				"message": "You are not authorized to perform this action",
				"error":   fiber.Map{"code": fiber.StatusForbidden, "detail": "admin role required"},
			})
		}
		return c.Next()
	}
}

// Payload returns the verified token payload stored by ProtectedRoute.
func Payload(c *fiber.Ctx) *token.Payload {
	payload, _ := c.Locals(payloadKey).(*token.Payload)
	return payload
}

func unauthorized(c *fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status":  "error",
		"message": detail,
		"error":   fiber.Map{"code": fiber.StatusUnauthorized, "detail": detail},
	})
}
