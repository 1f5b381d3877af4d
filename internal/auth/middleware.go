package auth

import (
	"strings"

	"clinic-backend/internal/config"
	"clinic-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
	CtxUserNameKey = "user_name"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxUserNameKey, claims.Name)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "role not available")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "you are not allowed to do this")
	}
}

// Actor is the authenticated user as seen by the handlers.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role models.UserRole
}

// CurrentUser reads the actor stored by JWTMiddleware.
func CurrentUser(c *fiber.Ctx) (Actor, error) {
	id, ok := c.Locals(CtxUserIDKey).(uuid.UUID)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "user not available")
	}
	role, _ := c.Locals(CtxUserRoleKey).(models.UserRole)
	name, _ := c.Locals(CtxUserNameKey).(string)
	return Actor{ID: id, Name: name, Role: role}, nil
}
