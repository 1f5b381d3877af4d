package auth

import (
	"errors"
	"strings"

	"clinic-backend/internal/config"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterAdminRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  models.UserRole `json:"role"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID.String(), Name: u.Name, Email: u.Email, Role: u.Role}
}

// HashPassword is shared with the admin user handlers.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// POST /api/auth/register-admin
// Only works while no admin exists.
func RegisterAdminHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var count int64
		if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not check existing admins")
		}
		if count > 0 {
			return fiber.NewError(fiber.StatusForbidden, "an admin already exists")
		}

		hash, err := HashPassword(body.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Email:        body.Email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		}
		if err := db.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create user")
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(&user))
	}
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))

		var user models.User
		if err := db.Where("email = ?", body.Email).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load user")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid email or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create token")
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(&user),
		})
	}
}

// GET /api/auth/me
func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := CurrentUser(c)
		if err != nil {
			return err
		}

		var user models.User
		if err := db.First(&user, "id = ?", actor.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "user not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load user")
		}
		return c.JSON(toUserResponse(&user))
	}
}
