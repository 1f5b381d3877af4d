package admin

import (
	"errors"
	"strings"

	"clinic-backend/internal/auth"
	"clinic-backend/internal/database"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const timestampLayout = "2006-01-02 15:04:05"

type UserResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Role      models.UserRole `json:"role"`
	CreatedAt string          `json:"created_at"`
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"max=50"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin doctor reception"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin doctor reception"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.Format(timestampLayout),
	}
}

func findUser(c *fiber.Ctx, db *gorm.DB) (*models.User, error) {
	id, err := httputil.ParseUUID(c, "id")
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := db.WithContext(c.UserContext()).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not load user")
	}
	return &u, nil
}

// ----------------------------------------
// USERS (doctors and staff)
// ----------------------------------------

// POST /api/admin/users
func CreateUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
		}

		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Email:        strings.ToLower(strings.TrimSpace(body.Email)),
			Phone:        strings.TrimSpace(body.Phone),
			PasswordHash: hash,
			Role:         models.UserRole(body.Role),
		}
		if err := db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "this email is already registered")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not create user")
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// GET /api/admin/users?role=doctor
func ListUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Order("name asc")
		if role := c.Query("role"); role != "" {
			if !models.UserRole(role).Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "invalid role")
			}
			dbq = dbq.Where("role = ?", role)
		}

		var users []models.User
		if err := dbq.Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list users")
		}

		res := make([]UserResponse, 0, len(users))
		for _, u := range users {
			res = append(res, toUserResponse(u))
		}
		return c.JSON(res)
	}
}

// GET /api/admin/users/:id
func GetUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := findUser(c, db)
		if err != nil {
			return err
		}
		return c.JSON(toUserResponse(*u))
	}
}

// PUT /api/admin/users/:id
func UpdateUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := findUser(c, db)
		if err != nil {
			return err
		}

		var body UpdateUserRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name must not be empty")
			}
			u.Name = name
		}
		if body.Phone != nil {
			u.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.Role != nil {
			u.Role = models.UserRole(*body.Role)
		}
		if body.Password != nil {
			hash, err := auth.HashPassword(*body.Password)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "could not hash password")
			}
			u.PasswordHash = hash
		}

		if err := db.WithContext(c.UserContext()).Save(u).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update user")
		}
		return c.JSON(toUserResponse(*u))
	}
}

// DELETE /api/admin/users/:id
// Service records keep their history with the doctor cleared; a doctor with
// payouts on record cannot be removed.
func DeleteUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := findUser(c, db)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if actor.ID == u.ID {
			return fiber.NewError(fiber.StatusBadRequest, "you cannot delete your own account")
		}

		if err := db.WithContext(c.UserContext()).Delete(u).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "user is still referenced by other records")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete user")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
