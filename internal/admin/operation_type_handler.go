package admin

import (
	"errors"
	"strings"

	"clinic-backend/internal/database"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OperationTypeRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	BranchModel string          `json:"branchModel"`
}

func (r *OperationTypeRequest) apply(ot *models.OperationType) error {
	branch := models.BranchModel(r.BranchModel)
	if branch != "" && !branch.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "unknown branch: "+r.BranchModel)
	}
	if err := checkPrice(r.Price); err != nil {
		return err
	}
	ot.Name = strings.TrimSpace(r.Name)
	ot.Price = r.Price
	ot.BranchModel = branch
	return nil
}

// ----------------------------------------
// OPERATION TYPES (price list)
// ----------------------------------------

// POST /api/admin/operation-types
func CreateOperationTypeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body OperationTypeRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		var ot models.OperationType
		if err := body.apply(&ot); err != nil {
			return err
		}
		if err := db.WithContext(c.UserContext()).Create(&ot).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not create operation type")
		}
		return c.Status(fiber.StatusCreated).JSON(ot)
	}
}

// GET /api/operation-types?branch_model=Laboratory
// Types without a branch are listed for every branch.
func ListOperationTypesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Order("name asc")
		if v := c.Query("branch_model"); v != "" {
			dbq = dbq.Where("branch_model = ? OR branch_model = ''", v)
		}

		types := make([]models.OperationType, 0)
		if err := dbq.Find(&types).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list operation types")
		}
		return c.JSON(types)
	}
}

// PUT /api/admin/operation-types/:id
func UpdateOperationTypeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParseUUID(c, "id")
		if err != nil {
			return err
		}

		ctxDB := db.WithContext(c.UserContext())
		var ot models.OperationType
		if err := ctxDB.First(&ot, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "OperationType not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load operation type")
		}

		var body OperationTypeRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}
		if err := body.apply(&ot); err != nil {
			return err
		}
		if err := ctxDB.Save(&ot).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update operation type")
		}
		return c.JSON(ot)
	}
}

// DELETE /api/admin/operation-types/:id
func DeleteOperationTypeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParseUUID(c, "id")
		if err != nil {
			return err
		}

		res := db.WithContext(c.UserContext()).Delete(&models.OperationType{}, "id = ?", id)
		if res.Error != nil {
			if database.IsForeignKeyViolation(res.Error) {
				return fiber.NewError(fiber.StatusConflict, "operation type is used by service records")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete operation type")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "OperationType not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
