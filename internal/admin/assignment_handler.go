package admin

import (
	"errors"

	"clinic-backend/internal/database"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"
	"clinic-backend/internal/pricing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

type AssignmentResponse struct {
	ID          string             `json:"id"`
	DoctorID    string             `json:"doctor_id"`
	DoctorName  string             `json:"doctor_name"`
	BranchModel models.BranchModel `json:"branch_model"`
	Percentage  decimal.Decimal    `json:"percentage"`
	Price       decimal.Decimal    `json:"price"`
}

type CreateAssignmentRequest struct {
	DoctorID    string          `json:"doctorId" validate:"required,uuid"`
	BranchModel string          `json:"branchModel" validate:"required"`
	Percentage  decimal.Decimal `json:"percentage"`
	Price       decimal.Decimal `json:"price"`
}

type UpdateAssignmentRequest struct {
	Percentage *decimal.Decimal `json:"percentage"`
	Price      *decimal.Decimal `json:"price"`
}

func checkPercentage(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return fiber.NewError(fiber.StatusBadRequest, "percentage must be between 0 and 100")
	}
	if !pricing.FitsPlaces(p, pricing.MoneyPlaces) {
		return fiber.NewError(fiber.StatusBadRequest, "percentage must have at most 2 decimal places")
	}
	return nil
}

func checkPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "price must not be negative")
	}
	if !pricing.FitsPlaces(p, pricing.MoneyPlaces) {
		return fiber.NewError(fiber.StatusBadRequest, "price must have at most 2 decimal places")
	}
	return nil
}

func toAssignmentResponse(a models.DoctorBranchAssignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:          a.ID.String(),
		DoctorID:    a.DoctorID.String(),
		BranchModel: a.BranchModel,
		Percentage:  a.Percentage,
		Price:       a.Price,
	}
	if a.Doctor != nil {
		resp.DoctorName = a.Doctor.Name
	}
	return resp
}

// ----------------------------------------
// DOCTOR-BRANCH ASSIGNMENTS
// ----------------------------------------

// POST /api/admin/assignments
func CreateAssignmentHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateAssignmentRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}
		branch := models.BranchModel(body.BranchModel)
		if !branch.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown branch: "+body.BranchModel)
		}
		if err := checkPercentage(body.Percentage); err != nil {
			return err
		}
		if err := checkPrice(body.Price); err != nil {
			return err
		}

		ctxDB := db.WithContext(c.UserContext())
		var doctor models.User
		if err := ctxDB.First(&doctor, "id = ?", uuid.MustParse(body.DoctorID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Doctor not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load doctor")
		}
		if doctor.Role != models.RoleDoctor {
			return fiber.NewError(fiber.StatusBadRequest, "user is not a doctor")
		}

		a := models.DoctorBranchAssignment{
			DoctorID:    doctor.ID,
			BranchModel: branch,
			Percentage:  body.Percentage,
			Price:       body.Price,
		}
		if err := ctxDB.Create(&a).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "doctor is already assigned to this branch")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not create assignment")
		}
		a.Doctor = &doctor

		return c.Status(fiber.StatusCreated).JSON(toAssignmentResponse(a))
	}
}

// GET /api/admin/assignments?doctor_id=...&branch_model=Laboratory
func ListAssignmentsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Preload("Doctor").Order("branch_model asc")
		if v := c.Query("doctor_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid doctor_id")
			}
			dbq = dbq.Where("doctor_id = ?", id)
		}
		if v := c.Query("branch_model"); v != "" {
			dbq = dbq.Where("branch_model = ?", v)
		}

		var rows []models.DoctorBranchAssignment
		if err := dbq.Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list assignments")
		}

		res := make([]AssignmentResponse, 0, len(rows))
		for _, a := range rows {
			res = append(res, toAssignmentResponse(a))
		}
		return c.JSON(res)
	}
}

// PUT /api/admin/assignments/:id
// New percentages apply to records created afterwards; existing records keep
// their snapshot.
func UpdateAssignmentHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParseUUID(c, "id")
		if err != nil {
			return err
		}

		var body UpdateAssignmentRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		ctxDB := db.WithContext(c.UserContext())
		var a models.DoctorBranchAssignment
		if err := ctxDB.Preload("Doctor").First(&a, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Assignment not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load assignment")
		}

		if body.Percentage != nil {
			if err := checkPercentage(*body.Percentage); err != nil {
				return err
			}
			a.Percentage = *body.Percentage
		}
		if body.Price != nil {
			if err := checkPrice(*body.Price); err != nil {
				return err
			}
			a.Price = *body.Price
		}

		if err := ctxDB.Model(&a).Updates(map[string]any{
			"percentage": a.Percentage,
			"price":      a.Price,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not update assignment")
		}
		return c.JSON(toAssignmentResponse(a))
	}
}

// DELETE /api/admin/assignments/:id
func DeleteAssignmentHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParseUUID(c, "id")
		if err != nil {
			return err
		}

		res := db.WithContext(c.UserContext()).Delete(&models.DoctorBranchAssignment{}, "id = ?", id)
		if res.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not delete assignment")
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Assignment not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
