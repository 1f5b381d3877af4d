package patient

import (
	"errors"
	"strings"

	"clinic-backend/internal/database"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreatePatientRequest struct {
	PatientID  string `json:"patientId" validate:"required,max=50"`
	Name       string `json:"name" validate:"required,max=100"`
	FatherName string `json:"fatherName" validate:"max=100"`
	Age        int    `json:"age" validate:"gte=0,lte=150"`
	Gender     string `json:"gender" validate:"omitempty,oneof=male female other"`
	Phone      string `json:"phone" validate:"max=50"`
	Address    string `json:"address" validate:"max=255"`
}

// POST /api/patients
func CreatePatientHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePatientRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}

		p := models.Patient{
			PatientID:  strings.TrimSpace(body.PatientID),
			Name:       strings.TrimSpace(body.Name),
			FatherName: strings.TrimSpace(body.FatherName),
			Age:        body.Age,
			Gender:     body.Gender,
			Phone:      strings.TrimSpace(body.Phone),
			Address:    strings.TrimSpace(body.Address),
		}
		if err := db.WithContext(c.UserContext()).Create(&p).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return fiber.NewError(fiber.StatusConflict, "a patient with this patientId already exists")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not create patient")
		}

		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GET /api/patients?search=ali&page=1&limit=20
func ListPatientsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Model(&models.Patient{})
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			like := "%" + s + "%"
			dbq = dbq.Where("name ILIKE ? OR patient_id ILIKE ? OR phone ILIKE ?", like, like, like)
		}
		dbq = dbq.Session(&gorm.Session{})

		page := httputil.Pagination(c)
		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not count patients")
		}

		patients := make([]models.Patient, 0)
		if err := dbq.Order("created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&patients).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list patients")
		}
		return c.JSON(httputil.Paginated(patients, total, page))
	}
}

// GET /api/patients/:patientId
func GetPatientHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p models.Patient
		err := db.WithContext(c.UserContext()).Where("patient_id = ?", c.Params("patientId")).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Patient not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not load patient")
		}
		return c.JSON(p)
	}
}
