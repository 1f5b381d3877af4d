// Package khata serves a doctor's commission ledger: the entries written by
// service records, the payouts made against them and the running balance.
package khata

import (
	"errors"
	"fmt"

	"clinic-backend/internal/audit"
	"clinic-backend/internal/auth"
	"clinic-backend/internal/database"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"
	"clinic-backend/internal/pricing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BalanceResponse struct {
	DoctorID    string          `json:"doctor_id"`
	DoctorName  string          `json:"doctor_name"`
	TotalEarned decimal.Decimal `json:"total_earned"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Balance     decimal.Decimal `json:"balance"`
}

type CreatePaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	Description string          `json:"description" validate:"max=255"`
}

// ComputeBalance is what the clinic still owes the doctor.
func ComputeBalance(earned, paid decimal.Decimal) decimal.Decimal {
	return earned.Sub(paid)
}

// resolveDoctor loads :doctorId. Doctors may only read their own ledger.
func resolveDoctor(c *fiber.Ctx, db *gorm.DB) (*models.User, error) {
	doctorID, err := httputil.ParseUUID(c, "doctorId")
	if err != nil {
		return nil, err
	}
	actor, err := auth.CurrentUser(c)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleDoctor && actor.ID != doctorID {
		return nil, fiber.NewError(fiber.StatusForbidden, "you can only view your own khata")
	}

	var doctor models.User
	if err := db.WithContext(c.UserContext()).First(&doctor, "id = ?", doctorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Doctor not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "could not load doctor")
	}
	if doctor.Role != models.RoleDoctor {
		return nil, fiber.NewError(fiber.StatusBadRequest, "user is not a doctor")
	}
	return &doctor, nil
}

// dateFilter applies optional ?from and ?to (inclusive) bounds.
func dateFilter(c *fiber.Ctx, q *gorm.DB) (*gorm.DB, error) {
	if v := c.Query("from"); v != "" {
		from, err := httputil.ParseDate(v)
		if err != nil {
			return nil, err
		}
		q = q.Where("date >= ?", from)
	}
	if v := c.Query("to"); v != "" {
		to, err := httputil.ParseDate(v)
		if err != nil {
			return nil, err
		}
		q = q.Where("date <= ?", to)
	}
	return q, nil
}

// GET /api/khata/:doctorId?from=2025-01-01&to=2025-01-31&branch_model=OPD&page=1
func ListEntriesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doctor, err := resolveDoctor(c, db)
		if err != nil {
			return err
		}

		dbq := db.WithContext(c.UserContext()).Model(&models.DoctorKhata{}).Where("doctor_id = ?", doctor.ID)
		if v := c.Query("branch_model"); v != "" {
			dbq = dbq.Where("branch_model = ?", v)
		}
		if dbq, err = dateFilter(c, dbq); err != nil {
			return err
		}
		dbq = dbq.Session(&gorm.Session{})

		page := httputil.Pagination(c)
		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not count khata entries")
		}
		entries := make([]models.DoctorKhata, 0)
		if err := dbq.Order("date DESC, created_at DESC").Offset(page.Offset).Limit(page.Limit).Find(&entries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list khata entries")
		}
		return c.JSON(httputil.Paginated(entries, total, page))
	}
}

// GET /api/khata/:doctorId/balance
func BalanceHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doctor, err := resolveDoctor(c, db)
		if err != nil {
			return err
		}
		ctxDB := db.WithContext(c.UserContext())

		earned, err := database.SumDecimal(
			ctxDB.Model(&models.DoctorKhata{}).Where("doctor_id = ? AND amount_type = ?", doctor.ID, models.KhataIncome),
			"amount")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not sum khata")
		}
		paid, err := database.SumDecimal(
			ctxDB.Model(&models.DoctorPayment{}).Where("doctor_id = ?", doctor.ID),
			"amount")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not sum payments")
		}

		return c.JSON(BalanceResponse{
			DoctorID:    doctor.ID.String(),
			DoctorName:  doctor.Name,
			TotalEarned: earned,
			TotalPaid:   paid,
			Balance:     ComputeBalance(earned, paid),
		})
	}
}

// POST /api/khata/:doctorId/payments
func CreatePaymentHandler(db *gorm.DB, audits audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePaymentRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}
		if !body.Amount.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "amount must be greater than 0")
		}
		if !pricing.FitsPlaces(body.Amount, pricing.MoneyPlaces) {
			return fiber.NewError(fiber.StatusBadRequest, "amount must have at most 2 decimal places")
		}
		date, err := httputil.ParseDate(body.Date)
		if err != nil {
			return err
		}

		doctor, err := resolveDoctor(c, db)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		p := models.DoctorPayment{
			ID:          uuid.New(),
			DoctorID:    doctor.ID,
			Amount:      body.Amount,
			Date:        date,
			Description: body.Description,
		}
		if err := db.WithContext(c.UserContext()).Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not record payment")
		}

		if err := audits.WriteLog(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  audit.EntityDoctorPayment,
			EntityID:    p.ID.String(),
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Payment of %s to %s", p.Amount.StringFixed(2), doctor.Name),
			After:       p,
		}); err != nil {
			log.Warn().Err(err).Str("payment_id", p.ID.String()).Msg("audit log not written")
		}

		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GET /api/khata/:doctorId/payments
func ListPaymentsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doctor, err := resolveDoctor(c, db)
		if err != nil {
			return err
		}

		dbq := db.WithContext(c.UserContext()).Model(&models.DoctorPayment{}).Where("doctor_id = ?", doctor.ID)
		if dbq, err = dateFilter(c, dbq); err != nil {
			return err
		}

		payments := make([]models.DoctorPayment, 0)
		if err := dbq.Order("date DESC, created_at DESC").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list payments")
		}
		return c.JSON(payments)
	}
}
