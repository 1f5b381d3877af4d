package report

import (
	"encoding/json"
	"errors"
	"fmt"

	"clinic-backend/internal/audit"
	"clinic-backend/internal/auth"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const entityMonthlyReport = "monthly_report"

type CreateMonthlyReportRequest struct {
	Year  int `json:"year" validate:"required,min=2000"`
	Month int `json:"month" validate:"required,min=1,max=12"`
}

type MonthlyReportResponse struct {
	ID              string          `json:"id"`
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	ReportDate      string          `json:"report_date"`
	TotalIncome     decimal.Decimal `json:"total_income"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	TotalExpenses   decimal.Decimal `json:"total_expenses"`
	NetProfit       decimal.Decimal `json:"net_profit"`
	CreatedAt       string          `json:"created_at"`
}

type MonthlyReportDetailResponse struct {
	MonthlyReportResponse
	ReportData json.RawMessage `json:"report_data"`
}

const timestampLayout = "2006-01-02 15:04:05"

func toResponse(r models.MonthlyReport) MonthlyReportResponse {
	return MonthlyReportResponse{
		ID:              r.ID.String(),
		Year:            r.Year,
		Month:           r.Month,
		ReportDate:      r.ReportDate.Format(timestampLayout),
		TotalIncome:     r.TotalIncome,
		TotalCommission: r.TotalCommission,
		TotalExpenses:   r.TotalExpenses,
		NetProfit:       r.NetProfit,
		CreatedAt:       r.CreatedAt.Format(timestampLayout),
	}
}

// POST /api/admin/monthly-reports
func CreateMonthlyReportHandler(gen *Generator, audits audit.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMonthlyReportRequest
		if err := httputil.ParseBody(c, &body); err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		report, err := gen.Generate(c.UserContext(), body.Year, body.Month)
		if err != nil {
			return err
		}

		if err := audits.WriteLog(c.UserContext(), audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  entityMonthlyReport,
			EntityID:    report.ID.String(),
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Monthly report generated: %02d/%d", body.Month, body.Year),
			After:       toResponse(*report),
		}); err != nil {
			log.Warn().Err(err).Str("report_id", report.ID.String()).Msg("audit log not written")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(*report))
	}
}

// GET /api/admin/monthly-reports
func ListMonthlyReportsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var reports []models.MonthlyReport
		if err := db.WithContext(c.UserContext()).
			Order("year DESC, month DESC").
			Find(&reports).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list reports")
		}

		resp := make([]MonthlyReportResponse, 0, len(reports))
		for _, r := range reports {
			resp = append(resp, toResponse(r))
		}
		return c.JSON(resp)
	}
}

// GET /api/admin/monthly-reports/:id
func GetMonthlyReportHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httputil.ParseUUID(c, "id")
		if err != nil {
			return err
		}

		var report models.MonthlyReport
		if err := db.WithContext(c.UserContext()).First(&report, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Report not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "could not load report")
		}

		data := json.RawMessage(report.ReportData)
		if len(data) == 0 {
			data = json.RawMessage("{}")
		}
		return c.JSON(MonthlyReportDetailResponse{
			MonthlyReportResponse: toResponse(report),
			ReportData:            data,
		})
	}
}
