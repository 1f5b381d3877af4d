package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/financial"
	"clinic-backend/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Generator freezes a month's financial summary into a MonthlyReport row.
// Ledger rows are left untouched.
type Generator struct {
	db     *gorm.DB
	logger zerolog.Logger
}

func NewGenerator(db *gorm.DB, logger zerolog.Logger) *Generator {
	return &Generator{db: db, logger: logger.With().Str("component", "report").Logger()}
}

func monthBounds(year, month int) (time.Time, time.Time, error) {
	if year < 2000 || month < 1 || month > 12 {
		return time.Time{}, time.Time{}, apperr.InvalidArgument("invalid year or month")
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

// reportFromSummary copies the totals of s into r and stores s as its payload.
func reportFromSummary(r *models.MonthlyReport, s financial.Summary, now time.Time) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	r.Year = s.Year
	r.Month = s.Month
	r.ReportDate = now
	r.TotalIncome = s.Income.Total
	r.TotalCommission = s.Commission
	r.TotalExpenses = s.Expenses.Total
	r.NetProfit = s.NetProfit
	r.ReportData = datatypes.JSON(payload)
	return nil
}

// Generate computes the report for year/month, replacing an earlier snapshot
// of the same month if there is one.
func (g *Generator) Generate(ctx context.Context, year, month int) (*models.MonthlyReport, error) {
	start, end, err := monthBounds(year, month)
	if err != nil {
		return nil, err
	}

	var report models.MonthlyReport
	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s, err := financial.Summarize(tx, year, month, start, end)
		if err != nil {
			return apperr.Internal("failed to compute monthly figures", err)
		}

		findErr := tx.Where("year = ? AND month = ?", year, month).First(&report).Error
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return apperr.Internal("failed to load monthly report", findErr)
		}
		if err := reportFromSummary(&report, s, time.Now().UTC()); err != nil {
			return apperr.Internal("failed to encode monthly report", err)
		}
		if err := tx.Save(&report).Error; err != nil {
			return apperr.Internal("failed to save monthly report", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info().
		Int("year", year).
		Int("month", month).
		Str("net_profit", report.NetProfit.StringFixed(2)).
		Msg("monthly report generated")
	return &report, nil
}
