package financial

import (
	"fmt"
	"time"

	"clinic-backend/internal/database"
	"clinic-backend/internal/expense"
	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type IncomeResponse struct {
	ID             string             `json:"id"`
	SaleID         string             `json:"sale_id"`
	SaleModel      models.BranchModel `json:"sale_model"`
	Date           string             `json:"date"`
	TotalNetIncome decimal.Decimal    `json:"total_net_income"`
	Category       string             `json:"category"`
	Description    string             `json:"description"`
}

type BranchIncome struct {
	Branch models.BranchModel `json:"branch"`
	Total  decimal.Decimal    `json:"total"`
}

type IncomeBlock struct {
	Items []BranchIncome  `json:"items"`
	Total decimal.Decimal `json:"total"`
}

type ExpenseBlock struct {
	Items []expense.MonthlyExpenseSummaryItem `json:"items"`
	Total decimal.Decimal                     `json:"total"`
}

// Summary is a month's money picture. Income is already net of doctor
// commissions, so Commission is reported alongside and not subtracted again.
type Summary struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	Income     IncomeBlock     `json:"income"`
	Commission decimal.Decimal `json:"commission"`
	Expenses   ExpenseBlock    `json:"expenses"`
	NetProfit  decimal.Decimal `json:"net_profit"`
}

// Summarize computes the summary for [start, end).
func Summarize(db *gorm.DB, year, month int, start, end time.Time) (Summary, error) {
	s := Summary{Year: year, Month: month}

	incomeRows, err := database.SumByGroup(
		db.Model(&models.Income{}).Where("date >= ? AND date < ?", start, end),
		"sale_model", "total_net_income",
	)
	if err != nil {
		return s, fmt.Errorf("sum income: %w", err)
	}
	s.Income = IncomeBlock{Items: make([]BranchIncome, 0, len(incomeRows)), Total: decimal.Zero}
	for _, r := range incomeRows {
		s.Income.Items = append(s.Income.Items, BranchIncome{Branch: models.BranchModel(r.Bucket), Total: r.Total})
		s.Income.Total = s.Income.Total.Add(r.Total)
	}

	s.Commission, err = database.SumDecimal(
		db.Model(&models.DoctorKhata{}).Where("date >= ? AND date < ?", start, end),
		"amount",
	)
	if err != nil {
		return s, fmt.Errorf("sum commission: %w", err)
	}

	items, total, err := expense.MonthlyTotals(db, start, end)
	if err != nil {
		return s, fmt.Errorf("sum expenses: %w", err)
	}
	s.Expenses = ExpenseBlock{Items: items, Total: total}

	s.NetProfit = s.Income.Total.Sub(s.Expenses.Total)
	return s, nil
}

// -----------------------------------
// GET /api/financial-summary/monthly?year=2025&month=12
// -----------------------------------
func MonthlyFinancialSummaryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, month, start, end, err := httputil.MonthRange(c, time.Now())
		if err != nil {
			return err
		}

		s, err := Summarize(db.WithContext(c.UserContext()), year, month, start, end)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not compute financial summary")
		}
		return c.JSON(s)
	}
}

// -----------------------------------
// GET /api/incomes?from=&to=&sale_model=&category=&page=&limit=
// -----------------------------------
func ListIncomesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.WithContext(c.UserContext()).Model(&models.Income{})

		if v := c.Query("from"); v != "" {
			from, err := httputil.ParseDate(v)
			if err != nil {
				return err
			}
			dbq = dbq.Where("date >= ?", from)
		}
		if v := c.Query("to"); v != "" {
			to, err := httputil.ParseDate(v)
			if err != nil {
				return err
			}
			dbq = dbq.Where("date <= ?", to)
		}
		if v := c.Query("sale_model"); v != "" {
			if !models.BranchModel(v).Valid() {
				return fiber.NewError(fiber.StatusBadRequest, "invalid sale_model")
			}
			dbq = dbq.Where("sale_model = ?", v)
		}
		if v := c.Query("category"); v != "" {
			dbq = dbq.Where("category = ?", v)
		}
		dbq = dbq.Session(&gorm.Session{})

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not count incomes")
		}

		page := httputil.Pagination(c)
		var rows []models.Income
		if err := dbq.Order("date desc, created_at desc").Offset(page.Offset).Limit(page.Limit).Find(&rows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not list incomes")
		}

		resp := make([]IncomeResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, IncomeResponse{
				ID:             r.ID.String(),
				SaleID:         r.SaleID.String(),
				SaleModel:      r.SaleModel,
				Date:           r.Date.Format(httputil.DateLayout),
				TotalNetIncome: r.TotalNetIncome,
				Category:       r.Category,
				Description:    r.Description,
			})
		}
		return c.JSON(httputil.Paginated(resp, total, page))
	}
}
