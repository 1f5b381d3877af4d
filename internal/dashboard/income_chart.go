package dashboard

import (
	"sort"
	"strconv"
	"time"

	"clinic-backend/internal/httputil"
	"clinic-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type IncomeChartPoint struct {
	Label    string                                 `json:"label"` // bucket start date
	Branches map[models.BranchModel]decimal.Decimal `json:"branches"`
	Total    decimal.Decimal                        `json:"total"`
}

type IncomeChartResponse struct {
	Period      string                                 `json:"period"` // daily | weekly | monthly
	From        string                                 `json:"from"`
	To          string                                 `json:"to"`
	Points      []IncomeChartPoint                     `json:"points"`
	BranchTotal map[models.BranchModel]decimal.Decimal `json:"branch_totals"`
	GrandTotal  decimal.Decimal                        `json:"grand_total"`
}

type chartRow struct {
	Bucket    string          `gorm:"column:bucket"`
	SaleModel string          `gorm:"column:sale_model"`
	Total     decimal.Decimal `gorm:"column:total"`
}

// chartWindow returns the inclusive [start, end] day range for count buckets
// of period ending today. Unknown periods fall back to daily.
func chartWindow(period string, count int, now time.Time) (string, time.Time, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case "weekly":
		return period, today.AddDate(0, 0, -7*(count-1)), today
	case "monthly":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return period, first.AddDate(0, -(count - 1), 0), first.AddDate(0, 1, -1)
	default:
		return "daily", today.AddDate(0, 0, -(count - 1)), today
	}
}

func defaultCount(period string) int {
	switch period {
	case "weekly":
		return 8
	case "monthly":
		return 12
	default:
		return 7
	}
}

func bucketExpr(period string) string {
	switch period {
	case "weekly":
		return "to_char(date_trunc('week', date), 'YYYY-MM-DD')"
	case "monthly":
		return "to_char(date_trunc('month', date), 'YYYY-MM-DD')"
	default:
		return "to_char(date, 'YYYY-MM-DD')"
	}
}

// buildPoints folds (bucket, branch, total) rows into ordered chart points.
func buildPoints(rows []chartRow) ([]IncomeChartPoint, map[models.BranchModel]decimal.Decimal, decimal.Decimal) {
	byBucket := make(map[string]*IncomeChartPoint)
	branchTotals := make(map[models.BranchModel]decimal.Decimal)
	grand := decimal.Zero

	for _, r := range rows {
		p, ok := byBucket[r.Bucket]
		if !ok {
			p = &IncomeChartPoint{Label: r.Bucket, Branches: map[models.BranchModel]decimal.Decimal{}, Total: decimal.Zero}
			byBucket[r.Bucket] = p
		}
		b := models.BranchModel(r.SaleModel)
		p.Branches[b] = p.Branches[b].Add(r.Total)
		p.Total = p.Total.Add(r.Total)
		branchTotals[b] = branchTotals[b].Add(r.Total)
		grand = grand.Add(r.Total)
	}

	points := make([]IncomeChartPoint, 0, len(byBucket))
	for _, p := range byBucket {
		points = append(points, *p)
	}
	// YYYY-MM-DD labels sort chronologically.
	sort.Slice(points, func(i, j int) bool { return points[i].Label < points[j].Label })
	return points, branchTotals, grand
}

// GET /api/dashboard/income-chart?period=daily&count=7
func IncomeChartHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", "daily")
		count := defaultCount(period)
		if v := c.Query("count"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 || n > 366 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid count")
			}
			count = n
		}

		period, start, end := chartWindow(period, count, time.Now())
		expr := bucketExpr(period)

		var rows []chartRow
		err := db.WithContext(c.UserContext()).
			Model(&models.Income{}).
			Select(expr+" AS bucket, sale_model, COALESCE(SUM(total_net_income), 0) AS total").
			Where("date >= ? AND date <= ?", start, end).
			Group(expr + ", sale_model").
			Scan(&rows).Error
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not aggregate income")
		}

		points, branchTotals, grand := buildPoints(rows)
		return c.JSON(IncomeChartResponse{
			Period:      period,
			From:        start.Format(httputil.DateLayout),
			To:          end.Format(httputil.DateLayout),
			Points:      points,
			BranchTotal: branchTotals,
			GrandTotal:  grand,
		})
	}
}
