package report

import (
	"encoding/json"
	"testing"
	"time"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/financial"
	"clinic-backend/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func TestPreviousMonth(t *testing.T) {
	tests := []struct {
		now         time.Time
		year, month int
	}{
		{time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC), 2025, 2},
		{time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC), 2024, 12},
		{time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC), 2024, 2},
	}
	for _, tt := range tests {
		y, m := previousMonth(tt.now)
		if y != tt.year || m != tt.month {
			t.Errorf("previousMonth(%v) = %d/%d, want %d/%d", tt.now, y, m, tt.year, tt.month)
		}
	}
}

func TestMonthBounds(t *testing.T) {
	start, end, err := monthBounds(2024, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) || !end.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("bounds = [%v, %v)", start, end)
	}

	for _, ym := range [][2]int{{1999, 5}, {2025, 0}, {2025, 13}} {
		if _, _, err := monthBounds(ym[0], ym[1]); !apperr.IsKind(err, apperr.KindInvalidArgument) {
			t.Errorf("monthBounds(%d, %d) error = %v", ym[0], ym[1], err)
		}
	}
}

func TestReportFromSummary(t *testing.T) {
	d := decimal.RequireFromString
	s := financial.Summary{
		Year:  2025,
		Month: 2,
		Income: financial.IncomeBlock{
			Items: []financial.BranchIncome{{Branch: models.BranchOPD, Total: d("900")}},
			Total: d("900"),
		},
		Commission: d("100"),
		Expenses:   financial.ExpenseBlock{Total: d("250")},
		NetProfit:  d("650"),
	}
	now := time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC)

	var r models.MonthlyReport
	if err := reportFromSummary(&r, s, now); err != nil {
		t.Fatalf("reportFromSummary: %v", err)
	}
	if r.Year != 2025 || r.Month != 2 || !r.ReportDate.Equal(now) {
		t.Errorf("period not copied: %+v", r)
	}
	if !r.TotalIncome.Equal(d("900")) || !r.TotalCommission.Equal(d("100")) ||
		!r.TotalExpenses.Equal(d("250")) || !r.NetProfit.Equal(d("650")) {
		t.Errorf("totals not copied: %+v", r)
	}

	var decoded financial.Summary
	if err := json.Unmarshal(r.ReportData, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if len(decoded.Income.Items) != 1 || decoded.Income.Items[0].Branch != models.BranchOPD {
		t.Errorf("payload income = %+v", decoded.Income)
	}
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := NewScheduler(nil, zerolog.Nop())
	if err := s.Start("not a cron line"); err == nil {
		t.Errorf("expected error for invalid schedule")
	}
}
