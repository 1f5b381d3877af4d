package dashboard

import (
	"testing"
	"time"

	"clinic-backend/internal/models"

	"github.com/shopspring/decimal"
)

func TestChartWindow(t *testing.T) {
	now := time.Date(2025, 3, 14, 16, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		period, wantPeriod string
		count              int
		start, end         time.Time
	}{
		{"daily", "daily", 7, day(2025, 3, 8), day(2025, 3, 14)},
		{"weekly", "weekly", 2, day(2025, 3, 7), day(2025, 3, 14)},
		{"monthly", "monthly", 3, day(2025, 1, 1), day(2025, 3, 31)},
		{"hourly", "daily", 1, day(2025, 3, 14), day(2025, 3, 14)},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			period, start, end := chartWindow(tt.period, tt.count, now)
			if period != tt.wantPeriod || !start.Equal(tt.start) || !end.Equal(tt.end) {
				t.Errorf("chartWindow = %s [%v, %v], want %s [%v, %v]", period, start, end, tt.wantPeriod, tt.start, tt.end)
			}
		})
	}
}

func TestDefaultCount(t *testing.T) {
	if defaultCount("daily") != 7 || defaultCount("weekly") != 8 || defaultCount("monthly") != 12 || defaultCount("x") != 7 {
		t.Errorf("unexpected default counts")
	}
}

func TestBuildPoints(t *testing.T) {
	d := decimal.RequireFromString
	rows := []chartRow{
		{Bucket: "2025-03-02", SaleModel: "OPD", Total: d("50")},
		{Bucket: "2025-03-01", SaleModel: "Laboratory", Total: d("171")},
		{Bucket: "2025-03-01", SaleModel: "OPD", Total: d("29.5")},
	}

	points, branches, grand := buildPoints(rows)
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].Label != "2025-03-01" || points[1].Label != "2025-03-02" {
		t.Errorf("points out of order: %s, %s", points[0].Label, points[1].Label)
	}
	if !points[0].Total.Equal(d("200.5")) {
		t.Errorf("first bucket total = %s", points[0].Total)
	}
	if !points[0].Branches[models.BranchLaboratory].Equal(d("171")) {
		t.Errorf("laboratory share = %s", points[0].Branches[models.BranchLaboratory])
	}
	if !branches[models.BranchOPD].Equal(d("79.5")) {
		t.Errorf("OPD total = %s", branches[models.BranchOPD])
	}
	if !grand.Equal(d("250.5")) {
		t.Errorf("grand = %s", grand)
	}

	points, _, grand = buildPoints(nil)
	if len(points) != 0 || !grand.IsZero() {
		t.Errorf("empty input: %v %s", points, grand)
	}
}
