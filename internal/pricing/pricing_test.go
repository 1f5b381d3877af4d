package pricing

import (
	"testing"

	"clinic-backend/internal/apperr"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeSplit(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		percentage string
		wantFinal  string
		wantCut    string
	}{
		{"zero percent", "100", "0", "100", "0"},
		{"ten percent", "200", "10", "180", "20"},
		{"full cut", "350", "100", "0", "350"},
		{"fractional", "99.99", "12.5", "87.49125", "12.49875"},
		{"zero base", "0", "40", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSplit(d(tt.base), d(tt.percentage))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.FinalAmount.Equal(d(tt.wantFinal)) {
				t.Errorf("FinalAmount = %s, want %s", got.FinalAmount, tt.wantFinal)
			}
			if !got.PercentageAmount.Equal(d(tt.wantCut)) {
				t.Errorf("PercentageAmount = %s, want %s", got.PercentageAmount, tt.wantCut)
			}
			if !got.FinalAmount.Add(got.PercentageAmount).Equal(d(tt.base)) {
				t.Error("split does not add back up to base")
			}
		})
	}
}

func TestComputeSplitRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		percentage string
	}{
		{"negative base", "-1", "10"},
		{"negative percentage", "100", "-0.5"},
		{"percentage above 100", "100", "100.01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeSplit(d(tt.base), d(tt.percentage))
			if !apperr.IsKind(err, apperr.KindInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestQuoteServiceDiscountAfterCut(t *testing.T) {
	tests := []struct {
		price, percentage, discount string
		wantCommission, wantTotal   string
	}{
		{"200", "10", "5", "20", "171"},
		{"100", "0", "0", "0", "100"},
		{"100", "0", "25", "0", "75"},
		{"1500", "35", "0", "525", "975"},
		{"80", "50", "50", "40", "20"},
		{"0", "20", "10", "0", "0"},
		{"450", "100", "10", "450", "0"},
		{"123.45", "7.5", "3", "9.26", "110.76"},
		{"99.99", "12.5", "3", "12.50", "84.87"},
		{"10.01", "33.33", "7", "3.34", "6.20"},
	}
	for _, tt := range tests {
		t.Run(tt.price+"/"+tt.percentage+"/"+tt.discount, func(t *testing.T) {
			price := d(tt.price)
			q, err := QuoteService(price, d(tt.percentage), d(tt.discount))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !q.Commission.Equal(d(tt.wantCommission)) {
				t.Errorf("Commission = %s, want %s", q.Commission, tt.wantCommission)
			}
			if !q.TotalAmount.Equal(d(tt.wantTotal)) {
				t.Errorf("TotalAmount = %s, want %s", q.TotalAmount, tt.wantTotal)
			}
			if q.TotalAmount.IsNegative() {
				t.Error("TotalAmount must not be negative")
			}
			if !q.Commission.Add(q.WriteOff).Add(q.TotalAmount).Equal(price) {
				t.Errorf("commission %s + write-off %s + total %s != price %s",
					q.Commission, q.WriteOff, q.TotalAmount, price)
			}
		})
	}
}

// Stored columns keep four places; quoted money must already fit in two so
// the response and the stored row agree.
func TestQuoteServiceRoundsToCents(t *testing.T) {
	q, err := QuoteService(d("99.99"), d("12.5"), d("3"))
	if err != nil {
		t.Fatal(err)
	}

	for name, v := range map[string]decimal.Decimal{
		"Commission":  q.Commission,
		"WriteOff":    q.WriteOff,
		"TotalAmount": q.TotalAmount,
	} {
		if !FitsPlaces(v, MoneyPlaces) {
			t.Errorf("%s = %s has more than %d decimal places", name, v, MoneyPlaces)
		}
		if !v.Equal(v.Round(4)) {
			t.Errorf("%s = %s would be altered by a decimal(20,4) column", name, v)
		}
	}
	if !q.Commission.Equal(d("12.5")) {
		t.Errorf("Commission = %s, want 12.50", q.Commission)
	}
	if !q.WriteOff.Equal(d("2.62")) {
		t.Errorf("WriteOff = %s, want 2.62", q.WriteOff)
	}
	if !q.TotalAmount.Equal(d("84.87")) {
		t.Errorf("TotalAmount = %s, want 84.87", q.TotalAmount)
	}
}

func TestFitsPlaces(t *testing.T) {
	tests := []struct {
		v      string
		places int32
		want   bool
	}{
		{"10", 0, true},
		{"10.5", 0, false},
		{"12.55", 2, true},
		{"12.550", 2, true},
		{"12.555", 2, false},
		{"-0.01", 2, true},
	}
	for _, tt := range tests {
		if got := FitsPlaces(d(tt.v), tt.places); got != tt.want {
			t.Errorf("FitsPlaces(%s, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}

func TestQuoteServiceScenario(t *testing.T) {
	q, err := QuoteService(d("200"), d("10"), d("5"))
	if err != nil {
		t.Fatal(err)
	}
	if !q.Commission.Equal(d("20")) {
		t.Errorf("Commission = %s, want 20", q.Commission)
	}
	if !q.TotalAmount.Equal(d("171")) {
		t.Errorf("TotalAmount = %s, want 171", q.TotalAmount)
	}
	if !q.Percentage.Equal(d("10")) || !q.Price.Equal(d("200")) {
		t.Error("quote must keep the original price and percentage")
	}
}

func TestQuoteServiceNoCommissionWithoutPercentage(t *testing.T) {
	q, err := QuoteService(d("100"), decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if !q.Commission.IsZero() {
		t.Errorf("Commission = %s, want 0", q.Commission)
	}
	if !q.TotalAmount.Equal(d("100")) {
		t.Errorf("TotalAmount = %s, want 100", q.TotalAmount)
	}
}

func TestQuoteServiceRejectsBadInput(t *testing.T) {
	tests := []struct {
		name                        string
		price, percentage, discount string
	}{
		{"discount above 100", "100", "10", "101"},
		{"negative discount", "100", "10", "-1"},
		{"negative percentage", "100", "-5", "0"},
		{"percentage above 100", "100", "120", "0"},
		{"negative price", "-10", "0", "0"},
		{"fractional discount", "100", "10", "2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := QuoteService(d(tt.price), d(tt.percentage), d(tt.discount))
			if !apperr.IsKind(err, apperr.KindInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}
