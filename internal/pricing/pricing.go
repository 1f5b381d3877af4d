// Package pricing computes doctor commission splits and patient discounts for
// branch services.
//
// ComputeSplit is exact. QuoteService produces stored money, so it rounds each
// step to MoneyPlaces (half away from zero): the commission is rounded first,
// then the discount is taken off what remains and rounded in turn. Given price,
// percentage and discount every stored figure can be re-derived with that rule,
// and commission + total + discounted amount always adds back up to price.
package pricing

import (
	"clinic-backend/internal/apperr"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places kept on stored amounts.
const MoneyPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// FitsPlaces reports whether v has at most places digits after the point.
func FitsPlaces(v decimal.Decimal, places int32) bool {
	return v.Equal(v.Truncate(places))
}

type Split struct {
	FinalAmount      decimal.Decimal
	PercentageAmount decimal.Decimal
}

// ComputeSplit takes percentage percent off base.
func ComputeSplit(base, percentage decimal.Decimal) (Split, error) {
	if base.IsNegative() {
		return Split{}, apperr.InvalidArgument("amount must not be negative")
	}
	if percentage.IsNegative() || percentage.GreaterThan(hundred) {
		return Split{}, apperr.InvalidArgument("percentage must be between 0 and 100")
	}

	cut := base.Mul(percentage).Div(hundred)
	return Split{
		FinalAmount:      base.Sub(cut),
		PercentageAmount: cut,
	}, nil
}

type Quote struct {
	Price       decimal.Decimal
	Percentage  decimal.Decimal
	Discount    decimal.Decimal
	Commission  decimal.Decimal
	WriteOff    decimal.Decimal
	TotalAmount decimal.Decimal
}

// QuoteService applies the doctor's cut to price and then the patient discount
// to what is left. The discounted portion is a write-off and does not reach the
// clinic's income. Discount is a whole percentage.
func QuoteService(price, doctorPercentage, discount decimal.Decimal) (Quote, error) {
	if price.IsNegative() {
		return Quote{}, apperr.InvalidArgument("amount must not be negative")
	}
	if discount.IsNegative() || discount.GreaterThan(hundred) {
		return Quote{}, apperr.InvalidArgument("discount must be between 0 and 100")
	}
	if !FitsPlaces(discount, 0) {
		return Quote{}, apperr.InvalidArgument("discount must be a whole number")
	}
	if doctorPercentage.IsNegative() || doctorPercentage.GreaterThan(hundred) {
		return Quote{}, apperr.InvalidArgument("percentage must be between 0 and 100")
	}

	q := Quote{
		Price:       price,
		Percentage:  doctorPercentage,
		Discount:    discount,
		Commission:  decimal.Zero,
		WriteOff:    decimal.Zero,
		TotalAmount: price,
	}

	if doctorPercentage.IsPositive() {
		split, err := ComputeSplit(q.TotalAmount, doctorPercentage)
		if err != nil {
			return Quote{}, err
		}
		q.Commission = split.PercentageAmount.Round(MoneyPlaces)
		q.TotalAmount = q.TotalAmount.Sub(q.Commission)
	}

	if discount.IsPositive() {
		split, err := ComputeSplit(q.TotalAmount, discount)
		if err != nil {
			return Quote{}, err
		}
		q.WriteOff = split.PercentageAmount.Round(MoneyPlaces)
		q.TotalAmount = q.TotalAmount.Sub(q.WriteOff)
	}

	return q, nil
}
