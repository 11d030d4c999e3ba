package service

import (
	"supermarket-pos/internal/model"

	"github.com/shopspring/decimal"
)

// vatRates is the fixed tax table; categories not listed are untaxed.
var vatRates = map[model.VATCategory]decimal.Decimal{
	model.VATStandard:  decimal.RequireFromString("0.18"),
	model.VATZeroRated: decimal.Zero,
	model.VATExempt:    decimal.Zero,
}

func VATRate(category model.VATCategory) decimal.Decimal {
	if rate, ok := vatRates[category]; ok {
		return rate
	}
	return decimal.Zero
}

// LineAmounts are the money snapshots stored on a sale item
type LineAmounts struct {
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	VATAmount  decimal.Decimal
}

// ComputeLine prices quantity units at unitPrice. VAT is rounded to the cent per line.
func ComputeLine(unitPrice decimal.Decimal, quantity int, category model.VATCategory) LineAmounts {
	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	return LineAmounts{
		UnitPrice:  unitPrice,
		TotalPrice: total,
		VATAmount:  total.Mul(VATRate(category)).Round(2),
	}
}
