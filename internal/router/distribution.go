package router

import (
	"fmt"

	"orderRouter/internal/currency"
)

// AmountDistribution splits amount into 100/percent cumulative slices. Slice i carries
// percents[i] = (i+1)*percent and amounts[i] = amount*percents[i]/100; the two stay index-aligned.
func AmountDistribution(amount currency.CurrencyAmount, percent int) ([]int, []currency.CurrencyAmount, error) {
	if percent <= 0 || percent > 100 || 100%percent != 0 {
		return nil, nil, fmt.Errorf("distribution percent %d does not divide 100", percent)
	}
	n := 100 / percent
	percents := make([]int, 0, n)
	amounts := make([]currency.CurrencyAmount, 0, n)
	for i := 1; i <= n; i++ {
		pct := i * percent
		percents = append(percents, pct)
		amounts = append(amounts, amount.Multiply(currency.NewFractionInt(int64(pct), 100)))
	}
	return percents, amounts, nil
}
