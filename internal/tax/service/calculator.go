package service

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicekit/internal/tax/domain"
)

// Rounding is banker's rounding to whole minor units, applied once per component.
type calculator struct{}

func NewCalculator() domain.Calculator {
	return calculator{}
}

func (calculator) Compute(mode domain.TaxMode, amount int64, components []domain.Component) (domain.Result, error) {
	for _, c := range components {
		if err := c.Validate(); err != nil {
			return domain.Result{}, err
		}
	}

	switch mode {
	case domain.TaxModeExclusive:
		return computeTaxExclusive(amount, components), nil
	case domain.TaxModeInclusive:
		return computeTaxInclusive(amount, components)
	default:
		return domain.Result{}, domain.ErrInvalidTaxMode
	}
}

func computeTaxExclusive(base int64, components []domain.Component) domain.Result {
	baseDec := decimal.NewFromInt(base)
	applied := make([]domain.AppliedTax, len(components))

	var tax int64
	for i, c := range components {
		var part int64
		if c.IsPercentage {
			part = baseDec.Mul(decimal.NewFromFloat(c.Value)).RoundBank(0).IntPart()
		} else {
			part = fixedAmount(c)
		}
		applied[i] = domain.AppliedTax{Component: c, Amount: part}
		tax += part
	}

	return domain.Result{Amount: base + tax, Tax: tax, Applied: applied}
}

func computeTaxInclusive(gross int64, components []domain.Component) (domain.Result, error) {
	applied := make([]domain.AppliedTax, len(components))

	var fixed int64
	rateSum := decimal.Zero
	lastPct := -1
	for i, c := range components {
		applied[i] = domain.AppliedTax{Component: c}
		if c.IsPercentage {
			rateSum = rateSum.Add(decimal.NewFromFloat(c.Value))
			lastPct = i
			continue
		}
		applied[i].Amount = fixedAmount(c)
		fixed += applied[i].Amount
	}

	divisor := decimal.NewFromInt(1).Add(rateSum)
	if divisor.IsZero() {
		return domain.Result{}, domain.ErrInvalidTaxRate
	}

	net := decimal.NewFromInt(gross - fixed)
	portion := net.Sub(net.Div(divisor)).RoundBank(0).IntPart()

	if lastPct >= 0 && !rateSum.IsZero() {
		remaining := portion
		for i, c := range components {
			if !c.IsPercentage {
				continue
			}
			if i == lastPct {
				applied[i].Amount = remaining
				break
			}
			share := decimal.NewFromInt(portion).
				Mul(decimal.NewFromFloat(c.Value)).
				Div(rateSum).
				RoundBank(0).
				IntPart()
			applied[i].Amount = share
			remaining -= share
		}
	}

	return domain.Result{Amount: gross, Tax: fixed + portion, Applied: applied}, nil
}

func fixedAmount(c domain.Component) int64 {
	return decimal.NewFromFloat(c.Value).RoundBank(0).IntPart()
}
