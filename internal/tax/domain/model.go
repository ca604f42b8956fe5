package domain

import (
	"math"
	"strings"
)

// TaxMode represents whether a line amount already contains its tax.
type TaxMode string

const (
	TaxModeExclusive TaxMode = "exclusive" // amount + tax
	TaxModeInclusive TaxMode = "inclusive" // amount already includes tax
)

// Component is one named tax applied to a line.
// Value is a fraction (0.21 for 21%) when IsPercentage, otherwise a flat amount in minor units.
type Component struct {
	Name         string
	Value        float64
	IsPercentage bool
}

func Percentage(name string, rate float64) Component {
	return Component{Name: strings.TrimSpace(name), Value: rate, IsPercentage: true}
}

func Fixed(name string, amount int64) Component {
	return Component{Name: strings.TrimSpace(name), Value: float64(amount)}
}

func (c Component) Validate() error {
	if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) {
		if c.IsPercentage {
			return ErrInvalidTaxRate
		}
		return ErrInvalidTaxAmount
	}
	return nil
}

// AppliedTax is a component together with the minor units it contributed.
type AppliedTax struct {
	Component
	Amount int64
}

// Result is the outcome of applying taxes to one line.
// Amount is always tax-inclusive.
type Result struct {
	Amount  int64
	Tax     int64
	Applied []AppliedTax
}
