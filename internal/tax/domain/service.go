package domain

// Calculator applies an ordered list of tax components to a single amount.
type Calculator interface {
	Compute(mode TaxMode, amount int64, components []Component) (Result, error)
}
