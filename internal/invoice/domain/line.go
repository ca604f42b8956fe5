package domain

import (
	"errors"
	"slices"

	"github.com/google/uuid"
	taxdomain "github.com/smallbiznis/invoicekit/internal/tax/domain"
	"gorm.io/datatypes"
)

// Line is the request to append one line item to a document. It is a value:
// every option returns a modified copy and the caller's Line is untouched.
//
//	line := domain.NewLine(ref, 100, "Consulting").
//		WithTaxPercentage("VAT", 0.21).
//		Free()
type Line struct {
	related       RelatedRef
	amount        int64
	description   string
	taxes         []taxdomain.Component
	discount      int64
	free          bool
	complimentary bool
}

func NewLine(related RelatedRef, amount int64, description string) Line {
	return Line{related: related, amount: amount, description: description}
}

// WithTaxPercentage adds a percentage tax. rate is a fraction: 0.21 for 21%.
func (l Line) WithTaxPercentage(name string, rate float64) Line {
	l.taxes = append(slices.Clone(l.taxes), taxdomain.Percentage(name, rate))
	return l
}

// WithTaxAmount adds a flat tax in minor units.
func (l Line) WithTaxAmount(name string, amount int64) Line {
	l.taxes = append(slices.Clone(l.taxes), taxdomain.Fixed(name, amount))
	return l
}

// WithDiscount sets an explicit discount counted in the document discount.
func (l Line) WithDiscount(amount int64) Line {
	l.discount = amount
	return l
}

// Free marks the line as fully discounted. It clears Complimentary.
func (l Line) Free() Line {
	l.free = true
	l.complimentary = false
	return l
}

// Complimentary marks the line as complimentary. It clears Free.
func (l Line) Complimentary() Line {
	l.complimentary = true
	l.free = false
	return l
}

func (l Line) Related() RelatedRef { return l.related }

func (l Line) Amount() int64 { return l.amount }

func (l Line) Description() string { return l.description }

func (l Line) Taxes() []taxdomain.Component { return slices.Clone(l.taxes) }

func (l Line) Discount() int64 { return l.discount }

func (l Line) IsFree() bool { return l.free }

func (l Line) IsComplimentary() bool { return l.complimentary }

func (l Line) Validate() error {
	if err := l.related.Validate(); err != nil {
		return err
	}
	for _, c := range l.taxes {
		if err := c.Validate(); err != nil {
			return TaxError(err)
		}
	}
	return nil
}

// Build turns the request into a persisted line using the computed tax result.
func (l Line) Build(id, documentID uuid.UUID, position int, res taxdomain.Result) LineItem {
	details := make([]TaxDetail, 0, len(res.Applied))
	for _, a := range res.Applied {
		details = append(details, TaxDetail{
			Name:         a.Name,
			Value:        a.Value,
			IsPercentage: a.IsPercentage,
			Amount:       a.Amount,
		})
	}
	return LineItem{
		ID:              id,
		DocumentID:      documentID,
		Position:        position,
		Amount:          res.Amount,
		Tax:             res.Tax,
		TaxDetails:      datatypes.JSONSlice[TaxDetail](details),
		Discount:        l.discount,
		Description:     l.description,
		IsFree:          l.free,
		IsComplimentary: l.complimentary,
		Related:         l.related,
	}
}

// TaxError maps a tax calculation error onto the validation class.
func TaxError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, taxdomain.ErrInvalidTaxRate):
		return ErrInvalidTaxRate
	case errors.Is(err, taxdomain.ErrInvalidTaxAmount):
		return ErrInvalidTaxAmount
	default:
		return errors.Join(ErrValidation, err)
	}
}
