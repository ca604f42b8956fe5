package domain

import (
	"errors"
	"fmt"
)

// Error classes. Specific errors wrap exactly one class so callers can
// branch with errors.Is on either.
var (
	ErrValidation          = errors.New("validation_error")
	ErrNotFound            = errors.New("not_found")
	ErrPersistence         = errors.New("persistence_error")
	ErrReferenceGeneration = errors.New("reference_generation_error")
	ErrRendering           = errors.New("rendering_error")
)

var (
	ErrInvalidTaxRate     = fmt.Errorf("%w: invalid_tax_rate", ErrValidation)
	ErrInvalidTaxAmount   = fmt.Errorf("%w: invalid_tax_amount", ErrValidation)
	ErrInvalidDocumentID  = fmt.Errorf("%w: invalid_document_id", ErrValidation)
	ErrInvalidRelated     = fmt.Errorf("%w: invalid_related", ErrValidation)
	ErrInvalidCurrency    = fmt.Errorf("%w: invalid_currency", ErrValidation)
	ErrInvalidPageToken   = fmt.Errorf("%w: invalid_page_token", ErrValidation)
	ErrDuplicateReference = fmt.Errorf("%w: duplicate_reference", ErrPersistence)
	ErrUnknownRelatedType = fmt.Errorf("%w: unknown_related_type", ErrNotFound)
)

// ErrorClass names the class an error belongs to, for metrics and logs.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrReferenceGeneration):
		return "reference_generation"
	case errors.Is(err, ErrRendering):
		return "rendering"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}
