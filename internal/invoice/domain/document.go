package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Defaults are the configured values a new document starts from.
type Defaults struct {
	Currency string
	Status   string
}

// NewDocument builds a fully initialised document ready for its first write.
// Aggregates start at zero and the reference is fixed for the document's life.
func NewDocument(kind Kind, related RelatedRef, reference string, defaults Defaults, req CreateRequest, now time.Time) (*Document, error) {
	if err := related.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrReferenceGeneration)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaults.Currency
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrency
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = defaults.Status
	}

	return &Document{
		ID:           id,
		Reference:    reference,
		IsBill:       kind.IsBill(),
		Currency:     currency,
		Status:       status,
		Note:         req.Note,
		ReceiverInfo: jsonMap(req.ReceiverInfo),
		SenderInfo:   jsonMap(req.SenderInfo),
		PaymentInfo:  jsonMap(req.PaymentInfo),
		Related:      related,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func jsonMap(m map[string]any) datatypes.JSONMap {
	if len(m) == 0 {
		return datatypes.JSONMap{}
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
