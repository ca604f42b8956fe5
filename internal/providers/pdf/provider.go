package pdf

import (
	"context"
)

// Provider renders a prepared document into PDF bytes.
type Provider interface {
	GenerateDocument(ctx context.Context, data DocumentData) ([]byte, error)
}

// DocumentData is the printable view of an invoice or bill; all amounts are
// already formatted for the document's locale.
type DocumentData struct {
	Title     string
	Reference string
	IssueDate string
	Status    string

	SenderLines   []string
	ReceiverLines []string
	PaymentLines  []string

	Items []DocumentItem

	Subtotal string
	Tax      string
	Discount string
	Total    string
	Note     string
}

type DocumentItem struct {
	Description string
	Details     []string
	Tax         string
	Amount      string
}
