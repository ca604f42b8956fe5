package domain

import (
	"context"

	"github.com/google/uuid"
)

type FindOptions struct {
	IncludeDeleted bool
}

type FindOption func(*FindOptions)

// WithTrashed includes soft-deleted documents.
func WithTrashed() FindOption {
	return func(o *FindOptions) { o.IncludeDeleted = true }
}

func ApplyFindOptions(opts ...FindOption) FindOptions {
	var o FindOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type ListFilter struct {
	Related        RelatedRef
	Status         string
	IncludeDeleted bool
	AfterID        *uuid.UUID
	Limit          int
}

// Repository persists documents and lines. Every document query is scoped to
// one Kind; a nil document with a nil error means not found.
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	CreateDocument(ctx context.Context, doc *Document) error
	FindDocument(ctx context.Context, kind Kind, id uuid.UUID, opts FindOptions) (*Document, error)
	FindDocumentByReference(ctx context.Context, kind Kind, reference string, opts FindOptions) (*Document, error)
	ListDocuments(ctx context.Context, kind Kind, filter ListFilter) ([]*Document, error)
	UpdateTotals(ctx context.Context, kind Kind, id uuid.UUID, totals Totals) error
	DeleteDocument(ctx context.Context, kind Kind, id uuid.UUID) (bool, error)

	CreateLine(ctx context.Context, line *LineItem) error
	ListLines(ctx context.Context, documentID uuid.UUID) ([]LineItem, error)
}
