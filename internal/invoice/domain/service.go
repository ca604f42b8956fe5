package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/smallbiznis/invoicekit/pkg/db/pagination"
)

// CreateRequest carries optional initial attributes. Empty Currency and
// Status fall back to the configured defaults.
type CreateRequest struct {
	Currency     string         `json:"currency"`
	Status       string         `json:"status"`
	Note         string         `json:"note"`
	ReceiverInfo map[string]any `json:"receiver_info"`
	SenderInfo   map[string]any `json:"sender_info"`
	PaymentInfo  map[string]any `json:"payment_info"`
}

type ListRequest struct {
	Related        RelatedRef
	Status         string
	IncludeDeleted bool
	PageToken      string
	PageSize       int
}

type ListResponse struct {
	pagination.PageInfo
	Documents []Document `json:"documents"`
}

// Service manages documents of a single Kind.
//
// Writes to one document are not coordinated across callers: two concurrent
// AddAmount calls on the same document may both succeed but the later totals
// update can miss the earlier line until Recalculate runs. Callers that share
// a document across goroutines or processes must serialise access themselves.
type Service interface {
	Kind() Kind

	Create(ctx context.Context, related RelatedRef, req CreateRequest) (*Document, error)
	AddAmountExclTax(ctx context.Context, documentID uuid.UUID, line Line) (*Document, error)
	AddAmountInclTax(ctx context.Context, documentID uuid.UUID, line Line) (*Document, error)
	Recalculate(ctx context.Context, documentID uuid.UUID) (*Document, error)

	Get(ctx context.Context, id uuid.UUID, opts ...FindOption) (*Document, error)
	Lines(ctx context.Context, id uuid.UUID) ([]LineItem, error)
	FindByReference(ctx context.Context, reference string, opts ...FindOption) (*Document, error)
	FindByReferenceOrFail(ctx context.Context, reference string, opts ...FindOption) (*Document, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Related(ctx context.Context, doc *Document) (any, error)
}

// RelatedResolver loads the business entity a RelatedRef points at.
type RelatedResolver interface {
	Resolve(ctx context.Context, ref RelatedRef) (any, error)
}

// Download is a rendered PDF plus the headers of a file-transfer response.
type Download struct {
	Filename string
	Headers  map[string]string
	Body     []byte
}

type RenderingService interface {
	View(ctx context.Context, documentID uuid.UUID, extra map[string]any) (string, error)
	PDF(ctx context.Context, documentID uuid.UUID, extra map[string]any) ([]byte, error)
	Download(ctx context.Context, documentID uuid.UUID, extra map[string]any) (*Download, error)
}
