package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/reference"
	taxdomain "github.com/smallbiznis/invoicekit/internal/tax/domain"
	"github.com/smallbiznis/invoicekit/pkg/db/pagination"
	"github.com/smallbiznis/invoicekit/pkg/log/ctxlogger"
	"github.com/smallbiznis/invoicekit/pkg/telemetry"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Repo       domain.Repository
	Generator  reference.Generator
	Calculator taxdomain.Calculator
	Resolver   domain.RelatedResolver `optional:"true"`
	Config     *config.InvoiceConfigHolder
	Clock      clock.Clock
	Metrics    *telemetry.Metrics `optional:"true"`
	Log        *zap.Logger
}

type Service struct {
	kind domain.Kind
	log  *zap.Logger

	repo     domain.Repository
	refGen   reference.Generator
	calc     taxdomain.Calculator
	resolver domain.RelatedResolver
	cfg      *config.InvoiceConfigHolder
	clock    clock.Clock
	metrics  *telemetry.Metrics
}

func NewInvoiceService(p ServiceParam) domain.Service {
	return NewService(domain.KindInvoice, p)
}

func NewBillService(p ServiceParam) domain.Service {
	return NewService(domain.KindBill, p)
}

// NewService builds the document service for one kind. Invoices and bills
// share storage but never see each other's rows.
func NewService(kind domain.Kind, p ServiceParam) *Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Service{
		kind:     kind,
		log:      log.Named(string(kind) + ".service"),
		repo:     p.Repo,
		refGen:   p.Generator,
		calc:     p.Calculator,
		resolver: p.Resolver,
		cfg:      p.Config,
		clock:    c,
		metrics:  p.Metrics,
	}
}

func (s *Service) Kind() domain.Kind { return s.kind }

func (s *Service) Create(ctx context.Context, related domain.RelatedRef, req domain.CreateRequest) (*domain.Document, error) {
	if err := related.Validate(); err != nil {
		return nil, s.fail(ctx, "create", err)
	}

	ref, err := s.refGen.Generate(ctx)
	if err != nil {
		return nil, s.fail(ctx, "create", fmt.Errorf("%w: %w", domain.ErrReferenceGeneration, err))
	}

	cfg := s.cfg.Get()
	defaults := domain.Defaults{Currency: cfg.DefaultCurrency, Status: cfg.DefaultStatus}
	doc, err := domain.NewDocument(s.kind, related, ref, defaults, req, s.clock.Now())
	if err != nil {
		return nil, s.fail(ctx, "create", err)
	}

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, s.fail(ctx, "create", err)
	}

	ctx = ctxlogger.ContextWithDocument(ctx, doc.Reference)
	ctxlogger.WithContext(ctx, s.log).Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("related_type", related.Type),
		zap.String("currency", doc.Currency),
	)
	s.metrics.ObserveDocumentCreated(string(s.kind))
	return doc, nil
}

// AddAmountExclTax appends a line whose amount is the net price; tax is
// added on top.
func (s *Service) AddAmountExclTax(ctx context.Context, documentID uuid.UUID, line domain.Line) (*domain.Document, error) {
	return s.addLine(ctx, documentID, line, taxdomain.TaxModeExclusive)
}

// AddAmountInclTax appends a line whose amount already contains the tax.
func (s *Service) AddAmountInclTax(ctx context.Context, documentID uuid.UUID, line domain.Line) (*domain.Document, error) {
	return s.addLine(ctx, documentID, line, taxdomain.TaxModeInclusive)
}

func (s *Service) addLine(ctx context.Context, documentID uuid.UUID, line domain.Line, mode taxdomain.TaxMode) (*domain.Document, error) {
	const op = "add_line"
	if documentID == uuid.Nil {
		return nil, s.fail(ctx, op, domain.ErrInvalidDocumentID)
	}
	if err := line.Validate(); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	res, err := s.calc.Compute(mode, line.Amount(), line.Taxes())
	if err != nil {
		return nil, s.fail(ctx, op, domain.TaxError(err))
	}

	lineID, err := uuid.NewV7()
	if err != nil {
		return nil, s.fail(ctx, op, fmt.Errorf("%w: %w", domain.ErrPersistence, err))
	}

	var doc *domain.Document
	err = s.repo.Transaction(ctx, func(tx domain.Repository) error {
		found, err := s.findIn(ctx, tx, documentID, domain.FindOptions{})
		if err != nil {
			return err
		}

		lines, err := tx.ListLines(ctx, found.ID)
		if err != nil {
			return err
		}

		item := line.Build(lineID, found.ID, nextPosition(lines), res)
		item.CreatedAt = s.clock.Now()
		if err := tx.CreateLine(ctx, &item); err != nil {
			return err
		}

		lines = append(lines, item)
		totals := domain.Recalculate(lines)
		if err := tx.UpdateTotals(ctx, s.kind, found.ID, totals); err != nil {
			return err
		}

		found.ApplyTotals(totals)
		found.Lines = lines
		doc = found
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	added := doc.Lines[len(doc.Lines)-1]
	ctx = ctxlogger.ContextWithDocument(ctx, doc.Reference)
	ctxlogger.WithContext(ctx, s.log).Info("line added",
		zap.String("document_id", doc.ID.String()),
		zap.String("mode", string(mode)),
		zap.String("class", string(added.Classification())),
		zap.Int64("amount", added.Amount),
		zap.Int64("tax", added.Tax),
		zap.Int64("total", doc.Total),
	)
	s.metrics.ObserveLineAdded(string(s.kind), string(mode), string(added.Classification()), added.Amount)
	return doc, nil
}

// Recalculate re-derives the totals from the stored lines. Running it twice
// without new lines leaves the document unchanged.
func (s *Service) Recalculate(ctx context.Context, documentID uuid.UUID) (*domain.Document, error) {
	const op = "recalculate"
	if documentID == uuid.Nil {
		return nil, s.fail(ctx, op, domain.ErrInvalidDocumentID)
	}

	var doc *domain.Document
	err := s.repo.Transaction(ctx, func(tx domain.Repository) error {
		found, err := s.findIn(ctx, tx, documentID, domain.FindOptions{})
		if err != nil {
			return err
		}

		lines, err := tx.ListLines(ctx, found.ID)
		if err != nil {
			return err
		}

		totals := domain.Recalculate(lines)
		if totals != found.Totals() {
			if err := tx.UpdateTotals(ctx, s.kind, found.ID, totals); err != nil {
				return err
			}
			found.ApplyTotals(totals)
		}
		found.Lines = lines
		doc = found
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return doc, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, opts ...domain.FindOption) (*domain.Document, error) {
	if id == uuid.Nil {
		return nil, domain.ErrInvalidDocumentID
	}
	doc, err := s.findIn(ctx, s.repo, id, domain.ApplyFindOptions(opts...))
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) Lines(ctx context.Context, id uuid.UUID) ([]domain.LineItem, error) {
	doc, err := s.Get(ctx, id, domain.WithTrashed())
	if err != nil {
		return nil, err
	}
	return doc.Lines, nil
}

// FindByReference returns nil, nil when no document of this kind has the
// reference.
func (s *Service) FindByReference(ctx context.Context, reference string, opts ...domain.FindOption) (*domain.Document, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}

	doc, err := s.repo.FindDocumentByReference(ctx, s.kind, reference, domain.ApplyFindOptions(opts...))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	if err := s.loadLines(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) FindByReferenceOrFail(ctx context.Context, reference string, opts ...domain.FindOption) (*domain.Document, error) {
	doc, err := s.FindByReference(ctx, reference, opts...)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrNotFound, s.kind, reference)
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	limit := pagination.Pagination{PageSize: req.PageSize}.Limit()
	filter := domain.ListFilter{
		Related:        req.Related,
		Status:         strings.TrimSpace(req.Status),
		IncludeDeleted: req.IncludeDeleted,
		Limit:          limit + 1,
	}

	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		after, err := uuid.Parse(cursor.ID)
		if err != nil {
			return domain.ListResponse{}, domain.ErrInvalidPageToken
		}
		filter.AfterID = &after
	}

	docs, err := s.repo.ListDocuments(ctx, s.kind, filter)
	if err != nil {
		return domain.ListResponse{}, s.fail(ctx, "list", err)
	}

	page, info, err := pagination.BuildCursorPage(docs, limit, func(d *domain.Document) pagination.Cursor {
		return pagination.Cursor{ID: d.ID.String()}
	})
	if err != nil {
		return domain.ListResponse{}, err
	}

	out := make([]domain.Document, 0, len(page))
	for _, d := range page {
		out = append(out, *d)
	}
	return domain.ListResponse{PageInfo: info, Documents: out}, nil
}

// Delete soft-deletes the document; its lines stay attached and are visible
// again through WithTrashed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return domain.ErrInvalidDocumentID
	}
	deleted, err := s.repo.DeleteDocument(ctx, s.kind, id)
	if err != nil {
		return s.fail(ctx, "delete", err)
	}
	if !deleted {
		return s.fail(ctx, "delete", fmt.Errorf("%w: %s %s", domain.ErrNotFound, s.kind, id))
	}
	s.log.Info("document deleted", zap.String("document_id", id.String()))
	return nil
}

// Related loads the entity the document points at through the registered
// resolvers.
func (s *Service) Related(ctx context.Context, doc *domain.Document) (any, error) {
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if s.resolver == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownRelatedType, doc.Related.Type)
	}
	return s.resolver.Resolve(ctx, doc.Related)
}

func (s *Service) findIn(ctx context.Context, repo domain.Repository, id uuid.UUID, opts domain.FindOptions) (*domain.Document, error) {
	doc, err := repo.FindDocument(ctx, s.kind, id, opts)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s %s", domain.ErrNotFound, s.kind, id)
	}
	return doc, nil
}

func (s *Service) loadLines(ctx context.Context, doc *domain.Document) error {
	lines, err := s.repo.ListLines(ctx, doc.ID)
	if err != nil {
		return err
	}
	doc.Lines = lines
	return nil
}

func (s *Service) fail(ctx context.Context, operation string, err error) error {
	class := domain.ErrorClass(err)
	s.metrics.ObserveOperationError(string(s.kind), operation, class)

	log := ctxlogger.WithContext(ctx, s.log)
	if class == "validation" || class == "not_found" {
		log.Debug("operation rejected", zap.String("operation", operation), zap.Error(err))
	} else {
		log.Error("operation failed", zap.String("operation", operation), zap.Error(err))
	}
	return err
}

func nextPosition(lines []domain.LineItem) int {
	if len(lines) == 0 {
		return 0
	}
	return lines[len(lines)-1].Position + 1
}

var _ domain.Service = (*Service)(nil)
