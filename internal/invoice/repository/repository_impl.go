package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/pkg/db"
	"github.com/smallbiznis/invoicekit/pkg/db/option"
	"github.com/smallbiznis/invoicekit/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	db     *gorm.DB
	tables config.TableNames

	documents repository.Repository[domain.Document]
	lines     repository.Repository[domain.LineItem]
}

// NewRepository binds the document and line stores to the configured table names.
func NewRepository(conn *gorm.DB, holder *config.InvoiceConfigHolder) domain.Repository {
	return newRepo(conn, holder.Get().TableNames)
}

func newRepo(conn *gorm.DB, tables config.TableNames) *repo {
	return &repo{
		db:        conn,
		tables:    tables,
		documents: repository.ProvideStore[domain.Document](conn, repository.WithTable(tables.Invoices)),
		lines:     repository.ProvideStore[domain.LineItem](conn, repository.WithTable(tables.InvoiceLines)),
	}
}

func (r *repo) Transaction(ctx context.Context, fn func(tx domain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repo{
			db:        tx,
			tables:    r.tables,
			documents: r.documents.WithTrx(tx),
			lines:     r.lines.WithTrx(tx),
		})
	})
}

func (r *repo) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if err := r.documents.Create(ctx, doc); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return fmt.Errorf("%w: %w", domain.ErrDuplicateReference, err)
		}
		return persistenceErr(err)
	}
	return nil
}

func (r *repo) FindDocument(ctx context.Context, kind domain.Kind, id uuid.UUID, opts domain.FindOptions) (*domain.Document, error) {
	return r.findOne(ctx, kind, opts, option.Where("id = ?", id.String()))
}

func (r *repo) FindDocumentByReference(ctx context.Context, kind domain.Kind, reference string, opts domain.FindOptions) (*domain.Document, error) {
	return r.findOne(ctx, kind, opts, option.Where("reference = ?", reference))
}

func (r *repo) findOne(ctx context.Context, kind domain.Kind, opts domain.FindOptions, filter option.QueryOption) (*domain.Document, error) {
	queryOpts := []option.QueryOption{kindScope(kind), filter}
	if opts.IncludeDeleted {
		queryOpts = append(queryOpts, option.WithUnscoped())
	}
	doc, err := r.documents.FindOne(ctx, nil, queryOpts...)
	if err != nil {
		return nil, persistenceErr(err)
	}
	return doc, nil
}

func (r *repo) ListDocuments(ctx context.Context, kind domain.Kind, filter domain.ListFilter) ([]*domain.Document, error) {
	queryOpts := []option.QueryOption{kindScope(kind)}
	if filter.Related.Type != "" {
		queryOpts = append(queryOpts, option.Where("related_type = ?", filter.Related.Type))
	}
	if filter.Related.ID != "" {
		queryOpts = append(queryOpts, option.Where("related_id = ?", filter.Related.ID))
	}
	if filter.Status != "" {
		queryOpts = append(queryOpts, option.Where("status = ?", filter.Status))
	}
	if filter.AfterID != nil {
		queryOpts = append(queryOpts, option.ApplyOperator(option.Condition{
			Field:    "id",
			Operator: option.GT,
			Value:    filter.AfterID.String(),
		}))
	}
	if filter.IncludeDeleted {
		queryOpts = append(queryOpts, option.WithUnscoped())
	}
	// ids are UUIDv7, so id order is creation order
	queryOpts = append(queryOpts,
		option.WithSortBy(option.QuerySortBy{Default: "id"}),
		option.WithLimit(filter.Limit),
	)

	docs, err := r.documents.Find(ctx, nil, queryOpts...)
	if err != nil {
		return nil, persistenceErr(err)
	}
	return docs, nil
}

func (r *repo) UpdateTotals(ctx context.Context, kind domain.Kind, id uuid.UUID, totals domain.Totals) error {
	affected, err := r.documents.Update(ctx, id.String(), map[string]any{
		"total":    totals.Total,
		"tax":      totals.Tax,
		"discount": totals.Discount,
	}, kindScope(kind))
	if err != nil {
		return persistenceErr(err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteDocument(ctx context.Context, kind domain.Kind, id uuid.UUID) (bool, error) {
	affected, err := r.documents.Delete(ctx, id.String(), kindScope(kind))
	if err != nil {
		return false, persistenceErr(err)
	}
	return affected > 0, nil
}

func (r *repo) CreateLine(ctx context.Context, line *domain.LineItem) error {
	if err := r.lines.Create(ctx, line); err != nil {
		return persistenceErr(err)
	}
	return nil
}

func (r *repo) ListLines(ctx context.Context, documentID uuid.UUID) ([]domain.LineItem, error) {
	rows, err := r.lines.Find(ctx, nil,
		option.Where("document_id = ?", documentID.String()),
		option.WithSortBy(option.QuerySortBy{Default: "position"}),
	)
	if err != nil {
		return nil, persistenceErr(err)
	}
	lines := make([]domain.LineItem, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, *row)
	}
	return lines, nil
}

// kindScope is applied to every document query; is_bill = false must be an
// explicit predicate, a struct filter would drop the zero value.
func kindScope(kind domain.Kind) option.QueryOption {
	return option.Where("is_bill = ?", kind.IsBill())
}

func persistenceErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}
