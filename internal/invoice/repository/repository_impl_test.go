package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *repo {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tables := config.DefaultInvoiceConfig().TableNames
	require.NoError(t, migration.RunMigrations(conn, tables))
	return newRepo(conn, tables)
}

func newTestDocument(t *testing.T, kind domain.Kind, reference string) *domain.Document {
	t.Helper()
	doc, err := domain.NewDocument(kind, domain.NewRelatedRef("customer", "7"), reference,
		domain.Defaults{Currency: "TRY", Status: "concept"}, domain.CreateRequest{}, time.Now().UTC())
	require.NoError(t, err)
	return doc
}

func TestRepositoryKindScope(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	invoice := newTestDocument(t, domain.KindInvoice, "REF-1")
	bill := newTestDocument(t, domain.KindBill, "REF-1")
	require.NoError(t, r.CreateDocument(ctx, invoice))
	require.NoError(t, r.CreateDocument(ctx, bill))

	got, err := r.FindDocumentByReference(ctx, domain.KindInvoice, "REF-1", domain.FindOptions{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, invoice.ID, got.ID)
	assert.False(t, got.IsBill)

	got, err = r.FindDocumentByReference(ctx, domain.KindBill, "REF-1", domain.FindOptions{})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, bill.ID, got.ID)

	got, err = r.FindDocument(ctx, domain.KindBill, invoice.ID, domain.FindOptions{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepositoryDuplicateReference(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	require.NoError(t, r.CreateDocument(ctx, newTestDocument(t, domain.KindInvoice, "DUP")))
	err := r.CreateDocument(ctx, newTestDocument(t, domain.KindInvoice, "DUP"))
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestRepositoryLinesAndTotals(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	doc := newTestDocument(t, domain.KindInvoice, "LINES")
	require.NoError(t, r.CreateDocument(ctx, doc))

	for i, amount := range []int64{300, 100, 200} {
		require.NoError(t, r.CreateLine(ctx, &domain.LineItem{
			ID:         uuid.New(),
			DocumentID: doc.ID,
			Position:   i,
			Amount:     amount,
			TaxDetails: []domain.TaxDetail{{Name: "vat", Value: 0.21, IsPercentage: true, Amount: 1}},
			Related:    domain.NewRelatedRef("product", "1"),
		}))
	}

	lines, err := r.ListLines(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, []int64{300, 100, 200}, []int64{lines[0].Amount, lines[1].Amount, lines[2].Amount})
	assert.Equal(t, "vat", lines[0].TaxDetails[0].Name)
	assert.Equal(t, "product", lines[0].Related.Type)

	require.NoError(t, r.UpdateTotals(ctx, domain.KindInvoice, doc.ID, domain.Totals{Total: 600, Tax: 3, Discount: 1}))
	got, err := r.FindDocument(ctx, domain.KindInvoice, doc.ID, domain.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.Totals{Total: 600, Tax: 3, Discount: 1}, got.Totals())

	err = r.UpdateTotals(ctx, domain.KindBill, doc.ID, domain.Totals{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepositorySoftDelete(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	doc := newTestDocument(t, domain.KindInvoice, "GONE")
	require.NoError(t, r.CreateDocument(ctx, doc))

	deleted, err := r.DeleteDocument(ctx, domain.KindBill, doc.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = r.DeleteDocument(ctx, domain.KindInvoice, doc.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	got, err := r.FindDocumentByReference(ctx, domain.KindInvoice, "GONE", domain.FindOptions{})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.FindDocumentByReference(ctx, domain.KindInvoice, "GONE", domain.FindOptions{IncludeDeleted: true})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.DeletedAt.Valid)

	docs, err := r.ListDocuments(ctx, domain.KindInvoice, domain.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = r.ListDocuments(ctx, domain.KindInvoice, domain.ListFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestRepositoryListFiltersAndKeyset(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)

	var ids []uuid.UUID
	for i := 0; i < 4; i++ {
		doc := newTestDocument(t, domain.KindInvoice, fmt.Sprintf("L-%d", i))
		if i == 3 {
			doc.Status = "paid"
		}
		require.NoError(t, r.CreateDocument(ctx, doc))
		ids = append(ids, doc.ID)
	}
	require.NoError(t, r.CreateDocument(ctx, newTestDocument(t, domain.KindBill, "B-0")))

	page, err := r.ListDocuments(ctx, domain.KindInvoice, domain.ListFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[0], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	page, err = r.ListDocuments(ctx, domain.KindInvoice, domain.ListFilter{AfterID: &ids[1], Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)

	page, err = r.ListDocuments(ctx, domain.KindInvoice, domain.ListFilter{Status: "paid"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[3], page[0].ID)

	page, err = r.ListDocuments(ctx, domain.KindInvoice, domain.ListFilter{Related: domain.NewRelatedRef("customer", "8")})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestRepositoryTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	r := newTestRepo(t)
	doc := newTestDocument(t, domain.KindInvoice, "TX")
	require.NoError(t, r.CreateDocument(ctx, doc))

	err := r.Transaction(ctx, func(tx domain.Repository) error {
		if err := tx.CreateLine(ctx, &domain.LineItem{ID: uuid.New(), DocumentID: doc.ID, Amount: 10}); err != nil {
			return err
		}
		return domain.ErrInvalidTaxRate
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTaxRate)

	lines, err := r.ListLines(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
