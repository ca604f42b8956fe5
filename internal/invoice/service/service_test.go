package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/smallbiznis/invoicekit/internal/clock"
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/internal/invoice/repository"
	"github.com/smallbiznis/invoicekit/internal/migration"
	"github.com/smallbiznis/invoicekit/internal/reference"
	"github.com/smallbiznis/invoicekit/internal/relation"
	taxservice "github.com/smallbiznis/invoicekit/internal/tax/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type generatorMock struct {
	mock.Mock
}

func (m *generatorMock) Generate(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

type harness struct {
	invoices *Service
	bills    *Service
	clock    *clock.FakeClock
	params   ServiceParam
}

var customer = domain.NewRelatedRef("customer", "42")

func newHarness(t *testing.T, mutate ...func(*ServiceParam)) *harness {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	holder := config.NewStaticInvoiceConfigHolder(config.DefaultInvoiceConfig())
	require.NoError(t, migration.RunMigrations(conn, holder.Get().TableNames))

	clk := clock.NewFakeClock(time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC))
	p := ServiceParam{
		Repo:       repository.NewRepository(conn, holder),
		Generator:  reference.NewGenerator(reference.Params{Config: holder, Clock: clk}),
		Calculator: taxservice.NewCalculator(),
		Config:     holder,
		Clock:      clk,
		Log:        zap.NewNop(),
	}
	for _, fn := range mutate {
		fn(&p)
	}

	return &harness{
		invoices: NewService(domain.KindInvoice, p),
		bills:    NewService(domain.KindBill, p),
		clock:    clk,
		params:   p,
	}
}

func (h *harness) newInvoice(t *testing.T) *domain.Document {
	t.Helper()
	doc, err := h.invoices.Create(context.Background(), customer, domain.CreateRequest{})
	require.NoError(t, err)
	return doc
}

func assertTotals(t *testing.T, doc *domain.Document, total, tax, discount int64) {
	t.Helper()
	assert.Equal(t, domain.Totals{Total: total, Tax: tax, Discount: discount}, doc.Totals())
}

func TestCreateAppliesDefaults(t *testing.T) {
	h := newHarness(t)
	doc := h.newInvoice(t)

	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.Equal(t, "TRY", doc.Currency)
	assert.Equal(t, "concept", doc.Status)
	assert.False(t, doc.IsBill)
	assert.Equal(t, customer, doc.Related)
	assert.Regexp(t, regexp.MustCompile(`^2024-03-07-[0-9A-Z]{6}$`), doc.Reference)
	assertTotals(t, doc, 0, 0, 0)
}

func TestCreateOverridesDefaults(t *testing.T) {
	h := newHarness(t)
	doc, err := h.invoices.Create(context.Background(), customer, domain.CreateRequest{
		Currency:     "usd",
		Status:       "paid",
		ReceiverInfo: map[string]any{"name": "Acme"},
	})
	require.NoError(t, err)

	assert.Equal(t, "USD", doc.Currency)
	assert.Equal(t, "paid", doc.Status)

	stored, err := h.invoices.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.ReceiverInfo["name"])
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.invoices.Create(ctx, domain.RelatedRef{}, domain.CreateRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidRelated)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.invoices.Create(ctx, customer, domain.CreateRequest{Currency: "EURO"})
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)
}

func TestCreateGeneratesUniqueReferences(t *testing.T) {
	h := newHarness(t)
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		doc := h.newInvoice(t)
		seen[doc.Reference] = struct{}{}
	}
	assert.Len(t, seen, 100)
}

func TestCreateReferenceGenerationFailure(t *testing.T) {
	gen := new(generatorMock)
	gen.On("Generate", mock.Anything).Return("", errors.New("entropy unavailable"))
	h := newHarness(t, func(p *ServiceParam) { p.Generator = gen })

	_, err := h.invoices.Create(context.Background(), customer, domain.CreateRequest{})
	assert.ErrorIs(t, err, domain.ErrReferenceGeneration)
	gen.AssertExpectations(t)

	resp, err := h.invoices.List(context.Background(), domain.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Documents)
}

func TestCreateDuplicateReference(t *testing.T) {
	gen := new(generatorMock)
	gen.On("Generate", mock.Anything).Return("FIXED-1", nil)
	h := newHarness(t, func(p *ServiceParam) { p.Generator = gen })
	ctx := context.Background()

	_, err := h.invoices.Create(ctx, customer, domain.CreateRequest{})
	require.NoError(t, err)

	_, err = h.invoices.Create(ctx, customer, domain.CreateRequest{})
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	// the same reference is free for the other kind
	_, err = h.bills.Create(ctx, customer, domain.CreateRequest{})
	assert.NoError(t, err)
}

func TestAddAmountExclTax(t *testing.T) {
	h := newHarness(t)
	doc := h.newInvoice(t)

	doc, err := h.invoices.AddAmountExclTax(context.Background(), doc.ID,
		domain.NewLine(customer, 100, "Consulting").WithTaxPercentage("VAT", 0.21))
	require.NoError(t, err)

	assertTotals(t, doc, 121, 21, 0)
	require.Len(t, doc.Lines, 1)
	line := doc.Lines[0]
	assert.Equal(t, int64(121), line.Amount)
	assert.Equal(t, int64(21), line.Tax)
	assert.Equal(t, "Consulting", line.Description)
	assert.Equal(t, customer, line.Related)
	require.Len(t, line.TaxDetails, 1)
	assert.Equal(t, domain.TaxDetail{Name: "VAT", Value: 0.21, IsPercentage: true, Amount: 21}, line.TaxDetails[0])
}

func TestAddAmountInclTax(t *testing.T) {
	h := newHarness(t)
	doc := h.newInvoice(t)

	doc, err := h.invoices.AddAmountInclTax(context.Background(), doc.ID,
		domain.NewLine(customer, 121, "Consulting").WithTaxPercentage("VAT", 0.21))
	require.NoError(t, err)

	assertTotals(t, doc, 121, 21, 0)
	assert.Equal(t, int64(121), doc.Lines[0].Amount)
	assert.Equal(t, int64(21), doc.Lines[0].Tax)
}

func TestAddAmountMixedModes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.newInvoice(t)

	_, err := h.invoices.AddAmountExclTax(ctx, doc.ID, domain.NewLine(customer, 100, "excl").WithTaxPercentage("VAT", 0.21))
	require.NoError(t, err)
	doc, err = h.invoices.AddAmountInclTax(ctx, doc.ID, domain.NewLine(customer, 121, "incl").WithTaxPercentage("VAT", 0.21))
	require.NoError(t, err)

	assertTotals(t, doc, 242, 42, 0)
	assert.Equal(t, []int{0, 1}, []int{doc.Lines[0].Position, doc.Lines[1].Position})
}

func TestAddAmountMultipleTaxes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	doc := h.newInvoice(t)
	doc, err := h.invoices.AddAmountExclTax(ctx, doc.ID, domain.NewLine(customer, 100, "excl").
		WithTaxPercentage("VAT", 0.21).
		WithTaxPercentage("Luxury", 0.31))
	require.NoError(t, err)
	assertTotals(t, doc, 152, 52, 0)
	assert.Len(t, doc.Lines[0].TaxDetails, 2)

	other := h.newInvoice(t)
	other, err = h.invoices.AddAmountInclTax(ctx, other.ID, domain.NewLine(customer, 152, "incl").
		WithTaxPercentage("VAT", 0.21).
		WithTaxPercentage("Luxury", 0.31))
	require.NoError(t, err)
	assertTotals(t, other, 152, 52, 0)

	var sum int64
	for _, d := range other.Lines[0].TaxDetails {
		sum += d.Amount
	}
	assert.Equal(t, int64(52), sum)
}

func TestAddAmountFixedTax(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.newInvoice(t)

	_, err := h.invoices.AddAmountExclTax(ctx, doc.ID, domain.NewLine(customer, 100, "excl").WithTaxAmount("Stamp", 21))
	require.NoError(t, err)
	doc, err = h.invoices.AddAmountInclTax(ctx, doc.ID, domain.NewLine(customer, 121, "incl").WithTaxAmount("Stamp", 21))
	require.NoError(t, err)

	assertTotals(t, doc, 242, 42, 0)
}

func TestAddAmountFixedAndPercentageTaxes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	excl := h.newInvoice(t)
	excl, err := h.invoices.AddAmountExclTax(ctx, excl.ID, domain.NewLine(customer, 100, "excl").
		WithTaxAmount("Stamp", 1).
		WithTaxPercentage("VAT", 0.21).
		WithTaxAmount("Levy", 30))
	require.NoError(t, err)
	assertTotals(t, excl, 152, 52, 0)

	incl := h.newInvoice(t)
	incl, err = h.invoices.AddAmountInclTax(ctx, incl.ID, domain.NewLine(customer, 152, "incl").
		WithTaxAmount("Stamp", 1).
		WithTaxPercentage("VAT", 0.21).
		WithTaxAmount("Levy", 30))
	require.NoError(t, err)
	assertTotals(t, incl, 152, 52, 0)
	assert.Equal(t, int64(100), incl.Lines[0].Amount-incl.Lines[0].Tax)
}

func TestAddAmountFixedTaxRepeated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	excl := h.newInvoice(t)
	incl := h.newInvoice(t)
	var err error
	for i := 0; i < 2; i++ {
		excl, err = h.invoices.AddAmountExclTax(ctx, excl.ID, domain.NewLine(customer, 100, "excl").WithTaxAmount("Stamp", 21))
		require.NoError(t, err)
		incl, err = h.invoices.AddAmountInclTax(ctx, incl.ID, domain.NewLine(customer, 121, "incl").WithTaxAmount("Stamp", 21))
		require.NoError(t, err)
	}

	assertTotals(t, excl, 242, 42, 0)
	assertTotals(t, incl, 242, 42, 0)
}

func TestAddAmountNegativeLineCancels(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.newInvoice(t)

	doc, err := h.invoices.AddAmountInclTax(ctx, doc.ID, domain.NewLine(customer, 121, "charge").WithTaxPercentage("VAT", 0.21))
	require.NoError(t, err)
	assertTotals(t, doc, 121, 21, 0)

	doc, err = h.invoices.AddAmountInclTax(ctx, doc.ID, domain.NewLine(customer, -121, "refund").WithTaxPercentage("VAT", 0.21))
	require.NoError(t, err)
	assertTotals(t, doc, 0, 0, 0)
	assert.Len(t, doc.Lines, 2)
}

func TestAddAmountFreeLine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.newInvoice(t)

	_, err := h.invoices.AddAmountInclTax(ctx, doc.ID, domain.NewLine(customer, 121, "paid").WithTaxPercentage("VAT", 0.21))
	require.NoError(t, err)
	doc, err = h.invoices.AddAmountInclTax(ctx, doc.ID, domain.NewLine(customer, 121, "gift").WithTaxPercentage("VAT", 0.21).Free())
	require.NoError(t, err)

	assertTotals(t, doc, 121, 21, 121)
	assert.Equal(t, domain.LineFree, doc.Lines[1].Classification())
}

func TestAddAmountComplimentaryAndFreeLines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.newInvoice(t)

	lines := []domain.Line{
		domain.NewLine(customer, 121, "complimentary").WithTaxPercentage("VAT", 0.21).Complimentary(),
		domain.NewLine(customer, 121, "free").WithTaxPercentage("VAT", 0.21).Free(),
		domain.NewLine(customer, 121, "regular").WithTaxPercentage("VAT", 0.21),
	}
	var err error
	for _, line := range lines {
		doc, err = h.invoices.AddAmountInclTax(ctx, doc.ID, line)
		require.NoError(t, err)
	}

	assertTotals(t, doc, 121, 21, 242)
}

func TestAddAmountExplicitDiscount(t *testing.T) {
	h := newHarness(t)
	doc := h.newInvoice(t)

	doc, err := h.invoices.AddAmountExclTax(context.Background(), doc.ID,
		domain.NewLine(customer, 100, "discounted").WithDiscount(10))
	require.NoError(t, err)
	assertTotals(t, doc, 100, 0, 10)
}

func TestAddAmountInvalidTaxPersistsNothing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.newInvoice(t)

	_, err := h.invoices.AddAmountInclTax(ctx, doc.ID, domain.NewLine(customer, 100, "bad").WithTaxPercentage("VAT", -1))
	assert.ErrorIs(t, err, domain.ErrInvalidTaxRate)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.invoices.AddAmountExclTax(ctx, doc.ID, domain.NewLine(customer, 100, "nan").WithTaxPercentage("VAT", math.NaN()))
	assert.ErrorIs(t, err, domain.ErrInvalidTaxRate)

	_, err = h.invoices.AddAmountExclTax(ctx, doc.ID, domain.NewLine(customer, 100, "inf").WithTaxPercentage("VAT", math.Inf(1)))
	assert.ErrorIs(t, err, domain.ErrValidation)

	lines, err := h.invoices.Lines(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	stored, err := h.invoices.Get(ctx, doc.ID)
	require.NoError(t, err)
	assertTotals(t, stored, 0, 0, 0)
}

func TestAddAmountUnknownDocument(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	line := domain.NewLine(customer, 100, "x")

	_, err := h.invoices.AddAmountExclTax(ctx, uuid.New(), line)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.invoices.AddAmountExclTax(ctx, uuid.Nil, line)
	assert.ErrorIs(t, err, domain.ErrInvalidDocumentID)

	_, err = h.invoices.AddAmountExclTax(ctx, h.newInvoice(t).ID, domain.NewLine(domain.RelatedRef{}, 100, "x"))
	assert.ErrorIs(t, err, domain.ErrInvalidRelated)
}

func TestRecalculateIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.newInvoice(t)

	_, err := h.invoices.AddAmountExclTax(ctx, doc.ID, domain.NewLine(customer, 100, "a").WithTaxPercentage("VAT", 0.21))
	require.NoError(t, err)
	_, err = h.invoices.AddAmountInclTax(ctx, doc.ID, domain.NewLine(customer, 50, "b").Free())
	require.NoError(t, err)

	first, err := h.invoices.Recalculate(ctx, doc.ID)
	require.NoError(t, err)
	second, err := h.invoices.Recalculate(ctx, doc.ID)
	require.NoError(t, err)

	assertTotals(t, first, 121, 21, 50)
	assert.Equal(t, first.Totals(), second.Totals())
	assert.Len(t, second.Lines, 2)
}

func TestKindsAreIsolated(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	invoice := h.newInvoice(t)
	bill, err := h.bills.Create(ctx, customer, domain.CreateRequest{})
	require.NoError(t, err)
	assert.True(t, bill.IsBill)

	_, err = h.bills.Get(ctx, invoice.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = h.invoices.Get(ctx, bill.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	found, err := h.bills.FindByReference(ctx, invoice.Reference)
	require.NoError(t, err)
	assert.Nil(t, found)

	_, err = h.bills.AddAmountExclTax(ctx, invoice.ID, domain.NewLine(customer, 100, "x"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, h.bills.Delete(ctx, invoice.ID), domain.ErrNotFound)

	invoices, err := h.invoices.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, invoices.Documents, 1)
	assert.Equal(t, invoice.ID, invoices.Documents[0].ID)
}

func TestFindByReference(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.newInvoice(t)
	_, err := h.invoices.AddAmountExclTax(ctx, doc.ID, domain.NewLine(customer, 100, "a"))
	require.NoError(t, err)

	found, err := h.invoices.FindByReference(ctx, doc.Reference)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, doc.ID, found.ID)
	assert.Len(t, found.Lines, 1)

	missing, err := h.invoices.FindByReference(ctx, "does-not-exist")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = h.invoices.FindByReferenceOrFail(ctx, "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	found, err = h.invoices.FindByReferenceOrFail(ctx, doc.Reference)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, found.ID)
}

func TestDeleteIsSoft(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.newInvoice(t)
	_, err := h.invoices.AddAmountExclTax(ctx, doc.ID, domain.NewLine(customer, 100, "a"))
	require.NoError(t, err)

	require.NoError(t, h.invoices.Delete(ctx, doc.ID))

	_, err = h.invoices.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	found, err := h.invoices.FindByReference(ctx, doc.Reference)
	require.NoError(t, err)
	assert.Nil(t, found)

	trashed, err := h.invoices.Get(ctx, doc.ID, domain.WithTrashed())
	require.NoError(t, err)
	assert.Len(t, trashed.Lines, 1)

	trashed, err = h.invoices.FindByReferenceOrFail(ctx, doc.Reference, domain.WithTrashed())
	require.NoError(t, err)
	assert.Equal(t, doc.ID, trashed.ID)

	assert.ErrorIs(t, h.invoices.Delete(ctx, doc.ID), domain.ErrNotFound)

	_, err = h.invoices.AddAmountExclTax(ctx, doc.ID, domain.NewLine(customer, 1, "late"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListPaginatesAndFilters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		ids = append(ids, h.newInvoice(t).ID)
	}
	other, err := h.invoices.Create(ctx, domain.NewRelatedRef("customer", "99"), domain.CreateRequest{Status: "paid"})
	require.NoError(t, err)
	_, err = h.bills.Create(ctx, customer, domain.CreateRequest{})
	require.NoError(t, err)

	var got []uuid.UUID
	token := ""
	pages := 0
	for {
		resp, err := h.invoices.List(ctx, domain.ListRequest{Related: customer, PageSize: 2, PageToken: token})
		require.NoError(t, err)
		pages++
		for _, d := range resp.Documents {
			got = append(got, d.ID)
		}
		if !resp.HasMore {
			assert.Empty(t, resp.NextPageToken)
			break
		}
		token = resp.NextPageToken
	}
	assert.Equal(t, 3, pages)
	assert.Equal(t, ids, got)

	paid, err := h.invoices.List(ctx, domain.ListRequest{Status: "paid"})
	require.NoError(t, err)
	require.Len(t, paid.Documents, 1)
	assert.Equal(t, other.ID, paid.Documents[0].ID)

	require.NoError(t, h.invoices.Delete(ctx, other.ID))
	all, err := h.invoices.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Documents, 5)

	all, err = h.invoices.List(ctx, domain.ListRequest{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all.Documents, 6)

	_, err = h.invoices.List(ctx, domain.ListRequest{PageToken: "not-a-token"})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestRelated(t *testing.T) {
	registry := relation.NewRegistry(relation.Params{})
	registry.Register("customer", func(ctx context.Context, id string) (any, error) {
		if id != "42" {
			return nil, nil
		}
		return map[string]any{"id": id, "name": "Acme"}, nil
	})
	h := newHarness(t, func(p *ServiceParam) { p.Resolver = registry })
	ctx := context.Background()

	doc := h.newInvoice(t)
	entity, err := h.invoices.Related(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "Acme", entity.(map[string]any)["name"])

	orphan, err := h.invoices.Create(ctx, domain.NewRelatedRef("customer", "7"), domain.CreateRequest{})
	require.NoError(t, err)
	_, err = h.invoices.Related(ctx, orphan)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	unknown, err := h.invoices.Create(ctx, domain.NewRelatedRef("vendor", "1"), domain.CreateRequest{})
	require.NoError(t, err)
	_, err = h.invoices.Related(ctx, unknown)
	assert.ErrorIs(t, err, domain.ErrUnknownRelatedType)
}

func TestRelatedWithoutResolver(t *testing.T) {
	h := newHarness(t)
	_, err := h.invoices.Related(context.Background(), h.newInvoice(t))
	assert.ErrorIs(t, err, domain.ErrUnknownRelatedType)
}
