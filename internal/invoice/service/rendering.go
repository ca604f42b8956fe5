package service

import (
	"context"
	"fmt"
	"mime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	invoiceformat "github.com/smallbiznis/invoicekit/internal/invoice/format"
	"github.com/smallbiznis/invoicekit/internal/invoice/render"
	"github.com/smallbiznis/invoicekit/internal/providers/pdf"
	"github.com/smallbiznis/invoicekit/pkg/telemetry"
	"go.uber.org/zap"
)

type RenderingParam struct {
	Documents domain.Service
	Renderer  render.Renderer
	PDF       pdf.Provider
	Config    *config.InvoiceConfigHolder
	Metrics   *telemetry.Metrics
	Log       *zap.Logger
}

// Rendering produces the HTML view and the PDF of documents owned by one
// document service.
type Rendering struct {
	docs     domain.Service
	renderer render.Renderer
	pdf      pdf.Provider
	cfg      *config.InvoiceConfigHolder
	metrics  *telemetry.Metrics
	log      *zap.Logger
}

func NewRendering(p RenderingParam) *Rendering {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Rendering{
		docs:     p.Documents,
		renderer: p.Renderer,
		pdf:      p.PDF,
		cfg:      p.Config,
		metrics:  p.Metrics,
		log:      log.Named(string(p.Documents.Kind()) + ".rendering"),
	}
}

// View renders the document as HTML. Keys in extra are exposed to the
// template as .Extra; a string "title" overrides the heading.
func (r *Rendering) View(ctx context.Context, documentID uuid.UUID, extra map[string]any) (string, error) {
	doc, err := r.docs.Get(ctx, documentID)
	if err != nil {
		return "", err
	}

	start := time.Now()
	html, err := r.renderer.RenderHTML(r.renderInput(doc, extra))
	r.observe("html", start, err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRendering, err)
	}
	return html, nil
}

func (r *Rendering) PDF(ctx context.Context, documentID uuid.UUID, extra map[string]any) ([]byte, error) {
	doc, err := r.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return r.renderPDF(ctx, doc, extra)
}

// Download renders the PDF along with the headers of a file-transfer
// response named after the document reference.
func (r *Rendering) Download(ctx context.Context, documentID uuid.UUID, extra map[string]any) (*domain.Download, error) {
	doc, err := r.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	body, err := r.renderPDF(ctx, doc, extra)
	if err != nil {
		return nil, err
	}

	filename := doc.Reference + ".pdf"
	return &domain.Download{
		Filename: filename,
		Headers: map[string]string{
			"Content-Description":       "File Transfer",
			"Content-Disposition":       contentDisposition(filename),
			"Content-Transfer-Encoding": "binary",
			"Content-Type":              "application/pdf",
		},
		Body: body,
	}, nil
}

// contentDisposition builds an attachment header value, quoting or RFC 2231
// encoding the filename as needed.
func contentDisposition(filename string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
}

func (r *Rendering) renderPDF(ctx context.Context, doc *domain.Document, extra map[string]any) ([]byte, error) {
	start := time.Now()
	body, err := r.pdf.GenerateDocument(ctx, r.pdfData(doc, extra))
	r.observe("pdf", start, err)
	if err != nil {
		r.log.Warn("pdf rendering failed", zap.String("reference", doc.Reference), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrRendering, err)
	}
	return body, nil
}

func (r *Rendering) renderInput(doc *domain.Document, extra map[string]any) render.RenderInput {
	lines := make([]render.LineView, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		taxes := make([]render.TaxView, 0, len(line.TaxDetails))
		for _, t := range line.TaxDetails {
			taxes = append(taxes, render.TaxView{
				Name:         t.Name,
				Value:        t.Value,
				IsPercentage: t.IsPercentage,
				Amount:       t.Amount,
			})
		}
		lines = append(lines, render.LineView{
			Description:     line.Description,
			Amount:          line.Amount,
			Tax:             line.Tax,
			Taxes:           taxes,
			IsFree:          line.IsFree,
			IsComplimentary: line.IsComplimentary,
		})
	}

	return render.RenderInput{
		Title:     extraString(extra, "title"),
		Reference: doc.Reference,
		IsBill:    doc.IsBill,
		Status:    doc.Status,
		Currency:  doc.Currency,
		Locale:    r.locale(),
		Note:      doc.Note,
		IssuedAt:  doc.CreatedAt,
		Receiver:  doc.ReceiverInfo,
		Sender:    doc.SenderInfo,
		Payment:   doc.PaymentInfo,
		Lines:     lines,
		Total:     doc.Total,
		Tax:       doc.Tax,
		Discount:  doc.Discount,
		Extra:     extra,
	}
}

func (r *Rendering) pdfData(doc *domain.Document, extra map[string]any) pdf.DocumentData {
	locale := r.locale()
	money := func(amount int64) string {
		return invoiceformat.Money(amount, doc.Currency, locale)
	}

	title := extraString(extra, "title")
	if title == "" {
		title = "Invoice"
		if doc.IsBill {
			title = "Bill"
		}
	}

	items := make([]pdf.DocumentItem, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		details := make([]string, 0, len(line.TaxDetails)+1)
		for _, t := range line.TaxDetails {
			label := t.Name
			if t.IsPercentage {
				label += " " + invoiceformat.Percent(t.Value, locale)
			}
			details = append(details, label+": "+money(t.Amount))
		}
		switch line.Classification() {
		case domain.LineFree:
			details = append(details, "Free")
		case domain.LineComplimentary:
			details = append(details, "Complimentary")
		}
		items = append(items, pdf.DocumentItem{
			Description: line.Description,
			Details:     details,
			Tax:         money(line.Tax),
			Amount:      money(line.Amount),
		})
	}

	return pdf.DocumentData{
		Title:         title,
		Reference:     doc.Reference,
		IssueDate:     doc.CreatedAt.Format("2006-01-02"),
		Status:        doc.Status,
		SenderLines:   partyLines(doc.SenderInfo),
		ReceiverLines: partyLines(doc.ReceiverInfo),
		PaymentLines:  partyLines(doc.PaymentInfo),
		Items:         items,
		Subtotal:      money(doc.Total - doc.Tax),
		Tax:           money(doc.Tax),
		Discount:      money(doc.Discount),
		Total:         money(doc.Total),
		Note:          doc.Note,
	}
}

func (r *Rendering) locale() string {
	if r.cfg == nil {
		return ""
	}
	return r.cfg.Get().Locale
}

func (r *Rendering) observe(format string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.ObserveRender(string(r.docs.Kind()), format, status, time.Since(start))
}

// partyLines flattens party info into "key: value" lines sorted by key.
func partyLines(info map[string]any) []string {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s: %v", k, info[k]))
	}
	return out
}

func extraString(extra map[string]any, key string) string {
	if v, ok := extra[key].(string); ok {
		return v
	}
	return ""
}

var _ domain.RenderingService = (*Rendering)(nil)
