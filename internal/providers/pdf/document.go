package pdf

import (
	"context"
	"errors"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateDocument(ctx context.Context, data DocumentData) ([]byte, error) {
	if strings.TrimSpace(data.Reference) == "" {
		return nil, errors.New("pdf: document reference is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	title := data.Title
	if title == "" {
		title = "Invoice"
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, title, props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Left}),
		text.NewCol(4, data.Status, props.Text{Size: 9, Align: align.Right, Top: 4}),
	)

	m.AddRow(12,
		col.New(12).Add(
			text.New("Reference: "+data.Reference, props.Text{Top: 0}),
			text.New("Date: "+data.IssueDate, props.Text{Top: 5}),
		),
	)

	m.AddRow(rowHeight(len(data.SenderLines), len(data.ReceiverLines)),
		partyCol("From", data.SenderLines, align.Left),
		col.New(2),
		partyCol("To", data.ReceiverLines, align.Right),
	)

	m.AddRow(8,
		text.NewCol(8, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Tax", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range data.Items {
		descCol := col.New(8).Add(text.New(item.Description, props.Text{Size: 9}))
		for i, detail := range item.Details {
			descCol.Add(text.New(detail, props.Text{Size: 7, Top: float64(4 + 3*i)}))
		}
		m.AddRow(float64(8+3*len(item.Details)),
			descCol,
			text.NewCol(2, item.Tax, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(2, line.NewCol(12))

	totalRow(m, "Subtotal", data.Subtotal, false)
	totalRow(m, "Tax", data.Tax, false)
	if data.Discount != "" {
		totalRow(m, "Discount", data.Discount, false)
	}
	totalRow(m, "Total", data.Total, true)

	if len(data.PaymentLines) > 0 {
		m.AddRow(rowHeight(len(data.PaymentLines)), partyCol("Payment", data.PaymentLines, align.Left))
	}
	if data.Note != "" {
		m.AddRow(15, text.NewCol(12, data.Note, props.Text{Size: 8, Top: 5}))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

func partyCol(label string, lines []string, a align.Type) core.Col {
	c := col.New(5).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 9, Align: a}))
	for i, l := range lines {
		c.Add(text.New(l, props.Text{Size: 9, Top: float64(5 + 4*i), Align: a}))
	}
	return c
}

func totalRow(m core.Maroto, label, value string, bold bool) {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	m.AddRow(7,
		col.New(8),
		text.NewCol(2, label, props.Text{Size: 9, Style: style}),
		text.NewCol(2, value, props.Text{Size: 9, Style: style, Align: align.Right}),
	)
}

func rowHeight(counts ...int) float64 {
	lines := 0
	for _, c := range counts {
		lines = max(lines, c)
	}
	return float64(10 + 4*lines)
}
