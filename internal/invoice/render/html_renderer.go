package render

import (
	"bytes"
	"html/template"
	"sort"
	"time"

	"github.com/smallbiznis/invoicekit/internal/invoice/format"
)

const documentHTMLTemplate = `<!doctype html>
<html lang="{{.Locale}}">
<head>
  <meta charset="utf-8" />
  <title>{{.Title}} {{.Reference}}</title>
  <style>
    * { box-sizing: border-box; }
    body { margin: 0; padding: 40px; font-family: -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; color: #1a1f36; background: #f7f9fc; }
    .card { background: #fff; max-width: 760px; margin: 0 auto; padding: 56px; border-radius: 4px; }
    .header, .parties { display: flex; justify-content: space-between; margin-bottom: 32px; }
    .label { font-size: 11px; text-transform: uppercase; color: #8792a2; font-weight: 600; margin-bottom: 6px; }
    .value { font-size: 14px; line-height: 1.5; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
    th { text-align: left; font-size: 11px; text-transform: uppercase; color: #8792a2; border-bottom: 1px solid #e3e8ee; padding: 10px 0; }
    td { padding: 12px 0; border-bottom: 1px solid #e3e8ee; font-size: 14px; vertical-align: top; }
    .right { text-align: right; }
    .sub { font-size: 12px; color: #697386; }
    .badge { font-size: 11px; color: #0a7d4f; text-transform: uppercase; margin-left: 6px; }
    .totals { margin-left: auto; width: 280px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-size: 14px; }
    .final { border-top: 1px solid #e3e8ee; margin-top: 8px; padding-top: 10px; font-weight: 700; }
    .note { margin-top: 40px; font-size: 12px; color: #8792a2; border-top: 1px solid #e3e8ee; padding-top: 16px; }
  </style>
</head>
<body>
  <div class="card">
    <div class="header">
      <div>
        <h1 style="margin: 0;">{{.Title}}</h1>
        <div class="label" style="margin-top: 12px;">Reference</div>
        <div class="value">{{.Reference}}</div>
      </div>
      <div class="right">
        <div class="label">Date</div>
        <div class="value">{{formatDate .IssuedAt}}</div>
        <div class="label" style="margin-top: 12px;">Status</div>
        <div class="value">{{.Status}}</div>
      </div>
    </div>

    <div class="parties">
      <div>
        <div class="label">From</div>
        <div class="value">{{range $k := sortedKeys .Sender}}{{index $.Sender $k}}<br>{{end}}</div>
      </div>
      <div class="right">
        <div class="label">To</div>
        <div class="value">{{range $k := sortedKeys .Receiver}}{{index $.Receiver $k}}<br>{{end}}</div>
      </div>
    </div>

    <table>
      <thead>
        <tr>
          <th style="width: 60%;">Description</th>
          <th class="right">Tax</th>
          <th class="right">Amount</th>
        </tr>
      </thead>
      <tbody>
        {{range .Lines}}
        <tr>
          <td>
            {{.Description}}{{if .IsFree}}<span class="badge">free</span>{{end}}{{if .IsComplimentary}}<span class="badge">complimentary</span>{{end}}
            {{range .Taxes}}<div class="sub">{{.Name}}{{if .IsPercentage}} {{percent .Value}}{{end}}: {{money .Amount}}</div>{{end}}
          </td>
          <td class="right">{{money .Tax}}</td>
          <td class="right">{{money .Amount}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="totals">
      <div class="row"><span>Subtotal</span><span>{{money (subtract .Total .Tax)}}</span></div>
      <div class="row"><span>Tax</span><span>{{money .Tax}}</span></div>
      {{if .Discount}}<div class="row"><span>Discount</span><span>{{money .Discount}}</span></div>{{end}}
      <div class="row final"><span>Total</span><span>{{money .Total}}</span></div>
    </div>

    {{range $k := sortedKeys .Payment}}<div class="sub">{{$k}}: {{index $.Payment $k}}</div>{{end}}
    {{if .Note}}<div class="note">{{.Note}}</div>{{end}}
  </div>
</body>
</html>
`

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	return &HTMLRenderer{
		tpl: template.Must(template.New("document").Funcs(baseFuncs()).Parse(documentHTMLTemplate)),
	}
}

// RenderHTML binds money formatting to the input's currency and locale.
func (r *HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	if input.Title == "" {
		input.Title = "Invoice"
		if input.IsBill {
			input.Title = "Bill"
		}
	}
	if input.Locale == "" {
		input.Locale = "en"
	}

	tpl, err := r.tpl.Clone()
	if err != nil {
		return "", err
	}
	tpl.Funcs(template.FuncMap{
		"money":   func(amount int64) string { return format.Money(amount, input.Currency, input.Locale) },
		"percent": func(rate float64) string { return format.Percent(rate, input.Locale) },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func baseFuncs() template.FuncMap {
	return template.FuncMap{
		"money":      func(int64) string { return "" },
		"percent":    func(float64) string { return "" },
		"formatDate": formatDate,
		"sortedKeys": sortedKeys,
		"subtract":   func(a, b int64) int64 { return a - b },
	}
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.UTC().Format("2006-01-02")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
