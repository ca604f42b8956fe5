package domain

// Totals are the derived aggregates of a document.
type Totals struct {
	Total    int64 `json:"total"`
	Tax      int64 `json:"tax"`
	Discount int64 `json:"discount"`
}

// Recalculate derives document totals from its lines.
//
// Free and complimentary lines count only toward Discount, with their full
// amount. Regular lines contribute amount and tax, plus any explicit
// per-line discount. Negative amounts are summed as-is.
func Recalculate(lines []LineItem) Totals {
	var t Totals
	for _, line := range lines {
		switch line.Classification() {
		case LineFree, LineComplimentary:
			t.Discount += line.Amount
		default:
			t.Total += line.Amount
			t.Tax += line.Tax
			t.Discount += line.Discount
		}
	}
	return t
}
