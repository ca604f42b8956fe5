package render

import (
	"time"
)

// Renderer turns a prepared view model into HTML.
type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}

type RenderInput struct {
	Title     string
	Reference string
	IsBill    bool
	Status    string
	Currency  string
	Locale    string
	Note      string
	IssuedAt  time.Time
	Receiver  map[string]any
	Sender    map[string]any
	Payment   map[string]any
	Lines     []LineView
	Total     int64
	Tax       int64
	Discount  int64
	Extra     map[string]any
}

type LineView struct {
	Description     string
	Amount          int64
	Tax             int64
	Taxes           []TaxView
	IsFree          bool
	IsComplimentary bool
}

type TaxView struct {
	Name         string
	Value        float64
	IsPercentage bool
	Amount       int64
}
