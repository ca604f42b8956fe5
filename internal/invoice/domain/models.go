// Package domain contains the invoice and bill aggregate, its line items and
// the rules that derive document totals from lines.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Kind distinguishes invoices from bills. Both share one schema.
type Kind string

const (
	KindInvoice Kind = "invoice"
	KindBill    Kind = "bill"
)

func (k Kind) IsBill() bool { return k == KindBill }

func (k Kind) Valid() bool { return k == KindInvoice || k == KindBill }

// RelatedRef is a weak (type, id) pointer to a business entity owned elsewhere.
type RelatedRef struct {
	Type string `json:"type" gorm:"column:type;type:varchar(191);index"`
	ID   string `json:"id" gorm:"column:id;type:varchar(191);index"`
}

func NewRelatedRef(typ, id string) RelatedRef {
	return RelatedRef{Type: strings.TrimSpace(typ), ID: strings.TrimSpace(id)}
}

func (r RelatedRef) Validate() error {
	if r.Type == "" || r.ID == "" {
		return ErrInvalidRelated
	}
	return nil
}

func (r RelatedRef) IsZero() bool { return r.Type == "" && r.ID == "" }

// Document is an invoice or a bill. Total, Tax and Discount are derived from
// Lines by Recalculate and are never set by callers.
type Document struct {
	ID           uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	Reference    string            `json:"reference" gorm:"type:varchar(191);not null;uniqueIndex:ux_document_kind_reference,priority:2"`
	IsBill       bool              `json:"is_bill" gorm:"not null;default:false;uniqueIndex:ux_document_kind_reference,priority:1"`
	Total        int64             `json:"total" gorm:"not null;default:0"`
	Tax          int64             `json:"tax" gorm:"not null;default:0"`
	Discount     int64             `json:"discount" gorm:"not null;default:0"`
	Currency     string            `json:"currency" gorm:"type:char(3);not null"`
	Status       string            `json:"status" gorm:"type:varchar(64);not null;index"`
	Note         string            `json:"note,omitempty" gorm:"type:text"`
	ReceiverInfo datatypes.JSONMap `json:"receiver_info,omitempty"`
	SenderInfo   datatypes.JSONMap `json:"sender_info,omitempty"`
	PaymentInfo  datatypes.JSONMap `json:"payment_info,omitempty"`
	Related      RelatedRef        `json:"related" gorm:"embedded;embeddedPrefix:related_"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"not null"`
	DeletedAt    gorm.DeletedAt    `json:"deleted_at,omitempty" gorm:"index"`

	Lines []LineItem `json:"lines,omitempty" gorm:"-"`
}

// TableName is the fallback name; repositories bind the configured table explicitly.
func (Document) TableName() string { return "invoices" }

func (d Document) Kind() Kind {
	if d.IsBill {
		return KindBill
	}
	return KindInvoice
}

func (d Document) Totals() Totals {
	return Totals{Total: d.Total, Tax: d.Tax, Discount: d.Discount}
}

func (d *Document) ApplyTotals(t Totals) {
	d.Total = t.Total
	d.Tax = t.Tax
	d.Discount = t.Discount
}

// TaxDetail records one named tax applied to a line and what it contributed.
type TaxDetail struct {
	Name         string  `json:"name"`
	Value        float64 `json:"value"`
	IsPercentage bool    `json:"is_percentage"`
	Amount       int64   `json:"amount"`
}

// LineItem is one charge on a document. Amount is tax-inclusive.
type LineItem struct {
	ID              uuid.UUID                      `json:"id" gorm:"type:char(36);primaryKey"`
	DocumentID      uuid.UUID                      `json:"document_id" gorm:"type:char(36);not null;index:idx_line_document_position,priority:1"`
	Position        int                            `json:"position" gorm:"not null;index:idx_line_document_position,priority:2"`
	Amount          int64                          `json:"amount" gorm:"not null"`
	Tax             int64                          `json:"tax" gorm:"not null;default:0"`
	TaxDetails      datatypes.JSONSlice[TaxDetail] `json:"tax_details"`
	Discount        int64                          `json:"discount" gorm:"not null;default:0"`
	Description     string                         `json:"description" gorm:"type:text"`
	IsFree          bool                           `json:"is_free" gorm:"not null;default:false"`
	IsComplimentary bool                           `json:"is_complimentary" gorm:"not null;default:false"`
	Related         RelatedRef                     `json:"related" gorm:"embedded;embeddedPrefix:related_"`
	CreatedAt       time.Time                      `json:"created_at" gorm:"not null"`
}

func (LineItem) TableName() string { return "invoice_lines" }

// Classification reports which aggregation bucket the line falls into.
func (l LineItem) Classification() LineClass {
	switch {
	case l.IsFree:
		return LineFree
	case l.IsComplimentary:
		return LineComplimentary
	default:
		return LineRegular
	}
}

type LineClass string

const (
	LineRegular       LineClass = "regular"
	LineFree          LineClass = "free"
	LineComplimentary LineClass = "complimentary"
)
