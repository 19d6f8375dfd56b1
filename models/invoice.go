package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is a billing document issued by a company to a customer.
type Invoice struct {
	ID uint `json:"id" gorm:"primaryKey"`

	CompanyName           string `json:"company_name" gorm:"size:255;not null"`
	CompanyAddress        string `json:"company_address" gorm:"type:text;not null"`
	CompanyContact        string `json:"company_contact" gorm:"size:255"`
	CompanyRepresentative string `json:"company_representative" gorm:"size:255"`
	CompanyLogo           string `json:"company_logo"` // object reference under logos/

	CustomerName    string `json:"customer_name" gorm:"size:255;not null"`
	CustomerAddress string `json:"customer_address" gorm:"type:text;not null"`

	// Date is stamped once at creation and never updated afterwards.
	Date    time.Time  `json:"date" gorm:"autoCreateTime;index"`
	DueDate *time.Time `json:"due_date"`

	// TotalAmount is operator-set storage. It is not derived from the line
	// items; callers keep it consistent themselves if they want it to match.
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:numeric(10,2);default:0"`

	CompanySignature  string `json:"company_signature"`  // object reference under signatures/
	CustomerSignature string `json:"customer_signature"` // object reference under signatures/

	IsStamped bool   `json:"is_stamped" gorm:"default:false"`
	StampText string `json:"stamp_text" gorm:"size:100;default:'PAID'"`

	Items []LineItem `json:"items" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

func (invoice *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if invoice.StampText == "" {
		invoice.StampText = "PAID"
	}
	return
}

func (invoice *Invoice) AfterFind(tx *gorm.DB) (err error) {
	// An invoice without rows should serialize as "items": [], not null.
	if invoice.Items == nil {
		invoice.Items = []LineItem{}
	}
	return
}

// LineItem is one billable entry on an invoice. It belongs to exactly one
// invoice for its lifetime.
type LineItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	InvoiceID   uint            `json:"-" gorm:"not null;index"`
	Description string          `json:"description" gorm:"size:255"`
	Quantity    int             `json:"quantity" gorm:"default:1"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null"`
	Image       string          `json:"image"` // object reference under items/

	// Total is quantity * price, computed on read. Never persisted.
	Total decimal.Decimal `json:"total" gorm:"-"`
}

// ComputeTotal returns quantity * price at currency precision.
func (item *LineItem) ComputeTotal() decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func (item *LineItem) AfterFind(tx *gorm.DB) (err error) {
	item.Total = item.ComputeTotal()
	return
}
