package repository

import (
	"invoicing-backend/models"

	"gorm.io/gorm"
)

// InvoiceRepository owns all invoice and line-item persistence.
type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts the invoice only; line items are attached separately.
func (r *InvoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Create(invoice).Error
}

// AddLineItem inserts a single line item. Each insert is its own statement;
// the create sequence is not one all-or-nothing transaction.
func (r *InvoiceRepository) AddLineItem(item *models.LineItem) error {
	return r.db.Create(item).Error
}

// List returns all invoices newest-first with their line items preloaded.
func (r *InvoiceRepository) List() ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.Preload("Items").Order("date DESC").Find(&invoices).Error
	return invoices, err
}

// Get returns one invoice with its line items, or gorm.ErrRecordNotFound.
func (r *InvoiceRepository) Get(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.Preload("Items").First(&invoice, id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Update applies a partial update and returns the fresh record.
// The date column is immutable and dropped from the update set.
func (r *InvoiceRepository) Update(id uint, updates map[string]any) (*models.Invoice, error) {
	delete(updates, "date")

	var invoice models.Invoice
	if err := r.db.First(&invoice, id).Error; err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := r.db.Model(&invoice).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.Get(id)
}

// Delete removes the invoice and its line items in a single transaction.
func (r *InvoiceRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		if err := tx.First(&invoice, id).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.LineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&invoice).Error
	})
}

// CountLineItems reports how many line items reference the invoice.
func (r *InvoiceRepository) CountLineItems(invoiceID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.LineItem{}).Where("invoice_id = ?", invoiceID).Count(&n).Error
	return n, err
}
