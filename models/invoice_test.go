package models

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupModelDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Invoice{}, &LineItem{}))
	return db
}

func minimalInvoice() Invoice {
	return Invoice{
		CompanyName:     "Acme GmbH",
		CompanyAddress:  "1 Factory Lane",
		CustomerName:    "Jane Doe",
		CustomerAddress: "2 Market Square",
	}
}

func TestLineItemComputeTotal(t *testing.T) {
	item := LineItem{Quantity: 3, Price: decimal.RequireFromString("4.50")}
	assert.True(t, item.ComputeTotal().Equal(decimal.RequireFromString("13.50")),
		"expected 13.50, got %s", item.ComputeTotal())
}

func TestLineItemTotalNeverStored(t *testing.T) {
	db := setupModelDB(t)

	// No column may back the derived field.
	assert.False(t, db.Migrator().HasColumn(&LineItem{}, "total"))

	inv := minimalInvoice()
	require.NoError(t, db.Create(&inv).Error)

	item := LineItem{InvoiceID: inv.ID, Description: "Widget", Quantity: 3, Price: decimal.RequireFromString("4.50")}
	require.NoError(t, db.Create(&item).Error)

	var got LineItem
	require.NoError(t, db.First(&got, item.ID).Error)
	assert.True(t, got.Total.Equal(decimal.RequireFromString("13.50")), "AfterFind should derive total, got %s", got.Total)
}

func TestInvoiceCreateDefaults(t *testing.T) {
	db := setupModelDB(t)

	inv := minimalInvoice()
	require.NoError(t, db.Create(&inv).Error)

	var got Invoice
	require.NoError(t, db.First(&got, inv.ID).Error)
	assert.Equal(t, "PAID", got.StampText)
	assert.False(t, got.IsStamped)
	assert.True(t, got.TotalAmount.IsZero(), "total_amount should default to zero, got %s", got.TotalAmount)
	assert.False(t, got.Date.IsZero(), "date should be stamped at creation")
	assert.NotNil(t, got.Items, "items should serialize as an empty array")
}
