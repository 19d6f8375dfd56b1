package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"invoicing-backend/controllers"
	"invoicing-backend/middlewares"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, invoices *controllers.InvoiceController, db *gorm.DB) {
	api := app.Group("/api")

	// Idempotency guard for mutating calls
	api.Use(middlewares.Idempotency(db))

	// Invoices
	api.Get("/invoices", invoices.List)
	api.Post("/invoices", invoices.Create)
	api.Get("/invoices/:id", invoices.Get)
	api.Put("/invoices/:id", invoices.Update)
	api.Patch("/invoices/:id", invoices.Update)
	api.Delete("/invoices/:id", invoices.Delete)
}
