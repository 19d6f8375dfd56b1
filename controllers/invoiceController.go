package controllers

import (
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"invoicing-backend/middlewares"
	"invoicing-backend/models"
	"invoicing-backend/repository"
	"invoicing-backend/storage"
	"invoicing-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ObjectStore is the slice of the file store the controller needs.
type ObjectStore interface {
	Save(prefix string, fh *multipart.FileHeader) (string, error)
}

type InvoiceController struct {
	repo  *repository.InvoiceRepository
	store ObjectStore
}

func NewInvoiceController(repo *repository.InvoiceRepository, store ObjectStore) *InvoiceController {
	return &InvoiceController{repo: repo, store: store}
}

// InvoiceInput carries the writable invoice fields of a create request.
type InvoiceInput struct {
	CompanyName           string          `json:"company_name" validate:"required"`
	CompanyAddress        string          `json:"company_address" validate:"required"`
	CompanyContact        string          `json:"company_contact"`
	CompanyRepresentative string          `json:"company_representative"`
	CustomerName          string          `json:"customer_name" validate:"required"`
	CustomerAddress       string          `json:"customer_address" validate:"required"`
	DueDate               string          `json:"due_date"`
	TotalAmount           decimal.Decimal `json:"total_amount"`
	IsStamped             bool            `json:"is_stamped"`
	StampText             string          `json:"stamp_text"`
}

// Create handles POST /api/invoices. The invoice itself is validated and
// persisted first; items_json is then parsed and each element inserted as a
// line item. Item failures are logged and swallowed: the invoice create still
// succeeds, and the 201 body reflects the invoice before items were attached.
func (ctl *InvoiceController) Create(c *fiber.Ctx) error {
	input, itemsJSON, err := parseInvoiceRequest(c)
	if err != nil {
		return err
	}
	utils.NormalizeDTO(input)
	if err := middlewares.ValidateStruct(input); err != nil {
		return err
	}

	invoice := models.Invoice{
		CompanyName:           input.CompanyName,
		CompanyAddress:        input.CompanyAddress,
		CompanyContact:        input.CompanyContact,
		CompanyRepresentative: input.CompanyRepresentative,
		CustomerName:          input.CustomerName,
		CustomerAddress:       input.CustomerAddress,
		TotalAmount:           utils.Money2(input.TotalAmount),
		IsStamped:             input.IsStamped,
		StampText:             input.StampText,
		Items:                 []models.LineItem{},
	}

	if input.DueDate != "" {
		due, err := time.Parse(dateLayout, input.DueDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid due_date")
		}
		invoice.DueDate = &due
	}

	if err := ctl.saveUploads(c, &invoice); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := ctl.repo.Create(&invoice); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not create invoice")
	}

	if itemsJSON != "" {
		if err := ctl.attachLineItems(invoice.ID, itemsJSON); err != nil {
			// Deliberately lenient: the invoice row is already committed and
			// the request must not fail because its items could not be parsed.
			log.Printf("error parsing items for invoice %d: %v", invoice.ID, err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// List handles GET /api/invoices, newest first.
func (ctl *InvoiceController) List(c *fiber.Ctx) error {
	invoices, err := ctl.repo.List()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not list invoices")
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	return c.JSON(invoices)
}

// Get handles GET /api/invoices/:id.
func (ctl *InvoiceController) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	invoice, err := ctl.repo.Get(id)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

// InvoiceUpdateInput uses pointer fields so absent keys stay untouched.
type InvoiceUpdateInput struct {
	CompanyName           *string          `json:"company_name" validate:"omitempty,min=1"`
	CompanyAddress        *string          `json:"company_address" validate:"omitempty,min=1"`
	CompanyContact        *string          `json:"company_contact"`
	CompanyRepresentative *string          `json:"company_representative"`
	CustomerName          *string          `json:"customer_name" validate:"omitempty,min=1"`
	CustomerAddress       *string          `json:"customer_address" validate:"omitempty,min=1"`
	DueDate               *string          `json:"due_date"`
	TotalAmount           *decimal.Decimal `json:"total_amount"`
	IsStamped             *bool            `json:"is_stamped"`
	StampText             *string          `json:"stamp_text"`
}

// Update handles PUT and PATCH /api/invoices/:id. The creation date is
// immutable; everything else updates field-by-field.
func (ctl *InvoiceController) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var input InvoiceUpdateInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&input)

	updates := utils.UpdatesFromPtrDTO(&input)
	if input.DueDate != nil {
		if *input.DueDate == "" {
			updates["due_date"] = nil
		} else {
			due, err := time.Parse(dateLayout, *input.DueDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid due_date")
			}
			updates["due_date"] = due
		}
	}
	if input.TotalAmount != nil {
		updates["total_amount"] = utils.Money2(*input.TotalAmount)
	}

	invoice, err := ctl.repo.Update(id, updates)
	if err != nil {
		return err
	}
	return c.JSON(invoice)
}

// Delete handles DELETE /api/invoices/:id; line items go with the invoice.
func (ctl *InvoiceController) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := ctl.repo.Delete(id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// lineItemPayload mirrors one element of the items_json array. Missing keys
// fall back to: empty description, quantity 1, price 0.
type lineItemPayload struct {
	Description string          `json:"description"`
	Quantity    *int            `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// attachLineItems parses the items_json payload and inserts one line item per
// element. Each insert is an independent write: a failure part-way through
// keeps the rows created so far and skips the rest.
func (ctl *InvoiceController) attachLineItems(invoiceID uint, itemsJSON string) error {
	var payload []lineItemPayload
	if err := json.Unmarshal([]byte(itemsJSON), &payload); err != nil {
		return fmt.Errorf("decode items_json: %w", err)
	}
	for i, p := range payload {
		quantity := 1
		if p.Quantity != nil {
			quantity = *p.Quantity
		}
		item := models.LineItem{
			InvoiceID:   invoiceID,
			Description: p.Description,
			Quantity:    quantity,
			Price:       utils.Money2(p.Price),
		}
		if err := ctl.repo.AddLineItem(&item); err != nil {
			return fmt.Errorf("create line item %d: %w", i, err)
		}
	}
	return nil
}

// saveUploads stores any logo/signature files of a multipart request and
// records their references on the invoice.
func (ctl *InvoiceController) saveUploads(c *fiber.Ctx, invoice *models.Invoice) error {
	uploads := []struct {
		field  string
		prefix string
		dest   *string
	}{
		{"company_logo", storage.PrefixLogos, &invoice.CompanyLogo},
		{"company_signature", storage.PrefixSignatures, &invoice.CompanySignature},
		{"customer_signature", storage.PrefixSignatures, &invoice.CustomerSignature},
	}
	for _, u := range uploads {
		fh, err := c.FormFile(u.field)
		if err != nil {
			continue // field absent or not a multipart request
		}
		ref, err := ctl.store.Save(u.prefix, fh)
		if err != nil {
			return fmt.Errorf("store %s: %w", u.field, err)
		}
		*u.dest = ref
	}
	return nil
}

// parseInvoiceRequest reads the create payload from either a JSON or a
// form/multipart body and extracts the non-model items_json field.
func parseInvoiceRequest(c *fiber.Ctx) (*InvoiceInput, string, error) {
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	if strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
		return parseInvoiceJSON(c)
	}
	return parseInvoiceForm(c)
}

func parseInvoiceJSON(c *fiber.Ctx) (*InvoiceInput, string, error) {
	var input InvoiceInput
	if err := c.BodyParser(&input); err != nil {
		return nil, "", fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	// items_json is not a model field; clients may send it as a string or,
	// when forwarding duplicated form fields, as an array (first one wins).
	var aux struct {
		ItemsJSON json.RawMessage `json:"items_json"`
	}
	if err := json.Unmarshal(c.Body(), &aux); err != nil || len(aux.ItemsJSON) == 0 {
		return &input, "", nil
	}
	return &input, rawItemsValue(aux.ItemsJSON), nil
}

func parseInvoiceForm(c *fiber.Ctx) (*InvoiceInput, string, error) {
	input := &InvoiceInput{
		CompanyName:           c.FormValue("company_name"),
		CompanyAddress:        c.FormValue("company_address"),
		CompanyContact:        c.FormValue("company_contact"),
		CompanyRepresentative: c.FormValue("company_representative"),
		CustomerName:          c.FormValue("customer_name"),
		CustomerAddress:       c.FormValue("customer_address"),
		DueDate:               c.FormValue("due_date"),
		StampText:             c.FormValue("stamp_text"),
	}

	if v := c.FormValue("total_amount"); v != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, "", fiber.NewError(fiber.StatusBadRequest, "invalid total_amount")
		}
		input.TotalAmount = d
	}
	if v := c.FormValue("is_stamped"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, "", fiber.NewError(fiber.StatusBadRequest, "invalid is_stamped")
		}
		input.IsStamped = b
	}

	itemsJSON := c.FormValue("items_json")
	// Duplicated multipart fields arrive as a list; take the first value.
	if form, err := c.MultipartForm(); err == nil && form != nil {
		if vals := form.Value["items_json"]; len(vals) > 0 {
			itemsJSON = vals[0]
		}
	}
	return input, itemsJSON, nil
}

// rawItemsValue unwraps the items_json field: a JSON string yields itself, an
// array yields its first element. Anything else passes through verbatim and
// fails item parsing later, which is logged and swallowed.
func rawItemsValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		if err := json.Unmarshal(list[0], &s); err == nil {
			return s
		}
		return string(list[0])
	}
	return string(raw)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}
	return uint(id), nil
}
