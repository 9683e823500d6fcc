package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinvoicing "github.com/vetclinic/backend/internal/application/invoicing"
	"github.com/vetclinic/backend/internal/domain/invoicing"
	"github.com/vetclinic/backend/internal/interfaces/http/dto"
	"github.com/vetclinic/backend/internal/interfaces/http/middleware"
)

// InvoiceHandler handles the invoice ledger API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *appinvoicing.InvoiceService
	paymentService *appinvoicing.PaymentService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *appinvoicing.InvoiceService, paymentService *appinvoicing.PaymentService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		paymentService: paymentService,
	}
}

// invoiceItemRequest is one line of an invoice create/update request
type invoiceItemRequest struct {
	ServiceID       *uuid.UUID      `json:"service_id,omitempty"`
	ProductID       *uuid.UUID      `json:"product_id,omitempty"`
	Description     string          `json:"description" binding:"required,max=500"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice       decimal.Decimal `json:"unit_price" binding:"required"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// createInvoiceRequest is the body of POST /invoices
type createInvoiceRequest struct {
	PetID   uuid.UUID            `json:"pet_id" binding:"required"`
	Items   []invoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	TaxRate *decimal.Decimal     `json:"tax_rate,omitempty"`
	DueDate *time.Time           `json:"due_date,omitempty"`
	Notes   string               `json:"notes,omitempty" binding:"max=2000"`
}

// updateStatusRequest is the body of POST /invoices/:id/status
type updateStatusRequest struct {
	Status string  `json:"status" binding:"required,oneof=sent partial overdue paid cancelled"`
	Notes  *string `json:"notes,omitempty"`
}

// sendInvoiceRequest is the body of POST /invoices/:id/send
type sendInvoiceRequest struct {
	NotifyEmail bool   `json:"notify_email"`
	Message     string `json:"message,omitempty" binding:"max=2000"`
}

// voidInvoiceRequest is the body of POST /invoices/:id/void
type voidInvoiceRequest struct {
	Reason string `json:"reason,omitempty" binding:"max=500"`
}

// recordPaymentRequest is the body of POST /invoices/:id/payments
type recordPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Method          string          `json:"method" binding:"required,oneof=cash card transfer mobile other"`
	ReferenceNumber string          `json:"reference_number,omitempty" binding:"max=100"`
	Notes           string          `json:"notes,omitempty" binding:"max=2000"`
}

// listInvoicesRequest is the query of GET /invoices
type listInvoicesRequest struct {
	Status   string `form:"status" binding:"omitempty,oneof=draft sent partial overdue paid cancelled void"`
	PetID    string `form:"pet_id" binding:"omitempty,uuid"`
	OwnerID  string `form:"owner_id" binding:"omitempty,uuid"`
	From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func toItemInputs(items []invoiceItemRequest) []appinvoicing.ItemInput {
	inputs := make([]appinvoicing.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, appinvoicing.ItemInput{
			ServiceID:       item.ServiceID,
			ProductID:       item.ProductID,
			Description:     item.Description,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
		})
	}
	return inputs
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoiceService.Create(c.Request.Context(), actor, appinvoicing.CreateInvoiceInput{
		PetID:   req.PetID,
		Items:   toItemInputs(req.Items),
		TaxRate: req.TaxRate,
		DueDate: req.DueDate,
		Notes:   req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Update handles PUT /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := h.bindInvoiceID(c)
	if err != nil {
		return
	}

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoiceService.Update(c.Request.Context(), actor, invoiceID, appinvoicing.UpdateInvoiceInput{
		PetID:   req.PetID,
		Items:   toItemInputs(req.Items),
		TaxRate: req.TaxRate,
		DueDate: req.DueDate,
		Notes:   req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdateStatus handles POST /invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := h.bindInvoiceID(c)
	if err != nil {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.invoiceService.UpdateStatus(c.Request.Context(), actor, invoiceID,
		invoicing.InvoiceStatus(req.Status), req.Notes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Send handles POST /invoices/:id/send
func (h *InvoiceHandler) Send(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := h.bindInvoiceID(c)
	if err != nil {
		return
	}

	// An empty body means "send without email"
	var req sendInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	resp, err := h.invoiceService.Send(c.Request.Context(), actor, invoiceID, appinvoicing.SendInvoiceInput{
		NotifyEmail: req.NotifyEmail,
		Message:     req.Message,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Void handles POST /invoices/:id/void
func (h *InvoiceHandler) Void(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := h.bindInvoiceID(c)
	if err != nil {
		return
	}

	var req voidInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}

	if err := h.invoiceService.Void(c.Request.Context(), actor, invoiceID, req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := h.bindInvoiceID(c)
	if err != nil {
		return
	}

	resp, err := h.invoiceService.GetByID(c.Request.Context(), actor, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req listInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	input := appinvoicing.ListInvoicesInput{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Status != "" {
		status := invoicing.InvoiceStatus(req.Status)
		input.Status = &status
	}
	if req.PetID != "" {
		petID := uuid.MustParse(req.PetID)
		input.PetID = &petID
	}
	if req.OwnerID != "" {
		ownerID := uuid.MustParse(req.OwnerID)
		input.OwnerID = &ownerID
	}
	if req.From != "" {
		from, _ := time.Parse("2006-01-02", req.From)
		input.FromDate = &from
	}
	if req.To != "" {
		// Inclusive upper bound: filter to the end of the named day
		to, _ := time.Parse("2006-01-02", req.To)
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		input.ToDate = &to
	}

	page, err := h.invoiceService.List(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// RecordPayment handles POST /invoices/:id/payments
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := h.bindInvoiceID(c)
	if err != nil {
		return
	}

	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), actor, invoiceID, appinvoicing.RecordPaymentInput{
		Amount:          req.Amount,
		Method:          invoicing.PaymentMethod(req.Method),
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// ListPayments handles GET /invoices/:id/payments
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := h.bindInvoiceID(c)
	if err != nil {
		return
	}

	payments, err := h.paymentService.ListByInvoice(c.Request.Context(), actor, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payments)
}

// bindInvoiceID parses the :id path parameter, responding 400 on failure
func (h *InvoiceHandler) bindInvoiceID(c *gin.Context) (uuid.UUID, error) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return uuid.Nil, err
	}
	return uuid.MustParse(req.ID), nil
}
