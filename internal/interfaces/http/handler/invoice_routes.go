package handler

import (
	"github.com/vetclinic/backend/internal/interfaces/http/router"
)

// InvoiceRoutes creates the route group for the invoice ledger endpoints
func InvoiceRoutes(handler *InvoiceHandler) *router.DomainGroup {
	group := router.NewDomainGroup("invoicing", "/invoices")

	// Invoice lifecycle
	group.POST("", handler.Create)
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.POST("/:id/send", handler.Send)
	group.POST("/:id/status", handler.UpdateStatus)
	group.POST("/:id/void", handler.Void)

	// Payments against an invoice
	group.POST("/:id/payments", handler.RecordPayment)
	group.GET("/:id/payments", handler.ListPayments)

	return group
}

// SystemRoutes creates the route group for system information endpoints
func SystemRoutes(handler *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "/system")

	group.GET("/info", handler.GetSystemInfo)
	group.GET("/health", handler.Health)
	group.GET("/ready", handler.Ready)

	return group
}
