package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/service"
)

type InvoiceHandler struct {
	svc *service.InvoiceService
}

func NewInvoiceHandler(svc *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{svc: svc}
}

// List returns invoices with computed totals. Clients only see their own.
// GET /api/v1/invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"client_id": c.Query("client_id"),
		"status":    c.Query("status"),
	}
	if GetUserRole(c) == entity.RoleClient {
		filters["client_id"] = GetUserID(c)
	}

	invoices, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": invoices, "total": total, "page": page, "page_size": pageSize})
}

// GET /api/v1/invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	if GetUserRole(c) == entity.RoleClient && invoice.ClientID != GetUserID(c) {
		Forbidden(c, "not your invoice")
		return
	}
	Success(c, invoice)
}

// Create issues an invoice over a set of shipments and charges the client
// balance.
// POST /api/v1/invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	invoice, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, invoice)
}

// PUT /api/v1/invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	invoice, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, invoice)
}

// Delete cancels an invoice, releasing its shipments and reversing the
// balance charge.
// DELETE /api/v1/invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "invoice deleted"})
}

// Export streams the invoice as an Excel workbook.
// GET /api/v1/invoices/:id/export
func (h *InvoiceHandler) Export(c *gin.Context) {
	f, filename, err := h.svc.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "export failed: "+err.Error())
		return
	}
}

// ListPayments returns payments, filtered by invoice or client.
// GET /api/v1/payments
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"invoice_id": c.Query("invoice_id"),
		"client_id":  c.Query("client_id"),
	}
	if GetUserRole(c) == entity.RoleClient {
		filters["client_id"] = GetUserID(c)
	}

	payments, total, err := h.svc.ListPayments(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": payments, "total": total, "page": page, "page_size": pageSize})
}

// RecordPayment registers a payment against an invoice and credits the
// client balance.
// POST /api/v1/payments
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	payment, err := h.svc.RecordPayment(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, payment)
}
