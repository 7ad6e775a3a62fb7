package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/service"
)

type ShipmentHandler struct {
	svc *service.ShipmentService
}

func NewShipmentHandler(svc *service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{svc: svc}
}

// List returns shipments. Clients only see their own.
// GET /api/v1/shipments
func (h *ShipmentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"client_id":  c.Query("client_id"),
		"status":     c.Query("status"),
		"tour_id":    c.Query("tour_id"),
		"uninvoiced": c.Query("uninvoiced"),
	}
	if GetUserRole(c) == entity.RoleClient {
		filters["client_id"] = GetUserID(c)
	}

	shipments, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": shipments, "total": total, "page": page, "page_size": pageSize})
}

// GET /api/v1/shipments/:id
func (h *ShipmentHandler) Get(c *gin.Context) {
	shipment, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	if GetUserRole(c) == entity.RoleClient && shipment.ClientID != GetUserID(c) {
		Forbidden(c, "not your shipment")
		return
	}
	Success(c, shipment)
}

// Create registers a shipment and prices it. Clients always create for
// themselves regardless of the client_id in the payload.
// POST /api/v1/shipments
func (h *ShipmentHandler) Create(c *gin.Context) {
	var req service.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if GetUserRole(c) == entity.RoleClient {
		req.ClientID = GetUserID(c)
	}

	shipment, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, shipment)
}

// PUT /api/v1/shipments/:id
func (h *ShipmentHandler) Update(c *gin.Context) {
	var req service.UpdateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	shipment, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, shipment)
}

// DELETE /api/v1/shipments/:id
func (h *ShipmentHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "shipment deleted"})
}
