package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ainuod/DeliveryCOMPANY/internal/service"
)

type TourHandler struct {
	svc *service.TourService
}

func NewTourHandler(svc *service.TourService) *TourHandler {
	return &TourHandler{svc: svc}
}

// GET /api/v1/tours
func (h *TourHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":    c.Query("status"),
		"driver_id": c.Query("driver_id"),
	}

	tours, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": tours, "total": total, "page": page, "page_size": pageSize})
}

// GET /api/v1/tours/:id
func (h *TourHandler) Get(c *gin.Context) {
	tour, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, tour)
}

// POST /api/v1/tours
func (h *TourHandler) Create(c *gin.Context) {
	var req service.CreateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	tour, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, tour)
}

// PUT /api/v1/tours/:id
func (h *TourHandler) Update(c *gin.Context) {
	var req service.UpdateTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	tour, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, tour)
}

// DELETE /api/v1/tours/:id
func (h *TourHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "tour deleted"})
}

// AssignShipments attaches shipments to the tour.
// POST /api/v1/tours/:id/shipments
func (h *TourHandler) AssignShipments(c *gin.Context) {
	var req service.AssignShipmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	tour, err := h.svc.AssignShipments(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, tour)
}
