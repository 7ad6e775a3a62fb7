package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ainuod/DeliveryCOMPANY/internal/service"
)

// LogisticsHandler covers destinations, drivers and vehicles.
type LogisticsHandler struct {
	destinationSvc *service.DestinationService
	fleetSvc       *service.FleetService
}

func NewLogisticsHandler(destinationSvc *service.DestinationService, fleetSvc *service.FleetService) *LogisticsHandler {
	return &LogisticsHandler{destinationSvc: destinationSvc, fleetSvc: fleetSvc}
}

// GET /api/v1/destinations
func (h *LogisticsHandler) ListDestinations(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"country": c.Query("country"),
		"city":    c.Query("city"),
	}

	destinations, total, err := h.destinationSvc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": destinations, "total": total, "page": page, "page_size": pageSize})
}

// GET /api/v1/destinations/:id
func (h *LogisticsHandler) GetDestination(c *gin.Context) {
	destination, err := h.destinationSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, destination)
}

// POST /api/v1/destinations
func (h *LogisticsHandler) CreateDestination(c *gin.Context) {
	var req service.CreateDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	destination, err := h.destinationSvc.Create(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, destination)
}

// PUT /api/v1/destinations/:id
func (h *LogisticsHandler) UpdateDestination(c *gin.Context) {
	var req service.UpdateDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	destination, err := h.destinationSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, destination)
}

// DELETE /api/v1/destinations/:id
func (h *LogisticsHandler) DeleteDestination(c *gin.Context) {
	if err := h.destinationSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"message": "destination deleted"})
}

// GET /api/v1/drivers
func (h *LogisticsHandler) ListDrivers(c *gin.Context) {
	page, pageSize := GetPagination(c)
	onlyAvailable := c.Query("available") == "true"

	drivers, total, err := h.fleetSvc.ListDrivers(c.Request.Context(), page, pageSize, onlyAvailable)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": drivers, "total": total, "page": page, "page_size": pageSize})
}

// GET /api/v1/drivers/:id
func (h *LogisticsHandler) GetDriver(c *gin.Context) {
	driver, err := h.fleetSvc.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, driver)
}

// POST /api/v1/drivers
func (h *LogisticsHandler) CreateDriver(c *gin.Context) {
	var req service.CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	driver, err := h.fleetSvc.CreateDriver(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, driver)
}

// PUT /api/v1/drivers/:id
func (h *LogisticsHandler) UpdateDriver(c *gin.Context) {
	var req service.UpdateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	driver, err := h.fleetSvc.UpdateDriver(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, driver)
}

// GET /api/v1/vehicles
func (h *LogisticsHandler) ListVehicles(c *gin.Context) {
	page, pageSize := GetPagination(c)
	onlyInService := c.Query("in_service") == "true"

	vehicles, total, err := h.fleetSvc.ListVehicles(c.Request.Context(), page, pageSize, onlyInService)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": vehicles, "total": total, "page": page, "page_size": pageSize})
}

// GET /api/v1/vehicles/:id
func (h *LogisticsHandler) GetVehicle(c *gin.Context) {
	vehicle, err := h.fleetSvc.GetVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, vehicle)
}

// POST /api/v1/vehicles
func (h *LogisticsHandler) CreateVehicle(c *gin.Context) {
	var req service.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	vehicle, err := h.fleetSvc.CreateVehicle(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, vehicle)
}

// PUT /api/v1/vehicles/:id
func (h *LogisticsHandler) UpdateVehicle(c *gin.Context) {
	var req service.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	vehicle, err := h.fleetSvc.UpdateVehicle(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, vehicle)
}
