package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/service"
)

type SupportHandler struct {
	svc *service.SupportService
}

func NewSupportHandler(svc *service.SupportService) *SupportHandler {
	return &SupportHandler{svc: svc}
}

// GET /api/v1/incidents
func (h *SupportHandler) ListIncidents(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"shipment_id":   c.Query("shipment_id"),
		"status":        c.Query("status"),
		"incident_type": c.Query("incident_type"),
	}

	incidents, total, err := h.svc.ListIncidents(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": incidents, "total": total, "page": page, "page_size": pageSize})
}

// GET /api/v1/incidents/:id
func (h *SupportHandler) GetIncident(c *gin.Context) {
	incident, err := h.svc.GetIncident(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, incident)
}

// POST /api/v1/incidents
func (h *SupportHandler) CreateIncident(c *gin.Context) {
	var req service.CreateIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	incident, err := h.svc.CreateIncident(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, incident)
}

// PUT /api/v1/incidents/:id
func (h *SupportHandler) UpdateIncident(c *gin.Context) {
	var req service.UpdateIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	incident, err := h.svc.UpdateIncident(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, incident)
}

// UploadPhoto attaches an evidence photo to the incident.
// POST /api/v1/incidents/:id/photo
func (h *SupportHandler) UploadPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		BadRequest(c, "photo file required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "open upload: "+err.Error())
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	incident, err := h.svc.AttachPhoto(c.Request.Context(), c.Param("id"), file, fileHeader.Size, contentType)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, incident)
}

// DownloadPhoto streams the stored evidence photo.
// GET /api/v1/incidents/:id/photo
func (h *SupportHandler) DownloadPhoto(c *gin.Context) {
	object, err := h.svc.GetPhoto(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	defer object.Close()

	c.Header("Content-Type", "application/octet-stream")
	if _, err := io.Copy(c.Writer, object); err != nil {
		InternalError(c, "download failed: "+err.Error())
		return
	}
}

// GET /api/v1/claims
func (h *SupportHandler) ListClaims(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"client_id": c.Query("client_id"),
		"status":    c.Query("status"),
	}

	claims, total, err := h.svc.ListClaims(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": claims, "total": total, "page": page, "page_size": pageSize})
}

// GET /api/v1/claims/:id
func (h *SupportHandler) GetClaim(c *gin.Context) {
	claim, err := h.svc.GetClaim(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, claim)
}

// CreateClaim files a complaint. Clients always file for themselves.
// POST /api/v1/claims
func (h *SupportHandler) CreateClaim(c *gin.Context) {
	var req service.CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if GetUserRole(c) == entity.RoleClient {
		req.ClientID = GetUserID(c)
	}

	claim, err := h.svc.CreateClaim(c.Request.Context(), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Created(c, claim)
}

// PUT /api/v1/claims/:id
func (h *SupportHandler) UpdateClaim(c *gin.Context) {
	var req service.UpdateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	claim, err := h.svc.UpdateClaim(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, claim)
}
