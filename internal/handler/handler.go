package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ainuod/DeliveryCOMPANY/internal/pricing"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
	"github.com/ainuod/DeliveryCOMPANY/internal/service"
)

// Handlers is the HTTP handler collection.
type Handlers struct {
	Auth      *AuthHandler
	User      *UserHandler
	Logistics *LogisticsHandler
	Shipment  *ShipmentHandler
	Tour      *TourHandler
	Invoice   *InvoiceHandler
	Support   *SupportHandler
	Dashboard *DashboardHandler
}

func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:      NewAuthHandler(svc.Auth),
		User:      NewUserHandler(svc.User),
		Logistics: NewLogisticsHandler(svc.Destination, svc.Fleet),
		Shipment:  NewShipmentHandler(svc.Shipment),
		Tour:      NewTourHandler(svc.Tour),
		Invoice:   NewInvoiceHandler(svc.Invoice),
		Support:   NewSupportHandler(svc.Support),
		Dashboard: NewDashboardHandler(svc.Dashboard),
	}
}

// Response is the common envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an error envelope; the HTTP status is the business code
// divided by 100.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// ServiceError maps the service error taxonomy onto the envelope.
func ServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var conflictErr *service.ConflictError
	var pricingErr *pricing.InvalidInputError

	switch {
	case errors.As(err, &validationErr):
		BadRequest(c, validationErr.Error())
	case errors.As(err, &pricingErr):
		BadRequest(c, pricingErr.Error())
	case errors.As(err, &conflictErr):
		Conflict(c, conflictErr.Error())
	case errors.Is(err, service.ErrShipmentInTour):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrContention):
		Conflict(c, "account busy, please retry")
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID returns the authenticated user ID from the request context.
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetUserRole returns the authenticated user's role.
func GetUserRole(c *gin.Context) string {
	role, _ := c.Get("role")
	if r, ok := role.(string); ok {
		return r
	}
	return ""
}

// GetPagination reads page/page_size query parameters, capped at 100.
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

// ============================================================
// User Handler
// ============================================================

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	users, total, err := h.svc.List(c.Request.Context(), page, pageSize, c.Query("role"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": users, "total": total, "page": page, "page_size": pageSize})
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, user)
}

// ============================================================
// Dashboard Handler
// ============================================================

type DashboardHandler struct {
	svc *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, err := h.svc.GetOverview(c.Request.Context())
	if err != nil {
		ServiceError(c, err)
		return
	}
	Success(c, overview)
}
