package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"essentia-system/internal/database/models"
	"essentia-system/internal/orders"
)

type OrderHandler struct {
	svc *orders.Service
}

func NewOrderHandler(svc *orders.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type CreateOrderRequest struct {
	OrderItems []OrderItemRequest `json:"orderItems" binding:"required,min=1,dive"`
}

type OrderItemRequest struct {
	PerfumeID int64 `json:"perfumeId" binding:"required"`
	Quantity  int32 `json:"quantity" binding:"required,min=1"`
}

type CreateCustomOrderRequest struct {
	Components []CustomComponentRequest `json:"components" binding:"required,min=1,dive"`
	Notes      string                   `json:"notes"`
}

type CustomComponentRequest struct {
	ComponentID int64 `json:"componentId" binding:"required"`
	Quantity    int32 `json:"quantity" binding:"required,min=1"`
}

// Status is a pointer so Pending (zero) survives the required check.
type UpdateOrderStatusRequest struct {
	Status *int32  `json:"status" binding:"required"`
	Price  *string `json:"price,omitempty"`
}

// List returns the orders the caller may see, scoped by role.
func (h *OrderHandler) List(c *gin.Context) {
	result, err := h.svc.List(c.Request.Context(), subjectFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}
	c.JSON(http.StatusOK, successResponse("orders retrieved successfully", result))
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid order id"))
		return
	}

	order, err := h.svc.Get(c.Request.Context(), id, subjectFrom(c))
	if err != nil {
		c.JSON(orderErrorStatus(err), errorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, successResponse("order retrieved successfully", order))
}

// Create places a standard order for the authenticated client. Any business
// failure (missing perfume, insufficient stock) answers 400 with the
// triggering message; nothing partial persists.
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	items := make([]orders.OrderItemInput, len(req.OrderItems))
	for i, item := range req.OrderItems {
		items[i] = orders.OrderItemInput{PerfumeID: item.PerfumeID, Quantity: item.Quantity}
	}

	sub := subjectFrom(c)
	order, err := h.svc.Create(c.Request.Context(), sub.UserID, items)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, successResponse("order created successfully", order))
}

func (h *OrderHandler) CreateCustom(c *gin.Context) {
	var req CreateCustomOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	components := make([]orders.ComponentInput, len(req.Components))
	for i, comp := range req.Components {
		components[i] = orders.ComponentInput{ComponentID: comp.ComponentID, Quantity: comp.Quantity}
	}

	sub := subjectFrom(c)
	order, err := h.svc.CreateCustom(c.Request.Context(), sub.UserID, components, req.Notes)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, successResponse("custom order created successfully", order))
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid order id"))
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	err = h.svc.UpdateStatus(c.Request.Context(), id, subjectFrom(c),
		models.OrderStatus(*req.Status), req.Price)
	if err != nil {
		c.JSON(orderErrorStatus(err), errorResponse(err.Error()))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) GetCustom(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid order id"))
		return
	}

	customOrder, err := h.svc.GetCustom(c.Request.Context(), id, subjectFrom(c))
	if err != nil {
		c.JSON(orderErrorStatus(err), errorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, successResponse("custom order retrieved successfully", customOrder))
}
