package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"essentia-system/internal/database/models"
)

// DashboardHandler serves the read-only rollups behind the three role
// dashboards. No mutation happens here; counts and sums reflect the order
// and user tables at query time.
type DashboardHandler struct {
	db *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

type statusCount struct {
	Status models.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

type roleCount struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

// Client: the caller's five most recent orders plus own order counts by
// status.
func (h *DashboardHandler) Client(c *gin.Context) {
	sub := subjectFrom(c)

	var recentOrders []models.Order
	if err := h.db.Where("client_id = ?", sub.UserID).
		Order("order_date DESC").
		Limit(5).
		Preload("OrderItems.Perfume").
		Find(&recentOrders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var ordersByStatus []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Where("client_id = ?", sub.UserID).
		Group("status").
		Scan(&ordersByStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("client dashboard", gin.H{
		"recent_orders":    recentOrders,
		"orders_by_status": ordersByStatus,
	}))
}

// Supplier: the caller's catalog, pending orders containing the caller's
// perfumes, and custom orders using the caller's components.
func (h *DashboardHandler) Supplier(c *gin.Context) {
	sub := subjectFrom(c)

	var perfumes []models.Perfume
	if err := h.db.Where("supplier_id = ?", sub.UserID).Find(&perfumes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var components []models.Component
	if err := h.db.Where("supplier_id = ?", sub.UserID).Find(&components).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var pendingOrders []models.Order
	if err := h.db.
		Where("status = ?", models.StatusPending).
		Where("orders.id IN (?)",
			h.db.Model(&models.OrderItem{}).
				Select("order_items.order_id").
				Joins("JOIN perfumes ON perfumes.id = order_items.perfume_id").
				Where("perfumes.supplier_id = ?", sub.UserID)).
		Preload("Client").
		Preload("OrderItems.Perfume").
		Find(&pendingOrders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var customOrders []models.CustomPerfumeOrder
	if err := h.db.
		Where("custom_perfume_orders.id IN (?)",
			h.db.Model(&models.CustomPerfumeComponent{}).
				Select("custom_perfume_components.custom_perfume_order_id").
				Joins("JOIN components ON components.id = custom_perfume_components.component_id").
				Where("components.supplier_id = ?", sub.UserID)).
		Preload("Order.Client").
		Preload("Components.Component").
		Find(&customOrders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("supplier dashboard", gin.H{
		"perfumes":       perfumes,
		"components":     components,
		"pending_orders": pendingOrders,
		"custom_orders":  customOrders,
	}))
}

// Admin: system-wide rollups. Revenue is summed in Go over the delivered
// orders' decimal totals so the arithmetic stays exact.
func (h *DashboardHandler) Admin(c *gin.Context) {
	var usersByRole []roleCount
	if err := h.db.Model(&models.User{}).
		Select("role, count(*) as count").
		Group("role").
		Scan(&usersByRole).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var totalOrders int64
	if err := h.db.Model(&models.Order{}).Count(&totalOrders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var ordersByStatus []statusCount
	if err := h.db.Model(&models.Order{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&ordersByStatus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var deliveredTotals []string
	if err := h.db.Model(&models.Order{}).
		Where("status = ?", models.StatusDelivered).
		Pluck("total_price", &deliveredTotals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	totalRevenue := decimal.Zero
	for _, raw := range deliveredTotals {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		totalRevenue = totalRevenue.Add(price)
	}

	var recentOrders []models.Order
	if err := h.db.Order("order_date DESC").
		Limit(10).
		Preload("Client").
		Find(&recentOrders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("admin dashboard", gin.H{
		"users_by_role":    usersByRole,
		"total_orders":     totalOrders,
		"orders_by_status": ordersByStatus,
		"total_revenue":    totalRevenue.StringFixed(2),
		"recent_orders":    recentOrders,
	}))
}
