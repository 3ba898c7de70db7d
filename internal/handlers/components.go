package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"essentia-system/internal/database/models"
	"essentia-system/internal/policy"
	"essentia-system/internal/utils"
)

// ComponentHandler mirrors the perfume CRUD for raw blend components. Unlike
// the perfume catalog, component reads require an authenticated caller.
type ComponentHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

func NewComponentHandler(db *gorm.DB, redisClient *redis.Client) *ComponentHandler {
	return &ComponentHandler{
		db:     db,
		redis:  redisClient,
		logger: utils.GetLogger(),
	}
}

type ComponentResponse struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	PricePerUnit      string  `json:"price_per_unit"`
	AvailableQuantity int32   `json:"available_quantity"`
	SupplierID        *string `json:"supplier_id"`
	SupplierName      string  `json:"supplier_name"`
}

type CreateComponentRequest struct {
	Name              string  `json:"name" binding:"required"`
	Description       string  `json:"description"`
	PricePerUnit      string  `json:"price_per_unit" binding:"required"`
	AvailableQuantity int32   `json:"available_quantity" binding:"min=0"`
	SupplierID        *string `json:"supplier_id"`
}

type UpdateComponentRequest struct {
	Name              *string `json:"name,omitempty"`
	Description       *string `json:"description,omitempty"`
	PricePerUnit      *string `json:"price_per_unit,omitempty"`
	AvailableQuantity *int32  `json:"available_quantity,omitempty"`
	SupplierID        *string `json:"supplier_id,omitempty"`
}

func componentToResponse(comp models.Component) ComponentResponse {
	resp := ComponentResponse{
		ID:                comp.ID,
		Name:              comp.Name,
		Description:       comp.Description,
		PricePerUnit:      comp.PricePerUnit,
		AvailableQuantity: comp.AvailableQuantity,
		SupplierID:        comp.SupplierID,
		SupplierName:      "Unknown",
	}
	if comp.Supplier != nil {
		resp.SupplierName = comp.Supplier.FullName
	}
	return resp
}

func (h *ComponentHandler) List(c *gin.Context) {
	var cached []ComponentResponse
	if cacheGetJSON(c.Request.Context(), h.redis, componentListCacheKey, &cached) {
		c.JSON(http.StatusOK, successResponse("components retrieved successfully", cached))
		return
	}

	var components []models.Component
	if err := h.db.Preload("Supplier").Find(&components).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	payload := make([]ComponentResponse, len(components))
	for i, comp := range components {
		payload[i] = componentToResponse(comp)
	}

	cacheSetJSON(c.Request.Context(), h.redis, componentListCacheKey, payload, cacheTTLShort)

	c.JSON(http.StatusOK, successResponse("components retrieved successfully", payload))
}

func (h *ComponentHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid component id"))
		return
	}

	var component models.Component
	if err := h.db.Preload("Supplier").First(&component, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Component not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("component retrieved successfully", componentToResponse(component)))
}

func (h *ComponentHandler) Create(c *gin.Context) {
	var req CreateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	sub := subjectFrom(c)
	if !policy.CanManageCatalogItem(sub, nil, policy.ActionCreate) {
		c.JSON(http.StatusForbidden, errorResponse("Not allowed to create components"))
		return
	}

	price, err := decimal.NewFromString(req.PricePerUnit)
	if err != nil || price.IsNegative() {
		c.JSON(http.StatusBadRequest, errorResponse("Price must be a non-negative decimal"))
		return
	}

	supplierID := req.SupplierID
	if sub.IsSupplier() {
		supplierID = &sub.UserID
	}
	if supplierID == nil {
		c.JSON(http.StatusBadRequest, errorResponse("Supplier ID is required"))
		return
	}

	component := models.Component{
		Name:              req.Name,
		Description:       req.Description,
		PricePerUnit:      price.StringFixed(2),
		AvailableQuantity: req.AvailableQuantity,
		SupplierID:        supplierID,
	}

	if err := h.db.Create(&component).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating component"))
		return
	}

	cacheDel(c.Request.Context(), h.redis, componentListCacheKey)

	h.logger.Info("component created",
		zap.Int64("component_id", component.ID), zap.String("supplier_id", *supplierID))

	c.JSON(http.StatusCreated, successResponse("component created successfully", component))
}

func (h *ComponentHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid component id"))
		return
	}

	var req UpdateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var component models.Component
	if err := h.db.First(&component, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Component not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	sub := subjectFrom(c)
	if !policy.CanManageCatalogItem(sub, component.SupplierID, policy.ActionUpdate) {
		c.JSON(http.StatusForbidden, errorResponse("Not allowed to update this component"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.PricePerUnit != nil {
		price, err := decimal.NewFromString(*req.PricePerUnit)
		if err != nil || price.IsNegative() {
			c.JSON(http.StatusBadRequest, errorResponse("Price must be a non-negative decimal"))
			return
		}
		updates["price_per_unit"] = price.StringFixed(2)
	}
	if req.AvailableQuantity != nil {
		if *req.AvailableQuantity < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("Available quantity must not be negative"))
			return
		}
		updates["available_quantity"] = *req.AvailableQuantity
	}
	if sub.IsAdmin() && req.SupplierID != nil {
		updates["supplier_id"] = req.SupplierID
	}

	if len(updates) > 0 {
		// Column updates touch only the existing row; a concurrent delete
		// leaves zero rows affected and surfaces as NotFound.
		res := h.db.Model(&models.Component{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Error updating component"))
			return
		}
		if res.RowsAffected == 0 {
			var check models.Component
			if err := h.db.First(&check, id).Error; err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, errorResponse("Component not found"))
				return
			} else if err != nil {
				c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
				return
			}
		}
	}

	cacheDel(c.Request.Context(), h.redis, componentListCacheKey)

	c.Status(http.StatusNoContent)
}

func (h *ComponentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid component id"))
		return
	}

	var component models.Component
	if err := h.db.First(&component, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Component not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	sub := subjectFrom(c)
	if !policy.CanManageCatalogItem(sub, component.SupplierID, policy.ActionDelete) {
		c.JSON(http.StatusForbidden, errorResponse("Not allowed to delete this component"))
		return
	}

	if err := h.db.Delete(&component).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting component"))
		return
	}

	cacheDel(c.Request.Context(), h.redis, componentListCacheKey)

	c.Status(http.StatusNoContent)
}
