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

type PerfumeHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

func NewPerfumeHandler(db *gorm.DB, redisClient *redis.Client) *PerfumeHandler {
	return &PerfumeHandler{
		db:     db,
		redis:  redisClient,
		logger: utils.GetLogger(),
	}
}

type PerfumeResponse struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             string  `json:"price"`
	AvailableQuantity int32   `json:"available_quantity"`
	SupplierID        *string `json:"supplier_id"`
	SupplierName      string  `json:"supplier_name"`
}

type CreatePerfumeRequest struct {
	Name              string  `json:"name" binding:"required"`
	Description       string  `json:"description"`
	Price             string  `json:"price" binding:"required"`
	AvailableQuantity int32   `json:"available_quantity" binding:"min=0"`
	SupplierID        *string `json:"supplier_id"`
}

type UpdatePerfumeRequest struct {
	Name              *string `json:"name,omitempty"`
	Description       *string `json:"description,omitempty"`
	Price             *string `json:"price,omitempty"`
	AvailableQuantity *int32  `json:"available_quantity,omitempty"`
	SupplierID        *string `json:"supplier_id,omitempty"`
}

func perfumeToResponse(p models.Perfume) PerfumeResponse {
	resp := PerfumeResponse{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		AvailableQuantity: p.AvailableQuantity,
		SupplierID:        p.SupplierID,
		SupplierName:      "Unknown",
	}
	if p.Supplier != nil {
		resp.SupplierName = p.Supplier.FullName
	}
	return resp
}

// List is anonymous: the perfume catalog is public.
func (h *PerfumeHandler) List(c *gin.Context) {
	var cached []PerfumeResponse
	if cacheGetJSON(c.Request.Context(), h.redis, perfumeListCacheKey, &cached) {
		c.JSON(http.StatusOK, successResponse("perfumes retrieved successfully", cached))
		return
	}

	var perfumes []models.Perfume
	if err := h.db.Preload("Supplier").Find(&perfumes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	payload := make([]PerfumeResponse, len(perfumes))
	for i, p := range perfumes {
		payload[i] = perfumeToResponse(p)
	}

	cacheSetJSON(c.Request.Context(), h.redis, perfumeListCacheKey, payload, cacheTTLShort)

	c.JSON(http.StatusOK, successResponse("perfumes retrieved successfully", payload))
}

func (h *PerfumeHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid perfume id"))
		return
	}

	var perfume models.Perfume
	if err := h.db.Preload("Supplier").First(&perfume, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Perfume not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("perfume retrieved successfully", perfumeToResponse(perfume)))
}

// Create adds a perfume. Suppliers always own what they create; admins must
// name a supplier explicitly.
func (h *PerfumeHandler) Create(c *gin.Context) {
	var req CreatePerfumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	sub := subjectFrom(c)
	if !policy.CanManageCatalogItem(sub, nil, policy.ActionCreate) {
		c.JSON(http.StatusForbidden, errorResponse("Not allowed to create perfumes"))
		return
	}

	price, err := decimal.NewFromString(req.Price)
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

	perfume := models.Perfume{
		Name:              req.Name,
		Description:       req.Description,
		Price:             price.StringFixed(2),
		AvailableQuantity: req.AvailableQuantity,
		SupplierID:        supplierID,
	}

	if err := h.db.Create(&perfume).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating perfume"))
		return
	}

	cacheDel(c.Request.Context(), h.redis, perfumeListCacheKey)

	h.logger.Info("perfume created",
		zap.Int64("perfume_id", perfume.ID), zap.String("supplier_id", *supplierID))

	c.JSON(http.StatusCreated, successResponse("perfume created successfully", perfume))
}

func (h *PerfumeHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid perfume id"))
		return
	}

	var req UpdatePerfumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var perfume models.Perfume
	if err := h.db.First(&perfume, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Perfume not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	sub := subjectFrom(c)
	if !policy.CanManageCatalogItem(sub, perfume.SupplierID, policy.ActionUpdate) {
		c.JSON(http.StatusForbidden, errorResponse("Not allowed to update this perfume"))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			c.JSON(http.StatusBadRequest, errorResponse("Price must be a non-negative decimal"))
			return
		}
		updates["price"] = price.StringFixed(2)
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
		res := h.db.Model(&models.Perfume{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Error updating perfume"))
			return
		}
		if res.RowsAffected == 0 {
			var check models.Perfume
			if err := h.db.First(&check, id).Error; err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, errorResponse("Perfume not found"))
				return
			} else if err != nil {
				c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
				return
			}
		}
	}

	cacheDel(c.Request.Context(), h.redis, perfumeListCacheKey)

	c.Status(http.StatusNoContent)
}

func (h *PerfumeHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid perfume id"))
		return
	}

	var perfume models.Perfume
	if err := h.db.First(&perfume, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Perfume not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	sub := subjectFrom(c)
	if !policy.CanManageCatalogItem(sub, perfume.SupplierID, policy.ActionDelete) {
		c.JSON(http.StatusForbidden, errorResponse("Not allowed to delete this perfume"))
		return
	}

	if err := h.db.Delete(&perfume).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting perfume"))
		return
	}

	cacheDel(c.Request.Context(), h.redis, perfumeListCacheKey)

	c.Status(http.StatusNoContent)
}
