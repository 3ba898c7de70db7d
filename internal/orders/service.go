// Package orders implements the order transaction engine: creation of
// standard and custom orders with atomic stock decrement, and role-checked
// status transitions. Every mutating call runs inside a single database
// transaction; any failure rolls the whole call back.
package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"essentia-system/internal/database/models"
	"essentia-system/internal/policy"
	"essentia-system/internal/utils"
)

type Service struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

// NewService creates the engine. redisClient may be nil; events are then
// skipped.
func NewService(db *gorm.DB, redisClient *redis.Client) *Service {
	return &Service{
		db:     db,
		redis:  redisClient,
		logger: utils.GetLogger(),
	}
}

type OrderItemInput struct {
	PerfumeID int64
	Quantity  int32
}

type ComponentInput struct {
	ComponentID int64
	Quantity    int32
}

// Create places a standard order for clientID. Unit prices are snapshotted
// from the perfume rows read inside the same transaction that decrements
// their stock; the order total is the exact sum of the line snapshots.
func (s *Service) Create(ctx context.Context, clientID string, items []OrderItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: order must have at least one item", ErrValidation)
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	order := models.Order{
		ClientID:      clientID,
		OrderDate:     time.Now().UTC(),
		Status:        models.StatusPending,
		IsCustomOrder: false,
		TotalPrice:    "0.00",
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Quantity < 1 {
			tx.Rollback()
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}

		var perfume models.Perfume
		if err := tx.First(&perfume, item.PerfumeID).Error; err != nil {
			tx.Rollback()
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: perfume with id %d", ErrNotFound, item.PerfumeID)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}

		if perfume.AvailableQuantity < item.Quantity {
			tx.Rollback()
			return nil, fmt.Errorf("%w: not enough stock for perfume %s", ErrInsufficientStock, perfume.Name)
		}

		unitPrice, err := decimal.NewFromString(perfume.Price)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("invalid stored price for perfume %d: %w", perfume.ID, err)
		}

		perfumeID := perfume.ID
		orderItem := models.OrderItem{
			OrderID:   order.ID,
			PerfumeID: &perfumeID,
			Quantity:  item.Quantity,
			UnitPrice: perfume.Price,
		}
		if err := tx.Create(&orderItem).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}

		total = total.Add(unitPrice.Mul(decimal.NewFromInt32(item.Quantity)))

		perfume.AvailableQuantity -= item.Quantity
		if err := tx.Save(&perfume).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update stock: %w", err)
		}
	}

	order.TotalPrice = total.StringFixed(2)
	if err := tx.Save(&order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update order total: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Preload("OrderItems.Perfume").
		Preload("Client").
		First(&order, order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	s.publishOrderEvent(ctx, OrderEvent{
		EventType:  EventOrderCreated,
		OrderID:    order.ID,
		ClientID:   order.ClientID,
		TotalPrice: order.TotalPrice,
		Status:     int32(order.Status),
		IsCustom:   false,
		Timestamp:  time.Now(),
	})

	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("client_id", order.ClientID),
		zap.String("total_price", order.TotalPrice))

	return &order, nil
}

// CreateCustom places a custom blended order against component stock. The
// order and its custom extension row are created in the same transaction;
// the price stays zero until a status update supplies one.
func (s *Service) CreateCustom(ctx context.Context, clientID string, components []ComponentInput, notes string) (*models.Order, error) {
	if len(components) == 0 {
		return nil, fmt.Errorf("%w: custom order must have at least one component", ErrValidation)
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	order := models.Order{
		ClientID:      clientID,
		OrderDate:     time.Now().UTC(),
		Status:        models.StatusPending,
		IsCustomOrder: true,
		TotalPrice:    "0.00",
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	customOrder := models.CustomPerfumeOrder{
		OrderID: order.ID,
		Price:   "0.00",
		Notes:   notes,
	}
	if err := tx.Create(&customOrder).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create custom order: %w", err)
	}

	for _, input := range components {
		if input.Quantity < 1 {
			tx.Rollback()
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}

		var component models.Component
		if err := tx.First(&component, input.ComponentID).Error; err != nil {
			tx.Rollback()
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("%w: component with id %d", ErrNotFound, input.ComponentID)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}

		if component.AvailableQuantity < input.Quantity {
			tx.Rollback()
			return nil, fmt.Errorf("%w: not enough stock for component %s", ErrInsufficientStock, component.Name)
		}

		customComponent := models.CustomPerfumeComponent{
			CustomPerfumeOrderID: customOrder.ID,
			ComponentID:          input.ComponentID,
			Quantity:             input.Quantity,
		}
		if err := tx.Create(&customComponent).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create custom component: %w", err)
		}

		component.AvailableQuantity -= input.Quantity
		if err := tx.Save(&component).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update stock: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Preload("CustomOrder.Components.Component").
		Preload("Client").
		First(&order, order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	s.publishOrderEvent(ctx, OrderEvent{
		EventType:  EventOrderCreated,
		OrderID:    order.ID,
		ClientID:   order.ClientID,
		TotalPrice: order.TotalPrice,
		Status:     int32(order.Status),
		IsCustom:   true,
		Timestamp:  time.Now(),
	})

	s.logger.Info("custom order created",
		zap.Int64("order_id", order.ID),
		zap.String("client_id", order.ClientID))

	return &order, nil
}

// UpdateStatus transitions an order's status. Suppliers must supply at least
// one of the order's line items; a custom order has no line items, so only
// admins may transition it. When the order is custom and price is given,
// both the custom order's price and the order total are set to it.
//
// Backward transitions are not rejected; an admin may move an order back a
// stage.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, sub policy.Subject, status models.OrderStatus, price *string) error {
	if !models.ValidStatus(status) {
		return fmt.Errorf("%w: unknown order status %d", ErrValidation, status)
	}

	var newPrice decimal.Decimal
	if price != nil {
		parsed, err := decimal.NewFromString(*price)
		if err != nil || parsed.IsNegative() {
			return fmt.Errorf("%w: price must be a non-negative decimal", ErrValidation)
		}
		newPrice = parsed
	}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var order models.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("%w: order with id %d", ErrNotFound, orderID)
		}
		return fmt.Errorf("database error: %w", err)
	}

	suppliesItem, err := s.supplierHasItem(tx, orderID, sub)
	if err != nil {
		tx.Rollback()
		return err
	}
	if !policy.CanTransitionOrder(sub, suppliesItem) {
		tx.Rollback()
		return fmt.Errorf("%w: caller may not transition this order", ErrForbidden)
	}

	order.Status = status

	if order.IsCustomOrder && price != nil {
		var customOrder models.CustomPerfumeOrder
		err := tx.Where("order_id = ?", orderID).First(&customOrder).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			tx.Rollback()
			return fmt.Errorf("database error: %w", err)
		}
		if err == nil {
			customOrder.Price = newPrice.StringFixed(2)
			order.TotalPrice = customOrder.Price
			if err := tx.Save(&customOrder).Error; err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to update custom order price: %w", err)
			}
		}
	}

	if err := tx.Save(&order).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update order: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.publishOrderEvent(ctx, OrderEvent{
		EventType:  EventOrderStatusChanged,
		OrderID:    order.ID,
		ClientID:   order.ClientID,
		TotalPrice: order.TotalPrice,
		Status:     int32(order.Status),
		IsCustom:   order.IsCustomOrder,
		Timestamp:  time.Now(),
	})

	return nil
}

// Get returns a single order after the access check. Suppliers see an order
// only when it contains at least one of their perfumes; clients only their
// own orders.
func (s *Service) Get(ctx context.Context, orderID int64, sub policy.Subject) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("OrderItems.Perfume").
		First(&order, orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: order with id %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !policy.CanViewOrder(sub, order.ClientID, orderContainsSupplier(&order, sub.UserID)) {
		return nil, fmt.Errorf("%w: caller may not view this order", ErrForbidden)
	}

	return &order, nil
}

// List returns the orders visible to the caller: everything for admins,
// orders containing own perfumes for suppliers, own orders for clients.
func (s *Service) List(ctx context.Context, sub policy.Subject) ([]models.Order, error) {
	query := s.db.WithContext(ctx).
		Preload("Client").
		Preload("OrderItems.Perfume")

	switch {
	case sub.IsAdmin():
		// unrestricted
	case sub.IsSupplier():
		query = query.Where("orders.id IN (?)",
			s.db.Model(&models.OrderItem{}).
				Select("order_items.order_id").
				Joins("JOIN perfumes ON perfumes.id = order_items.perfume_id").
				Where("perfumes.supplier_id = ?", sub.UserID))
	default:
		query = query.Where("client_id = ?", sub.UserID)
	}

	var result []models.Order
	if err := query.Order("order_date DESC").Find(&result).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return result, nil
}

// GetCustom returns the custom-order detail for an order id.
func (s *Service) GetCustom(ctx context.Context, orderID int64, sub policy.Subject) (*models.CustomPerfumeOrder, error) {
	var customOrder models.CustomPerfumeOrder
	if err := s.db.WithContext(ctx).
		Preload("Order").
		Preload("Components.Component").
		Where("order_id = ?", orderID).
		First(&customOrder).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: custom order for order id %d", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	clientID := ""
	if customOrder.Order != nil {
		clientID = customOrder.Order.ClientID
	}
	if !policy.CanViewCustomOrder(sub, clientID) {
		return nil, fmt.Errorf("%w: caller may not view this custom order", ErrForbidden)
	}

	return &customOrder, nil
}

// supplierHasItem reports whether any of the order's line items references a
// perfume supplied by the caller. Always false for non-suppliers.
func (s *Service) supplierHasItem(tx *gorm.DB, orderID int64, sub policy.Subject) (bool, error) {
	if !sub.IsSupplier() {
		return false, nil
	}
	var count int64
	err := tx.Model(&models.OrderItem{}).
		Joins("JOIN perfumes ON perfumes.id = order_items.perfume_id").
		Where("order_items.order_id = ? AND perfumes.supplier_id = ?", orderID, sub.UserID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}

func orderContainsSupplier(order *models.Order, supplierID string) bool {
	for _, item := range order.OrderItems {
		if item.Perfume != nil && item.Perfume.SupplierID != nil && *item.Perfume.SupplierID == supplierID {
			return true
		}
	}
	return false
}
