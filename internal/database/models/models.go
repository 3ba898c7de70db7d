package models

import "time"

// Roles assigned at signup. Role is stored directly on the user row and
// carried as a JWT claim after signin.
const (
	RoleClient   = "Client"
	RoleSupplier = "Supplier"
	RoleAdmin    = "Admin"
)

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r string) bool {
	return r == RoleClient || r == RoleSupplier || r == RoleAdmin
}

type OrderStatus int32

const (
	StatusPending OrderStatus = iota
	StatusInProduction
	StatusDelivered
)

func (s OrderStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProduction:
		return "InProduction"
	case StatusDelivered:
		return "Delivered"
	}
	return "Unknown"
}

// ValidStatus reports whether s maps to a known order status.
func ValidStatus(s OrderStatus) bool {
	return s >= StatusPending && s <= StatusDelivered
}

type User struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email     string     `gorm:"uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"not null" json:"-"`
	FullName  string     `gorm:"not null" json:"full_name"`
	Role      string     `gorm:"not null;default:'Client'" json:"role"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Orders             []Order     `gorm:"foreignKey:ClientID" json:"-"`
	SuppliedPerfumes   []Perfume   `gorm:"foreignKey:SupplierID" json:"-"`
	SuppliedComponents []Component `gorm:"foreignKey:SupplierID" json:"-"`
}

// Perfume is a finished catalog item offered by a supplier. Price is kept as
// a decimal string; arithmetic goes through shopspring/decimal.
type Perfume struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string    `gorm:"not null;index:idx_perfume_name_supplier" json:"name"`
	Description       string    `gorm:"type:text" json:"description"`
	Price             string    `gorm:"type:decimal(18,2);not null" json:"price"`
	AvailableQuantity int32     `gorm:"not null" json:"available_quantity"`
	SupplierID        *string   `gorm:"type:varchar(36);index:idx_perfume_name_supplier" json:"supplier_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Supplier   *User       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:PerfumeID" json:"-"`
}

// Component is a raw ingredient used in custom blended orders. Same shape as
// Perfume apart from the per-unit price naming.
type Component struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string    `gorm:"not null;index:idx_component_name_supplier" json:"name"`
	Description       string    `gorm:"type:text" json:"description"`
	PricePerUnit      string    `gorm:"type:decimal(18,2);not null" json:"price_per_unit"`
	AvailableQuantity int32     `gorm:"not null" json:"available_quantity"`
	SupplierID        *string   `gorm:"type:varchar(36);index:idx_component_name_supplier" json:"supplier_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Supplier *User `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
}

type Order struct {
	ID            int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderDate     time.Time   `gorm:"autoCreateTime" json:"order_date"`
	Status        OrderStatus `gorm:"not null;default:0" json:"status"`
	TotalPrice    string      `gorm:"type:decimal(18,2);not null;default:'0.00'" json:"total_price"`
	ClientID      string      `gorm:"type:varchar(36);not null;index" json:"client_id"`
	IsCustomOrder bool        `gorm:"not null;default:false" json:"is_custom_order"`
	CreatedAt     time.Time   `json:"-"`
	UpdatedAt     time.Time   `json:"-"`

	Client      *User               `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	OrderItems  []OrderItem         `gorm:"foreignKey:OrderID" json:"order_items"`
	CustomOrder *CustomPerfumeOrder `gorm:"foreignKey:OrderID" json:"custom_order,omitempty"`
}

// OrderItem snapshots the perfume's unit price at order time. PerfumeID is
// nullable so the snapshot survives a later catalog delete.
type OrderItem struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64  `gorm:"not null;index" json:"order_id"`
	PerfumeID *int64 `json:"perfume_id"`
	Quantity  int32  `gorm:"not null" json:"quantity"`
	UnitPrice string `gorm:"type:decimal(18,2);not null" json:"unit_price"`

	Perfume *Perfume `gorm:"foreignKey:PerfumeID" json:"perfume,omitempty"`
}

// CustomPerfumeOrder extends an Order flagged IsCustomOrder. Price starts at
// zero and is set by whoever transitions the order status with a price.
type CustomPerfumeOrder struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID int64  `gorm:"uniqueIndex;not null" json:"order_id"`
	Price   string `gorm:"type:decimal(18,2);not null;default:'0.00'" json:"price"`
	Notes   string `gorm:"type:text" json:"notes"`

	Order      *Order                   `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Components []CustomPerfumeComponent `gorm:"foreignKey:CustomPerfumeOrderID" json:"components"`
}

type CustomPerfumeComponent struct {
	ID                   int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomPerfumeOrderID int64 `gorm:"not null;index" json:"custom_perfume_order_id"`
	ComponentID          int64 `gorm:"not null" json:"component_id"`
	Quantity             int32 `gorm:"not null" json:"quantity"`

	Component *Component `gorm:"foreignKey:ComponentID" json:"component,omitempty"`
}
