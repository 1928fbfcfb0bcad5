package models

import (
	"time"
)

const (
	RoleUser     = "user"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
	RoleDelivery = "delivery"
)

const (
	StoreStatusPending  = "pending"
	StoreStatusApproved = "approved"
	StoreStatusRejected = "rejected"
)

const (
	OrderStatusPending        = "pending"
	OrderStatusProcessing     = "processing"
	OrderStatusShipped        = "shipped"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

const (
	PaymentMethodCOD    = "COD"
	PaymentMethodStripe = "Stripe"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"not null"                 json:"name"`
	Email        string    `gorm:"unique;not null"          json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	StoreID      *uint     `gorm:"index"                    json:"store_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

// Location is a named geographic zone. Stores reference it by id,
// customer addresses reference it by name match.
type Location struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
}

type Store struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"unique;not null"          json:"name"`
	Username    string    `gorm:"unique;not null"          json:"username"`
	Description string    `gorm:"not null"                 json:"description"`
	Email       string    `gorm:"unique;not null"          json:"email"`
	Contact     string    `gorm:"not null"                 json:"contact"`
	Address     string    `gorm:"not null"                 json:"address"`
	Image       string    `json:"image"`
	LocationID  *uint     `gorm:"index"                    json:"location_id,omitempty"`
	OwnerID     uint      `gorm:"index;not null"           json:"owner_id"`
	Status      string    `gorm:"not null;default:pending" json:"status"`
	Products    []Product `gorm:"foreignKey:StoreID"       json:"products,omitempty"`
	Reviews     []Review  `gorm:"foreignKey:StoreID"       json:"reviews,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Review struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	StoreID   uint      `gorm:"index;not null"           json:"store_id"`
	Rating    int       `gorm:"not null"                 json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Product carries either a flat (mrp, price) pair or a list of variations,
// each with its own price. Price never exceeds MRP; with variations the
// invariant holds per variation.
type Product struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string      `gorm:"not null;index"           json:"name"`
	Description string      `gorm:"not null"                 json:"description"`
	Category    string      `gorm:"not null;index"           json:"category"`
	MRP         float64     `json:"mrp"`
	Price       float64     `json:"price"`
	Images      StringList  `gorm:"type:text"                json:"images"`
	InStock     bool        `gorm:"default:true"             json:"in_stock"`
	StoreID     uint        `gorm:"index;not null"           json:"store_id"`
	Variations  []Variation `gorm:"foreignKey:ProductID"     json:"variations,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Variation struct {
	ID         uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  uint          `gorm:"index;not null"           json:"product_id"`
	Attributes AttributeList `gorm:"type:text"                json:"attributes"`
	Price      float64       `gorm:"not null"                 json:"price"`
	MRP        float64       `json:"mrp"`
	SKU        string        `json:"sku,omitempty"`
}

type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Coupon struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string    `gorm:"unique;not null;index"    json:"code"`
	Description string    `gorm:"not null"                 json:"description"`
	Discount    float64   `gorm:"not null"                 json:"discount"`
	StoreID     uint      `gorm:"index;not null"           json:"store_id"`
	ForNewUser  bool      `gorm:"default:false"            json:"for_new_user"`
	ForMember   bool      `gorm:"default:false"            json:"for_member"`
	IsPublic    bool      `gorm:"default:false"            json:"is_public"`
	ExpiresAt   time.Time `gorm:"not null"                 json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeliveryCharge maps an unordered pair of locations to a flat charge.
// Lookup is direction-agnostic.
type DeliveryCharge struct {
	ID             uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	FromLocationID uint    `gorm:"index;not null"           json:"from_location_id"`
	ToLocationID   uint    `gorm:"index;not null"           json:"to_location_id"`
	Charge         float64 `gorm:"not null"                 json:"charge"`
}

// Address is the saved delivery address, one per user. Location holds the
// zone name used for the delivery charge lookup.
type Address struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null"     json:"user_id"`
	Name      string    `gorm:"not null"                 json:"name"`
	Email     string    `gorm:"not null"                 json:"email"`
	Street    string    `gorm:"not null"                 json:"street"`
	Location  string    `json:"location"`
	Phone     string    `gorm:"not null"                 json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is either a sub-order (StoreID set, items non-empty) or a parent
// umbrella order (IsParent set, no items, sub-orders linked via ParentOrderID).
type Order struct {
	ID              uint        `gorm:"primaryKey;autoIncrement"       json:"id"`
	Number          string      `gorm:"uniqueIndex;not null"           json:"number"`
	UserID          *uint       `gorm:"index"                          json:"user_id,omitempty"`
	StoreID         *uint       `gorm:"index"                          json:"store_id,omitempty"`
	Store           *Store      `gorm:"foreignKey:StoreID"             json:"store,omitempty"`
	IsParent        bool        `gorm:"default:false;index"            json:"is_parent"`
	ParentOrderID   *uint       `gorm:"index"                          json:"parent_order_id,omitempty"`
	SubOrders       []Order     `gorm:"foreignKey:ParentOrderID"       json:"sub_orders,omitempty"`
	Items           []OrderItem `gorm:"foreignKey:OrderID"             json:"items"`
	AddressName     string      `gorm:"not null"                       json:"address_name"`
	AddressPhone    string      `gorm:"not null"                       json:"address_phone"`
	AddressStreet   string      `gorm:"not null"                       json:"address_street"`
	AddressLocation string      `gorm:"not null"                       json:"address_location"`
	TotalPrice      float64     `gorm:"not null"                       json:"total_price"`
	TotalDiscount   float64     `gorm:"default:0"                      json:"total_discount"`
	DeliveryCharge  float64     `gorm:"not null;default:0"             json:"delivery_charge"`
	FinalAmount     float64     `gorm:"not null"                       json:"final_amount"`
	PaymentMethod   string      `gorm:"not null;default:COD"           json:"payment_method"`
	PaymentStatus   string      `gorm:"not null;default:pending"       json:"payment_status"`
	OrderStatus     string      `gorm:"not null;default:pending;index" json:"order_status"`
	DeliveryManID   *uint       `gorm:"index"                          json:"delivery_man_id,omitempty"`
	DeliveryPicked  *time.Time  `json:"delivery_picked_at,omitempty"`
	DeliveredAt     *time.Time  `json:"delivered_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

type OrderItem struct {
	ID              uint               `gorm:"primaryKey;autoIncrement"  json:"id"`
	OrderID         uint               `gorm:"index;not null"            json:"order_id"`
	ProductID       uint               `gorm:"not null"                  json:"product_id"`
	Name            string             `gorm:"not null"                  json:"name"`
	Image           string             `json:"image"`
	Quantity        uint               `gorm:"not null;check:quantity>0" json:"quantity"`
	Price           float64            `gorm:"not null"                  json:"price"`
	Variation       VariationSnapshot  `gorm:"type:text"                 json:"variation,omitempty"`
	DiscountedPrice *float64           `json:"discounted_price,omitempty"`
	CouponApplied   bool               `gorm:"default:false"             json:"coupon_applied"`
}

type DeliveryMan struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string    `gorm:"not null"                 json:"name"`
	Email           string    `gorm:"unique;not null"          json:"email"`
	Phone           string    `gorm:"not null"                 json:"phone"`
	PasswordHash    string    `gorm:"not null"                 json:"-"`
	VehicleType     string    `gorm:"not null"                 json:"vehicle_type"`
	LicenseNumber   string    `gorm:"not null"                 json:"license_number"`
	IsActive        bool      `gorm:"default:true"             json:"is_active"`
	CompletedOrders int       `gorm:"default:0"                json:"completed_orders"`
	Rating          float64   `gorm:"default:5"                json:"rating"`
	CreatedAt       time.Time `json:"created_at"`
}
