package models

import "time"

// Order status vocabulary. Cancelled is reachable from any state; the design
// deliberately does not encode an ordering constraint between the others.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderServed    = "served"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentCompleted  = "completed"
	PaymentFailed     = "failed"
	PaymentRefunded   = "refunded"
)

type Order struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RestaurantID uint   `gorm:"index;not null" json:"restaurant_id"`
	TableID      uint   `gorm:"index;not null" json:"table_id"`
	Table        *Table `gorm:"foreignKey:TableID" json:"table,omitempty"`

	CustomerName  string `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerPhone string `gorm:"type:varchar(50);not null" json:"customer_phone"`

	Status          string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentStatus   string `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentIntentID string `gorm:"type:varchar(100);index" json:"payment_intent_id,omitempty"`

	Subtotal float64 `gorm:"type:decimal(10,2);not null;default:0.00" json:"subtotal"`
	Tax      float64 `gorm:"type:decimal(10,2);not null;default:0.00" json:"tax"`
	Total    float64 `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	TaxRate  float64 `gorm:"type:decimal(5,4);not null;default:0.08" json:"tax_rate"`

	EstimatedPrepMinutes int             `gorm:"not null;default:15" json:"estimated_prep_minutes"`
	AllergenSummary      AllergenSummary `gorm:"type:text" json:"allergen_summary"`
	Notes                string          `gorm:"type:text" json:"notes"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem is a denormalized snapshot of the menu item at order time, so
// later menu edits never change historical orders.
type OrderItem struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	OrderID    uint `gorm:"index;not null" json:"order_id"`
	MenuItemID uint `gorm:"not null" json:"menu_item_id"`

	Name     string  `gorm:"type:varchar(255);not null" json:"name"`
	Category string  `gorm:"type:varchar(100)" json:"category"`
	Price    float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity int     `gorm:"not null" json:"quantity"`

	Allergens           StringList        `gorm:"type:text" json:"allergens"`
	Customizations      CustomizationList `gorm:"type:text" json:"customizations"`
	AvoidAllergens      StringList        `gorm:"type:text" json:"avoid_allergens"`
	DietaryPreferences  StringList        `gorm:"type:text" json:"dietary_preferences"`
	SpecialInstructions string            `gorm:"type:text" json:"special_instructions"`

	LineTotal float64   `gorm:"type:decimal(10,2);not null" json:"line_total"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderReady,
		OrderServed, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Open reports whether the order still occupies its table.
func (o *Order) Open() bool {
	return o.Status != OrderCompleted && o.Status != OrderCancelled
}
