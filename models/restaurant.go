package models

import "time"

// Restaurant is a tenant. Staff, menu items, tables and orders all hang off
// its id; controllers filter by restaurant_id taken from the caller's token.
type Restaurant struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Address string `gorm:"type:varchar(255)" json:"address"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	Email   string `gorm:"type:varchar(255)" json:"email"`
	OwnerID uint   `gorm:"index" json:"owner_id"`
	Owner   *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Active  bool   `gorm:"not null;default:true" json:"active"`

	TaxRate              float64 `gorm:"type:decimal(5,4);not null;default:0.08" json:"tax_rate"`
	PaymentsEnabled      bool    `gorm:"not null;default:true" json:"payments_enabled"`
	NotificationsEnabled bool    `gorm:"not null;default:true" json:"notifications_enabled"`

	OperatingHours []OperatingHour `gorm:"foreignKey:RestaurantID" json:"operating_hours,omitempty"`
	Tables         []Table         `gorm:"foreignKey:RestaurantID" json:"tables,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// OperatingHour is one weekday row of the restaurant's schedule.
// Weekday follows time.Weekday (0 = Sunday).
type OperatingHour struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RestaurantID uint   `gorm:"index;not null" json:"restaurant_id"`
	Weekday      int    `gorm:"not null" json:"weekday"`
	OpensAt      string `gorm:"type:varchar(5)" json:"opens_at"`
	ClosesAt     string `gorm:"type:varchar(5)" json:"closes_at"`
	Closed       bool   `gorm:"not null;default:false" json:"closed"`
}
