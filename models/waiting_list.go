package models

import "time"

const (
	WaitlistWaiting   = "waiting"
	WaitlistNotified  = "notified"
	WaitlistSeated    = "seated"
	WaitlistCancelled = "cancelled"
)

type WaitingListEntry struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	RestaurantID  uint       `gorm:"index;not null" json:"restaurant_id"`
	CustomerName  string     `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerPhone string     `gorm:"type:varchar(50);not null" json:"customer_phone"`
	PartySize     int        `gorm:"not null;default:1" json:"party_size"`
	Status        string     `gorm:"type:varchar(20);not null;default:'waiting'" json:"status"`
	NotifiedAt    *time.Time `json:"notified_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}
