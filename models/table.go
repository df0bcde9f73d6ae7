package models

import "time"

const (
	TableAvailable = "available"
	TableOccupied  = "occupied"
	TableReserved  = "reserved"
	TableCleaning  = "cleaning"
)

// Table phases track the coarse customer journey, separate from order status.
const (
	PhaseWaiting     = "waiting"
	PhaseSeated      = "seated"
	PhaseOrdering    = "ordering"
	PhaseWaitingFood = "waiting_food"
	PhaseEating      = "eating"
	PhasePacking     = "packing"
	PhaseDeparture   = "departure"
)

type Table struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"index;not null" json:"restaurant_id"`
	TableNumber  string    `gorm:"type:varchar(50);not null" json:"table_number"`
	Capacity     int       `gorm:"not null;default:2" json:"capacity"`
	Status       string    `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	Phase        string    `gorm:"type:varchar(20);not null;default:'waiting'" json:"phase"`
	QRPayload    string    `gorm:"type:varchar(512)" json:"qr_payload"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func ValidTableStatus(s string) bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved, TableCleaning:
		return true
	}
	return false
}

func ValidTablePhase(s string) bool {
	switch s {
	case PhaseWaiting, PhaseSeated, PhaseOrdering, PhaseWaitingFood,
		PhaseEating, PhasePacking, PhaseDeparture:
		return true
	}
	return false
}
