package models

import "time"

const (
	ServiceSpecialRequest      = "special_request"
	ServiceCallServer          = "call_server"
	ServiceSpecialInstructions = "special_instructions"
)

const (
	ServicePending    = "pending"
	ServiceInProgress = "in_progress"
	ServiceCompleted  = "completed"
	ServiceCancelled  = "cancelled"
)

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// ServiceRequest is a table-side request raised by a customer and worked by
// staff, optionally claimed by a specific user.
type ServiceRequest struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RestaurantID uint       `gorm:"index;not null" json:"restaurant_id"`
	TableID      uint       `gorm:"index;not null" json:"table_id"`
	Type         string     `gorm:"type:varchar(30);not null" json:"type"`
	Note         string     `gorm:"type:text" json:"note"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Priority     string     `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`
	AssignedTo   *uint      `gorm:"index" json:"assigned_to,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func ValidServiceType(s string) bool {
	switch s {
	case ServiceSpecialRequest, ServiceCallServer, ServiceSpecialInstructions:
		return true
	}
	return false
}

func ValidServiceStatus(s string) bool {
	switch s {
	case ServicePending, ServiceInProgress, ServiceCompleted, ServiceCancelled:
		return true
	}
	return false
}
