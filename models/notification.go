package models

import "time"

const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification kinds, one per outbound SMS template.
const (
	NotifyOrderConfirmation = "order_confirmation"
	NotifyAllergenAlert     = "allergen_alert"
	NotifyStatusUpdate      = "status_update"
	NotifyPaymentReceipt    = "payment_receipt"
	NotifyWaitlistReady     = "waitlist_ready"
)

// Notification is a persisted outbound SMS. Rows are written before dispatch
// so delivery status and retries stay observable after the fact.
type Notification struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RestaurantID uint       `gorm:"index;not null" json:"restaurant_id"`
	OrderID      *uint      `gorm:"index" json:"order_id,omitempty"`
	Recipient    string     `gorm:"type:varchar(50);not null" json:"recipient"`
	Body         string     `gorm:"type:text;not null" json:"body"`
	Kind         string     `gorm:"type:varchar(30);not null" json:"kind"`
	Status       string     `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`
	Attempts     int        `gorm:"not null;default:0" json:"attempts"`
	LastError    string     `gorm:"type:varchar(512)" json:"last_error,omitempty"`
	// NextAttemptAt schedules the retry after a failed send; the sweep only
	// picks up rows that are due.
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}
