package models

import "time"

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of the table-side assistant conversation, keyed by
// an opaque session id handed to the customer on first contact.
type ChatMessage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RestaurantID uint      `gorm:"index;not null" json:"restaurant_id"`
	TableID      uint      `json:"table_id"`
	SessionID    string    `gorm:"type:varchar(36);index;not null" json:"session_id"`
	Role         string    `gorm:"type:varchar(10);not null" json:"role"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}
