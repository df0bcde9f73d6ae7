package models

import "time"

const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

type Review struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	RestaurantID uint          `gorm:"index;not null" json:"restaurant_id"`
	OrderID      *uint         `gorm:"index" json:"order_id,omitempty"`
	CustomerName string        `gorm:"type:varchar(255)" json:"customer_name"`
	Rating       int           `gorm:"not null" json:"rating"`
	Comment      string        `gorm:"type:text" json:"comment"`
	Status       string        `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Replies      []ReviewReply `gorm:"foreignKey:ReviewID" json:"replies,omitempty"`
	CreatedAt    time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null" json:"updated_at"`
}

// ReviewReply is one staff message in the response thread of a review.
type ReviewReply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReviewID  uint      `gorm:"index;not null" json:"review_id"`
	UserID    uint      `gorm:"not null" json:"user_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}
