package models

import "time"

type MenuItem struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	RestaurantID uint       `gorm:"index;not null" json:"restaurant_id"`
	Name         string     `gorm:"type:varchar(255);not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	Price        float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	Category     string     `gorm:"type:varchar(100)" json:"category"`
	Available    bool       `gorm:"not null;default:true" json:"available"`
	Allergens    StringList `gorm:"type:text" json:"allergens"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}
