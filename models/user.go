package models

import "time"

const (
	RoleCustomer   = "customer"
	RoleStaff      = "staff"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);unique;not null" json:"email"`
	Password     string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"type:varchar(20);not null;default:'customer'" json:"role"`
	RestaurantID *uint     `gorm:"index" json:"restaurant_id,omitempty"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}
