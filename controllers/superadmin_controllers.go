package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/utils"
)

// SuperadminController manages tenants. Everything here requires the
// superadmin role.
type SuperadminController struct {
	DB *gorm.DB
}

func NewSuperadminController(db *gorm.DB) *SuperadminController {
	return &SuperadminController{DB: db}
}

func (sc *SuperadminController) ListRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	if err := sc.DB.Preload("Owner").Order("name").Find(&restaurants).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurants", restaurants)
}

// CreateRestaurant onboards a tenant: the restaurant row and its first admin
// account are created in one transaction.
func (sc *SuperadminController) CreateRestaurant(c *gin.Context) {
	var req struct {
		Name          string  `json:"name" binding:"required"`
		Address       string  `json:"address"`
		Phone         string  `json:"phone"`
		Email         string  `json:"email"`
		TaxRate       float64 `json:"tax_rate"`
		AdminName     string  `json:"admin_name" binding:"required"`
		AdminEmail    string  `json:"admin_email" binding:"required,email"`
		AdminPassword string  `json:"admin_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.TaxRate < 0 || req.TaxRate > 1 {
		utils.RespondError(c, http.StatusBadRequest,
			errors.New("tax_rate must be between 0 and 1"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondInternal(c, err)
		return
	}

	restaurant := models.Restaurant{
		Name:                 req.Name,
		Address:              req.Address,
		Phone:                req.Phone,
		Email:                strings.ToLower(req.Email),
		Active:               true,
		NotificationsEnabled: true,
	}
	if req.TaxRate > 0 {
		restaurant.TaxRate = req.TaxRate
	}

	tx := sc.DB.Begin()
	if err := tx.Create(&restaurant).Error; err != nil {
		tx.Rollback()
		utils.RespondInternal(c, err)
		return
	}
	admin := models.User{
		Name:         req.AdminName,
		Email:        strings.ToLower(req.AdminEmail),
		Password:     string(hashed),
		Role:         models.RoleAdmin,
		RestaurantID: &restaurant.ID,
		Active:       true,
	}
	if err := tx.Create(&admin).Error; err != nil {
		tx.Rollback()
		utils.RespondError(c, http.StatusBadRequest, errors.New("admin email already registered"))
		return
	}
	restaurant.OwnerID = admin.ID
	if err := tx.Save(&restaurant).Error; err != nil {
		tx.Rollback()
		utils.RespondInternal(c, err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	utils.InfoLogger.Printf("Restaurant onboarded: %s (id=%d, admin=%s)",
		restaurant.Name, restaurant.ID, admin.Email)
	utils.RespondJSON(c, http.StatusCreated, "Restaurant created", gin.H{
		"restaurant": restaurant,
		"admin_id":   admin.ID,
	})
}

// SetRestaurantActive enables or disables a tenant. A disabled tenant drops
// out of all public endpoints immediately.
func (sc *SuperadminController) SetRestaurantActive(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var restaurant models.Restaurant
	if err := sc.DB.First(&restaurant, c.Param("restaurant_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	restaurant.Active = *req.Active
	if err := sc.DB.Save(&restaurant).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	utils.InfoLogger.Printf("Restaurant %d active=%t", restaurant.ID, restaurant.Active)
	utils.RespondJSON(c, http.StatusOK, "Restaurant updated", restaurant)
}

// GetPlatformStats -> cross-tenant totals for the superadmin dashboard.
func (sc *SuperadminController) GetPlatformStats(c *gin.Context) {
	var stats struct {
		Restaurants       int64   `json:"restaurants"`
		ActiveRestaurants int64   `json:"active_restaurants"`
		Users             int64   `json:"users"`
		Orders            int64   `json:"orders"`
		TotalRevenue      float64 `json:"total_revenue"`
	}

	sc.DB.Model(&models.Restaurant{}).Count(&stats.Restaurants)
	sc.DB.Model(&models.Restaurant{}).Where("active = ?", true).
		Count(&stats.ActiveRestaurants)
	sc.DB.Model(&models.User{}).Count(&stats.Users)
	sc.DB.Model(&models.Order{}).Count(&stats.Orders)
	sc.DB.Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentCompleted).
		Select("COALESCE(SUM(total), 0)").Row().Scan(&stats.TotalRevenue)

	utils.RespondJSON(c, http.StatusOK, "Platform stats", stats)
}
