package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetRestaurantMenu -> public listing for customers; available items only.
func (mc *MenuController) GetRestaurantMenu(c *gin.Context) {
	restaurantID, err := strconv.Atoi(c.Param("restaurant_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	query := mc.DB.Where("restaurant_id = ? AND available = ?", restaurantID, true)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var items []models.MenuItem
	if err := query.Order("category, name").Find(&items).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", items)
}

// ListMenu -> staff view, includes unavailable items.
func (mc *MenuController) ListMenu(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var items []models.MenuItem
	if err := mc.DB.Where("restaurant_id = ?", restaurantID).
		Order("category, name").Find(&items).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu items", items)
}

func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var req struct {
		Name        string   `json:"name" binding:"required"`
		Description string   `json:"description"`
		Price       float64  `json:"price" binding:"required,gt=0"`
		Category    string   `json:"category"`
		Available   *bool    `json:"available"`
		Allergens   []string `json:"allergens"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item := models.MenuItem{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		Available:    true,
		Allergens:    models.StringList(req.Allergens),
	}
	if req.Available != nil {
		item.Available = *req.Available
	}

	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	utils.InfoLogger.Printf("Menu item created: %s (restaurant=%d)", item.Name, restaurantID)
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

func (mc *MenuController) GetMenuItem(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var item models.MenuItem
	if err := mc.DB.Where("restaurant_id = ?", restaurantID).
		First(&item, c.Param("item_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item", item)
}

func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var item models.MenuItem
	if err := mc.DB.Where("restaurant_id = ?", restaurantID).
		First(&item, c.Param("item_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var req struct {
		Name        *string   `json:"name"`
		Description *string   `json:"description"`
		Price       *float64  `json:"price"`
		Category    *string   `json:"category"`
		Available   *bool     `json:"available"`
		Allergens   *[]string `json:"allergens"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if req.Allergens != nil {
		item.Allergens = models.StringList(*req.Allergens)
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var item models.MenuItem
	if err := mc.DB.Where("restaurant_id = ?", restaurantID).
		First(&item, c.Param("item_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if err := mc.DB.Delete(&item).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"id": item.ID})
}
