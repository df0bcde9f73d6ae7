package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/events"
	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/services"
	"github.com/tablescan/qrorder-app/utils"
)

type WaitlistController struct {
	DB       *gorm.DB
	Notifier *services.Notifier
}

func NewWaitlistController(db *gorm.DB, notifier *services.Notifier) *WaitlistController {
	return &WaitlistController{DB: db, Notifier: notifier}
}

// JoinWaitlist -> public signup when no table is free.
func (wc *WaitlistController) JoinWaitlist(c *gin.Context) {
	var req struct {
		RestaurantID  uint   `json:"restaurant_id" binding:"required"`
		CustomerName  string `json:"customer_name" binding:"required"`
		CustomerPhone string `json:"customer_phone" binding:"required"`
		PartySize     int    `json:"party_size" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !utils.ValidPhone(req.CustomerPhone) {
		utils.RespondError(c, http.StatusBadRequest,
			errors.New("customer_phone must be a valid phone number"))
		return
	}

	var restaurant models.Restaurant
	if err := wc.DB.Where("active = ?", true).First(&restaurant, req.RestaurantID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("restaurant not found"))
		return
	}

	entry := models.WaitingListEntry{
		RestaurantID:  restaurant.ID,
		CustomerName:  req.CustomerName,
		CustomerPhone: utils.NormalizePhone(req.CustomerPhone),
		PartySize:     req.PartySize,
		Status:        models.WaitlistWaiting,
	}
	if err := wc.DB.Create(&entry).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	var position int64
	wc.DB.Model(&models.WaitingListEntry{}).
		Where("restaurant_id = ? AND status = ? AND id <= ?",
			restaurant.ID, models.WaitlistWaiting, entry.ID).
		Count(&position)

	events.BroadcastWaitlistUpdate(entry)
	utils.RespondJSON(c, http.StatusCreated, "Added to waiting list", gin.H{
		"entry":    entry,
		"position": position,
	})
}

// ListWaitlist -> staff view of waiting parties, oldest first.
func (wc *WaitlistController) ListWaitlist(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	query := wc.DB.Where("restaurant_id = ?", restaurantID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status IN ?",
			[]string{models.WaitlistWaiting, models.WaitlistNotified})
	}

	var entries []models.WaitingListEntry
	if err := query.Order("created_at").Find(&entries).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waiting list", entries)
}

// NotifyWaitlistEntry texts a waiting party that their table is ready.
func (wc *WaitlistController) NotifyWaitlistEntry(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var entry models.WaitingListEntry
	if err := wc.DB.Where("restaurant_id = ?", restaurantID).
		First(&entry, c.Param("entry_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if entry.Status != models.WaitlistWaiting {
		utils.RespondError(c, http.StatusBadRequest,
			fmt.Errorf("entry is %s, not waiting", entry.Status))
		return
	}

	var restaurant models.Restaurant
	if err := wc.DB.First(&restaurant, restaurantID).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	now := time.Now()
	entry.Status = models.WaitlistNotified
	entry.NotifiedAt = &now
	if err := wc.DB.Save(&entry).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	if restaurant.NotificationsEnabled {
		wc.Notifier.Enqueue(&models.Notification{
			RestaurantID: restaurantID,
			Recipient:    entry.CustomerPhone,
			Body:         services.WaitlistReadyBody(&entry, restaurant.Name),
			Kind:         models.NotifyWaitlistReady,
		})
	}

	events.BroadcastWaitlistUpdate(entry)
	utils.RespondJSON(c, http.StatusOK, "Waitlist entry notified", entry)
}

// UpdateWaitlistEntry seats or cancels a party.
func (wc *WaitlistController) UpdateWaitlistEntry(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Status != models.WaitlistSeated && req.Status != models.WaitlistCancelled {
		utils.RespondError(c, http.StatusBadRequest,
			errors.New("status must be seated or cancelled"))
		return
	}

	var entry models.WaitingListEntry
	if err := wc.DB.Where("restaurant_id = ?", restaurantID).
		First(&entry, c.Param("entry_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	entry.Status = req.Status
	if err := wc.DB.Save(&entry).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	events.BroadcastWaitlistUpdate(entry)
	utils.RespondJSON(c, http.StatusOK, "Waitlist entry updated", entry)
}
