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

type OrderController struct {
	DB       *gorm.DB
	Notifier *services.Notifier
}

func NewOrderController(db *gorm.DB, notifier *services.Notifier) *OrderController {
	return &OrderController{DB: db, Notifier: notifier}
}

// CreateOrder -> customer checkout. All-or-nothing on menu availability:
// nothing is persisted unless every referenced item exists and is available.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req struct {
		RestaurantID  uint                       `json:"restaurant_id" binding:"required"`
		TableID       uint                       `json:"table_id" binding:"required"`
		CustomerName  string                     `json:"customer_name" binding:"required"`
		CustomerPhone string                     `json:"customer_phone" binding:"required"`
		Items         []services.OrderItemInput  `json:"items" binding:"required,min=1,dive"`
		Notes         string                     `json:"notes"`
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
	if err := oc.DB.Where("active = ?", true).First(&restaurant, req.RestaurantID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("restaurant not found"))
		return
	}

	var table models.Table
	if err := oc.DB.Where("restaurant_id = ?", restaurant.ID).
		First(&table, req.TableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("table not found"))
		return
	}

	// Batch-fetch the referenced menu items within this tenant.
	ids := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.MenuItemID)
	}
	var menuItems []models.MenuItem
	if err := oc.DB.Where("restaurant_id = ? AND id IN ?", restaurant.ID, ids).
		Find(&menuItems).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	menu := make(map[uint]models.MenuItem, len(menuItems))
	for _, mi := range menuItems {
		menu[mi.ID] = mi
	}

	items, err := services.BuildOrderItems(req.Items, menu)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	subtotal, tax, total := services.PriceOrder(items, restaurant.TaxRate)
	summary := services.SummarizeAllergens(items)

	order := models.Order{
		RestaurantID:         restaurant.ID,
		TableID:              table.ID,
		CustomerName:         req.CustomerName,
		CustomerPhone:        utils.NormalizePhone(req.CustomerPhone),
		Status:               models.OrderPending,
		PaymentStatus:        models.PaymentPending,
		Subtotal:             subtotal,
		Tax:                  tax,
		Total:                total,
		TaxRate:              restaurant.TaxRate,
		EstimatedPrepMinutes: services.EstimatePrepMinutes(items),
		AllergenSummary:      summary,
		Notes:                req.Notes,
		Items:                items,
	}

	// Order, lines, and the table transition commit together. A table with a
	// live order is occupied; see the clean endpoint for the way back.
	tx := oc.DB.Begin()
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		utils.RespondInternal(c, err)
		return
	}
	if table.Status == models.TableAvailable || table.Status == models.TableReserved {
		table.Status = models.TableOccupied
		table.Phase = models.PhaseOrdering
		if err := tx.Save(&table).Error; err != nil {
			tx.Rollback()
			utils.RespondInternal(c, err)
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	if restaurant.NotificationsEnabled {
		oc.Notifier.Enqueue(&models.Notification{
			RestaurantID: restaurant.ID,
			OrderID:      &order.ID,
			Recipient:    order.CustomerPhone,
			Body:         services.OrderConfirmationBody(&order, restaurant.Name),
			Kind:         models.NotifyOrderConfirmation,
		})
		if summary.HasConcerns() && restaurant.Phone != "" {
			oc.Notifier.Enqueue(&models.Notification{
				RestaurantID: restaurant.ID,
				OrderID:      &order.ID,
				Recipient:    restaurant.Phone,
				Body:         services.AllergenAlertBody(&order),
				Kind:         models.NotifyAllergenAlert,
			})
		}
	}

	events.BroadcastOrderCreated(order)
	events.BroadcastTableUpdate(table)

	utils.RespondJSON(c, http.StatusCreated, "Order created", gin.H{
		"order":            order,
		"allergen_summary": summary,
	})
}

// GetOrderByID -> order detail with line items. Public so customers can
// follow their order from the table.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	var order models.Order
	if err := oc.DB.Preload("Items").First(&order, c.Param("order_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// ListOrders -> staff view of the tenant's orders, optionally by status.
func (oc *OrderController) ListOrders(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	query := oc.DB.Preload("Items").Where("restaurant_id = ?", restaurantID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// UpdateOrderStatus -> staff-driven lifecycle transition. Membership in the
// status vocabulary is the only ordering guard; completed and cancelled
// orders are immutable except for notes.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !models.ValidOrderStatus(req.Status) {
		utils.RespondError(c, http.StatusBadRequest,
			fmt.Errorf("unknown order status %q", req.Status))
		return
	}

	var order models.Order
	if err := oc.DB.Where("restaurant_id = ?", restaurantID).
		First(&order, c.Param("order_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if !order.Open() {
		utils.RespondError(c, http.StatusBadRequest,
			fmt.Errorf("order is %s and can no longer change status", order.Status))
		return
	}

	now := time.Now()
	order.Status = req.Status
	switch req.Status {
	case models.OrderConfirmed:
		if order.ConfirmedAt == nil {
			order.ConfirmedAt = &now
		}
	case models.OrderCompleted, models.OrderCancelled:
		order.CompletedAt = &now
	}

	if err := oc.DB.Save(&order).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	if !order.Open() {
		oc.releaseTable(&order)
	}

	var restaurant models.Restaurant
	if err := oc.DB.First(&restaurant, order.RestaurantID).Error; err == nil &&
		restaurant.NotificationsEnabled {
		oc.Notifier.Enqueue(&models.Notification{
			RestaurantID: order.RestaurantID,
			OrderID:      &order.ID,
			Recipient:    order.CustomerPhone,
			Body:         services.StatusUpdateBody(&order, restaurant.Name),
			Kind:         models.NotifyStatusUpdate,
		})
	}

	events.BroadcastOrderUpdate(order)
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// UpdateOrderNotes -> the single mutation allowed on closed orders.
func (oc *OrderController) UpdateOrderNotes(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var order models.Order
	if err := oc.DB.Where("restaurant_id = ?", restaurantID).
		First(&order, c.Param("order_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	order.Notes = req.Notes
	if err := oc.DB.Save(&order).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order notes updated", order)
}

// releaseTable frees the table once its last open order closes. The table
// goes to cleaning, not straight to available; staff mark it clean.
func (oc *OrderController) releaseTable(order *models.Order) {
	var openCount int64
	oc.DB.Model(&models.Order{}).
		Where("table_id = ? AND id != ? AND status NOT IN ?",
			order.TableID, order.ID,
			[]string{models.OrderCompleted, models.OrderCancelled}).
		Count(&openCount)
	if openCount > 0 {
		return
	}

	var table models.Table
	if err := oc.DB.First(&table, order.TableID).Error; err != nil {
		return
	}
	table.Status = models.TableCleaning
	table.Phase = models.PhaseDeparture
	if err := oc.DB.Save(&table).Error; err != nil {
		utils.ErrorLogger.Printf("release table %d: %v", table.ID, err)
		return
	}
	events.BroadcastTableUpdate(table)
}

// GetOrderStats -> dashboard aggregation across the tenant's orders.
func (oc *OrderController) GetOrderStats(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)
	today := time.Now().Format("2006-01-02")

	var stats struct {
		TotalOrders  int64            `json:"total_orders"`
		TodayOrders  int64            `json:"today_orders"`
		TotalRevenue float64          `json:"total_revenue"`
		TodayRevenue float64          `json:"today_revenue"`
		ByStatus     map[string]int64 `json:"by_status"`
		TopItems     []struct {
			MenuItemID uint    `json:"menu_item_id"`
			Name       string  `json:"name"`
			Count      int64   `json:"count"`
			Revenue    float64 `json:"revenue"`
		} `json:"top_items"`
		AllergenSummary models.AllergenSummary `json:"allergen_summary"`
	}
	stats.ByStatus = make(map[string]int64)

	oc.DB.Model(&models.Order{}).Where("restaurant_id = ?", restaurantID).
		Count(&stats.TotalOrders)
	oc.DB.Model(&models.Order{}).
		Where("restaurant_id = ? AND DATE(created_at) = ?", restaurantID, today).
		Count(&stats.TodayOrders)

	rows, err := oc.DB.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Where("restaurant_id = ?", restaurantID).
		Group("status").Rows()
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var status string
			var count int64
			if err := rows.Scan(&status, &count); err == nil {
				stats.ByStatus[status] = count
			}
		}
	}

	oc.DB.Model(&models.Order{}).
		Where("restaurant_id = ? AND payment_status = ?", restaurantID, models.PaymentCompleted).
		Select("COALESCE(SUM(total), 0)").Row().Scan(&stats.TotalRevenue)
	oc.DB.Model(&models.Order{}).
		Where("restaurant_id = ? AND payment_status = ? AND DATE(created_at) = ?",
			restaurantID, models.PaymentCompleted, today).
		Select("COALESCE(SUM(total), 0)").Row().Scan(&stats.TodayRevenue)

	oc.DB.Raw(`
		SELECT oi.menu_item_id, oi.name, SUM(oi.quantity) as count, SUM(oi.line_total) as revenue
		FROM order_items oi
		JOIN orders o ON oi.order_id = o.id
		WHERE o.restaurant_id = ?
		GROUP BY oi.menu_item_id, oi.name
		ORDER BY count DESC
		LIMIT 10
	`, restaurantID).Scan(&stats.TopItems)

	// Allergen lists are JSON text columns, so the cross-order re-aggregation
	// merges the stored per-order summaries instead of grouping in SQL.
	var summaries []models.Order
	oc.DB.Select("allergen_summary").
		Where("restaurant_id = ?", restaurantID).
		Find(&summaries)
	merged := make([]models.OrderItem, 0, len(summaries))
	for _, o := range summaries {
		merged = append(merged, models.OrderItem{
			AvoidAllergens:     o.AllergenSummary.AvoidAllergens,
			DietaryPreferences: o.AllergenSummary.DietaryPreferences,
		})
		stats.AllergenSummary.SpecialInstructionCount += o.AllergenSummary.SpecialInstructionCount
	}
	agg := services.SummarizeAllergens(merged)
	stats.AllergenSummary.AvoidAllergens = agg.AvoidAllergens
	stats.AllergenSummary.DietaryPreferences = agg.DietaryPreferences

	utils.RespondJSON(c, http.StatusOK, "Order stats", stats)
}
