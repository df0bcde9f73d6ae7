package controllers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/utils"
)

type RestaurantController struct {
	DB *gorm.DB
}

func NewRestaurantController(db *gorm.DB) *RestaurantController {
	return &RestaurantController{DB: db}
}

// GetRestaurant -> public profile shown after a QR scan.
func (rc *RestaurantController) GetRestaurant(c *gin.Context) {
	var restaurant models.Restaurant
	if err := rc.DB.Preload("OperatingHours").
		Where("active = ?", true).
		First(&restaurant, c.Param("restaurant_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant", gin.H{
		"id":              restaurant.ID,
		"name":            restaurant.Name,
		"address":         restaurant.Address,
		"phone":           restaurant.Phone,
		"operating_hours": restaurant.OperatingHours,
	})
}

// GetMyRestaurant -> full tenant record for the admin dashboard.
func (rc *RestaurantController) GetMyRestaurant(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var restaurant models.Restaurant
	if err := rc.DB.Preload("OperatingHours").Preload("Tables").
		First(&restaurant, restaurantID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant", restaurant)
}

func (rc *RestaurantController) UpdateMyRestaurant(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var restaurant models.Restaurant
	if err := rc.DB.First(&restaurant, restaurantID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var req struct {
		Name                 *string  `json:"name"`
		Address              *string  `json:"address"`
		Phone                *string  `json:"phone"`
		Email                *string  `json:"email"`
		TaxRate              *float64 `json:"tax_rate"`
		PaymentsEnabled      *bool    `json:"payments_enabled"`
		NotificationsEnabled *bool    `json:"notifications_enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.TaxRate != nil && (*req.TaxRate < 0 || *req.TaxRate > 1) {
		utils.RespondError(c, http.StatusBadRequest,
			errors.New("tax_rate must be between 0 and 1"))
		return
	}

	if req.Name != nil {
		restaurant.Name = *req.Name
	}
	if req.Address != nil {
		restaurant.Address = *req.Address
	}
	if req.Phone != nil {
		restaurant.Phone = *req.Phone
	}
	if req.Email != nil {
		restaurant.Email = strings.ToLower(*req.Email)
	}
	if req.TaxRate != nil {
		restaurant.TaxRate = *req.TaxRate
	}
	if req.PaymentsEnabled != nil {
		restaurant.PaymentsEnabled = *req.PaymentsEnabled
	}
	if req.NotificationsEnabled != nil {
		restaurant.NotificationsEnabled = *req.NotificationsEnabled
	}

	if err := rc.DB.Save(&restaurant).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant updated", restaurant)
}

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// SetOperatingHours replaces the tenant's weekly schedule in one call.
func (rc *RestaurantController) SetOperatingHours(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var req struct {
		Hours []struct {
			Weekday  int    `json:"weekday"`
			OpensAt  string `json:"opens_at"`
			ClosesAt string `json:"closes_at"`
			Closed   bool   `json:"closed"`
		} `json:"hours" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	for _, h := range req.Hours {
		if h.Weekday < 0 || h.Weekday > 6 {
			utils.RespondError(c, http.StatusBadRequest,
				fmt.Errorf("weekday %d out of range", h.Weekday))
			return
		}
		if !h.Closed && (!clockPattern.MatchString(h.OpensAt) || !clockPattern.MatchString(h.ClosesAt)) {
			utils.RespondError(c, http.StatusBadRequest,
				fmt.Errorf("weekday %d: hours must be HH:MM", h.Weekday))
			return
		}
	}

	tx := rc.DB.Begin()
	if err := tx.Where("restaurant_id = ?", restaurantID).
		Delete(&models.OperatingHour{}).Error; err != nil {
		tx.Rollback()
		utils.RespondInternal(c, err)
		return
	}
	hours := make([]models.OperatingHour, 0, len(req.Hours))
	for _, h := range req.Hours {
		hours = append(hours, models.OperatingHour{
			RestaurantID: restaurantID,
			Weekday:      h.Weekday,
			OpensAt:      h.OpensAt,
			ClosesAt:     h.ClosesAt,
			Closed:       h.Closed,
		})
	}
	if len(hours) > 0 {
		if err := tx.Create(&hours).Error; err != nil {
			tx.Rollback()
			utils.RespondInternal(c, err)
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Operating hours updated", hours)
}

// CreateStaff provisions a staff or admin account bound to this tenant.
func (rc *RestaurantController) CreateStaff(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Role != models.RoleStaff && req.Role != models.RoleAdmin {
		utils.RespondError(c, http.StatusBadRequest,
			errors.New("role must be staff or admin"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondInternal(c, err)
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		Password:     string(hashed),
		Role:         req.Role,
		RestaurantID: &restaurantID,
		Active:       true,
	}
	if err := rc.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("email already registered"))
		return
	}

	utils.InfoLogger.Printf("Staff account created: %s (%s, restaurant=%d)",
		user.Email, user.Role, restaurantID)
	utils.RespondJSON(c, http.StatusCreated, "Staff account created", gin.H{
		"user_id": user.ID,
		"role":    user.Role,
	})
}

func (rc *RestaurantController) ListStaff(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var staff []models.User
	if err := rc.DB.Where("restaurant_id = ?", restaurantID).
		Order("role, name").Find(&staff).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Staff", staff)
}

// GetDashboardStats -> admin overview across orders, tables, reviews and
// service requests for the tenant.
func (rc *RestaurantController) GetDashboardStats(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)
	today := time.Now().Format("2006-01-02")

	var stats struct {
		OpenOrders      int64   `json:"open_orders"`
		TodayOrders     int64   `json:"today_orders"`
		TodayRevenue    float64 `json:"today_revenue"`
		OccupiedTables  int64   `json:"occupied_tables"`
		TotalTables     int64   `json:"total_tables"`
		PendingRequests int64   `json:"pending_requests"`
		PendingReviews  int64   `json:"pending_reviews"`
		WaitlistWaiting int64   `json:"waitlist_waiting"`
		AverageRating   float64 `json:"average_rating"`
	}

	rc.DB.Model(&models.Order{}).
		Where("restaurant_id = ? AND status NOT IN ?", restaurantID,
			[]string{models.OrderCompleted, models.OrderCancelled}).
		Count(&stats.OpenOrders)
	rc.DB.Model(&models.Order{}).
		Where("restaurant_id = ? AND DATE(created_at) = ?", restaurantID, today).
		Count(&stats.TodayOrders)
	rc.DB.Model(&models.Order{}).
		Where("restaurant_id = ? AND payment_status = ? AND DATE(created_at) = ?",
			restaurantID, models.PaymentCompleted, today).
		Select("COALESCE(SUM(total), 0)").Row().Scan(&stats.TodayRevenue)

	rc.DB.Model(&models.Table{}).Where("restaurant_id = ?", restaurantID).
		Count(&stats.TotalTables)
	rc.DB.Model(&models.Table{}).
		Where("restaurant_id = ? AND status = ?", restaurantID, models.TableOccupied).
		Count(&stats.OccupiedTables)

	rc.DB.Model(&models.ServiceRequest{}).
		Where("restaurant_id = ? AND status = ?", restaurantID, models.ServicePending).
		Count(&stats.PendingRequests)
	rc.DB.Model(&models.Review{}).
		Where("restaurant_id = ? AND status = ?", restaurantID, models.ReviewPending).
		Count(&stats.PendingReviews)
	rc.DB.Model(&models.WaitingListEntry{}).
		Where("restaurant_id = ? AND status = ?", restaurantID, models.WaitlistWaiting).
		Count(&stats.WaitlistWaiting)
	rc.DB.Model(&models.Review{}).
		Where("restaurant_id = ? AND status = ?", restaurantID, models.ReviewApproved).
		Select("COALESCE(AVG(rating), 0)").Row().Scan(&stats.AverageRating)

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// ExportSalesCSV streams the tenant's orders for a date range as CSV.
// Query params: from, to (YYYY-MM-DD, both optional).
func (rc *RestaurantController) ExportSalesCSV(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	query := rc.DB.Where("restaurant_id = ?", restaurantID)
	if from := c.Query("from"); from != "" {
		if _, err := time.Parse("2006-01-02", from); err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("from must be YYYY-MM-DD"))
			return
		}
		query = query.Where("DATE(created_at) >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		if _, err := time.Parse("2006-01-02", to); err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("to must be YYYY-MM-DD"))
			return
		}
		query = query.Where("DATE(created_at) <= ?", to)
	}

	var orders []models.Order
	if err := query.Order("created_at").Find(&orders).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="sales.csv"`)

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"order_id", "created_at", "table_id", "status",
		"payment_status", "subtotal", "tax", "total"})
	for _, o := range orders {
		w.Write([]string{
			fmt.Sprintf("%d", o.ID),
			o.CreatedAt.Format(time.RFC3339),
			fmt.Sprintf("%d", o.TableID),
			o.Status,
			o.PaymentStatus,
			fmt.Sprintf("%.2f", o.Subtotal),
			fmt.Sprintf("%.2f", o.Tax),
			fmt.Sprintf("%.2f", o.Total),
		})
	}
	w.Flush()
}
