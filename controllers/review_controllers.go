package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/events"
	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/utils"
)

type ReviewController struct {
	DB *gorm.DB
}

func NewReviewController(db *gorm.DB) *ReviewController {
	return &ReviewController{DB: db}
}

// CreateReview -> customer feedback. Reviews start pending and only show
// publicly after staff approve them.
func (rc *ReviewController) CreateReview(c *gin.Context) {
	var req struct {
		RestaurantID uint   `json:"restaurant_id" binding:"required"`
		OrderID      *uint  `json:"order_id"`
		CustomerName string `json:"customer_name" binding:"required"`
		Rating       int    `json:"rating" binding:"required,min=1,max=5"`
		Comment      string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var restaurant models.Restaurant
	if err := rc.DB.Where("active = ?", true).First(&restaurant, req.RestaurantID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("restaurant not found"))
		return
	}

	if req.OrderID != nil {
		var order models.Order
		if err := rc.DB.Where("restaurant_id = ?", restaurant.ID).
			First(&order, *req.OrderID).Error; err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("order not found"))
			return
		}
	}

	review := models.Review{
		RestaurantID: restaurant.ID,
		OrderID:      req.OrderID,
		CustomerName: req.CustomerName,
		Rating:       req.Rating,
		Comment:      req.Comment,
		Status:       models.ReviewPending,
	}
	if err := rc.DB.Create(&review).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}

	events.BroadcastReviewCreated(review)
	utils.RespondJSON(c, http.StatusCreated, "Review submitted", review)
}

// GetRestaurantReviews -> public list, approved reviews only.
func (rc *ReviewController) GetRestaurantReviews(c *gin.Context) {
	var reviews []models.Review
	if err := rc.DB.Preload("Replies").
		Where("restaurant_id = ? AND status = ?", c.Param("restaurant_id"), models.ReviewApproved).
		Order("created_at desc").Find(&reviews).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reviews", reviews)
}

// ListReviews -> staff moderation queue, optionally by status.
func (rc *ReviewController) ListReviews(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	query := rc.DB.Preload("Replies").Where("restaurant_id = ?", restaurantID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var reviews []models.Review
	if err := query.Order("created_at desc").Find(&reviews).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reviews", reviews)
}

// ModerateReview approves or rejects a pending review.
func (rc *ReviewController) ModerateReview(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Status != models.ReviewApproved && req.Status != models.ReviewRejected {
		utils.RespondError(c, http.StatusBadRequest,
			errors.New("status must be approved or rejected"))
		return
	}

	var review models.Review
	if err := rc.DB.Where("restaurant_id = ?", restaurantID).
		First(&review, c.Param("review_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	review.Status = req.Status
	if err := rc.DB.Save(&review).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Review moderated", review)
}

// ReplyToReview attaches a staff reply to a review.
func (rc *ReviewController) ReplyToReview(c *gin.Context) {
	restaurantID := restaurantIDFromCtx(c)
	userID := userIDFromCtx(c)

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var review models.Review
	if err := rc.DB.Where("restaurant_id = ?", restaurantID).
		First(&review, c.Param("review_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	reply := models.ReviewReply{
		ReviewID: review.ID,
		UserID:   userID,
		Message:  req.Message,
	}
	if err := rc.DB.Create(&reply).Error; err != nil {
		utils.RespondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reply added", reply)
}
