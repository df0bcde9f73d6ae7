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

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

// Register creates a customer account. Staff and admin accounts are
// provisioned by a restaurant admin or the superadmin, never here.
func (ac *AuthController) Register(c *gin.Context) {
	type request struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondInternal(c, err)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    strings.ToLower(req.Email),
		Password: string(hashed),
		Role:     models.RoleCustomer,
		Active:   true,
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("email already registered"))
		return
	}

	utils.InfoLogger.Printf("New user registered: %s", user.Email)
	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{
		"user_id": user.ID,
	})
}

// Login verifies credentials and returns a JWT carrying role and tenant.
func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := ac.DB.Where("email = ?", strings.ToLower(input.Email)).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}
	if !user.Active {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("account disabled"))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	var restaurantID uint
	if user.RestaurantID != nil {
		restaurantID = *user.RestaurantID
	}
	token, err := utils.GenerateToken(user.ID, user.Role, restaurantID)
	if err != nil {
		utils.RespondInternal(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":         token,
		"role":          user.Role,
		"restaurant_id": restaurantID,
	})
}

// Logout blacklists the presented token.
func (ac *AuthController) Logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token != "" {
		utils.BlacklistToken(token)
	}
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

func (ac *AuthController) GetProfile(c *gin.Context) {
	userID := userIDFromCtx(c)

	var user models.User
	if err := ac.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile retrieved", gin.H{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"role":          user.Role,
		"restaurant_id": user.RestaurantID,
	})
}
