package main

import (
	"log"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/config"
	"github.com/tablescan/qrorder-app/models"
	"github.com/tablescan/qrorder-app/router"
	"github.com/tablescan/qrorder-app/services"
	"github.com/tablescan/qrorder-app/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on the environment")
	}
	utils.InitLogger()

	cfg := config.Load()

	utils.SetJWTSecret(cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		utils.ErrorLogger.Println("JWT_SECRET is not set, signing tokens with the development fallback key")
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to the database: %v", err)
	}

	if err := autoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Migration failed: %v", err)
	}
	if err := seedSuperadmin(db); err != nil {
		utils.ErrorLogger.Fatalf("Seed failed: %v", err)
	}

	paymentGW := services.NewPaymentGateway(services.PaymentConfig{
		SecretKey:     cfg.PaymentSecretKey,
		WebhookSecret: cfg.PaymentWebhookSecret,
		BaseURL:       cfg.PaymentBaseURL,
		Currency:      cfg.PaymentCurrency,
	})
	chatGW := services.NewChatGateway(services.ChatConfig{
		APIKey:  cfg.ChatAPIKey,
		BaseURL: cfg.ChatBaseURL,
		Model:   cfg.ChatModel,
	})
	smsGW := services.NewSMSGateway(services.SMSConfig{
		AccountID: cfg.SMSAccountID,
		AuthToken: cfg.SMSAuthToken,
		From:      cfg.SMSFrom,
		BaseURL:   cfg.SMSBaseURL,
	})

	notifier := services.NewNotifier(db, smsGW)
	notifier.Start()
	defer notifier.Stop()

	r := router.SetupRouter(db, cfg, paymentGW, chatGW, notifier)

	utils.InfoLogger.Printf("Server listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatalf("Server stopped: %v", err)
	}
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.OperatingHour{},
		&models.Table{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Review{},
		&models.ReviewReply{},
		&models.ServiceRequest{},
		&models.WaitingListEntry{},
		&models.ChatMessage{},
		&models.Notification{},
	)
}

// seedSuperadmin guarantees a platform operator account exists on first run.
// The credentials are meant to be changed immediately.
func seedSuperadmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleSuperadmin).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("ChangeMe123!"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Name:     "Platform Admin",
		Email:    "superadmin@qrorder.local",
		Password: string(hashed),
		Role:     models.RoleSuperadmin,
		Active:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	utils.InfoLogger.Printf("Seeded superadmin account %s", admin.Email)
	return nil
}
