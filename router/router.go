package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablescan/qrorder-app/config"
	"github.com/tablescan/qrorder-app/controllers"
	"github.com/tablescan/qrorder-app/middlewares"
	"github.com/tablescan/qrorder-app/services"
)

// SetupRouter wires every endpoint. Gateways and the notifier come in as
// arguments so tests can swap them for fakes.
func SetupRouter(db *gorm.DB, cfg *config.Config, paymentGW *services.PaymentGateway,
	chatGW *services.ChatGateway, notifier *services.Notifier) *gin.Engine {

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.FrontendBaseURL))
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	authCtrl := controllers.NewAuthController(db)
	menuCtrl := controllers.NewMenuController(db)
	orderCtrl := controllers.NewOrderController(db, notifier)
	paymentCtrl := controllers.NewPaymentController(db, paymentGW, notifier)
	webhookCtrl := controllers.NewWebhookController(db, paymentGW, notifier)
	restaurantCtrl := controllers.NewRestaurantController(db)
	reviewCtrl := controllers.NewReviewController(db)
	serviceCtrl := controllers.NewServiceController(db)
	superadminCtrl := controllers.NewSuperadminController(db)
	tableCtrl := controllers.NewTableController(db, cfg.FrontendBaseURL)
	waitlistCtrl := controllers.NewWaitlistController(db, notifier)
	chatCtrl := controllers.NewChatController(db, chatGW)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	staffOnly := []gin.HandlerFunc{
		middlewares.AuthMiddleware(),
		middlewares.RequireRoles("staff", "admin"),
		middlewares.RequireTenant(),
	}
	adminOnly := []gin.HandlerFunc{
		middlewares.AuthMiddleware(),
		middlewares.RequireRoles("admin"),
		middlewares.RequireTenant(),
	}

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			strict := middlewares.NewStrictRateLimiter()
			auth.POST("/register", strict, authCtrl.Register)
			auth.POST("/login", strict, authCtrl.Login)
			auth.POST("/logout", middlewares.AuthMiddleware(), authCtrl.Logout)
			auth.GET("/profile", middlewares.AuthMiddleware(), authCtrl.GetProfile)
		}

		menu := api.Group("/menu")
		{
			menu.GET("/restaurant/:restaurant_id", menuCtrl.GetRestaurantMenu)

			staff := menu.Group("", staffOnly...)
			{
				staff.GET("", menuCtrl.ListMenu)
				staff.POST("", menuCtrl.CreateMenuItem)
				staff.GET("/:item_id", menuCtrl.GetMenuItem)
				staff.PATCH("/:item_id", menuCtrl.UpdateMenuItem)
				staff.DELETE("/:item_id", menuCtrl.DeleteMenuItem)
			}
		}

		orders := api.Group("/orders")
		{
			orders.POST("", orderCtrl.CreateOrder)
			orders.GET("/:order_id", orderCtrl.GetOrderByID)
			orders.POST("/:order_id/payment-intent", paymentCtrl.CreatePaymentIntent)
			orders.POST("/:order_id/confirm-payment", paymentCtrl.ConfirmPayment)

			staff := orders.Group("", staffOnly...)
			{
				staff.GET("", orderCtrl.ListOrders)
				staff.GET("/stats", orderCtrl.GetOrderStats)
				staff.PATCH("/:order_id/status", orderCtrl.UpdateOrderStatus)
				staff.PATCH("/:order_id/notes", orderCtrl.UpdateOrderNotes)
			}

			admin := orders.Group("", adminOnly...)
			{
				admin.POST("/:order_id/refund", paymentCtrl.RefundPayment)
			}
		}

		restaurants := api.Group("/restaurants")
		{
			restaurants.GET("/:restaurant_id", restaurantCtrl.GetRestaurant)

			admin := restaurants.Group("/me", adminOnly...)
			{
				admin.GET("", restaurantCtrl.GetMyRestaurant)
				admin.PATCH("", restaurantCtrl.UpdateMyRestaurant)
				admin.PUT("/hours", restaurantCtrl.SetOperatingHours)
				admin.POST("/staff", restaurantCtrl.CreateStaff)
				admin.GET("/staff", restaurantCtrl.ListStaff)
				admin.GET("/stats", restaurantCtrl.GetDashboardStats)
				admin.GET("/sales.csv", restaurantCtrl.ExportSalesCSV)
			}
		}

		reviews := api.Group("/reviews")
		{
			reviews.POST("", reviewCtrl.CreateReview)
			reviews.GET("/restaurant/:restaurant_id", reviewCtrl.GetRestaurantReviews)

			staff := reviews.Group("", staffOnly...)
			{
				staff.GET("", reviewCtrl.ListReviews)
				staff.PATCH("/:review_id/moderate", reviewCtrl.ModerateReview)
				staff.POST("/:review_id/reply", reviewCtrl.ReplyToReview)
			}
		}

		service := api.Group("/service")
		{
			service.POST("", serviceCtrl.CreateServiceRequest)

			staff := service.Group("", staffOnly...)
			{
				staff.GET("", serviceCtrl.ListServiceRequests)
				staff.PATCH("/:service_id", serviceCtrl.UpdateServiceRequest)
			}
		}

		table := api.Group("/table")
		{
			table.GET("/:table_id/scan", tableCtrl.ScanTable)
			table.GET("/:table_id/qr", tableCtrl.GetTableQR)
			table.POST("/waitlist", waitlistCtrl.JoinWaitlist)

			staff := table.Group("", staffOnly...)
			{
				staff.GET("", tableCtrl.ListTables)
				staff.POST("", tableCtrl.CreateTable)
				staff.PATCH("/:table_id", tableCtrl.UpdateTable)
				staff.POST("/:table_id/clean", tableCtrl.MarkTableClean)
				staff.DELETE("/:table_id", tableCtrl.DeleteTable)
				staff.GET("/waitlist", waitlistCtrl.ListWaitlist)
				staff.POST("/waitlist/:entry_id/notify", waitlistCtrl.NotifyWaitlistEntry)
				staff.PATCH("/waitlist/:entry_id", waitlistCtrl.UpdateWaitlistEntry)
			}
		}

		superadmin := api.Group("/superadmin",
			middlewares.AuthMiddleware(), middlewares.RequireRoles("superadmin"))
		{
			superadmin.GET("/restaurants", superadminCtrl.ListRestaurants)
			superadmin.POST("/restaurants", superadminCtrl.CreateRestaurant)
			superadmin.PATCH("/restaurants/:restaurant_id/active", superadminCtrl.SetRestaurantActive)
			superadmin.GET("/stats", superadminCtrl.GetPlatformStats)
		}

		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/payment", webhookCtrl.HandlePaymentWebhook)
		}

		chat := api.Group("/chat")
		{
			chat.POST("/message", chatCtrl.SendChatMessage)
			chat.GET("/history/:session_id", chatCtrl.GetChatHistory)
		}
	}

	// The :role segment is informational for clients; authorization comes
	// from the token claims. Sockets are staff-side only: customer tokens
	// carry no tenant and must never see the event stream.
	ws := r.Group("/ws",
		middlewares.WebSocketAuthMiddleware(),
		middlewares.RequireRoles("staff", "admin"))
	{
		ws.GET("/:role", controllers.HandleEventsSocket)
	}

	return r
}
