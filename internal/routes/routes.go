package routes

import (
	"net/http"
	"time"

	"github.com/01moynul/mealdrop-golang/internal/handlers"
	"github.com/01moynul/mealdrop-golang/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// corsConfig allows the configured frontends to send bearer tokens.
func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func SetupRouter(h *handlers.Handlers, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(h.Log))

	// --- APPLY THE CORS GUARD ---
	if len(corsOrigins) > 0 {
		router.Use(cors.New(corsConfig(corsOrigins)))
	}

	api := router.Group("/api")
	{
		// --- Ping Route (Public) ---
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, handlers.Response{Success: true, Message: "pong!"})
		})

		// --- Auth Routes (Public) ---
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)

		// --- Public Catalog Routes ---
		api.GET("/meals", h.ListMeals)
		api.GET("/meals/:id", h.GetMeal)
		api.GET("/categories", h.ListCategories)

		// --- Protected Routes (Login Required) ---
		auth := api.Group("/")
		auth.Use(middleware.AuthMiddleware(h.Tokens))
		{
			// --- Cart ---
			auth.GET("/cart", h.GetCart)
			auth.POST("/cart/items", h.AddToCart)
			auth.PUT("/cart/items/:id", h.UpdateCartItem)
			auth.DELETE("/cart/items/:id", h.DeleteCartItem)
			auth.DELETE("/cart/clear", h.ClearCart)

			// --- Orders ---
			auth.POST("/orders", h.PlaceOrder)
			auth.GET("/orders", h.GetMyOrders)
			auth.GET("/orders/track", h.TrackOrder)
			auth.GET("/orders/:id", h.GetOrderDetails)

			// --- Addresses ---
			auth.GET("/addresses", h.GetMyAddresses)
			auth.POST("/addresses", h.CreateAddress)

			// --- Payment Methods ---
			auth.POST("/payment-methods/setup", h.SetupPaymentMethod)
			auth.GET("/payment-methods", h.GetPaymentMethods)
			auth.DELETE("/payment-methods/:id", h.DeletePaymentMethod)

			// --- Notification Routes ---
			auth.GET("/notifications", h.GetMyNotifications)
			auth.PATCH("/notifications/:id/read", h.MarkNotificationAsRead)

			// --- AI Chat Route ---
			auth.POST("/chat", h.Chat)
		}

		// --- Admin-Only Routes ---
		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(h.Tokens))
		admin.Use(middleware.AdminMiddleware(h.Store, h.Log))
		{
			admin.POST("/categories", h.CreateCategory)
			admin.POST("/meals", h.CreateMeal)
			admin.PATCH("/meals/:id/stock", h.UpdateMealStock)
			admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
		}
	}

	return router
}
