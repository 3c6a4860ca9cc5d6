package routes

import (
	"os"

	"github.com/gin-gonic/gin"

	"nike_shop_backend/internal/commerce"
	"nike_shop_backend/internal/database"
	"nike_shop_backend/internal/handlers"
	"nike_shop_backend/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	store := commerce.NewMongoStore(database.MongoProductsDB, database.MongoOrdersDB)
	carts := commerce.NewCartService(store)
	checkout := commerce.NewCheckoutService(store)

	cartHandler := handlers.NewCartHandler(carts)
	orderHandler := handlers.NewOrderHandler(checkout)
	paymentHandler := handlers.NewPaymentHandler(checkout, os.Getenv("STRIPE_WEBHOOK_SECRET"))

	limiter := middleware.NewRateLimiter(database.Redis)

	api := r.Group("/api")

	// Auth
	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", limiter.LoginRateLimit(), handlers.Login)
		auth.GET("/profile", middleware.AuthRequired(), handlers.GetProfile)
		auth.PUT("/profile", middleware.AuthRequired(), handlers.UpdateProfile)
	}

	// Catalogue public
	products := api.Group("/products")
	{
		products.GET("", handlers.GetProducts)
		products.GET("/new-items", handlers.GetNewItems)
		products.GET("/search", handlers.SearchProducts)
		products.GET("/:id", handlers.GetProduct)
	}

	// Panier (authentifié)
	cart := api.Group("/cart", middleware.AuthRequired())
	{
		cart.GET("", cartHandler.GetCart)
		cart.POST("/add", cartHandler.AddToCart)
		cart.PUT("/items/:itemId", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:itemId", cartHandler.RemoveCartItem)
		cart.DELETE("", cartHandler.ClearCart)
	}

	// Commandes
	orders := api.Group("/orders", middleware.AuthRequired())
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", handlers.GetMyOrders)
		orders.GET("/:id", handlers.GetOrderByID)
		orders.PUT("/:id/status", middleware.RequireAdmin, handlers.UpdateOrderStatus)
	}

	// Paiements Stripe — le webhook n'est pas authentifié, la signature
	// Stripe fait office d'authentification
	payments := api.Group("/payments")
	{
		payments.POST("/create-payment-intent", middleware.AuthRequired(), paymentHandler.CreatePaymentIntent)
		payments.POST("/webhook", paymentHandler.StripeWebhook)
		payments.GET("/payment/:id", middleware.AuthRequired(), paymentHandler.GetPaymentStatus)
	}

	// Contact
	api.POST("/contact", handlers.SubmitContact)

	// Tableau de bord admin
	dashboard := api.Group("/dashboard", middleware.AuthRequired(), middleware.RequireAdmin)
	{
		dashboard.GET("/stats", handlers.GetDashboardStats)
		dashboard.GET("/users", handlers.GetDashboardUsers)
		dashboard.GET("/orders", handlers.GetAllOrders)
		dashboard.GET("/orders/feed", handlers.OrderFeed)
		dashboard.GET("/contacts", handlers.GetContacts)

		dashboard.POST("/products", handlers.CreateProduct)
		dashboard.PUT("/products/:id", handlers.UpdateProduct)
		dashboard.DELETE("/products/:id", handlers.DeleteProduct)
		dashboard.POST("/products/bulk", handlers.BulkUpdateProducts)
	}
}
