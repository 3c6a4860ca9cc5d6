package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"

	"nike_shop_backend/internal/config"
	"nike_shop_backend/internal/database"
	"nike_shop_backend/internal/middleware"
	"nike_shop_backend/internal/routes"
)

func main() {
	config.Load()

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
	}
	log.Println("✅ Stripe initialisé")

	database.ConnectDatabases()
	defer database.CloseMongo()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.Getenv("FRONTEND_URL", "http://localhost:3000")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestID())

	limiter := middleware.NewRateLimiter(database.Redis)
	r.Use(limiter.APIRateLimit())

	routes.RegisterRoutes(r)

	port := config.Getenv("PORT", "8080")
	log.Println("🚀 Serveur Nike Shop lancé sur le port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("❌ Erreur serveur: ", err)
	}
}
