package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nike_shop_backend/internal/commerce"
	"nike_shop_backend/internal/database"
	"nike_shop_backend/internal/models"
)

// OrderHandler couvre le checkout direct (paiement à la livraison).
// Les lectures de commandes passent directement par Mongo.
type OrderHandler struct {
	checkout *commerce.CheckoutService
}

func NewOrderHandler(checkout *commerce.CheckoutService) *OrderHandler {
	return &OrderHandler{checkout: checkout}
}

// CreateOrder crée une commande directement depuis le panier (sans Stripe)
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req struct {
		ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
		PaymentMethod   string                 `json:"paymentMethod"`
		Notes           string                 `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cod"
	}

	userID := c.GetString("user_id")

	order, err := h.checkout.Checkout(c.Request.Context(), userID, req.ShippingAddress, req.PaymentMethod, req.Notes)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	log.Printf("✅ Commande %s créée pour user %s (total %.2f)", order.ID.Hex(), userID, order.Total)
	c.JSON(http.StatusCreated, gin.H{"message": "Commande créée", "order": order})
}

// GetMyOrders liste les commandes de l'utilisateur, plus récentes d'abord
func GetMyOrders(c *gin.Context) {
	userID := c.GetString("user_id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := database.MongoOrdersDB.Collection("orders").Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
		return
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// GetOrderByID retourne une commande si elle appartient à l'utilisateur
// (ou si l'appelant est admin)
func GetOrderByID(c *gin.Context) {
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	err = database.MongoOrdersDB.Collection("orders").FindOne(ctx, bson.M{"_id": oid}).Decode(&order)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	if order.UserID != c.GetString("user_id") && c.GetString("role") != models.RoleAdmin {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// UpdateOrderStatus (admin) change le statut et/ou le numéro de suivi
func UpdateOrderStatus(c *gin.Context) {
	var req struct {
		OrderStatus    string `json:"orderStatus"`
		TrackingNumber string `json:"trackingNumber"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	update := bson.M{}
	if req.OrderStatus != "" {
		switch req.OrderStatus {
		case models.OrderProcessing, models.OrderConfirmed, models.OrderShipped,
			models.OrderDelivered, models.OrderCancelled:
			update["order_status"] = req.OrderStatus
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Statut de commande inconnu"})
			return
		}
	}
	if req.TrackingNumber != "" {
		update["tracking_number"] = req.TrackingNumber
	}
	if len(update) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun champ à mettre à jour"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	res, err := database.MongoOrdersDB.Collection("orders").UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour commande"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}

	log.Printf("📦 Commande %s mise à jour: %v", c.Param("id"), update)
	c.JSON(http.StatusOK, gin.H{"message": "Commande mise à jour"})
}

// respondOrderError mappe les erreurs métier du checkout vers un statut HTTP.
func respondOrderError(c *gin.Context, err error) {
	var stockErr *commerce.StockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Stock insuffisant pour " + stockErr.Product,
			"code":      "INSUFFICIENT_STOCK",
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
		return
	}

	if errors.Is(err, commerce.ErrEmptyCart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide", "code": "EMPTY_CART"})
		return
	}

	if commerce.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "NOT_FOUND"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création commande"})
}
