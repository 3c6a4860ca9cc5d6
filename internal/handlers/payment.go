package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
	"github.com/stripe/stripe-go/v83/webhook"
	"go.mongodb.org/mongo-driver/bson"

	"nike_shop_backend/internal/commerce"
	"nike_shop_backend/internal/database"
	"nike_shop_backend/internal/models"
	"nike_shop_backend/internal/utils"
)

// PaymentHandler gère le flux Stripe : création du PaymentIntent côté
// serveur (le client n'envoie jamais de montant) et réconciliation via
// webhook. afterOrder est optionnel (email + flux admin temps réel).
type PaymentHandler struct {
	checkout       *commerce.CheckoutService
	webhookSecret  string
	afterOrder     func(order models.Order)
	retrieveIntent func(id string) (*stripe.PaymentIntent, error)
}

func NewPaymentHandler(checkout *commerce.CheckoutService, webhookSecret string) *PaymentHandler {
	h := &PaymentHandler{checkout: checkout, webhookSecret: webhookSecret}
	h.afterOrder = h.notifyOrder
	h.retrieveIntent = func(id string) (*stripe.PaymentIntent, error) {
		return paymentintent.Get(id, nil)
	}
	return h
}

// CreatePaymentIntent chiffre le panier côté serveur et crée l'intent.
// Le montant vient toujours du panier persistant, jamais du client.
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	var req struct {
		ShippingAddress models.ShippingAddress `json:"shippingAddress" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	userID := c.GetString("user_id")

	cart, totals, err := h.checkout.PricedCart(c.Request.Context(), userID)
	if err != nil {
		respondOrderError(c, err)
		return
	}

	// L'adresse voyage dans les metadata pour que le webhook puisse
	// reconstruire la commande sans état intermédiaire.
	addressJSON, err := json.Marshal(req.ShippingAddress)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Adresse invalide"})
		return
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(commerce.ToMinorUnits(totals.Total)),
		Currency: stripe.String("pkr"),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("userId", userID)
	params.AddMetadata("cartId", cart.ID.Hex())
	params.AddMetadata("shippingAddress", string(addressJSON))

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Printf("❌ Erreur création PaymentIntent: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création paiement", "code": "PAYMENT_PROVIDER_ERROR"})
		return
	}

	log.Printf("💳 PaymentIntent %s créé pour user %s (%.2f)", intent.ID, userID, totals.Total)
	c.JSON(http.StatusOK, gin.H{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
		"amount":          totals.Total,
		"subtotal":        totals.Subtotal,
		"shippingCost":    totals.ShippingCost,
		"tax":             totals.Tax,
	})
}

// StripeWebhook traite les événements signés par Stripe.
// Signature invalide = rejet, aucun effet de bord.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Lecture corps échouée"})
		return
	}

	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.Printf("❌ Webhook: signature invalide: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature invalide", "code": "INVALID_SIGNATURE"})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			log.Printf("⚠️ Webhook: payload PaymentIntent illisible: %v", err)
			break
		}
		h.handlePaymentSucceeded(c.Request.Context(), pi)

	case "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err == nil {
			// Pas de commande à annuler : rien n'a été créé avant le succès.
			log.Printf("⚠️ Paiement échoué : %s", pi.ID)
		}

	default:
		log.Printf("🔁 Webhook: événement ignoré %s", event.Type)
	}

	// Toujours 200 une fois la signature validée : Stripe ne doit
	// rejouer que les livraisons, pas nos erreurs internes.
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentHandler) handlePaymentSucceeded(ctx context.Context, pi stripe.PaymentIntent) {
	userID := pi.Metadata["userId"]
	cartID := pi.Metadata["cartId"]
	addressJSON := pi.Metadata["shippingAddress"]

	if userID == "" || cartID == "" {
		log.Printf("⚠️ Webhook %s: metadata incomplètes, commande ignorée", pi.ID)
		return
	}

	var address models.ShippingAddress
	if addressJSON != "" {
		if err := json.Unmarshal([]byte(addressJSON), &address); err != nil {
			log.Printf("⚠️ Webhook %s: adresse illisible: %v", pi.ID, err)
		}
	}

	order, duplicate, err := h.checkout.FinalizePayment(ctx, userID, cartID, address, pi.ID)
	if err != nil {
		log.Printf("❌ Webhook %s: création commande échouée: %v", pi.ID, err)
		return
	}
	if duplicate {
		log.Printf("🔁 Webhook %s: commande déjà enregistrée, livraison rejouée ignorée", pi.ID)
		return
	}

	log.Printf("✅ Paiement confirmé : %s → commande %s (%.2f)", pi.ID, order.ID.Hex(), order.Total)

	if h.afterOrder != nil {
		go h.afterOrder(*order)
	}
}

// notifyOrder publie la commande sur le flux admin et envoie l'email de
// confirmation avec la facture PDF. Tout échec est loggé, jamais remonté.
func (h *PaymentHandler) notifyOrder(order models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if database.Redis != nil {
		payload, err := json.Marshal(order)
		if err == nil {
			if err := database.Redis.Publish(ctx, "orders:new", payload).Err(); err != nil {
				log.Printf("⚠️ Publication flux commandes échouée: %v", err)
			}
		}
	}

	if !utils.SMTPConfigured() {
		return
	}

	email := h.lookupUserEmail(ctx, order.UserID)
	if email == "" {
		log.Printf("⚠️ Email introuvable pour user %s, confirmation non envoyée", order.UserID)
		return
	}

	pdf, err := utils.GenerateInvoicePDF(order)
	if err != nil {
		log.Printf("⚠️ Génération facture PDF échouée: %v", err)
		pdf = nil // l'email part quand même, sans pièce jointe
	}

	html := utils.GenerateOrderConfirmationHTML(order)
	if err := utils.SendConfirmationEmail(email, "Confirmation de votre commande", html, pdf); err != nil {
		log.Printf("⚠️ Envoi email confirmation échoué: %v", err)
		return
	}
	log.Printf("📧 Email de confirmation envoyé à %s", email)
}

func (h *PaymentHandler) lookupUserEmail(ctx context.Context, userID string) string {
	if database.MongoAuthDB == nil {
		return ""
	}
	var user models.User
	err := database.MongoAuthDB.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return ""
	}
	return user.Email
}

// GetPaymentStatus interroge Stripe puis cherche la commande associée.
// Paiement non abouti → 400 ; paiement abouti sans commande → 404.
func (h *PaymentHandler) GetPaymentStatus(c *gin.Context) {
	paymentID := c.Param("id")

	intent, err := h.retrieveIntent(paymentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Paiement introuvable"})
		return
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Paiement non complété",
			"status": string(intent.Status),
		})
		return
	}

	order, err := h.checkout.OrderByPayment(c.Request.Context(), paymentID, c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable pour ce paiement"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"paymentId": intent.ID,
		"status":    string(intent.Status),
		"amount":    float64(intent.Amount) / 100,
		"order":     order,
	})
}
