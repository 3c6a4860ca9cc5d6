package commerce

import (
	"math"
	"time"

	"nike_shop_backend/internal/models"
)

// Règles de tarification. Montants en unités majeures (roupies) partout,
// sauf l'envoi vers Stripe qui passe en centimes.
const (
	FreeShippingThreshold = 5000.0 // livraison offerte strictement au-dessus
	FlatShippingFee       = 200.0
	TaxRate               = 0.13
)

// Totals regroupe les montants calculés pour un panier donné.
type Totals struct {
	Subtotal     float64
	ShippingCost float64
	Tax          float64
	Total        float64
}

// ComputeTotals calcule frais de port, taxe et total à partir du sous-total.
func ComputeTotals(subtotal float64) Totals {
	shipping := FlatShippingFee
	if subtotal > FreeShippingThreshold {
		shipping = 0
	}
	tax := subtotal * TaxRate
	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Total:        subtotal + shipping + tax,
	}
}

// ToMinorUnits convertit un montant en unités mineures entières pour Stripe.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// PaymentInfo décrit comment la commande a été payée, selon le chemin
// d'entrée (checkout direct ou webhook Stripe).
type PaymentInfo struct {
	Method          string
	Status          string
	OrderStatus     string
	StripePaymentID string
}

// BuildOrder assemble une commande à partir d'un snapshot de panier.
// C'est la SEULE fonction de tarification/assemblage : le checkout direct
// et la réconciliation webhook passent tous les deux par ici, les montants
// sont donc identiques par construction. Le sous-total vient des prix
// snapshotés du panier, pas du catalogue vivant : un changement de prix en
// cours de checkout ne change pas la facture.
func BuildOrder(cart *models.Cart, summaries map[string]models.ProductSummary,
	userID string, address models.ShippingAddress, notes string, pay PaymentInfo) models.Order {

	totals := ComputeTotals(cart.Total())

	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		item := models.OrderItem{
			ProductID: line.ProductID,
			Price:     line.Price,
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
		}
		if s, ok := summaries[line.ProductID]; ok {
			item.Name = s.Name
			item.Image = s.Image
		}
		items = append(items, item)
	}

	return models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		Subtotal:        totals.Subtotal,
		ShippingCost:    totals.ShippingCost,
		Tax:             totals.Tax,
		Total:           totals.Total,
		PaymentMethod:   pay.Method,
		PaymentStatus:   pay.Status,
		OrderStatus:     pay.OrderStatus,
		StripePaymentID: pay.StripePaymentID,
		Notes:           notes,
		CreatedAt:       time.Now(),
	}
}
