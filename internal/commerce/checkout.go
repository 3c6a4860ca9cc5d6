package commerce

import (
	"context"
	"fmt"
	"log"

	"nike_shop_backend/internal/models"
)

// CheckoutService convertit un panier en commande : réservation du stock,
// calcul des totaux, persistance du snapshot, vidage du panier. Le chemin
// synchrone (POST /orders) et la réconciliation webhook passent tous les
// deux par PlaceOrder.
type CheckoutService struct {
	store Store
}

func NewCheckoutService(store Store) *CheckoutService {
	return &CheckoutService{store: store}
}

// Checkout est le chemin direct : la commande est créée immédiatement,
// paiement en attente.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, address models.ShippingAddress, paymentMethod, notes string) (*models.Order, error) {
	cart, err := s.store.CartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.PlaceOrder(ctx, cart, userID, address, notes, PaymentInfo{
		Method:      paymentMethod,
		Status:      models.PaymentPending,
		OrderStatus: models.OrderProcessing,
	})
}

// PricedCart valide le panier pour le chemin payment-intent : panier non
// vide, stock suffisant (vérification en lecture seule, la réservation
// n'a lieu qu'à la finalisation). Renvoie le panier et les totaux.
func (s *CheckoutService) PricedCart(ctx context.Context, userID string) (*models.Cart, Totals, error) {
	cart, err := s.store.CartByUser(ctx, userID)
	if err != nil {
		return nil, Totals{}, err
	}
	if len(cart.Items) == 0 {
		return nil, Totals{}, ErrEmptyCart
	}

	for _, line := range cart.Items {
		product, err := s.store.ProductByID(ctx, line.ProductID)
		if err != nil {
			return nil, Totals{}, err
		}
		if product.Stock < line.Quantity {
			return nil, Totals{}, &StockError{
				ProductID: line.ProductID,
				Product:   product.Name,
				Available: product.Stock,
				Requested: line.Quantity,
			}
		}
	}

	return cart, ComputeTotals(cart.Total()), nil
}

// FinalizePayment est le chemin webhook : le panier référencé par les
// métadonnées de l'intent est transformé en commande confirmée et payée.
// Idempotent par id de PaymentIntent : un événement rejoué ne crée pas de
// commande en double (le booléen renvoyé vaut alors true).
func (s *CheckoutService) FinalizePayment(ctx context.Context, userID, cartID string, address models.ShippingAddress, stripePaymentID string) (*models.Order, bool, error) {
	exists, err := s.store.OrderExistsByPaymentID(ctx, stripePaymentID)
	if err != nil {
		return nil, false, err
	}
	if exists {
		log.Printf("🔁 Commande déjà enregistrée pour %s, on ignore", stripePaymentID)
		return nil, true, nil
	}

	cart, err := s.store.CartByID(ctx, cartID, userID)
	if err != nil {
		return nil, false, err
	}

	order, err := s.PlaceOrder(ctx, cart, userID, address, "", PaymentInfo{
		Method:          "stripe",
		Status:          models.PaymentCompleted,
		OrderStatus:     models.OrderConfirmed,
		StripePaymentID: stripePaymentID,
	})
	return order, false, err
}

// OrderByPayment retourne la commande liée à un PaymentIntent, pour
// l'utilisateur qui l'a payée.
func (s *CheckoutService) OrderByPayment(ctx context.Context, stripePaymentID, userID string) (*models.Order, error) {
	return s.store.OrderByPaymentID(ctx, stripePaymentID, userID)
}

// PlaceOrder exécute la finalisation commune : réservation séquentielle du
// stock (mise à jour conditionnelle par produit, rollback des lignes déjà
// décrémentées au premier échec), assemblage du snapshot via BuildOrder,
// insertion, puis vidage du panier. Au moindre échec de réservation,
// AUCUNE commande n'est écrite et le stock revient à son état initial.
func (s *CheckoutService) PlaceOrder(ctx context.Context, cart *models.Cart, userID string, address models.ShippingAddress, notes string, pay PaymentInfo) (*models.Order, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if err := s.reserveAll(ctx, cart.Items); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(cart.Items))
	for _, line := range cart.Items {
		ids = append(ids, line.ProductID)
	}
	summaries, err := s.store.ProductSummaries(ctx, ids)
	if err != nil {
		s.releaseAll(ctx, cart.Items, len(cart.Items))
		return nil, err
	}

	order := BuildOrder(cart, summaries, userID, address, notes, pay)
	if err := s.store.InsertOrder(ctx, &order); err != nil {
		s.releaseAll(ctx, cart.Items, len(cart.Items))
		return nil, fmt.Errorf("insertion commande: %w", err)
	}

	if err := s.store.EmptyCart(ctx, cart.ID.Hex()); err != nil {
		// La commande existe déjà : on ne la défait pas pour un panier
		// qui n'a pas pu être vidé, on trace.
		log.Printf("⚠️ Échec vidage panier %s après commande %s: %v", cart.ID.Hex(), order.ID.Hex(), err)
	}

	return &order, nil
}

// reserveAll réserve ligne par ligne ; la première violation annule les
// réservations déjà faites et remonte le produit fautif.
func (s *CheckoutService) reserveAll(ctx context.Context, items []models.CartItem) error {
	for i, line := range items {
		ok, err := s.store.ReserveStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			s.releaseAll(ctx, items, i)
			return err
		}
		if !ok {
			s.releaseAll(ctx, items, i)
			return s.stockError(ctx, line)
		}
	}
	return nil
}

func (s *CheckoutService) releaseAll(ctx context.Context, items []models.CartItem, n int) {
	for i := 0; i < n; i++ {
		if err := s.store.ReleaseStock(ctx, items[i].ProductID, items[i].Quantity); err != nil {
			log.Printf("❌ Rollback stock impossible pour %s (+%d): %v",
				items[i].ProductID, items[i].Quantity, err)
		}
	}
}

func (s *CheckoutService) stockError(ctx context.Context, line models.CartItem) error {
	stockErr := &StockError{
		ProductID: line.ProductID,
		Product:   line.ProductID,
		Requested: line.Quantity,
	}
	if product, err := s.store.ProductByID(ctx, line.ProductID); err == nil {
		stockErr.Product = product.Name
		stockErr.Available = product.Stock
	}
	return stockErr
}
