package commerce

import (
	"context"
	"errors"
	"sync"
	"testing"

	"nike_shop_backend/internal/models"
)

func seedCart(t *testing.T, store *memStore, userID string, items ...models.CartItem) *models.Cart {
	t.Helper()
	cart := &models.Cart{UserID: userID, Items: items}
	if err := store.SaveCart(context.Background(), cart); err != nil {
		t.Fatalf("seed panier: %v", err)
	}
	return cart
}

func line(productID string, qty int, price float64) models.CartItem {
	return models.CartItem{ID: productID + "-l", ProductID: productID, Quantity: qty, Price: price}
}

var addr = models.ShippingAddress{
	FullName:   "Ali Khan",
	Address:    "12 Mall Road",
	City:       "Lahore",
	PostalCode: "54000",
	Country:    "PK",
}

func TestCheckoutEmptyCart(t *testing.T) {
	store := newMemStore()
	seedCart(t, store, "u1")
	svc := NewCheckoutService(store)

	_, err := svc.Checkout(context.Background(), "u1", addr, "cod", "")
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("attendu ErrEmptyCart, obtenu %v", err)
	}
	if store.orderCount() != 0 {
		t.Error("aucune commande ne doit être créée")
	}
}

func TestCheckoutWithoutCart(t *testing.T) {
	svc := NewCheckoutService(newMemStore())

	_, err := svc.Checkout(context.Background(), "personne", addr, "cod", "")
	if !IsNotFound(err) {
		t.Fatalf("attendu NotFound, obtenu %v", err)
	}
}

func TestCheckoutSuccess(t *testing.T) {
	store := newMemStore()
	store.addProduct("p1", "Air Max", 1000, 10)
	store.addProduct("p2", "Pegasus", 500, 3)
	cart := seedCart(t, store, "u1", line("p1", 2, 1000), line("p2", 1, 500))
	svc := NewCheckoutService(store)

	order, err := svc.Checkout(context.Background(), "u1", addr, "cod", "sonnez fort")
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	if order.PaymentStatus != models.PaymentPending || order.OrderStatus != models.OrderProcessing {
		t.Errorf("statuts = %s/%s, attendu pending/processing", order.PaymentStatus, order.OrderStatus)
	}
	if order.PaymentMethod != "cod" {
		t.Errorf("méthode = %s, attendu cod", order.PaymentMethod)
	}

	// 2500 <= 5000 : livraison payante
	if order.Subtotal != 2500 || order.ShippingCost != FlatShippingFee {
		t.Errorf("sous-total=%.2f port=%.2f", order.Subtotal, order.ShippingCost)
	}

	if got := store.stockOf("p1"); got != 8 {
		t.Errorf("stock p1 = %d, attendu 8", got)
	}
	if got := store.stockOf("p2"); got != 2 {
		t.Errorf("stock p2 = %d, attendu 2", got)
	}

	after, err := store.CartByID(context.Background(), cart.ID.Hex(), "u1")
	if err != nil {
		t.Fatalf("panier disparu: %v", err)
	}
	if len(after.Items) != 0 {
		t.Errorf("panier non vidé après commande: %d lignes", len(after.Items))
	}
}

func TestCheckoutInsufficientStockLeavesNothingBehind(t *testing.T) {
	store := newMemStore()
	store.addProduct("p1", "Air Max", 1000, 1)
	seedCart(t, store, "u1", line("p1", 3, 1000))
	svc := NewCheckoutService(store)

	_, err := svc.Checkout(context.Background(), "u1", addr, "cod", "")

	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("attendu StockError, obtenu %v", err)
	}
	if stockErr.Product != "Air Max" || stockErr.Available != 1 || stockErr.Requested != 3 {
		t.Errorf("StockError = %+v", stockErr)
	}
	if store.orderCount() != 0 {
		t.Error("aucune commande ne doit être créée")
	}
	if got := store.stockOf("p1"); got != 1 {
		t.Errorf("stock p1 = %d, attendu 1 (inchangé)", got)
	}
}

func TestCheckoutRollsBackEarlierReservations(t *testing.T) {
	store := newMemStore()
	store.addProduct("p1", "Air Max", 1000, 10)
	store.addProduct("p2", "Pegasus", 500, 0) // la deuxième ligne échoue
	seedCart(t, store, "u1", line("p1", 2, 1000), line("p2", 1, 500))
	svc := NewCheckoutService(store)

	_, err := svc.Checkout(context.Background(), "u1", addr, "cod", "")

	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("attendu StockError, obtenu %v", err)
	}
	if got := store.stockOf("p1"); got != 10 {
		t.Errorf("stock p1 = %d, attendu 10 (réservation annulée)", got)
	}
	if store.orderCount() != 0 {
		t.Error("aucune commande ne doit être créée")
	}
}

func TestCheckoutRollsBackOnInsertFailure(t *testing.T) {
	store := newMemStore()
	store.addProduct("p1", "Air Max", 1000, 5)
	seedCart(t, store, "u1", line("p1", 2, 1000))
	store.failInsertOrder = true
	svc := NewCheckoutService(store)

	_, err := svc.Checkout(context.Background(), "u1", addr, "cod", "")
	if err == nil {
		t.Fatal("l'échec d'insertion doit remonter")
	}
	if got := store.stockOf("p1"); got != 5 {
		t.Errorf("stock p1 = %d, attendu 5 (rollback après insertion ratée)", got)
	}
}

func TestConcurrentCheckoutsSingleUnit(t *testing.T) {
	store := newMemStore()
	store.addProduct("p1", "Air Max", 1000, 1)
	seedCart(t, store, "u1", line("p1", 1, 1000))
	seedCart(t, store, "u2", line("p1", 1, 1000))
	svc := NewCheckoutService(store)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, user := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), u, addr, "cod", "")
			results <- err
		}(user)
	}
	wg.Wait()
	close(results)

	successes, stockFailures := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			var stockErr *StockError
			if errors.As(err, &stockErr) {
				stockFailures++
			} else {
				t.Errorf("erreur inattendue: %v", err)
			}
		}
	}

	if successes != 1 || stockFailures != 1 {
		t.Fatalf("succès=%d échecs-stock=%d, attendu exactement 1/1", successes, stockFailures)
	}
	if got := store.stockOf("p1"); got != 0 {
		t.Errorf("stock p1 = %d, attendu 0 (jamais négatif)", got)
	}
	if store.orderCount() != 1 {
		t.Errorf("commandes = %d, attendu 1", store.orderCount())
	}
}

func TestFinalizePaymentIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.addProduct("p1", "Air Max", 1000, 5)
	cart := seedCart(t, store, "u1", line("p1", 1, 1000))
	svc := NewCheckoutService(store)
	ctx := context.Background()

	order, dup, err := svc.FinalizePayment(ctx, "u1", cart.ID.Hex(), addr, "pi_123")
	if err != nil || dup {
		t.Fatalf("première finalisation: order=%v dup=%v err=%v", order, dup, err)
	}
	if order.PaymentStatus != models.PaymentCompleted || order.OrderStatus != models.OrderConfirmed {
		t.Errorf("statuts = %s/%s, attendu completed/confirmed", order.PaymentStatus, order.OrderStatus)
	}
	if order.StripePaymentID != "pi_123" || order.PaymentMethod != "stripe" {
		t.Errorf("références paiement incorrectes: %+v", order)
	}

	// Livraison rejouée : pas de deuxième commande, pas de deuxième débit stock
	_, dup, err = svc.FinalizePayment(ctx, "u1", cart.ID.Hex(), addr, "pi_123")
	if err != nil {
		t.Fatalf("rejeu: %v", err)
	}
	if !dup {
		t.Fatal("le rejeu doit être signalé comme doublon")
	}
	if store.orderCount() != 1 {
		t.Errorf("commandes = %d après rejeu, attendu 1", store.orderCount())
	}
	if got := store.stockOf("p1"); got != 4 {
		t.Errorf("stock p1 = %d après rejeu, attendu 4", got)
	}
}

func TestConcurrentFinalizationsSameIntentSingleOrder(t *testing.T) {
	// Deux livraisons simultanées du même événement peuvent toutes les
	// deux passer la vérification d'existence ; la contrainte unique sur
	// stripe_payment_id doit alors bloquer la seconde insertion.
	store := newMemStore()
	store.addProduct("p1", "Air Max", 1000, 5)
	cart := seedCart(t, store, "u1", line("p1", 1, 1000))
	svc := NewCheckoutService(store)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.FinalizePayment(context.Background(), "u1", cart.ID.Hex(), addr, "pi_race")
		}()
	}
	wg.Wait()

	if store.orderCount() != 1 {
		t.Fatalf("commandes = %d, attendu 1 pour un même PaymentIntent", store.orderCount())
	}
	// Le perdant a rendu sa réservation : une seule unité débitée
	if got := store.stockOf("p1"); got != 4 {
		t.Errorf("stock p1 = %d, attendu 4", got)
	}
}

func TestFinalizePaymentWrongUser(t *testing.T) {
	store := newMemStore()
	store.addProduct("p1", "Air Max", 1000, 5)
	cart := seedCart(t, store, "u1", line("p1", 1, 1000))
	svc := NewCheckoutService(store)

	_, _, err := svc.FinalizePayment(context.Background(), "intrus", cart.ID.Hex(), addr, "pi_999")
	if !IsNotFound(err) {
		t.Fatalf("le panier d'un autre utilisateur doit être introuvable, obtenu %v", err)
	}
}

func TestDirectAndWebhookPathsPriceIdentically(t *testing.T) {
	items := []models.CartItem{line("p1", 2, 1000), line("p2", 1, 500)}

	direct := newMemStore()
	direct.addProduct("p1", "Air Max", 1000, 10)
	direct.addProduct("p2", "Pegasus", 500, 10)
	seedCart(t, direct, "u1", items...)

	viaWebhook := newMemStore()
	viaWebhook.addProduct("p1", "Air Max", 1000, 10)
	viaWebhook.addProduct("p2", "Pegasus", 500, 10)
	whCart := seedCart(t, viaWebhook, "u1", items...)

	ctx := context.Background()

	d, err := NewCheckoutService(direct).Checkout(ctx, "u1", addr, "cod", "")
	if err != nil {
		t.Fatal(err)
	}
	w, _, err := NewCheckoutService(viaWebhook).FinalizePayment(ctx, "u1", whCart.ID.Hex(), addr, "pi_parity")
	if err != nil {
		t.Fatal(err)
	}

	if d.Subtotal != w.Subtotal || d.ShippingCost != w.ShippingCost || d.Tax != w.Tax || d.Total != w.Total {
		t.Errorf("montants divergents: direct=%+v webhook=%+v",
			[4]float64{d.Subtotal, d.ShippingCost, d.Tax, d.Total},
			[4]float64{w.Subtotal, w.ShippingCost, w.Tax, w.Total})
	}
}

func TestPricedCartRejectsEmptyAndShortStock(t *testing.T) {
	store := newMemStore()
	store.addProduct("p1", "Air Max", 1000, 1)
	seedCart(t, store, "vide")
	seedCart(t, store, "gourmand", line("p1", 2, 1000))
	svc := NewCheckoutService(store)
	ctx := context.Background()

	if _, _, err := svc.PricedCart(ctx, "vide"); !errors.Is(err, ErrEmptyCart) {
		t.Errorf("panier vide: attendu ErrEmptyCart, obtenu %v", err)
	}

	_, _, err := svc.PricedCart(ctx, "gourmand")
	var stockErr *StockError
	if !errors.As(err, &stockErr) {
		t.Errorf("stock court: attendu StockError, obtenu %v", err)
	}

	// La vérification est en lecture seule : rien n'est réservé
	if got := store.stockOf("p1"); got != 1 {
		t.Errorf("stock p1 = %d, attendu 1", got)
	}
}
