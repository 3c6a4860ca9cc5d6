package handlers

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nike_shop_backend/internal/commerce"
	"nike_shop_backend/internal/models"
)

// stubStore implémente commerce.Store en mémoire pour exercer les
// handlers HTTP sans Mongo.
type stubStore struct {
	mu       sync.Mutex
	products map[string]*models.Product
	carts    map[string]*models.Cart
	orders   []models.Order
}

func newStubStore() *stubStore {
	return &stubStore{
		products: map[string]*models.Product{},
		carts:    map[string]*models.Cart{},
	}
}

func (s *stubStore) addProduct(id, name string, price float64, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = &models.Product{Name: name, Price: price, Stock: stock, IsActive: true}
}

func (s *stubStore) seedCart(userID string, items ...models.CartItem) *models.Cart {
	cart := &models.Cart{ID: primitive.NewObjectID(), UserID: userID, Items: items}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.ID.Hex()] = cart
	return cart
}

func (s *stubStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *stubStore) lastOrder() *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.orders) == 0 {
		return nil
	}
	o := s.orders[len(s.orders)-1]
	return &o
}

func (s *stubStore) ProductByID(_ context.Context, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, commerce.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubStore) ProductSummaries(_ context.Context, ids []string) (map[string]models.ProductSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]models.ProductSummary{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = models.ProductSummary{ID: id, Name: p.Name, Price: p.Price}
		}
	}
	return out, nil
}

func (s *stubStore) ReserveStock(_ context.Context, productID string, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (s *stubStore) ReleaseStock(_ context.Context, productID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.Stock += qty
	}
	return nil
}

func (s *stubStore) CartByUser(_ context.Context, userID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cart := range s.carts {
		if cart.UserID == userID {
			cp := *cart
			cp.Items = append([]models.CartItem(nil), cart.Items...)
			return &cp, nil
		}
	}
	return nil, commerce.ErrCartNotFound
}

func (s *stubStore) CartByID(_ context.Context, cartID, userID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[cartID]
	if !ok || cart.UserID != userID {
		return nil, commerce.ErrCartNotFound
	}
	cp := *cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (s *stubStore) SaveCart(_ context.Context, cart *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	cp := *cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	s.carts[cart.ID.Hex()] = &cp
	return nil
}

func (s *stubStore) EmptyCart(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[cartID]
	if !ok {
		return commerce.ErrCartNotFound
	}
	cart.Items = []models.CartItem{}
	return nil
}

func (s *stubStore) InsertOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Même contrainte que l'index unique sparse sur stripe_payment_id
	if order.StripePaymentID != "" {
		for _, o := range s.orders {
			if o.StripePaymentID == order.StripePaymentID {
				return errors.New("doublon stripe_payment_id")
			}
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.orders = append(s.orders, *order)
	return nil
}

func (s *stubStore) OrderExistsByPaymentID(_ context.Context, stripePaymentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.StripePaymentID == stripePaymentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) OrderByPaymentID(_ context.Context, stripePaymentID, userID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.StripePaymentID == stripePaymentID && o.UserID == userID {
			cp := o
			return &cp, nil
		}
	}
	return nil, commerce.ErrOrderNotFound
}
