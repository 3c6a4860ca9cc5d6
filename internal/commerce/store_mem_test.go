package commerce

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nike_shop_backend/internal/models"
)

// memStore est l'implémentation en mémoire de Store utilisée par les
// tests. La réservation de stock est un compare-and-decrement sous mutex,
// même sémantique que la mise à jour conditionnelle Mongo.
type memStore struct {
	mu       sync.Mutex
	products map[string]*models.Product
	carts    map[string]*models.Cart
	orders   []models.Order

	failInsertOrder bool
}

func newMemStore() *memStore {
	return &memStore{
		products: map[string]*models.Product{},
		carts:    map[string]*models.Cart{},
	}
}

func (m *memStore) addProduct(id, name string, price float64, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id] = &models.Product{
		Name:     name,
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
}

func (m *memStore) stockOf(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) ProductByID(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ProductSummaries(_ context.Context, ids []string) (map[string]models.ProductSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]models.ProductSummary{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = models.ProductSummary{
				ID:    id,
				Name:  p.Name,
				Price: p.Price,
				Image: p.Image,
			}
		}
	}
	return out, nil
}

func (m *memStore) ReserveStock(_ context.Context, productID string, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (m *memStore) ReleaseStock(_ context.Context, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return errors.New("produit inconnu")
	}
	p.Stock += qty
	return nil
}

func (m *memStore) CartByUser(_ context.Context, userID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cart := range m.carts {
		if cart.UserID == userID {
			cp := *cart
			cp.Items = append([]models.CartItem(nil), cart.Items...)
			return &cp, nil
		}
	}
	return nil, ErrCartNotFound
}

func (m *memStore) CartByID(_ context.Context, cartID, userID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[cartID]
	if !ok || cart.UserID != userID {
		return nil, ErrCartNotFound
	}
	cp := *cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (m *memStore) SaveCart(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	cp := *cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	m.carts[cart.ID.Hex()] = &cp
	return nil
}

func (m *memStore) EmptyCart(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.carts[cartID]
	if !ok {
		return ErrCartNotFound
	}
	cart.Items = []models.CartItem{}
	return nil
}

func (m *memStore) InsertOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertOrder {
		return errors.New("insertion refusée")
	}
	// Même contrainte que l'index unique sparse sur stripe_payment_id
	if order.StripePaymentID != "" {
		for _, o := range m.orders {
			if o.StripePaymentID == order.StripePaymentID {
				return errors.New("doublon stripe_payment_id")
			}
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	m.orders = append(m.orders, *order)
	return nil
}

func (m *memStore) OrderExistsByPaymentID(_ context.Context, stripePaymentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.StripePaymentID == stripePaymentID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) OrderByPaymentID(_ context.Context, stripePaymentID, userID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.StripePaymentID == stripePaymentID && o.UserID == userID {
			cp := o
			return &cp, nil
		}
	}
	return nil, ErrOrderNotFound
}
