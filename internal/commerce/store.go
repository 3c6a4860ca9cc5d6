package commerce

import (
	"context"

	"nike_shop_backend/internal/models"
)

// Store est le port vers le document store. L'implémentation MongoDB est
// dans store_mongo.go ; les tests utilisent un store en mémoire.
type Store interface {
	// Produits
	ProductByID(ctx context.Context, id string) (*models.Product, error)
	ProductSummaries(ctx context.Context, ids []string) (map[string]models.ProductSummary, error)

	// ReserveStock décrémente le stock de qty en une seule mise à jour
	// conditionnelle ("stock >= qty"). Renvoie false si le stock est
	// insuffisant, sans rien modifier.
	ReserveStock(ctx context.Context, productID string, qty int) (bool, error)
	// ReleaseStock ré-incrémente le stock (rollback d'une réservation).
	ReleaseStock(ctx context.Context, productID string, qty int) error

	// Paniers
	CartByUser(ctx context.Context, userID string) (*models.Cart, error)
	CartByID(ctx context.Context, cartID, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, cart *models.Cart) error
	// EmptyCart vide la liste d'articles sans supprimer le document.
	EmptyCart(ctx context.Context, cartID string) error

	// Commandes
	InsertOrder(ctx context.Context, order *models.Order) error
	OrderExistsByPaymentID(ctx context.Context, stripePaymentID string) (bool, error)
	OrderByPaymentID(ctx context.Context, stripePaymentID, userID string) (*models.Order, error)
}
