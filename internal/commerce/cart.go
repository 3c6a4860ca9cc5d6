package commerce

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nike_shop_backend/internal/models"
)

// CartService maintient le panier actif (un seul par utilisateur).
type CartService struct {
	store Store
}

func NewCartService(store Store) *CartService {
	return &CartService{store: store}
}

// CartView est la réponse renvoyée au front : lignes enrichies du résumé
// produit, total calculé et nombre d'articles.
type CartView struct {
	ID        string            `json:"id,omitempty"`
	Items     []models.CartItem `json:"items"`
	Total     float64           `json:"total"`
	ItemCount int               `json:"itemCount"`
}

// AddItem ajoute un article au panier de l'utilisateur. Le panier est créé
// paresseusement au premier ajout. Une ligne (produit, taille, couleur)
// déjà présente voit sa quantité augmentée, le stock étant revérifié
// contre le NOUVEAU total, jamais contre le seul ajout.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int, size, color string) (*CartView, error) {
	if quantity < 1 {
		return nil, &ValidationError{Message: "La quantité doit être au moins 1"}
	}

	product, err := s.store.ProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.store.CartByUser(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		cart = &models.Cart{UserID: userID, Items: []models.CartItem{}}
	} else if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		line := &cart.Items[i]
		if line.ProductID == productID && line.Size == size && line.Color == color {
			newQuantity := line.Quantity + quantity
			if product.Stock < newQuantity {
				return nil, &StockError{
					ProductID: productID,
					Product:   product.Name,
					Available: product.Stock,
					Requested: newQuantity,
				}
			}
			line.Quantity = newQuantity
			merged = true
			break
		}
	}

	if !merged {
		if product.Stock < quantity {
			return nil, &StockError{
				ProductID: productID,
				Product:   product.Name,
				Available: product.Stock,
				Requested: quantity,
			}
		}
		cart.Items = append(cart.Items, models.CartItem{
			ID:        primitive.NewObjectID().Hex(),
			ProductID: productID,
			Quantity:  quantity,
			Size:      size,
			Color:     color,
			Price:     product.Price, // snapshot du prix à l'ajout
		})
	}

	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("sauvegarde panier: %w", err)
	}
	return s.buildView(ctx, cart)
}

// UpdateItem change la quantité d'une ligne existante, avec revérification
// du stock vivant.
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, &ValidationError{Message: "La quantité doit être au moins 1"}
	}

	cart, err := s.store.CartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var line *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			line = &cart.Items[i]
			break
		}
	}
	if line == nil {
		return nil, ErrItemNotFound
	}

	product, err := s.store.ProductByID(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, &StockError{
			ProductID: line.ProductID,
			Product:   product.Name,
			Available: product.Stock,
			Requested: quantity,
		}
	}

	line.Quantity = quantity
	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart)
}

// RemoveItem retire une ligne. Idempotent : retirer une ligne déjà absente
// réussit sans rien changer.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*CartView, error) {
	cart, err := s.store.CartByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, line := range cart.Items {
		if line.ID != itemID {
			kept = append(kept, line)
		}
	}
	cart.Items = kept

	if err := s.store.SaveCart(ctx, cart); err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart)
}

// Clear vide la liste d'articles sans supprimer le document panier.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	cart, err := s.store.CartByUser(ctx, userID)
	if err != nil {
		return err
	}
	return s.store.EmptyCart(ctx, cart.ID.Hex())
}

// View renvoie le panier courant ; un utilisateur sans panier obtient une
// vue vide, pas une 404.
func (s *CartService) View(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.store.CartByUser(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return &CartView{Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, cart)
}

func (s *CartService) buildView(ctx context.Context, cart *models.Cart) (*CartView, error) {
	ids := make([]string, 0, len(cart.Items))
	for _, line := range cart.Items {
		ids = append(ids, line.ProductID)
	}

	summaries, err := s.store.ProductSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]models.CartItem, len(cart.Items))
	copy(items, cart.Items)
	for i := range items {
		if summary, ok := summaries[items[i].ProductID]; ok {
			s := summary
			items[i].Product = &s
		}
	}

	return &CartView{
		ID:        cart.ID.Hex(),
		Items:     items,
		Total:     cart.Total(),
		ItemCount: cart.ItemCount(),
	}, nil
}
