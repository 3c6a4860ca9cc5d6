package commerce

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"nike_shop_backend/internal/models"
)

// MongoStore implémente Store au-dessus des collections MongoDB.
type MongoStore struct {
	products *mongo.Collection
	carts    *mongo.Collection
	orders   *mongo.Collection
}

func NewMongoStore(productsDB, ordersDB *mongo.Database) *MongoStore {
	return &MongoStore{
		products: productsDB.Collection("products"),
		carts:    ordersDB.Collection("carts"),
		orders:   ordersDB.Collection("orders"),
	}
}

var _ Store = (*MongoStore)(nil)

func (s *MongoStore) ProductByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// ID malformé : même réponse qu'un produit absent (cf. CastError côté Mongoose)
		return nil, ErrProductNotFound
	}

	var product models.Product
	err = s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *MongoStore) ProductSummaries(ctx context.Context, ids []string) (map[string]models.ProductSummary, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}

	summaries := make(map[string]models.ProductSummary, len(ids))
	if len(oids) == 0 {
		return summaries, nil
	}

	cursor, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var p models.Product
		if err := cursor.Decode(&p); err != nil {
			return nil, err
		}
		summaries[p.ID.Hex()] = models.ProductSummary{
			ID:       p.ID.Hex(),
			Name:     p.Name,
			Price:    p.Price,
			Image:    p.Image,
			Category: p.Category,
			Brand:    p.Brand,
		}
	}
	return summaries, cursor.Err()
}

// ReserveStock : une seule mise à jour conditionnelle, pas de
// lecture-puis-écriture. Deux checkouts concurrents sur la dernière unité
// ne peuvent donc pas passer tous les deux.
func (s *MongoStore) ReserveStock(ctx context.Context, productID string, qty int) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return false, ErrProductNotFound
	}

	res, err := s.products.UpdateOne(ctx,
		bson.M{"_id": oid, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (s *MongoStore) ReleaseStock(ctx context.Context, productID string, qty int) error {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return ErrProductNotFound
	}
	_, err = s.products.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"stock": qty}},
	)
	return err
}

func (s *MongoStore) CartByUser(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	err := s.carts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *MongoStore) CartByID(ctx context.Context, cartID, userID string) (*models.Cart, error) {
	oid, err := primitive.ObjectIDFromHex(cartID)
	if err != nil {
		return nil, ErrCartNotFound
	}

	var cart models.Cart
	err = s.carts.FindOne(ctx, bson.M{"_id": oid, "user_id": userID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *MongoStore) SaveCart(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
		_, err := s.carts.InsertOne(ctx, cart)
		return err
	}

	_, err := s.carts.UpdateOne(ctx,
		bson.M{"_id": cart.ID},
		bson.M{"$set": bson.M{"items": cart.Items, "updated_at": cart.UpdatedAt}},
	)
	return err
}

func (s *MongoStore) EmptyCart(ctx context.Context, cartID string) error {
	oid, err := primitive.ObjectIDFromHex(cartID)
	if err != nil {
		return ErrCartNotFound
	}
	_, err = s.carts.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"items": []models.CartItem{}, "updated_at": time.Now()}},
	)
	return err
}

func (s *MongoStore) InsertOrder(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := s.orders.InsertOne(ctx, order)
	return err
}

func (s *MongoStore) OrderExistsByPaymentID(ctx context.Context, stripePaymentID string) (bool, error) {
	count, err := s.orders.CountDocuments(ctx, bson.M{"stripe_payment_id": stripePaymentID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MongoStore) OrderByPaymentID(ctx context.Context, stripePaymentID, userID string) (*models.Order, error) {
	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"stripe_payment_id": stripePaymentID, "user_id": userID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}
