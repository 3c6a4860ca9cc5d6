package database

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes crée les index requis par le modèle de données :
//   - users.email unique (un compte local par email)
//   - carts.user_id unique (exactement un panier actif par utilisateur)
//   - orders.stripe_payment_id unique sparse (idempotence webhook)
//     + orders.user_id pour les lectures
func EnsureIndexes(ctx context.Context) error {
	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := MongoAuthDB.Collection("users").Indexes().CreateMany(ctx, users); err != nil {
		return err
	}

	carts := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := MongoOrdersDB.Collection("carts").Indexes().CreateMany(ctx, carts); err != nil {
		return err
	}

	orders := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		// Unique + sparse : deux livraisons concurrentes du même webhook ne
		// peuvent pas insérer deux commandes pour le même PaymentIntent.
		{Keys: bson.D{{Key: "stripe_payment_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	}
	if _, err := MongoOrdersDB.Collection("orders").Indexes().CreateMany(ctx, orders); err != nil {
		return err
	}

	log.Println("✅ Index MongoDB vérifiés")
	return nil
}
