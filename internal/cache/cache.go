package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"nike_shop_backend/internal/database"
	"nike_shop_backend/internal/models"
)

const (
	UserCacheTTL    = 5 * time.Minute
	ProductCacheTTL = 10 * time.Minute
)

// GetUserFromCache récupère un utilisateur depuis Redis, ou MongoDB en cas
// de miss (et remplit le cache). Le hash du mot de passe n'est jamais mis
// en cache.
func GetUserFromCache(ctx context.Context, userID string) (*models.User, error) {
	key := "user:" + userID

	// 1. Essayer le cache Redis
	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var user models.User
		if json.Unmarshal([]byte(data), &user) == nil {
			return &user, nil
		}
	}

	// 2. Récupérer de MongoDB
	var user models.User
	err = database.MongoAuthDB.Collection("users").
		FindOne(ctx, bson.M{"_id": userID}).
		Decode(&user)
	if err != nil {
		return nil, err
	}
	user.Password = ""

	// 3. Mettre en cache
	jsonData, _ := json.Marshal(user)
	database.Redis.Set(ctx, key, jsonData, UserCacheTTL)

	return &user, nil
}

// InvalidateUserCache invalide le cache d'un utilisateur (après mise à
// jour du profil).
func InvalidateUserCache(ctx context.Context, userID string) {
	database.Redis.Del(ctx, "user:"+userID)
}

// InvalidateProductCache invalide le cache d'un produit (après mise à
// jour admin).
func InvalidateProductCache(ctx context.Context, productID string) {
	database.Redis.Del(ctx, "product:"+productID)
}
