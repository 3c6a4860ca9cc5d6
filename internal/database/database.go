package database

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// --- Variables Globales ---
var (
	MongoClient *mongo.Client

	// Un handle par domaine. Par défaut tout pointe sur la même base
	// nike_shop ; les env MONGO_DB_* permettent de les séparer.
	MongoAuthDB     *mongo.Database
	MongoProductsDB *mongo.Database
	MongoOrdersDB   *mongo.Database
	MongoContactsDB *mongo.Database

	Redis *redis.Client

	ElasticClient *elasticsearch.Client
)

// ConnectDatabases initialise MongoDB, Redis et Elasticsearch. MongoDB et
// Redis sont obligatoires ; Elasticsearch est optionnel (la recherche se
// rabat sur Mongo si absent).
func ConnectDatabases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	connectMongo(ctx)
	connectRedis(ctx)
	connectElastic()

	log.Println("✅ Toutes les bases de données sont connectées")
}

// =============================================
// MONGODB
// =============================================

func connectMongo(ctx context.Context) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	// Timeouts de connexion uniquement : pas de retry applicatif, un
	// timeout remonte comme erreur transport au handler.
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second).
		SetSocketTimeout(45 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Fatal("❌ Erreur connexion MongoDB:", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatal("❌ MongoDB injoignable:", err)
	}

	MongoClient = client
	MongoAuthDB = client.Database(envOr("MONGO_DB_AUTH", "nike_shop"))
	MongoProductsDB = client.Database(envOr("MONGO_DB_PRODUCTS", "nike_shop"))
	MongoOrdersDB = client.Database(envOr("MONGO_DB_ORDERS", "nike_shop"))
	MongoContactsDB = client.Database(envOr("MONGO_DB_CONTACTS", "nike_shop"))

	log.Println("✅ Connecté à MongoDB")

	if err := EnsureIndexes(ctx); err != nil {
		log.Fatal("❌ Erreur création des index MongoDB:", err)
	}
}

// CloseMongo ferme la connexion MongoDB.
func CloseMongo() {
	if MongoClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := MongoClient.Disconnect(ctx); err != nil {
		log.Println("🔌 Erreur fermeture MongoDB:", err)
	}
}

// =============================================
// REDIS
// =============================================

func connectRedis(ctx context.Context) {
	Redis = redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_HOST", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})
	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Erreur connexion Redis:", err)
	}
	log.Println("✅ Connecté à Redis")
}

// =============================================
// ELASTICSEARCH (optionnel)
// =============================================

func connectElastic() {
	elasticURL := os.Getenv("ELASTIC_URL")
	if elasticURL == "" {
		log.Println("⚠️ ELASTIC_URL absent — recherche Elasticsearch désactivée")
		return
	}

	cfg := elasticsearch.Config{
		Addresses: []string{elasticURL},
		Username:  os.Getenv("ELASTIC_USER"),
		Password:  os.Getenv("ELASTIC_PASSWORD"),
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		log.Println("❌ Erreur création client Elasticsearch:", err)
		return
	}

	res, err := client.Info()
	if err != nil {
		log.Println("⚠️ Elasticsearch injoignable — recherche désactivée:", err)
		return
	}
	defer res.Body.Close()

	ElasticClient = client
	log.Println("✅ Connecté à Elasticsearch")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
