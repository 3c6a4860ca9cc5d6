package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nike_shop_backend/internal/cache"
	"nike_shop_backend/internal/database"
	"nike_shop_backend/internal/models"
	"nike_shop_backend/internal/service"
)

// Seuil sous lequel un produit est considéré en stock faible.
const lowStockThreshold = 5

// GetDashboardStats agrège les compteurs du tableau de bord admin
func GetDashboardStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	products := database.MongoProductsDB.Collection("products")
	orders := database.MongoOrdersDB.Collection("orders")
	users := database.MongoAuthDB.Collection("users")

	totalProducts, _ := products.CountDocuments(ctx, bson.M{})
	newProducts, _ := products.CountDocuments(ctx, bson.M{"category": "new"})
	activeProducts, _ := products.CountDocuments(ctx, bson.M{"is_active": true})
	lowStock, _ := products.CountDocuments(ctx, bson.M{"stock": bson.M{"$lt": lowStockThreshold}})

	totalOrders, _ := orders.CountDocuments(ctx, bson.M{})
	totalUsers, _ := users.CountDocuments(ctx, bson.M{})

	// Revenu total + répartition par statut en un seul pipeline
	revenue := 0.0
	byStatus := map[string]int64{}

	cursor, err := orders.Aggregate(ctx, []bson.M{
		{"$group": bson.M{
			"_id":     "$order_status",
			"count":   bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$total"},
		}},
	})
	if err == nil {
		defer cursor.Close(ctx)
		var rows []struct {
			ID      string  `bson:"_id"`
			Count   int64   `bson:"count"`
			Revenue float64 `bson:"revenue"`
		}
		if err := cursor.All(ctx, &rows); err == nil {
			for _, r := range rows {
				byStatus[r.ID] = r.Count
				if r.ID != models.OrderCancelled {
					revenue += r.Revenue
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"products": gin.H{
			"total":    totalProducts,
			"new":      newProducts,
			"active":   activeProducts,
			"lowStock": lowStock,
		},
		"orders": gin.H{
			"total":    totalOrders,
			"revenue":  revenue,
			"byStatus": byStatus,
		},
		"users": gin.H{"total": totalUsers},
	})
}

// GetDashboardUsers liste les comptes (mot de passe jamais sérialisé)
func GetDashboardUsers(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := database.MongoAuthDB.Collection("users").Find(ctx, bson.M{}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture utilisateurs"})
		return
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture utilisateurs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// GetAllOrders (admin) liste toutes les commandes, filtrables par statut
func GetAllOrders(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["order_status"] = status
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := database.MongoOrdersDB.Collection("orders").Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
		return
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// ================== CRUD PRODUITS (ADMIN) ==================

// CreateProduct ajoute un produit au catalogue et l'indexe dans Elasticsearch
func CreateProduct(c *gin.Context) {
	var input struct {
		Name        string   `json:"name" binding:"required"`
		Description string   `json:"description"`
		Price       float64  `json:"price" binding:"required,gt=0"`
		Stock       int      `json:"stock" binding:"gte=0"`
		Category    string   `json:"category" binding:"required"`
		Brand       string   `json:"brand"`
		Image       string   `json:"image"`
		Images      []string `json:"images"`
		Sizes       []string `json:"sizes"`
		Colors      []string `json:"colors"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	now := time.Now()
	product := models.Product{
		ID:          primitive.NewObjectID(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Category:    input.Category,
		Brand:       input.Brand,
		Image:       input.Image,
		Images:      input.Images,
		Sizes:       input.Sizes,
		Colors:      input.Colors,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := database.MongoProductsDB.Collection("products").InsertOne(ctx, product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création produit"})
		return
	}

	go service.IndexProduct(product)

	log.Printf("✅ Produit créé: %s (%s)", product.Name, product.ID.Hex())
	c.JSON(http.StatusCreated, gin.H{"message": "Produit créé", "product": product})
}

// UpdateProduct modifie un produit et réindexe
func UpdateProduct(c *gin.Context) {
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var input map[string]interface{}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	// Seuls les champs du catalogue sont modifiables par cette route
	allowed := map[string]string{
		"name": "name", "description": "description", "price": "price",
		"stock": "stock", "category": "category", "brand": "brand",
		"image": "image", "images": "images", "sizes": "sizes",
		"colors": "colors", "isActive": "is_active",
	}

	update := bson.M{"updated_at": time.Now()}
	for key, field := range allowed {
		if val, ok := input[key]; ok {
			update[field] = val
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	coll := database.MongoProductsDB.Collection("products")

	res, err := coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": update})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour produit"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	cache.InvalidateProductCache(ctx, c.Param("id"))

	var product models.Product
	if err := coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&product); err == nil {
		go service.IndexProduct(product)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Produit mis à jour", "product": product})
}

// DeleteProduct supprime un produit et son entrée d'index
func DeleteProduct(c *gin.Context) {
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.MongoProductsDB.Collection("products").DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression produit"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	cache.InvalidateProductCache(ctx, c.Param("id"))
	go service.DeleteProductIndex(c.Param("id"))

	log.Printf("🧹 Produit supprimé: %s", c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé"})
}

// BulkUpdateProducts applique une mise à jour partielle à plusieurs produits
func BulkUpdateProducts(c *gin.Context) {
	var input struct {
		IDs    []string               `json:"ids" binding:"required,min=1"`
		Update map[string]interface{} `json:"update" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	oids := make([]primitive.ObjectID, 0, len(input.IDs))
	for _, id := range input.IDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide: " + id})
			return
		}
		oids = append(oids, oid)
	}

	allowed := map[string]string{
		"price": "price", "stock": "stock", "category": "category",
		"isActive": "is_active", "brand": "brand",
	}
	update := bson.M{"updated_at": time.Now()}
	for key, field := range allowed {
		if val, ok := input.Update[key]; ok {
			update[field] = val
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	res, err := database.MongoProductsDB.Collection("products").
		UpdateMany(ctx, bson.M{"_id": bson.M{"$in": oids}}, bson.M{"$set": update})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour groupée"})
		return
	}

	for _, id := range input.IDs {
		cache.InvalidateProductCache(ctx, id)
	}

	log.Printf("📦 Mise à jour groupée: %d produits modifiés", res.ModifiedCount)
	c.JSON(http.StatusOK, gin.H{"message": "Produits mis à jour", "modified": res.ModifiedCount})
}
