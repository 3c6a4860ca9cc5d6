package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nike_shop_backend/internal/database"
	"nike_shop_backend/internal/models"
)

// SubmitContact enregistre un message de contact (endpoint public)
func SubmitContact(c *gin.Context) {
	var input struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Subject   string `json:"subject" binding:"required"`
		Message   string `json:"message" binding:"required"`
		Phone     string `json:"phone"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	contact := models.Contact{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Subject:   input.Subject,
		Message:   input.Message,
		Phone:     input.Phone,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.MongoContactsDB.Collection("contacts").InsertOne(ctx, contact)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Message envoyé", "id": res.InsertedID})
}

// GetContacts (admin) liste les messages, plus récents d'abord
func GetContacts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := database.MongoContactsDB.Collection("contacts").Find(ctx, bson.M{}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture messages"})
		return
	}
	defer cursor.Close(ctx)

	contacts := []models.Contact{}
	if err := cursor.All(ctx, &contacts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts, "count": len(contacts)})
}
