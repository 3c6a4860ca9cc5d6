package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"nike_shop_backend/internal/cache"
	"nike_shop_backend/internal/database"
	"nike_shop_backend/internal/models"
	"nike_shop_backend/internal/utils"
)

// ================== AUTH LOCALE ==================

// Register crée un compte local (hash Argon2id, jamais en clair)
func Register(c *gin.Context) {
	var input struct {
		Username  string `json:"username" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required,min=6"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// ⚡ Vérifier si l'email ou le username existe déjà
	var existing models.User
	err := database.MongoAuthDB.Collection("users").FindOne(ctx, bson.M{
		"$or": []bson.M{{"email": input.Email}, {"username": input.Username}},
	}).Decode(&existing)
	if err == nil {
		if existing.Email == input.Email {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Un compte avec cet email existe déjà",
				"email": input.Email,
			})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": "Ce nom d'utilisateur est déjà pris"})
		return
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur hash mot de passe"})
		return
	}

	now := time.Now()
	newUser := models.User{
		ID:        uuid.NewString(),
		Username:  input.Username,
		Email:     input.Email,
		Password:  hashed,
		Role:      models.RoleUser,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := database.MongoAuthDB.Collection("users").InsertOne(ctx, newUser); err != nil {
		// L'index unique sur email attrape la course entre deux inscriptions
		if mongo.IsDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création compte"})
		return
	}

	token, err := utils.GenerateJWT(newUser)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Compte créé",
		"token":   token,
		"user":    newUser,
	})
}

// Login vérifie email + mot de passe et renvoie un JWT (7 jours)
func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	err := database.MongoAuthDB.Collection("users").FindOne(ctx, bson.M{"email": input.Email}).Decode(&user)
	if err != nil {
		// Même message que mot de passe incorrect : pas d'énumération d'emails
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, user.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Connexion réussie",
		"token":   token,
		"user":    user,
	})
}

// GetProfile renvoie le profil (cache Redis 5 min, mot de passe exclu)
func GetProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	user, err := cache.GetUserFromCache(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile modifie les champs de profil autorisés
func UpdateProfile(c *gin.Context) {
	var input struct {
		Username       string     `json:"username"`
		FirstName      string     `json:"firstName"`
		LastName       string     `json:"lastName"`
		Phone          string     `json:"phone"`
		DateOfBirth    *time.Time `json:"dateOfBirth"`
		Gender         string     `json:"gender"`
		ProfilePicture string     `json:"profilePicture"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	update := bson.M{"updated_at": time.Now()}
	if input.Username != "" {
		update["username"] = input.Username
	}
	if input.FirstName != "" {
		update["first_name"] = input.FirstName
	}
	if input.LastName != "" {
		update["last_name"] = input.LastName
	}
	if input.Phone != "" {
		update["phone"] = input.Phone
	}
	if input.DateOfBirth != nil {
		update["date_of_birth"] = input.DateOfBirth
	}
	if input.Gender != "" {
		update["gender"] = input.Gender
	}
	if input.ProfilePicture != "" {
		update["profile_picture"] = input.ProfilePicture
	}

	userID := c.GetString("user_id")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := database.MongoAuthDB.Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": update})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour profil"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	cache.InvalidateUserCache(ctx, userID)

	user, err := cache.GetUserFromCache(ctx, userID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "Profil mis à jour"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profil mis à jour", "user": user})
}
