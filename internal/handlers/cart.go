package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nike_shop_backend/internal/commerce"
)

// CartHandler expose le panier persistant (un document par utilisateur).
type CartHandler struct {
	carts *commerce.CartService
}

func NewCartHandler(carts *commerce.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// GetCart retourne le panier de l'utilisateur connecté (vide si inexistant)
func (h *CartHandler) GetCart(c *gin.Context) {
	userID := c.GetString("user_id")

	view, err := h.carts.View(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": view})
}

// AddToCart ajoute un article (fusion si même produit/taille/couleur)
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req struct {
		ProductID string `json:"productId" binding:"required"`
		Quantity  int    `json:"quantity"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	userID := c.GetString("user_id")

	view, err := h.carts.AddItem(c.Request.Context(), userID, req.ProductID, req.Quantity, req.Size, req.Color)
	if err != nil {
		respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article ajouté au panier", "cart": view})
}

// UpdateCartItem modifie la quantité d'une ligne existante
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var req struct {
		Quantity int `json:"quantity" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides", "details": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	itemID := c.Param("itemId")

	view, err := h.carts.UpdateItem(c.Request.Context(), userID, itemID, req.Quantity)
	if err != nil {
		respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Panier mis à jour", "cart": view})
}

// RemoveCartItem supprime une ligne (idempotent)
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	userID := c.GetString("user_id")
	itemID := c.Param("itemId")

	view, err := h.carts.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article supprimé du panier", "cart": view})
}

// ClearCart vide le panier sans supprimer le document
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Panier vidé"})
}

// respondCartError mappe les erreurs métier du panier vers un statut HTTP.
func respondCartError(c *gin.Context, err error) {
	var stockErr *commerce.StockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Stock insuffisant pour " + stockErr.Product,
			"code":      "INSUFFICIENT_STOCK",
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
		return
	}

	var valErr *commerce.ValidationError
	if errors.As(err, &valErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Message, "code": "VALIDATION_ERROR"})
		return
	}

	if commerce.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "NOT_FOUND"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
}
