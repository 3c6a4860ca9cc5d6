package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"userId"`
	Items     []CartItem         `bson:"items" json:"items"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// CartItem est une ligne du panier. Le prix est un snapshot pris au moment
// de l'ajout : un changement de prix catalogue ne modifie pas la ligne.
type CartItem struct {
	ID        string          `bson:"item_id" json:"itemId"`
	ProductID string          `bson:"product_id" json:"productId"`
	Quantity  int             `bson:"quantity" json:"quantity"`
	Size      string          `bson:"size,omitempty" json:"size,omitempty"`
	Color     string          `bson:"color,omitempty" json:"color,omitempty"`
	Price     float64         `bson:"price" json:"price"`
	Product   *ProductSummary `bson:"-" json:"product,omitempty"`
}

// Total calcule le total du panier à partir des prix snapshotés.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// ItemCount renvoie le nombre total d'articles (somme des quantités).
func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}
