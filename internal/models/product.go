package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	Category    string             `bson:"category" json:"category"`
	Brand       string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"`
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`
	Sizes       []string           `bson:"sizes,omitempty" json:"sizes,omitempty"`
	Colors      []string           `bson:"colors,omitempty" json:"colors,omitempty"`
	IsActive    bool               `bson:"is_active" json:"isActive"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ProductSummary est la projection dénormalisée renvoyée dans le panier
// et les commandes (jamais l'état mutable du produit).
type ProductSummary struct {
	ID       string  `bson:"product_id" json:"id"`
	Name     string  `bson:"name" json:"name"`
	Price    float64 `bson:"price" json:"price"`
	Image    string  `bson:"image,omitempty" json:"image,omitempty"`
	Category string  `bson:"category,omitempty" json:"category,omitempty"`
	Brand    string  `bson:"brand,omitempty" json:"brand,omitempty"`
}
