package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"user_id" json:"userId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress ShippingAddress    `bson:"shipping_address" json:"shippingAddress"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	ShippingCost    float64            `bson:"shipping_cost" json:"shippingCost"`
	Tax             float64            `bson:"tax" json:"tax"`
	Total           float64            `bson:"total" json:"total"`
	PaymentMethod   string             `bson:"payment_method" json:"paymentMethod"`
	PaymentStatus   string             `bson:"payment_status" json:"paymentStatus"`
	OrderStatus     string             `bson:"order_status" json:"orderStatus"`
	StripePaymentID string             `bson:"stripe_payment_id,omitempty" json:"stripePaymentId,omitempty"`
	TrackingNumber  string             `bson:"tracking_number,omitempty" json:"trackingNumber,omitempty"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
}

// OrderItem est un snapshot figé à la création de la commande : nom, image
// et prix sont copiés depuis le catalogue, jamais re-joints ensuite.
type OrderItem struct {
	ProductID string  `bson:"product_id" json:"productId"`
	Name      string  `bson:"name" json:"name"`
	Image     string  `bson:"image,omitempty" json:"image,omitempty"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Size      string  `bson:"size,omitempty" json:"size,omitempty"`
	Color     string  `bson:"color,omitempty" json:"color,omitempty"`
}

type ShippingAddress struct {
	FullName   string `bson:"full_name" json:"fullName"`
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postal_code" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`
}

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"

	OrderProcessing = "processing"
	OrderConfirmed  = "confirmed"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)
