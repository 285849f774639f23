package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

const (
	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
)

var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func IsValidOrderStatus(status string) bool {
	for _, s := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsValidPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// OrderItem is a snapshot of the product taken when the order was placed. It is
// never resynchronized with the live catalog.
type OrderItem struct {
	ProductID    primitive.ObjectID `bson:"productId" json:"productId"`
	ProductTitle string             `bson:"productTitle" json:"productTitle"`
	ProductImage string             `bson:"productImage" json:"productImage"`
	ProductBrand string             `bson:"productBrand" json:"productBrand"`
	Size         string             `bson:"size" json:"size"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	Price        float64            `bson:"price" json:"price"`
	TotalPrice   float64            `bson:"totalPrice" json:"totalPrice"`
}

// ShippingAddress is copied into the order at creation time.
type ShippingAddress struct {
	FirstName    string `bson:"firstName" json:"firstName"`
	LastName     string `bson:"lastName" json:"lastName"`
	Phone        string `bson:"phone" json:"phone"`
	Email        string `bson:"email" json:"email"`
	AddressLine1 string `bson:"addressLine1" json:"addressLine1"`
	AddressLine2 string `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
	City         string `bson:"city" json:"city"`
	State        string `bson:"state" json:"state"`
	Pincode      string `bson:"pincode" json:"pincode"`
	Country      string `bson:"country" json:"country"`
}

// StatusChange records one admin or customer status transition.
type StatusChange struct {
	From      string    `bson:"from" json:"from"`
	To        string    `bson:"to" json:"to"`
	ChangedAt time.Time `bson:"changedAt" json:"changedAt"`
}

type Order struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber           string             `bson:"orderNumber" json:"orderNumber"`
	UserID                primitive.ObjectID `bson:"userId" json:"userId"`
	Items                 []OrderItem        `bson:"items" json:"items"`
	TotalAmount           float64            `bson:"totalAmount" json:"totalAmount"`
	ShippingAddress       ShippingAddress    `bson:"shippingAddress" json:"shippingAddress"`
	Status                string             `bson:"status" json:"status"`
	PaymentStatus         string             `bson:"paymentStatus" json:"paymentStatus"`
	PaymentMethod         string             `bson:"paymentMethod" json:"paymentMethod"`
	PaymentGatewayOrderID string             `bson:"paymentGatewayOrderId,omitempty" json:"paymentGatewayOrderId,omitempty"`
	PaymentID             string             `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	ExpectedDelivery      time.Time          `bson:"expectedDelivery" json:"expectedDelivery"`
	IsActive              bool               `bson:"isActive" json:"isActive"`
	StatusHistory         []StatusChange     `bson:"statusHistory,omitempty" json:"statusHistory,omitempty"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ItemsTotal sums the line totals of the order.
func (o Order) ItemsTotal() float64 {
	totals := make([]float64, 0, len(o.Items))
	for _, item := range o.Items {
		totals = append(totals, item.TotalPrice)
	}
	return SumAmounts(totals...)
}
