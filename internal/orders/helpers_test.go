package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/database/inmemory"
	"storefront/internal/models"
	"storefront/internal/orders"
)

var fixedNow = time.Date(2026, time.October, 16, 10, 30, 0, 0, time.Local)

type fixture struct {
	store   *inmemory.Store
	service *orders.Service
	product models.Product
}

func newFixture(t *testing.T, stockM int, cfg orders.Config, opts ...orders.Option) *fixture {
	t.Helper()

	store := inmemory.NewStore()
	product := store.PutProduct(models.Product{
		Title:       "Linen Kurta",
		Brand:       "Zenax",
		Images:      models.StringList{"https://cdn.example.com/kurta-1.jpg", "https://cdn.example.com/kurta-2.jpg"},
		Category:    models.CategoryEthnic,
		ActualPrice: 500,
		Status:      models.ProductStatusPublished,
		IsActive:    true,
		Sizes: []models.SizeStock{
			{Size: "M", Stock: stockM},
			{Size: "L", Stock: 10},
		},
	})

	clock := func() time.Time { return fixedNow }
	opts = append([]orders.Option{orders.WithClock(clock)}, opts...)
	svc := orders.NewService(store, store, orders.NewNumberGenerator(store, clock), cfg, opts...)
	return &fixture{store: store, service: svc, product: product}
}

func validAddress() models.ShippingAddress {
	return models.ShippingAddress{
		FirstName:    "Asha",
		LastName:     "Rao",
		Phone:        "9876543210",
		Email:        "asha@example.com",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560001",
	}
}

func (f *fixture) input(userID primitive.ObjectID, size string, qty int, price, total float64) orders.PlaceOrderInput {
	return orders.PlaceOrderInput{
		UserID: userID,
		Items: []orders.Line{
			{ProductID: f.product.ID.Hex(), Size: size, Quantity: qty, Price: price},
		},
		TotalAmount:     total,
		ShippingAddress: validAddress(),
	}
}

func (f *fixture) stock(t *testing.T, size string) int {
	t.Helper()
	p, err := f.store.FindProduct(context.Background(), f.product.ID)
	require.NoError(t, err)
	entry, ok := p.SizeStock(size)
	require.True(t, ok)
	return entry.Stock
}
