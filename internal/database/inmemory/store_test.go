package inmemory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/orders"
)

func seedProduct(s *Store, stock map[string]int) models.Product {
	p := models.Product{
		Title:       "Chino",
		Brand:       "Zenax",
		Category:    models.CategoryCasual,
		ActualPrice: 1200,
		Status:      models.ProductStatusPublished,
		IsActive:    true,
	}
	for _, size := range models.Sizes {
		if n, ok := stock[size]; ok {
			p.Sizes = append(p.Sizes, models.SizeStock{Size: size, Stock: n})
		}
	}
	return s.PutProduct(p)
}

func TestPlaceOrderIsAllOrNothing(t *testing.T) {
	s := NewStore()
	a := seedProduct(s, map[string]int{"M": 2})
	b := seedProduct(s, map[string]int{"L": 1})

	order := &models.Order{OrderNumber: "ZNX261016001"}
	err := s.PlaceOrder(context.Background(), order, []orders.StockAdjustment{
		{ProductID: a.ID, Size: "M", Quantity: 2},
		{ProductID: b.ID, Size: "L", Quantity: 2},
	})

	var stockErr *orders.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, b.ID.Hex(), stockErr.ProductID)

	pa, _ := s.FindProduct(context.Background(), a.ID)
	assert.Equal(t, 2, pa.Sizes[0].Stock)
	assert.True(t, order.ID.IsZero())
}

func TestPlaceOrderRejectsDuplicateNumber(t *testing.T) {
	s := NewStore()
	p := seedProduct(s, map[string]int{"M": 5})
	adj := []orders.StockAdjustment{{ProductID: p.ID, Size: "M", Quantity: 1}}

	require.NoError(t, s.PlaceOrder(context.Background(), &models.Order{OrderNumber: "ZNX261016001", IsActive: true}, adj))
	err := s.PlaceOrder(context.Background(), &models.Order{OrderNumber: "ZNX261016001", IsActive: true}, adj)
	assert.ErrorIs(t, err, orders.ErrConflict)

	stored, _ := s.FindProduct(context.Background(), p.ID)
	assert.Equal(t, 4, stored.Sizes[0].Stock)
}

func TestPlaceOrderFlipsInStock(t *testing.T) {
	s := NewStore()
	p := seedProduct(s, map[string]int{"XL": 1})

	require.NoError(t, s.PlaceOrder(context.Background(), &models.Order{OrderNumber: "n1"},
		[]orders.StockAdjustment{{ProductID: p.ID, Size: "XL", Quantity: 1}}))

	stored, _ := s.FindProduct(context.Background(), p.ID)
	assert.Equal(t, 0, stored.Sizes[0].Stock)
	assert.False(t, stored.Sizes[0].InStock)
}

func TestTransitionStatusDetectsConcurrentChange(t *testing.T) {
	s := NewStore()
	p := seedProduct(s, map[string]int{"M": 1})
	order := &models.Order{OrderNumber: "n1", Status: models.OrderStatusPending, IsActive: true}
	adj := []orders.StockAdjustment{{ProductID: p.ID, Size: "M", Quantity: 1}}
	require.NoError(t, s.PlaceOrder(context.Background(), order, adj))

	at := time.Now()
	_, err := s.TransitionStatus(context.Background(), order.ID,
		models.StatusChange{From: models.OrderStatusPending, To: models.OrderStatusCancelled, ChangedAt: at}, orders.StockMovement{Restock: adj})
	require.NoError(t, err)

	_, err = s.TransitionStatus(context.Background(), order.ID,
		models.StatusChange{From: models.OrderStatusPending, To: models.OrderStatusCancelled, ChangedAt: at}, orders.StockMovement{Restock: adj})
	assert.ErrorIs(t, err, orders.ErrConflict)

	stored, _ := s.FindProduct(context.Background(), p.ID)
	assert.Equal(t, 1, stored.Sizes[0].Stock, "restock must happen once")

	_, err = s.TransitionStatus(context.Background(), primitive.NewObjectID(), models.StatusChange{}, orders.StockMovement{})
	assert.ErrorIs(t, err, orders.ErrNotFound)
}

func TestTransitionStatusReserveIsConditional(t *testing.T) {
	s := NewStore()
	p := seedProduct(s, map[string]int{"M": 2})
	order := &models.Order{OrderNumber: "n1", Status: models.OrderStatusCancelled, IsActive: true}
	require.NoError(t, s.PlaceOrder(context.Background(), order, nil))

	reserve := []orders.StockAdjustment{{ProductID: p.ID, Size: "M", Quantity: 3}}
	_, err := s.TransitionStatus(context.Background(), order.ID,
		models.StatusChange{From: models.OrderStatusCancelled, To: models.OrderStatusPending, ChangedAt: time.Now()},
		orders.StockMovement{Reserve: reserve})
	var stockErr *orders.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available)

	stored, _ := s.FindOrder(context.Background(), order.ID)
	assert.Equal(t, models.OrderStatusCancelled, stored.Status, "a failed reserve must not move the status")

	reserve[0].Quantity = 2
	_, err = s.TransitionStatus(context.Background(), order.ID,
		models.StatusChange{From: models.OrderStatusCancelled, To: models.OrderStatusPending, ChangedAt: time.Now()},
		orders.StockMovement{Reserve: reserve})
	require.NoError(t, err)

	product, _ := s.FindProduct(context.Background(), p.ID)
	assert.Equal(t, 0, product.Sizes[0].Stock)
	assert.False(t, product.Sizes[0].InStock)
}

func TestListingSurvivesHugePageNumbers(t *testing.T) {
	s := NewStore()
	seedProduct(s, map[string]int{"M": 1})
	require.NoError(t, s.PlaceOrder(context.Background(), &models.Order{OrderNumber: "n1", IsActive: true}, nil))

	page := orders.Page{Page: math.MaxInt64, Limit: 10}
	list, total, err := s.ListOrders(context.Background(), orders.OrderFilter{}, page)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, int64(1), total)

	products, total, err := s.ListProducts(context.Background(), database.ProductFilter{}, page)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, int64(1), total)
}

func TestReturnedOrdersAreCopies(t *testing.T) {
	s := NewStore()
	p := seedProduct(s, map[string]int{"M": 1})
	order := &models.Order{
		OrderNumber: "n1",
		IsActive:    true,
		Items:       []models.OrderItem{{ProductID: p.ID, ProductTitle: "Chino", Size: "M", Quantity: 1}},
	}
	require.NoError(t, s.PlaceOrder(context.Background(), order, nil))

	got, err := s.FindOrder(context.Background(), order.ID)
	require.NoError(t, err)
	got.Items[0].ProductTitle = "mutated"

	again, err := s.FindOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chino", again.Items[0].ProductTitle)
}

func TestListProductsPublicOnly(t *testing.T) {
	s := NewStore()
	seedProduct(s, map[string]int{"M": 1})
	draft := seedProduct(s, map[string]int{"M": 1})
	draft.Status = models.ProductStatusDraft
	s.PutProduct(draft)
	archived := seedProduct(s, map[string]int{"M": 1})
	require.NoError(t, s.ArchiveProduct(context.Background(), archived.ID))

	public, total, err := s.ListProducts(context.Background(), database.ProductFilter{PublicOnly: true}, orders.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, public, 1)

	_, total, err = s.ListProducts(context.Background(), database.ProductFilter{Status: models.ProductStatusArchived}, orders.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = s.ListProducts(context.Background(), database.ProductFilter{Search: "CHI"}, orders.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}
