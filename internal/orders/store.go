package orders

import (
	"context"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// Catalog resolves products by id. FindProduct returns ErrProductNotFound when
// no product matches.
type Catalog interface {
	FindProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error)
}

// StockAdjustment moves Quantity units of one product size. The store
// decrements for new orders and increments for cancellations.
type StockAdjustment struct {
	ProductID primitive.ObjectID
	Size      string
	Quantity  int
}

// OrderFilter narrows order listings. A nil UserID means all users.
type OrderFilter struct {
	UserID        *primitive.ObjectID
	Status        string
	PaymentStatus string
	Search        string
}

type Page struct {
	Page  int64
	Limit int64
}

// Skip saturates at math.MaxInt64 instead of overflowing.
func (p Page) Skip() int64 {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt64/p.Limit {
		return math.MaxInt64
	}
	return (p.Page - 1) * p.Limit
}

// MaxPage bounds the page number so that its skip fits in an int64.
func MaxPage(limit int64) int64 {
	if limit <= 0 {
		return math.MaxInt64
	}
	return math.MaxInt64 / limit
}

// StockMovement is applied together with a status change. Restock entries are
// added back unconditionally; Reserve entries are conditional decrements and
// a miss aborts the whole change.
type StockMovement struct {
	Restock []StockAdjustment
	Reserve []StockAdjustment
}

// PaymentUpdate sets the non-empty payment fields of an order.
type PaymentUpdate struct {
	Method         string
	Status         string
	GatewayOrderID string
	PaymentID      string
}

// Store persists orders. PlaceOrder must apply every decrement and the insert
// atomically: when any size lacks stock it returns *InsufficientStockError and
// leaves no trace.
type Store interface {
	PlaceOrder(ctx context.Context, order *models.Order, decrements []StockAdjustment) error
	FindOrder(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter, page Page) ([]models.Order, int64, error)
	// TransitionStatus updates the status only if it still equals change.From,
	// applying the stock movement in the same write. It returns ErrConflict
	// when the status moved underneath the caller.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, change models.StatusChange, stock StockMovement) (models.Order, error)
	ArchiveOrder(ctx context.Context, id primitive.ObjectID) error
	UpdatePayment(ctx context.Context, id primitive.ObjectID, update PaymentUpdate) (models.Order, error)
}
