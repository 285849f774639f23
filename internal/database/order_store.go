package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"storefront/internal/models"
	"storefront/internal/orders"
)

// OrderStore persists orders. Writes that touch both orders and product stock
// run in a single multi-document transaction, so the deployment must be a
// replica set.
type OrderStore struct {
	db       *mongo.Database
	orders   *mongo.Collection
	products *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{
		db:       db,
		orders:   db.Collection(ordersCollection),
		products: db.Collection(productsCollection),
	}
}

func (s *OrderStore) PlaceOrder(ctx context.Context, order *models.Order, decrements []orders.StockAdjustment) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	var orderID primitive.ObjectID
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		for _, d := range decrements {
			if err := decrementStock(sessCtx, s.products, d); err != nil {
				return nil, err
			}
		}

		res, err := s.orders.InsertOne(sessCtx, order)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, fmt.Errorf("%w: order number %s already used", orders.ErrConflict, order.OrderNumber)
			}
			return nil, err
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			orderID = id
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	order.ID = orderID
	return nil
}

func (s *OrderStore) FindOrder(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var order models.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, orders.ErrNotFound
	}
	return order, err
}

func (s *OrderStore) ListOrders(ctx context.Context, filter orders.OrderFilter, page orders.Page) ([]models.Order, int64, error) {
	query := orderQuery(filter)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().
		SetSkip(page.Skip()).
		SetLimit(page.Limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

	var (
		total int64
		list  []models.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.orders.CountDocuments(gctx, query)
		return err
	})
	g.Go(func() error {
		cursor, err := s.orders.Find(gctx, query, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(gctx)
		return cursor.All(gctx, &list)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func orderQuery(filter orders.OrderFilter) bson.M {
	query := bson.M{"isActive": true}
	if filter.UserID != nil {
		query["userId"] = *filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.PaymentStatus != "" {
		query["paymentStatus"] = filter.PaymentStatus
	}
	if filter.Search != "" {
		pattern := regexp.QuoteMeta(filter.Search)
		query["$or"] = []bson.M{
			{"orderNumber": bson.M{"$regex": pattern, "$options": "i"}},
			{"shippingAddress.firstName": bson.M{"$regex": pattern, "$options": "i"}},
			{"shippingAddress.lastName": bson.M{"$regex": pattern, "$options": "i"}},
			{"shippingAddress.email": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return query
}

func (s *OrderStore) TransitionStatus(ctx context.Context, id primitive.ObjectID, change models.StatusChange, stock orders.StockMovement) (models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	session, err := s.db.Client().StartSession()
	if err != nil {
		return models.Order{}, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	var updated models.Order
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		err := s.orders.FindOneAndUpdate(
			sessCtx,
			bson.M{"_id": id, "status": change.From},
			bson.M{
				"$set":  bson.M{"status": change.To, "updatedAt": change.ChangedAt},
				"$push": bson.M{"statusHistory": change},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			count, countErr := s.orders.CountDocuments(sessCtx, bson.M{"_id": id})
			if countErr != nil {
				return nil, countErr
			}
			if count == 0 {
				return nil, orders.ErrNotFound
			}
			return nil, orders.ErrConflict
		}
		if err != nil {
			return nil, err
		}

		for _, adj := range stock.Reserve {
			if err := decrementStock(sessCtx, s.products, adj); err != nil {
				return nil, err
			}
		}
		for _, adj := range stock.Restock {
			if err := restoreStock(sessCtx, s.products, adj); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return models.Order{}, err
	}
	return updated, nil
}

func (s *OrderStore) ArchiveOrder(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.orders.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"isActive":  false,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return orders.ErrNotFound
	}
	return nil
}

func (s *OrderStore) UpdatePayment(ctx context.Context, id primitive.ObjectID, update orders.PaymentUpdate) (models.Order, error) {
	set := paymentSet(update)
	set["updatedAt"] = time.Now()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var order models.Order
	err := s.orders.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, orders.ErrNotFound
	}
	return order, err
}

func paymentSet(update orders.PaymentUpdate) bson.M {
	set := bson.M{}
	if update.Method != "" {
		set["paymentMethod"] = update.Method
	}
	if update.Status != "" {
		set["paymentStatus"] = update.Status
	}
	if update.GatewayOrderID != "" {
		set["paymentGatewayOrderId"] = update.GatewayOrderID
	}
	if update.PaymentID != "" {
		set["paymentId"] = update.PaymentID
	}
	return set
}
