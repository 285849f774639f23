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

// CatalogStore reads and writes products. It also carries the stock
// adjustments used inside order transactions.
type CatalogStore struct {
	coll *mongo.Collection
}

func NewCatalogStore(db *mongo.Database) *CatalogStore {
	return &CatalogStore{coll: db.Collection(productsCollection)}
}

type ProductFilter struct {
	Category string
	Search   string
	Status   string
	// PublicOnly restricts the listing to active, published products.
	PublicOnly bool
}

func (s *CatalogStore) FindProduct(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p models.Product
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, orders.ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, err
	}
	p.RefreshStockFlags()
	return p, nil
}

func (s *CatalogStore) ListProducts(ctx context.Context, filter ProductFilter, page orders.Page) ([]models.Product, int64, error) {
	query := bson.M{}
	if filter.PublicOnly {
		query["isActive"] = true
		query["status"] = models.ProductStatusPublished
	} else if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		pattern := regexp.QuoteMeta(filter.Search)
		query["$or"] = []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"brand": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().
		SetSkip(page.Skip()).
		SetLimit(page.Limit).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var (
		total    int64
		products []models.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.coll.CountDocuments(gctx, query)
		return err
	})
	g.Go(func() error {
		cursor, err := s.coll.Find(gctx, query, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(gctx)
		return cursor.All(gctx, &products)
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	for i := range products {
		products[i].RefreshStockFlags()
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, total, nil
}

func (s *CatalogStore) CreateProduct(ctx context.Context, p *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.coll.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = id
	}
	return nil
}

// ReplaceProduct writes the full product document. Existing orders keep their
// own snapshots, so edits never leak into order history.
func (s *CatalogStore) ReplaceProduct(ctx context.Context, p models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return orders.ErrProductNotFound
	}
	return nil
}

// ArchiveProduct is the catalog's soft delete.
func (s *CatalogStore) ArchiveProduct(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"isActive":  false,
		"status":    models.ProductStatusArchived,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return orders.ErrProductNotFound
	}
	return nil
}

// decrementStock takes quantity units from one size only if that many are
// available. A miss is translated into the most specific error.
func decrementStock(ctx context.Context, coll *mongo.Collection, adj orders.StockAdjustment) error {
	filter := bson.M{
		"_id":      adj.ProductID,
		"isActive": true,
		"status":   bson.M{"$ne": models.ProductStatusArchived},
		"sizes": bson.M{"$elemMatch": bson.M{
			"size":  adj.Size,
			"stock": bson.M{"$gte": adj.Quantity},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"sizes.$.stock": -adj.Quantity},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return explainStockMiss(ctx, coll, adj)
	}

	_, err = coll.UpdateOne(ctx,
		bson.M{"_id": adj.ProductID},
		bson.M{"$set": bson.M{"sizes.$[s].inStock": false}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"s.stock": bson.M{"$lte": 0}}},
		}),
	)
	return err
}

func restoreStock(ctx context.Context, coll *mongo.Collection, adj orders.StockAdjustment) error {
	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": adj.ProductID},
		bson.M{
			"$inc": bson.M{"sizes.$[s].stock": adj.Quantity},
			"$set": bson.M{"sizes.$[s].inStock": true, "updatedAt": time.Now()},
		},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"s.size": adj.Size}},
		}),
	)
	return err
}

func explainStockMiss(ctx context.Context, coll *mongo.Collection, adj orders.StockAdjustment) error {
	var p models.Product
	err := coll.FindOne(ctx, bson.M{"_id": adj.ProductID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return orders.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("reload product %s: %w", adj.ProductID.Hex(), err)
	}
	if !p.Available() {
		return &orders.ProductUnavailableError{ProductID: p.ID.Hex(), Title: p.Title}
	}
	available := 0
	if entry, ok := p.SizeStock(adj.Size); ok {
		available = entry.Stock
	}
	return &orders.InsufficientStockError{
		ProductID: adj.ProductID.Hex(),
		Title:     p.Title,
		Size:      adj.Size,
		Requested: adj.Quantity,
		Available: available,
	}
}
