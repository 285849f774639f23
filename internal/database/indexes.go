package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureProductIndexes(db *mongo.Database) error {
	return ensureIndexes(db, productsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("status_active_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetName("category_index"),
		},
	})
}

func EnsureUserIndexes(db *mongo.Database) error {
	if err := ensureIndexes(db, usersCollection, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	}}); err != nil {
		return err
	}
	return ensureIndexes(db, refreshTokensCollection, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "tokenHash", Value: 1}},
		Options: options.Index().SetName("tokenHash_unique").SetUnique(true),
	}})
}

func EnsureOrderIndexes(db *mongo.Database) error {
	return ensureIndexes(db, ordersCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetName("orderNumber_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("userId_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "paymentStatus", Value: 1}},
			Options: options.Index().SetName("status_paymentStatus"),
		},
	})
}

func ensureIndexes(db *mongo.Database, collection string, indexModels []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Printf("[DB] [INFO] ensuring %d index(es) on %s", len(indexModels), collection)
	names, err := db.Collection(collection).Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		log.Printf("[DB] [ERROR] %s index error: %v", collection, err)
		return err
	}
	log.Printf("[DB] [INFO] %s indexes ready: %v", collection, names)
	return nil
}
