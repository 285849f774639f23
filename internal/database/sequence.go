package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSequence keeps one counter document per key in the counters collection
// and increments it with a single atomic upsert.
type MongoSequence struct {
	coll *mongo.Collection
}

func NewMongoSequence(db *mongo.Database) *MongoSequence {
	return &MongoSequence{coll: db.Collection(countersCollection)}
}

func (s *MongoSequence) Next(ctx context.Context, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", key, err)
	}
	return doc.Seq, nil
}

// RedisSequence uses INCR on a per-key counter that expires after ttl, long
// enough to outlive the day it numbers.
type RedisSequence struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSequence(redisURL string) (*RedisSequence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisSequence{client: client, ttl: 48 * time.Hour}, nil
}

func (s *RedisSequence) Next(ctx context.Context, key string) (int64, error) {
	redisKey := "storefront:seq:" + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", redisKey, err)
	}
	return incr.Val(), nil
}

func (s *RedisSequence) Close() error {
	return s.client.Close()
}
