package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"storefront/internal/blob"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/orders"
	"storefront/internal/payments"
)

func main() {
	config.Load()
	env := config.AppEnv
	if env.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	client, err := database.Connect(env.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(env.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("⚠️ product index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("⚠️ user index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}

	var seq orders.Sequence = database.NewMongoSequence(db)
	if env.RedisURL != "" {
		redisSeq, err := database.NewRedisSequence(env.RedisURL)
		if err != nil {
			log.Fatal(err)
		}
		seq = redisSeq
		log.Println("order numbers allocated from redis")
	}

	catalog := database.NewCatalogStore(db)
	users := database.NewUserStore(db)

	var opts []orders.Option
	if env.PaymentsEnabled() {
		opts = append(opts, orders.WithGateway(payments.NewClient(env.PaymentAPIURL, env.PaymentKeyID, env.PaymentKeySecret)))
	} else {
		log.Println("online payments disabled: PAYMENT_KEY_ID/PAYMENT_KEY_SECRET not set")
	}

	svc := orders.NewService(
		catalog,
		database.NewOrderStore(db),
		orders.NewNumberGenerator(seq, nil),
		orders.Config{
			StatusGuard:    env.OrderStatusGuard,
			PriceTolerance: env.PriceTolerance,
			DeliveryWindow: env.DeliveryWindow,
		},
		opts...,
	)
	if !env.OrderStatusGuard {
		log.Println("⚠️ ORDER_STATUS_GUARD disabled: admins may set any order status")
	}

	blobs, err := blob.NewLocalStore(env.UploadDir, env.PublicBaseURL+"/public/uploads")
	if err != nil {
		log.Fatal(err)
	}

	if err := handlers.RegisterValidators(); err != nil {
		log.Fatal(err)
	}

	r := gin.Default()
	r.Static("/public", "./public")

	handlers.RegisterRoutes(r, handlers.Deps{
		Orders:   svc,
		Products: catalog,
		Accounts: users,
		Users:    users,
		Blobs:    blobs,
		Auth: handlers.AuthConfig{
			Secret:     env.JWTSecret,
			AccessTTL:  env.AccessTokenTTL,
			RefreshTTL: env.RefreshTokenTTL,
		},
		LegacyUserIDAuth:   env.LegacyUserIDAuth,
		OrderRatePerMinute: env.OrderRatePerMinute,
		PaymentKeyID:       env.PaymentKeyID,
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	})

	if err := r.Run(":" + env.Port); err != nil {
		log.Fatal(err)
	}
}
